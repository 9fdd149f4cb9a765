package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/storefront-next/internal/i18n"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

// CartLineItem 购物车行项目，Quantity 始终 >= 1
type CartLineItem struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	UnitPrice           models.Money  `json:"unit_price"`
	DiscountedUnitPrice *models.Money `json:"discounted_unit_price,omitempty"`
	Quantity            int           `json:"quantity"`
}

// EffectiveUnitPrice 有折后价时使用折后价
func (i CartLineItem) EffectiveUnitPrice() models.Money {
	if i.DiscountedUnitPrice != nil {
		return *i.DiscountedUnitPrice
	}
	return i.UnitPrice
}

// LineTotal 行小计
func (i CartLineItem) LineTotal() models.Money {
	return i.EffectiveUnitPrice().Times(i.Quantity)
}

// CartTotals 购物车合计，每次实时计算
type CartTotals struct {
	TotalItemCount int          `json:"total_item_count"`
	Subtotal       models.Money `json:"subtotal"`
	DiscountAmount models.Money `json:"discount_amount"`
	Total          models.Money `json:"total"`
}

// CartSnapshot 购物车持久化快照
type CartSnapshot struct {
	Items     []CartLineItem `json:"items"`
	PromoCode string         `json:"promo_code,omitempty"`
}

// PromoStatus 优惠码应用结果
type PromoStatus string

const (
	PromoApplied  PromoStatus = "applied"
	PromoRejected PromoStatus = "rejected"
	PromoEmpty    PromoStatus = "empty"
)

// PromoResult 优惠码应用结果
type PromoResult struct {
	Status  PromoStatus `json:"status"`
	Code    string      `json:"code,omitempty"`
	Percent string      `json:"percent,omitempty"`
}

// Message 返回本地化提示
func (r PromoResult) Message(locale string) string {
	switch r.Status {
	case PromoApplied:
		return i18n.Sprintf(locale, "cart.promo_applied", r.Code, r.Percent)
	case PromoRejected:
		return i18n.Sprintf(locale, "cart.promo_rejected", r.Code)
	default:
		return i18n.T(locale, "cart.promo_empty")
	}
}

// PromoCatalog 只读优惠码表，code 大小写不敏感
type PromoCatalog struct {
	codes map[string]decimal.Decimal
}

// NewPromoCatalog 创建优惠码表，折扣比例必须位于 [0,1)
func NewPromoCatalog(codes map[string]decimal.Decimal) (*PromoCatalog, error) {
	normalized := make(map[string]decimal.Decimal, len(codes))
	one := decimal.NewFromInt(1)
	for code, fraction := range codes {
		key := normalizePromoCode(code)
		if key == "" {
			continue
		}
		if fraction.IsNegative() || fraction.GreaterThanOrEqual(one) {
			return nil, fmt.Errorf("promo code %s: discount fraction %s out of range [0,1)", key, fraction.String())
		}
		normalized[key] = fraction
	}
	return &PromoCatalog{codes: normalized}, nil
}

// ParsePromoCodes 解析配置中的 code -> 比例字符串
func ParsePromoCodes(raw map[string]string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(raw))
	for code, value := range raw {
		fraction, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("promo code %s: %w", code, err)
		}
		out[normalizePromoCode(code)] = fraction
	}
	return out, nil
}

// Lookup 查找优惠码
func (c *PromoCatalog) Lookup(code string) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}
	fraction, ok := c.codes[normalizePromoCode(code)]
	return fraction, ok
}

// Len 优惠码数量
func (c *PromoCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.codes)
}

func normalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CartLedger 购物车账本：行项目、数量规则与优惠码折扣
type CartLedger struct {
	items     []CartLineItem
	catalog   *PromoCatalog
	promoCode string
	fraction  decimal.Decimal
}

// NewCartLedger 创建空购物车
func NewCartLedger(catalog *PromoCatalog) *CartLedger {
	return &CartLedger{catalog: catalog, fraction: decimal.Zero}
}

// RestoreCartLedger 从快照恢复，优惠码按当前优惠码表重新解析
func RestoreCartLedger(snapshot CartSnapshot, catalog *PromoCatalog) *CartLedger {
	l := NewCartLedger(catalog)
	for _, item := range snapshot.Items {
		if item.Quantity < 1 {
			continue
		}
		l.items = append(l.items, normalizeLineItem(item, item.Quantity))
	}
	if fraction, ok := catalog.Lookup(snapshot.PromoCode); ok {
		l.promoCode = normalizePromoCode(snapshot.PromoCode)
		l.fraction = fraction
	}
	return l
}

// Snapshot 导出快照
func (l *CartLedger) Snapshot() CartSnapshot {
	return CartSnapshot{Items: l.Items(), PromoCode: l.promoCode}
}

// Items 返回行项目副本
func (l *CartLedger) Items() []CartLineItem {
	out := make([]CartLineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Item 按 ID 获取行项目
func (l *CartLedger) Item(id string) (CartLineItem, bool) {
	if idx := l.indexOf(id); idx >= 0 {
		return l.items[idx], true
	}
	return CartLineItem{}, false
}

// AppliedPromoCode 当前生效的优惠码
func (l *CartLedger) AppliedPromoCode() string {
	return l.promoCode
}

// AddItem 已存在则数量 +1，否则以数量 1 追加
func (l *CartLedger) AddItem(item CartLineItem) {
	if idx := l.indexOf(item.ID); idx >= 0 {
		l.items[idx].Quantity++
		return
	}
	l.items = append(l.items, normalizeLineItem(item, 1))
}

// Merge 合并另一购物车的行项目，相同商品数量累加
func (l *CartLedger) Merge(items []CartLineItem) {
	for _, item := range items {
		if item.Quantity < 1 {
			continue
		}
		if idx := l.indexOf(item.ID); idx >= 0 {
			l.items[idx].Quantity += item.Quantity
			continue
		}
		l.items = append(l.items, normalizeLineItem(item, item.Quantity))
	}
}

// RemoveItem 删除行项目，不存在时忽略
func (l *CartLedger) RemoveItem(id string) {
	idx := l.indexOf(id)
	if idx < 0 {
		return
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
}

// SetQuantity 设置数量；NaN、无穷与非整数按 1 处理，小于 1 时删除
func (l *CartLedger) SetQuantity(id string, quantity float64) {
	idx := l.indexOf(id)
	if idx < 0 {
		return
	}
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity != math.Trunc(quantity) {
		quantity = 1
	}
	if quantity < 1 {
		l.RemoveItem(id)
		return
	}
	if quantity > math.MaxInt32 {
		quantity = math.MaxInt32
	}
	l.items[idx].Quantity = int(quantity)
}

// IncrementQuantity 数量 +1
func (l *CartLedger) IncrementQuantity(id string) {
	if idx := l.indexOf(id); idx >= 0 {
		l.items[idx].Quantity++
	}
}

// DecrementQuantity 数量 -1，最低为 1
func (l *CartLedger) DecrementQuantity(id string) {
	if idx := l.indexOf(id); idx >= 0 && l.items[idx].Quantity > 1 {
		l.items[idx].Quantity--
	}
}

// Clear 清空行项目
func (l *CartLedger) Clear() {
	l.items = nil
}

// ApplyPromoCode 应用优惠码，未知 code 会清除当前折扣，空输入不改变状态
func (l *CartLedger) ApplyPromoCode(code string) PromoResult {
	normalized := normalizePromoCode(code)
	if normalized == "" {
		return PromoResult{Status: PromoEmpty}
	}
	fraction, ok := l.catalog.Lookup(normalized)
	if !ok {
		l.RemovePromoCode()
		return PromoResult{Status: PromoRejected, Code: normalized}
	}
	l.promoCode = normalized
	l.fraction = fraction
	return PromoResult{
		Status:  PromoApplied,
		Code:    normalized,
		Percent: fraction.Mul(decimal.NewFromInt(100)).String(),
	}
}

// RemovePromoCode 清除优惠码
func (l *CartLedger) RemovePromoCode() {
	l.promoCode = ""
	l.fraction = decimal.Zero
}

// Totals 实时计算合计，金额保留 2 位小数
func (l *CartLedger) Totals() CartTotals {
	count := 0
	subtotal := models.ZeroMoney()
	for _, item := range l.items {
		count += item.Quantity
		subtotal = subtotal.Plus(item.LineTotal())
	}
	discount := models.NewMoneyFromDecimal(subtotal.Decimal.Mul(l.fraction))
	return CartTotals{
		TotalItemCount: count,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          subtotal.Minus(discount),
	}
}

func (l *CartLedger) indexOf(id string) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizeLineItem(item CartLineItem, quantity int) CartLineItem {
	item.Quantity = quantity
	if item.DiscountedUnitPrice != nil {
		discounted := *item.DiscountedUnitPrice
		if discounted.GreaterThan(item.UnitPrice.Decimal) {
			discounted = item.UnitPrice
		}
		item.DiscountedUnitPrice = &discounted
	}
	return item
}

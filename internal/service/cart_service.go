package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/commerce"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	cartLockStripes      = 64
	defaultCartCacheTTL  = 5 * time.Minute
	defaultGuestCartTTL  = 72 * time.Hour
	cartExpireGraceDelay = time.Minute
)

// CartOwner 购物车归属
type CartOwner struct {
	Key        string
	CustomerID string
	GuestToken string
}

// IsGuest 是否游客购物车
func (o CartOwner) IsGuest() bool {
	return o.GuestToken != ""
}

// CustomerCartOwner 登录顾客的购物车
func CustomerCartOwner(customerID string) CartOwner {
	return CartOwner{Key: constants.CartOwnerCustomerPrefix + customerID, CustomerID: customerID}
}

// GuestCartOwner 游客购物车，token 必须为 UUID
func GuestCartOwner(token string) (CartOwner, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return CartOwner{}, ErrCartTokenInvalid
	}
	normalized := parsed.String()
	return CartOwner{Key: constants.CartOwnerGuestPrefix + normalized, GuestToken: normalized}, nil
}

// NewGuestCartOwner 生成新的游客购物车
func NewGuestCartOwner() CartOwner {
	owner, _ := GuestCartOwner(uuid.NewString())
	return owner
}

// CartView 购物车响应
type CartView struct {
	Items     []CartLineItem `json:"items"`
	PromoCode string         `json:"promo_code,omitempty"`
	Totals    CartTotals     `json:"totals"`
	CartToken string         `json:"cart_token,omitempty"`
}

// AddCartItemInput 加购输入
type AddCartItemInput struct {
	ProductID string
	Quantity  int
	Locale    string
}

// CartService 购物车服务：账本持久化、缓存与游客购物车过期
type CartService struct {
	cfg      config.CartConfig
	repo     repository.CartRepository
	commerce commerce.Client
	catalog  *PromoCatalog
	queue    *queue.Client

	group singleflight.Group
	locks [cartLockStripes]sync.Mutex
	now   func() time.Time
}

// NewCartService 创建购物车服务
func NewCartService(cfg config.CartConfig, repo repository.CartRepository, client commerce.Client, catalog *PromoCatalog, queueClient *queue.Client) *CartService {
	return &CartService{
		cfg:      cfg,
		repo:     repo,
		commerce: client,
		catalog:  catalog,
		queue:    queueClient,
		now:      time.Now,
	}
}

// BuildPromoCatalog 合并配置与数据库中的优惠码，数据库记录覆盖同名配置
func BuildPromoCatalog(cfg config.CartConfig, repo repository.PromoCodeRepository) (*PromoCatalog, error) {
	codes, err := ParsePromoCodes(cfg.PromoCodes)
	if err != nil {
		return nil, err
	}
	if repo != nil {
		rows, err := repo.ListActive()
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			codes[normalizePromoCode(row.Code)] = row.DiscountFraction
		}
	}
	return NewPromoCatalog(codes)
}

// Catalog 当前优惠码表
func (s *CartService) Catalog() *PromoCatalog {
	return s.catalog
}

// Get 获取购物车
func (s *CartService) Get(ctx context.Context, owner CartOwner) (*CartView, error) {
	ledger, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.view(owner, ledger), nil
}

// AddItem 加购，已存在的商品累加数量
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, input AddCartItemInput) (*CartView, error) {
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	product, err := s.fetchProduct(ctx, input.ProductID, input.Locale)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, func(l *CartLedger) error {
		existing, exists := l.Item(product.ID)
		if !exists && s.cfg.MaxLineItems > 0 && len(l.Items()) >= s.cfg.MaxLineItems {
			return ErrCartLimitExceeded
		}
		target := quantity
		if exists {
			target += existing.Quantity
		}
		if err := s.checkQuantity(target); err != nil {
			return err
		}
		l.AddItem(CartLineItem{
			ID:                  product.ID,
			Name:                product.Name,
			UnitPrice:           product.Price,
			DiscountedUnitPrice: product.DiscountedPrice,
		})
		if target > 1 {
			l.SetQuantity(product.ID, float64(target))
		}
		return nil
	})
}

// RemoveItem 删除行项目
func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, productID string) (*CartView, error) {
	return s.mutate(ctx, owner, func(l *CartLedger) error {
		l.RemoveItem(productID)
		return nil
	})
}

// SetQuantity 设置数量，小于 1 时删除
func (s *CartService) SetQuantity(ctx context.Context, owner CartOwner, productID string, quantity float64) (*CartView, error) {
	return s.mutate(ctx, owner, func(l *CartLedger) error {
		// 在浮点域比较，避免超大数值转 int 溢出绕过上限；非整数由账本按 1 处理
		if limit := s.cfg.MaxQuantityPerItem; limit > 0 && quantity == math.Trunc(quantity) && quantity > float64(limit) {
			return ErrCartQuantityExceeded
		}
		l.SetQuantity(productID, quantity)
		return nil
	})
}

// IncrementQuantity 数量加一
func (s *CartService) IncrementQuantity(ctx context.Context, owner CartOwner, productID string) (*CartView, error) {
	return s.mutate(ctx, owner, func(l *CartLedger) error {
		if item, ok := l.Item(productID); ok {
			if err := s.checkQuantity(item.Quantity + 1); err != nil {
				return err
			}
		}
		l.IncrementQuantity(productID)
		return nil
	})
}

// DecrementQuantity 数量减一，最小为 1
func (s *CartService) DecrementQuantity(ctx context.Context, owner CartOwner, productID string) (*CartView, error) {
	return s.mutate(ctx, owner, func(l *CartLedger) error {
		l.DecrementQuantity(productID)
		return nil
	})
}

// Clear 清空行项目，保留已应用的优惠码
func (s *CartService) Clear(ctx context.Context, owner CartOwner) (*CartView, error) {
	return s.mutate(ctx, owner, func(l *CartLedger) error {
		l.Clear()
		return nil
	})
}

// ApplyPromoCode 应用优惠码
func (s *CartService) ApplyPromoCode(ctx context.Context, owner CartOwner, code string) (*CartView, PromoResult, error) {
	var result PromoResult
	view, err := s.mutate(ctx, owner, func(l *CartLedger) error {
		result = l.ApplyPromoCode(code)
		return nil
	})
	if err != nil {
		return nil, PromoResult{}, err
	}
	logger.Ctx(ctx).Infow("cart_promo_code_applied",
		"owner", owner.Key,
		"code", result.Code,
		"status", string(result.Status),
	)
	return view, result, nil
}

// RemovePromoCode 移除优惠码
func (s *CartService) RemovePromoCode(ctx context.Context, owner CartOwner) (*CartView, error) {
	return s.mutate(ctx, owner, func(l *CartLedger) error {
		l.RemovePromoCode()
		return nil
	})
}

// MergeGuestCart 登录后把游客购物车并入顾客购物车并删除游客购物车
func (s *CartService) MergeGuestCart(ctx context.Context, guest CartOwner, customerID string) error {
	if !guest.IsGuest() || customerID == "" {
		return nil
	}
	guestLedger, err := s.load(ctx, guest)
	if err != nil {
		return err
	}
	if len(guestLedger.Items()) == 0 && guestLedger.AppliedPromoCode() == "" {
		return nil
	}

	customer := CustomerCartOwner(customerID)
	_, err = s.mutate(ctx, customer, func(l *CartLedger) error {
		l.Merge(guestLedger.Items())
		if limit := s.cfg.MaxQuantityPerItem; limit > 0 {
			for _, item := range l.Items() {
				if item.Quantity > limit {
					l.SetQuantity(item.ID, float64(limit))
				}
			}
		}
		if l.AppliedPromoCode() == "" && guestLedger.AppliedPromoCode() != "" {
			l.ApplyPromoCode(guestLedger.AppliedPromoCode())
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.repo.Delete(guest.Key); err != nil {
		logger.Ctx(ctx).Warnw("guest_cart_delete_failed", "owner", guest.Key, "error", err)
	}
	s.dropCache(ctx, guest.Key)
	logger.Ctx(ctx).Infow("guest_cart_merged",
		"guest_owner", guest.Key,
		"customer_id", customerID,
		"line_items", len(guestLedger.Items()),
	)
	return nil
}

// ExpireCart 删除已过期的游客购物车
func (s *CartService) ExpireCart(ctx context.Context, ownerKey string) (bool, error) {
	lock := s.lockFor(ownerKey)
	lock.Lock()
	defer lock.Unlock()

	deleted, err := s.repo.DeleteIfExpired(ownerKey, s.now())
	if err != nil {
		return false, err
	}
	if deleted {
		s.dropCache(ctx, ownerKey)
	}
	return deleted, nil
}

// SweepExpiredCarts 批量清理过期游客购物车，用于补偿丢失的过期任务
func (s *CartService) SweepExpiredCarts(ctx context.Context, batch int) (int, error) {
	owners, err := s.repo.ListExpiredOwners(s.now(), batch)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, owner := range owners {
		deleted, err := s.ExpireCart(ctx, owner)
		if err != nil {
			return removed, err
		}
		if deleted {
			removed++
		}
	}
	return removed, nil
}

func (s *CartService) mutate(ctx context.Context, owner CartOwner, fn func(*CartLedger) error) (*CartView, error) {
	lock := s.lockFor(owner.Key)
	lock.Lock()
	defer lock.Unlock()

	ledger, err := s.loadStored(owner)
	if err != nil {
		return nil, err
	}
	if err := fn(ledger); err != nil {
		return nil, err
	}
	if err := s.save(ctx, owner, ledger); err != nil {
		return nil, err
	}
	return s.view(owner, ledger), nil
}

func (s *CartService) load(ctx context.Context, owner CartOwner) (*CartLedger, error) {
	var snapshot CartSnapshot
	hit, err := cache.GetJSON(ctx, cartCacheKey(owner.Key), &snapshot)
	if err != nil {
		logger.Ctx(ctx).Warnw("cart_cache_read_failed", "owner", owner.Key, "error", err)
	}
	if hit {
		return RestoreCartLedger(snapshot, s.catalog), nil
	}

	result, err, _ := s.group.Do(owner.Key, func() (interface{}, error) {
		session, rows, err := s.repo.Load(owner.Key)
		if err != nil {
			return nil, err
		}
		loaded := snapshotFromRows(session, rows)
		// 读路径不持有购物车锁，只回填空缓存，不覆盖写路径刚写入的快照
		if _, err := cache.SetJSONIfAbsent(ctx, cartCacheKey(owner.Key), loaded, s.cacheTTL()); err != nil {
			logger.Ctx(ctx).Warnw("cart_cache_write_failed", "owner", owner.Key, "error", err)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartFetchFailed, err)
	}
	return RestoreCartLedger(result.(CartSnapshot), s.catalog), nil
}

// loadStored 在持有购物车锁时直接读库，写路径不以缓存为准
func (s *CartService) loadStored(owner CartOwner) (*CartLedger, error) {
	session, rows, err := s.repo.Load(owner.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartFetchFailed, err)
	}
	return RestoreCartLedger(snapshotFromRows(session, rows), s.catalog), nil
}

func (s *CartService) save(ctx context.Context, owner CartOwner, ledger *CartLedger) error {
	snapshot := ledger.Snapshot()
	session := &models.CartSession{OwnerKey: owner.Key, PromoCode: snapshot.PromoCode}
	var ttl time.Duration
	if owner.IsGuest() {
		ttl = s.guestTTL()
		expiresAt := s.now().Add(ttl)
		session.ExpiresAt = &expiresAt
	}
	if err := s.repo.Save(session, rowsFromSnapshot(owner.Key, snapshot)); err != nil {
		return fmt.Errorf("%w: %v", ErrCartUpdateFailed, err)
	}
	if err := cache.SetJSON(ctx, cartCacheKey(owner.Key), snapshot, s.cacheTTL()); err != nil {
		logger.Ctx(ctx).Warnw("cart_cache_write_failed", "owner", owner.Key, "error", err)
		s.dropCache(ctx, owner.Key)
	}
	if owner.IsGuest() {
		if err := s.queue.EnqueueCartExpire(queue.CartExpirePayload{OwnerKey: owner.Key}, ttl+cartExpireGraceDelay); err != nil {
			logger.Ctx(ctx).Warnw("cart_expire_enqueue_failed", "owner", owner.Key, "error", err)
		}
	}
	return nil
}

func (s *CartService) view(owner CartOwner, ledger *CartLedger) *CartView {
	return &CartView{
		Items:     ledger.Items(),
		PromoCode: ledger.AppliedPromoCode(),
		Totals:    ledger.Totals(),
		CartToken: owner.GuestToken,
	}
}

func (s *CartService) fetchProduct(ctx context.Context, productID, locale string) (*commerce.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrProductNotFound
	}
	product, err := s.commerce.GetProduct(ctx, productID, locale)
	if err != nil {
		switch {
		case errors.Is(err, commerce.ErrProductNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, commerce.ErrUnavailable):
			return nil, ErrCommerceUnavailable
		default:
			return nil, fmt.Errorf("%w: %v", ErrProductFetchFailed, err)
		}
	}
	return product, nil
}

func (s *CartService) checkQuantity(quantity int) error {
	if s.cfg.MaxQuantityPerItem > 0 && quantity > s.cfg.MaxQuantityPerItem {
		return ErrCartQuantityExceeded
	}
	return nil
}

func (s *CartService) lockFor(ownerKey string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ownerKey))
	return &s.locks[h.Sum32()%cartLockStripes]
}

func (s *CartService) dropCache(ctx context.Context, ownerKey string) {
	if err := cache.Del(ctx, cartCacheKey(ownerKey)); err != nil {
		logger.Ctx(ctx).Warnw("cart_cache_delete_failed", "owner", ownerKey, "error", err)
	}
}

func (s *CartService) cacheTTL() time.Duration {
	if s.cfg.CacheTTLSeconds > 0 {
		return time.Duration(s.cfg.CacheTTLSeconds) * time.Second
	}
	return defaultCartCacheTTL
}

func (s *CartService) guestTTL() time.Duration {
	if s.cfg.GuestTTLHours > 0 {
		return time.Duration(s.cfg.GuestTTLHours) * time.Hour
	}
	return defaultGuestCartTTL
}

func cartCacheKey(ownerKey string) string {
	return "cart:" + ownerKey
}

func snapshotFromRows(session *models.CartSession, rows []models.CartLineItem) CartSnapshot {
	snapshot := CartSnapshot{Items: make([]CartLineItem, 0, len(rows))}
	if session != nil {
		snapshot.PromoCode = session.PromoCode
	}
	for _, row := range rows {
		item := CartLineItem{
			ID:        row.ProductID,
			Name:      row.Name,
			UnitPrice: row.UnitPrice,
			Quantity:  row.Quantity,
		}
		if row.HasDiscount {
			discounted := row.DiscountedUnitPrice
			item.DiscountedUnitPrice = &discounted
		}
		snapshot.Items = append(snapshot.Items, item)
	}
	return snapshot
}

func rowsFromSnapshot(ownerKey string, snapshot CartSnapshot) []models.CartLineItem {
	rows := make([]models.CartLineItem, 0, len(snapshot.Items))
	for i, item := range snapshot.Items {
		row := models.CartLineItem{
			OwnerKey:            ownerKey,
			ProductID:           item.ID,
			Name:                item.Name,
			UnitPrice:           item.UnitPrice,
			DiscountedUnitPrice: models.ZeroMoney(),
			Quantity:            item.Quantity,
			Position:            i,
		}
		if item.DiscountedUnitPrice != nil {
			row.DiscountedUnitPrice = *item.DiscountedUnitPrice
			row.HasDiscount = true
		}
		rows = append(rows, row)
	}
	return rows
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode 优惠码，按比例折扣购物车小计
type PromoCode struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	Code             string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"` // 大写存储
	DiscountFraction decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"discount_fraction"`
	Description      string          `gorm:"type:varchar(255)" json:"description"`
	IsActive         bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName 指定表名
func (PromoCode) TableName() string {
	return "promo_codes"
}

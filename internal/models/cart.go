package models

import (
	"time"
)

// CartSession 购物车会话，owner_key 为 customer:<id> 或 guest:<token>
type CartSession struct {
	OwnerKey  string     `gorm:"type:varchar(80);primarykey" json:"owner_key"`
	PromoCode string     `gorm:"type:varchar(64)" json:"promo_code"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"` // 访客购物车过期时间，顾客购物车为空
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (CartSession) TableName() string {
	return "cart_sessions"
}

// CartLineItem 购物车行项目
type CartLineItem struct {
	ID                  uint   `gorm:"primarykey" json:"id"`
	OwnerKey            string `gorm:"type:varchar(80);not null;uniqueIndex:idx_cart_owner_product" json:"owner_key"`
	ProductID           string `gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_owner_product" json:"product_id"`
	Name                string `gorm:"type:varchar(255)" json:"name"`
	UnitPrice           Money  `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	DiscountedUnitPrice Money  `gorm:"type:decimal(20,2);not null;default:0" json:"discounted_unit_price"`
	HasDiscount         bool   `gorm:"not null;default:false" json:"has_discount"`
	Quantity            int    `gorm:"not null" json:"quantity"`
	Position            int    `gorm:"not null;default:0" json:"position"`
}

// TableName 指定表名
func (CartLineItem) TableName() string {
	return "cart_line_items"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品
type Product struct {
	ID                    uint           `gorm:"primarykey" json:"id"`
	CategoryID            uint           `gorm:"not null;index" json:"category_id"`
	Slug                  string         `gorm:"uniqueIndex;not null" json:"slug"`
	TitleJSON             JSON           `gorm:"type:json;not null" json:"title"`
	DescriptionJSON       JSON           `gorm:"type:json" json:"description"`
	PriceAmount           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`
	DiscountedPriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discounted_price_amount"`
	HasDiscount           bool           `gorm:"not null;default:false" json:"has_discount"` // 是否存在折后价
	Images                StringArray    `gorm:"type:json" json:"images"`
	IsActive              bool           `gorm:"default:true;index" json:"is_active"`
	SortOrder             int            `gorm:"default:0;index" json:"sort_order"`
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

package repository

import (
	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// PromoCodeRepository 优惠码数据访问接口
type PromoCodeRepository interface {
	ListActive() ([]models.PromoCode, error)
}

// GormPromoCodeRepository GORM 实现
type GormPromoCodeRepository struct {
	db *gorm.DB
}

// NewPromoCodeRepository 创建优惠码仓库
func NewPromoCodeRepository(db *gorm.DB) *GormPromoCodeRepository {
	return &GormPromoCodeRepository{db: db}
}

// ListActive 启用中的优惠码
func (r *GormPromoCodeRepository) ListActive() ([]models.PromoCode, error) {
	var codes []models.PromoCode
	if err := r.db.Where("is_active = ?", true).Order("code ASC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

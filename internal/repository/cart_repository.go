package repository

import (
	"time"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	Load(ownerKey string) (*models.CartSession, []models.CartLineItem, error)
	Save(session *models.CartSession, items []models.CartLineItem) error
	Delete(ownerKey string) error
	DeleteIfExpired(ownerKey string, now time.Time) (bool, error)
	ListExpiredOwners(now time.Time, limit int) ([]string, error)
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// Load 读取购物车会话与行项目，会话不存在时返回 nil
func (r *GormCartRepository) Load(ownerKey string) (*models.CartSession, []models.CartLineItem, error) {
	var session models.CartSession
	// 未命中是常态，Find 不会产生 record not found 日志
	result := r.db.Where("owner_key = ?", ownerKey).Limit(1).Find(&session)
	if result.Error != nil {
		return nil, nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil, nil
	}
	var items []models.CartLineItem
	if err := r.db.Where("owner_key = ?", ownerKey).Order("position ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &session, items, nil
}

// Save 整体写入购物车：upsert 会话并替换全部行项目
func (r *GormCartRepository) Save(session *models.CartSession, items []models.CartLineItem) error {
	if session == nil {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"promo_code", "expires_at", "updated_at"}),
		}).Create(session).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_key = ?", session.OwnerKey).Delete(&models.CartLineItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].OwnerKey = session.OwnerKey
			items[i].Position = i
		}
		return tx.Create(&items).Error
	})
}

// Delete 删除购物车
func (r *GormCartRepository) Delete(ownerKey string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_key = ?", ownerKey).Delete(&models.CartLineItem{}).Error; err != nil {
			return err
		}
		return tx.Where("owner_key = ?", ownerKey).Delete(&models.CartSession{}).Error
	})
}

// DeleteIfExpired 会话已过期时删除，返回是否删除
func (r *GormCartRepository) DeleteIfExpired(ownerKey string, now time.Time) (bool, error) {
	deleted := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("owner_key = ? AND expires_at IS NOT NULL AND expires_at <= ?", ownerKey, now).
			Delete(&models.CartSession{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("owner_key = ?", ownerKey).Delete(&models.CartLineItem{}).Error
	})
	return deleted, err
}

// ListExpiredOwners 列出已过期的会话 owner_key
func (r *GormCartRepository) ListExpiredOwners(now time.Time, limit int) ([]string, error) {
	var owners []string
	query := r.db.Model(&models.CartSession{}).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("owner_key", &owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}

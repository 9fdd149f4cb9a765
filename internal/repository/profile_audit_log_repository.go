package repository

import (
	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// ProfileAuditLogRepository 资料审计数据访问接口
type ProfileAuditLogRepository interface {
	Create(log *models.ProfileAuditLog) error
	ListByCustomer(customerID string, limit int) ([]models.ProfileAuditLog, error)
}

// GormProfileAuditLogRepository GORM 实现
type GormProfileAuditLogRepository struct {
	db *gorm.DB
}

// NewProfileAuditLogRepository 创建审计仓库
func NewProfileAuditLogRepository(db *gorm.DB) *GormProfileAuditLogRepository {
	return &GormProfileAuditLogRepository{db: db}
}

// Create 写入审计记录
func (r *GormProfileAuditLogRepository) Create(log *models.ProfileAuditLog) error {
	return r.db.Create(log).Error
}

// ListByCustomer 最近的审计记录
func (r *GormProfileAuditLogRepository) ListByCustomer(customerID string, limit int) ([]models.ProfileAuditLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []models.ProfileAuditLog
	if err := r.db.Where("customer_id = ?", customerID).Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

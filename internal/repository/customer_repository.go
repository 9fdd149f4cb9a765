package repository

import (
	"errors"
	"strings"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// ErrStaleVersion 版本号不匹配，记录已被其他请求修改
var ErrStaleVersion = errors.New("stale customer version")

// CustomerRepository 顾客数据访问接口
type CustomerRepository interface {
	GetByID(id string) (*models.Customer, error)
	GetByEmail(email string) (*models.Customer, error)
	Create(customer *models.Customer) error
	SaveVersioned(id string, update CustomerUpdate, addresses []models.CustomerAddress) error
}

// GormCustomerRepository GORM 实现
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建顾客仓库
func NewCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCustomerRepository) WithTx(tx *gorm.DB) *GormCustomerRepository {
	if tx == nil {
		return r
	}
	return &GormCustomerRepository{db: tx}
}

func (r *GormCustomerRepository) withAddresses() *gorm.DB {
	return r.db.Preload("Addresses", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// GetByID 根据 ID 获取顾客，不存在返回 nil
func (r *GormCustomerRepository) GetByID(id string) (*models.Customer, error) {
	var customer models.Customer
	result := r.withAddresses().Where("id = ?", id).Limit(1).Find(&customer)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &customer, nil
}

// GetByEmail 根据邮箱获取顾客，邮箱大小写不敏感
func (r *GormCustomerRepository) GetByEmail(email string) (*models.Customer, error) {
	var customer models.Customer
	normalized := strings.ToLower(strings.TrimSpace(email))
	result := r.withAddresses().Where("LOWER(email) = ?", normalized).Limit(1).Find(&customer)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &customer, nil
}

// Create 创建顾客及其地址
func (r *GormCustomerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

// SaveVersioned 在事务内按版本号更新顾客并整体替换地址，版本不匹配返回 ErrStaleVersion
func (r *GormCustomerRepository) SaveVersioned(id string, update CustomerUpdate, addresses []models.CustomerAddress) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Customer{}).
			Where("id = ? AND version = ?", id, update.ExpectedVersion).
			Updates(map[string]interface{}{
				"first_name":                  update.FirstName,
				"last_name":                   update.LastName,
				"email":                       update.Email,
				"date_of_birth":               update.DateOfBirth,
				"default_shipping_address_id": update.DefaultShipping,
				"default_billing_address_id":  update.DefaultBilling,
				"version":                     gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleVersion
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.CustomerAddress{}).Error; err != nil {
			return err
		}
		if len(addresses) == 0 {
			return nil
		}
		for i := range addresses {
			addresses[i].CustomerID = id
			addresses[i].Position = i
		}
		return tx.Create(&addresses).Error
	})
}

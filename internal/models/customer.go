package models

import (
	"time"
)

// Customer 本地商务后端的顾客
type Customer struct {
	ID                       string    `gorm:"type:varchar(36);primarykey" json:"id"`
	Email                    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash             string    `gorm:"not null" json:"-"`
	FirstName                string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName                 string    `gorm:"type:varchar(100)" json:"last_name"`
	DateOfBirth              string    `gorm:"type:varchar(10)" json:"date_of_birth"` // YYYY-MM-DD
	DefaultShippingAddressID string    `gorm:"type:varchar(36)" json:"default_shipping_address_id"`
	DefaultBillingAddressID  string    `gorm:"type:varchar(36)" json:"default_billing_address_id"`
	Version                  int64     `gorm:"not null;default:1" json:"version"` // 乐观锁版本
	CreatedAt                time.Time `gorm:"index" json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`

	Addresses []CustomerAddress `gorm:"foreignKey:CustomerID" json:"addresses"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// CustomerAddress 顾客地址
type CustomerAddress struct {
	ID         string `gorm:"type:varchar(36);primarykey" json:"id"`
	CustomerID string `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	Position   int    `gorm:"not null;default:0" json:"position"` // 保持地址顺序
	StreetName string `gorm:"type:varchar(255)" json:"street_name"`
	PostalCode string `gorm:"type:varchar(32)" json:"postal_code"`
	City       string `gorm:"type:varchar(128)" json:"city"`
	Country    string `gorm:"type:varchar(2)" json:"country"`
	State      string `gorm:"type:varchar(128)" json:"state"`
}

// TableName 指定表名
func (CustomerAddress) TableName() string {
	return "customer_addresses"
}

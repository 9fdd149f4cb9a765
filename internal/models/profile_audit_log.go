package models

import "time"

// ProfileAuditLog 顾客资料变更审计
type ProfileAuditLog struct {
	ID         uint        `gorm:"primarykey" json:"id"`
	CustomerID string      `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	Version    int64       `gorm:"not null" json:"version"`
	Actions    StringArray `gorm:"type:json" json:"actions"`
	RequestID  string      `gorm:"type:varchar(64)" json:"request_id"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (ProfileAuditLog) TableName() string {
	return "profile_audit_logs"
}

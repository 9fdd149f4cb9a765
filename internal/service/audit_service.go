package service

import (
	"context"
	"strings"
	"time"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
)

// ProfileAuditService 顾客资料变更审计
type ProfileAuditService struct {
	repo repository.ProfileAuditLogRepository
}

// NewProfileAuditService 创建审计服务
func NewProfileAuditService(repo repository.ProfileAuditLogRepository) *ProfileAuditService {
	return &ProfileAuditService{repo: repo}
}

// Record 写入审计记录
func (s *ProfileAuditService) Record(ctx context.Context, payload queue.ProfileAuditPayload) error {
	if s == nil || s.repo == nil || strings.TrimSpace(payload.CustomerID) == "" {
		return nil
	}
	occurredAt := payload.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	entry := &models.ProfileAuditLog{
		CustomerID: payload.CustomerID,
		Version:    payload.Version,
		Actions:    models.StringArray(payload.Actions),
		RequestID:  payload.RequestID,
		CreatedAt:  occurredAt,
	}
	if err := s.repo.Create(entry); err != nil {
		logger.Ctx(ctx).Warnw("profile_audit_write_failed",
			"customer_id", payload.CustomerID,
			"version", payload.Version,
			"error", err,
		)
		return err
	}
	return nil
}

// List 最近的审计记录
func (s *ProfileAuditService) List(customerID string, limit int) ([]models.ProfileAuditLog, error) {
	return s.repo.ListByCustomer(customerID, limit)
}

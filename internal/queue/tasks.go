package queue

import (
	"encoding/json"
	"time"

	"github.com/storefront-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCartExpire 游客购物车过期清理任务
	TaskCartExpire = constants.TaskCartExpire
	// TaskProfileAudit 顾客资料变更审计任务
	TaskProfileAudit = constants.TaskProfileAudit
)

// CartExpirePayload 购物车过期任务载荷
type CartExpirePayload struct {
	OwnerKey string `json:"owner_key"`
}

// ProfileAuditPayload 资料审计任务载荷
type ProfileAuditPayload struct {
	CustomerID string    `json:"customer_id"`
	Version    int64     `json:"version"`
	Actions    []string  `json:"actions"`
	RequestID  string    `json:"request_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewCartExpireTask 创建购物车过期任务
func NewCartExpireTask(payload CartExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartExpire, body), nil
}

// NewProfileAuditTask 创建资料审计任务
func NewProfileAuditTask(payload ProfileAuditPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProfileAudit, body), nil
}

package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCartExpire, c.handleCartExpire)
	mux.HandleFunc(queue.TaskProfileAudit, c.handleProfileAudit)
}

func (c *Consumer) handleCartExpire(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.CartService == nil {
		logger.Debugw("worker_cart_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CartExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_cart_expire_unmarshal_failed", "error", err)
		return err
	}
	ownerKey := strings.TrimSpace(payload.OwnerKey)
	if ownerKey == "" {
		logger.Debugw("worker_cart_expire_skip_invalid_payload")
		return nil
	}
	deleted, err := c.CartService.ExpireCart(ctx, ownerKey)
	if err != nil {
		logger.Warnw("worker_cart_expire_failed", "owner", ownerKey, "error", err)
		return err
	}
	if !deleted {
		// 购物车已续期或已删除
		logger.Debugw("worker_cart_expire_skip_not_due", "owner", ownerKey)
		return nil
	}
	logger.Infow("worker_cart_expired", "owner", ownerKey)
	return nil
}

func (c *Consumer) handleProfileAudit(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.ProfileAuditService == nil {
		logger.Debugw("worker_profile_audit_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ProfileAuditPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_profile_audit_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.CustomerID) == "" || len(payload.Actions) == 0 {
		logger.Debugw("worker_profile_audit_skip_invalid_payload", "customer_id", payload.CustomerID)
		return nil
	}
	ctx = logger.WithRequestID(ctx, payload.RequestID)
	return c.ProfileAuditService.Record(ctx, payload)
}

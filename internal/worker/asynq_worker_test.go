package worker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func newTestConsumer(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}

	c := &provider.Container{
		Config:              &config.Config{},
		CartRepo:            repository.NewCartRepository(db),
		ProfileAuditLogRepo: repository.NewProfileAuditLogRepository(db),
	}
	catalog, err := service.NewPromoCatalog(nil)
	if err != nil {
		t.Fatalf("new promo catalog failed: %v", err)
	}
	c.CartService = service.NewCartService(c.Config.Cart, c.CartRepo, nil, catalog, nil)
	c.ProfileAuditService = service.NewProfileAuditService(c.ProfileAuditLogRepo)
	return NewConsumer(c), db
}

func saveGuestCart(t *testing.T, repo repository.CartRepository, ownerKey string, expiresAt time.Time) {
	t.Helper()
	session := &models.CartSession{OwnerKey: ownerKey, ExpiresAt: &expiresAt}
	items := []models.CartLineItem{{OwnerKey: ownerKey, ProductID: "1", Name: "Mug", UnitPrice: models.MustMoney("10.00"), Quantity: 1}}
	if err := repo.Save(session, items); err != nil {
		t.Fatalf("save cart failed: %v", err)
	}
}

func TestHandleCartExpire(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	ctx := context.Background()
	expired := "guest:11111111-1111-1111-1111-111111111111"
	fresh := "guest:22222222-2222-2222-2222-222222222222"
	saveGuestCart(t, consumer.CartRepo, expired, time.Now().Add(-time.Hour))
	saveGuestCart(t, consumer.CartRepo, fresh, time.Now().Add(time.Hour))

	for _, owner := range []string{expired, fresh} {
		task, err := queue.NewCartExpireTask(queue.CartExpirePayload{OwnerKey: owner})
		if err != nil {
			t.Fatalf("new task failed: %v", err)
		}
		if err := consumer.handleCartExpire(ctx, task); err != nil {
			t.Fatalf("handle cart expire failed: %v", err)
		}
	}

	if session, _, err := consumer.CartRepo.Load(expired); err != nil || session != nil {
		t.Fatalf("expired cart should be deleted, got %+v err=%v", session, err)
	}
	if session, _, err := consumer.CartRepo.Load(fresh); err != nil || session == nil {
		t.Fatalf("renewed cart should survive, got %+v err=%v", session, err)
	}

	if err := consumer.handleCartExpire(ctx, asynq.NewTask(queue.TaskCartExpire, []byte("{"))); err == nil {
		t.Fatalf("malformed payload should return error")
	}
}

func TestHandleProfileAudit(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	ctx := context.Background()

	task, err := queue.NewProfileAuditTask(queue.ProfileAuditPayload{
		CustomerID: "c-1",
		Version:    3,
		Actions:    []string{"addAddress", "setDefaultShippingAddress"},
		RequestID:  "req-9",
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handleProfileAudit(ctx, task); err != nil {
		t.Fatalf("handle profile audit failed: %v", err)
	}

	empty, _ := queue.NewProfileAuditTask(queue.ProfileAuditPayload{CustomerID: "c-1"})
	if err := consumer.handleProfileAudit(ctx, empty); err != nil {
		t.Fatalf("empty payload should be skipped, got %v", err)
	}

	logs, err := consumer.ProfileAuditService.List("c-1", 10)
	if err != nil {
		t.Fatalf("list audit failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Version != 3 || logs[0].RequestID != "req-9" || len(logs[0].Actions) != 2 {
		t.Fatalf("unexpected audit logs %+v", logs)
	}
}

func TestRegisterHandlesNil(t *testing.T) {
	var consumer *Consumer
	consumer.Register(asynq.NewServeMux())
	if err := consumer.handleCartExpire(context.Background(), nil); err != nil {
		t.Fatalf("nil consumer should be ignored, got %v", err)
	}
}

func TestSweeperRunsOnceBeforeStopping(t *testing.T) {
	consumer, _ := newTestConsumer(t)
	expired := "guest:33333333-3333-3333-3333-333333333333"
	saveGuestCart(t, consumer.CartRepo, expired, time.Now().Add(-time.Minute))

	sweeper, err := NewSweeper(consumer)
	if err != nil {
		t.Fatalf("new sweeper failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("sweeper returned error: %v", err)
	}
	if session, _, err := consumer.CartRepo.Load(expired); err != nil || session != nil {
		t.Fatalf("sweeper should remove expired cart on start, got %+v err=%v", session, err)
	}
}

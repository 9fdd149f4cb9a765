package worker

import (
	"context"
	"errors"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/service"

	"github.com/hibiken/asynq"
)

const (
	cartSweepInterval  = 10 * time.Minute
	cartSweepBatchSize = 200
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CartService != nil {
		go runCartSweepLoop(ctx, s.consumer.CartService)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// Sweeper 队列未启用时单独运行的购物车清理服务
type Sweeper struct {
	carts *service.CartService
}

// NewSweeper 创建购物车清理服务
func NewSweeper(consumer *Consumer) (*Sweeper, error) {
	if consumer == nil || consumer.CartService == nil {
		return nil, errors.New("cart service is nil")
	}
	return &Sweeper{carts: consumer.CartService}, nil
}

// Name 服务名称
func (s *Sweeper) Name() string {
	return "cart-sweeper"
}

// Start 阻塞运行直到 ctx 结束
func (s *Sweeper) Start(ctx context.Context) error {
	if s == nil || s.carts == nil {
		return errors.New("sweeper not initialized")
	}
	runCartSweepLoop(ctx, s.carts)
	return nil
}

// Stop 停止服务，循环随 ctx 退出
func (s *Sweeper) Stop(ctx context.Context) error {
	return nil
}

// runCartSweepLoop 定期清理过期任务丢失的游客购物车
func runCartSweepLoop(ctx context.Context, carts *service.CartService) {
	if carts == nil {
		return
	}
	runOnce := func() {
		removed, err := carts.SweepExpiredCarts(ctx, cartSweepBatchSize)
		if err != nil {
			logger.Warnw("worker_cart_sweep_failed", "error", err)
			return
		}
		if removed > 0 {
			logger.Infow("worker_cart_sweep_done", "removed", removed)
		}
	}
	runOnce()

	ticker := time.NewTicker(cartSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

package worker

import (
	"context"
	"errors"
	"time"

	"github.com/tienda-next/internal/config"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务，同时承载购物车的周期清理任务
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
		go s.runCartReminderLoop(ctx)
		go s.runCartExpireLoop(ctx)
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

// runCartReminderLoop 周期提醒长时间未结账的购物车
func (s *Service) runCartReminderLoop(ctx context.Context) {
	cartCfg := s.cartConfig()
	after := minutesOrDefault(cartCfg.ReminderAfterMinutes, 30)
	sweep := minutesOrDefault(cartCfg.ReminderSweepMinutes, 30)

	runOnce := func() {
		reminded, err := s.consumer.CartService.RemindStaleCarts(after)
		if err != nil {
			logger.Warnw("worker_cart_reminder_sweep_failed", "error", err)
			return
		}
		if reminded > 0 {
			logger.Infow("worker_cart_reminder_sweep", "reminded", reminded)
		}
	}
	runOnce()

	ticker := time.NewTicker(sweep)
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

// runCartExpireLoop 周期将超时购物车置为过期
func (s *Service) runCartExpireLoop(ctx context.Context) {
	cartCfg := s.cartConfig()
	after := hoursOrDefault(cartCfg.ExpireAfterHours, 24)
	sweep := hoursOrDefault(cartCfg.ExpireSweepHours, 24)

	runOnce := func() {
		expired, err := s.consumer.CartService.ExpireStaleCarts(after)
		if err != nil {
			logger.Warnw("worker_cart_expire_sweep_failed", "error", err)
			return
		}
		if expired > 0 {
			logger.Infow("worker_cart_expire_sweep", "expired", expired)
		}
	}
	runOnce()

	ticker := time.NewTicker(sweep)
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

func (s *Service) cartConfig() config.CartConfig {
	if s == nil || s.consumer == nil || s.consumer.Config == nil {
		return config.CartConfig{}
	}
	return s.consumer.Config.Cart
}

func minutesOrDefault(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Minute
}

func hoursOrDefault(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Hour
}

package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/provider"
	"github.com/shiling-next/internal/queue"

	"github.com/robfig/cron/v3"
)

const (
	defaultRelaySpec      = "30 * * * * *"
	defaultGiftExpirySpec = "0 */10 * * * *"
	jobTimeout            = 2 * time.Minute
)

// Scheduler 定时任务：发件箱补偿投递与礼物过期扫描
type Scheduler struct {
	name      string
	container *provider.Container
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler 创建定时任务服务，表达式带秒位
func NewScheduler(c *provider.Container) (*Scheduler, error) {
	if c == nil || c.Config == nil {
		return nil, errors.New("container is nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		name:      "scheduler",
		container: c,
		cron:      cron.New(cron.WithSeconds(), cron.WithLocation(c.Config.Fulfillment.Location())),
		ctx:       ctx,
		cancel:    cancel,
	}

	relaySpec := specOr(c.Config.Notification.RelaySpec, defaultRelaySpec)
	if _, err := s.cron.AddFunc(relaySpec, s.runJob("notification_relay", s.relayOutbox)); err != nil {
		cancel()
		return nil, err
	}
	expirySpec := specOr(c.Config.Fulfillment.GiftExpirySpec, defaultGiftExpirySpec)
	if _, err := s.cron.AddFunc(expirySpec, s.runJob("gift_expiry", s.triggerGiftExpiry)); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// Name 服务名称
func (s *Scheduler) Name() string {
	if s == nil || s.name == "" {
		return "scheduler"
	}
	return s.name
}

// Start 启动定时任务，阻塞到 ctx 结束
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return errors.New("scheduler not initialized")
	}
	s.cron.Start()
	<-ctx.Done()
	return nil
}

// Stop 停止调度并等待执行中的任务
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return nil
	}
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Scheduler) runJob(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
		defer cancel()
		start := time.Now()
		if err := fn(ctx); err != nil {
			logger.Warnw("scheduler_job_failed", "job", name, "error", err)
			return
		}
		logger.Debugw("scheduler_job_done", "job", name, "cost_ms", time.Since(start).Milliseconds())
	}
}

func (s *Scheduler) relayOutbox(ctx context.Context) error {
	if s.container.OutboxService == nil {
		return nil
	}
	published, err := s.container.OutboxService.Relay(ctx)
	if err != nil {
		return err
	}
	if published > 0 {
		logger.Infow("scheduler_outbox_relayed", "count", published)
	}
	return nil
}

// triggerGiftExpiry 队列可用时交给 worker 执行，避免多实例重复扫描
func (s *Scheduler) triggerGiftExpiry(ctx context.Context) error {
	if client := s.container.QueueClient; client.Enabled() {
		return client.EnqueueGiftExpirySweep(queue.GiftExpirySweepPayload{TriggeredAt: time.Now().Unix()}, 5*time.Minute)
	}
	if s.container.GiftExpiryService == nil {
		return nil
	}
	expired, err := s.container.GiftExpiryService.Sweep(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		logger.Infow("scheduler_gift_expired", "count", expired)
	}
	return nil
}

func specOr(spec, fallback string) string {
	if trimmed := strings.TrimSpace(spec); trimmed != "" {
		return trimmed
	}
	return fallback
}

package worker

import (
	"context"
	"encoding/json"

	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/provider"
	"github.com/shiling-next/internal/queue"

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
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
	mux.HandleFunc(queue.TaskGiftExpirySweep, c.handleGiftExpirySweep)
}

func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// 载荷损坏重试无意义
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return asynq.SkipRetry
	}
	if payload.OutboxID == 0 {
		logger.Debugw("worker_notification_dispatch_skip_invalid_payload", "outbox_id", payload.OutboxID)
		return nil
	}
	if c.OutboxService == nil {
		logger.Warnw("worker_notification_dispatch_skip_outbox_nil", "outbox_id", payload.OutboxID)
		return nil
	}
	if err := c.OutboxService.Deliver(ctx, payload.OutboxID); err != nil {
		logger.Warnw("worker_notification_dispatch_failed", "outbox_id", payload.OutboxID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleGiftExpirySweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_expiry_sweep_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftExpirySweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warnw("worker_gift_expiry_sweep_unmarshal_failed", "error", err)
		}
	}
	if c.GiftExpiryService == nil {
		logger.Warnw("worker_gift_expiry_sweep_skip_service_nil")
		return nil
	}
	expired, err := c.GiftExpiryService.Sweep(ctx)
	if err != nil {
		logger.Warnw("worker_gift_expiry_sweep_failed", "triggered_at", payload.TriggeredAt, "error", err)
		return err
	}
	if expired > 0 {
		logger.Infow("worker_gift_expiry_sweep_done", "triggered_at", payload.TriggeredAt, "expired", expired)
	}
	return nil
}

package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/provider"
	"github.com/shiling-next/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandleNotificationDispatchRejectsBrokenPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskNotificationDispatch, []byte("{not-json"))
	err := consumer.handleNotificationDispatch(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("broken payload should skip retry, got %v", err)
	}
}

func TestHandleNotificationDispatchSkipsWithoutOutbox(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task, err := queue.NewNotificationDispatchTask(queue.NotificationDispatchPayload{OutboxID: 9})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleNotificationDispatch(context.Background(), task); err != nil {
		t.Fatalf("missing outbox service should be skipped, got %v", err)
	}

	empty, err := queue.NewNotificationDispatchTask(queue.NotificationDispatchPayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleNotificationDispatch(context.Background(), empty); err != nil {
		t.Fatalf("zero outbox id should be skipped, got %v", err)
	}
}

func TestHandleGiftExpirySweepWithoutService(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task, err := queue.NewGiftExpirySweepTask(queue.GiftExpirySweepPayload{TriggeredAt: 1})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleGiftExpirySweep(context.Background(), task); err != nil {
		t.Fatalf("missing expiry service should be skipped, got %v", err)
	}
}

func TestRegisterHandlesNil(t *testing.T) {
	var consumer *Consumer
	consumer.Register(asynq.NewServeMux())
	NewConsumer(&provider.Container{}).Register(nil)
}

func TestNewServiceRequiresEnabledQueue(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, NewConsumer(&provider.Container{})); err == nil {
		t.Fatalf("disabled queue should not build worker service")
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, nil); err == nil {
		t.Fatalf("nil consumer should be rejected")
	}
}

package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shiling-next/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(nil)
	if err != nil {
		t.Fatalf("new disabled client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("nil config should produce a disabled client")
	}
	if err := client.EnqueueNotificationDispatch(NotificationDispatchPayload{OutboxID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be noop: %v", err)
	}
	if err := client.EnqueueGiftExpirySweep(GiftExpirySweepPayload{TriggeredAt: time.Now().Unix()}, time.Minute); err != nil {
		t.Fatalf("disabled sweep enqueue should be noop: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
}

func TestNotificationDispatchTaskPayload(t *testing.T) {
	task, err := NewNotificationDispatchTask(NotificationDispatchPayload{OutboxID: 42})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskNotificationDispatch {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.OutboxID != 42 {
		t.Fatalf("unexpected outbox id: %d", payload.OutboxID)
	}
	if notificationTaskID(42) != "outbox:42" {
		t.Fatalf("unexpected task id: %s", notificationTaskID(42))
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380, DB: 2})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("unexpected concurrency: %d", cfg.Concurrency)
	}
	if cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("default queue weight missing: %+v", cfg.Queues)
	}
}

package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/provider"
	"github.com/shiling-next/internal/queue"
)

func newSchedulerContainer(t *testing.T, relaySpec, expirySpec string) *provider.Container {
	t.Helper()
	client, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	return &provider.Container{
		Config: &config.Config{
			Fulfillment:  config.FulfillmentConfig{Timezone: "Asia/Shanghai", GiftExpirySpec: expirySpec},
			Notification: config.NotificationConfig{RelaySpec: relaySpec},
		},
		QueueClient: client,
	}
}

func TestNewSchedulerRegistersJobs(t *testing.T) {
	s, err := NewScheduler(newSchedulerContainer(t, "", ""))
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Fatalf("want 2 jobs, got %d", got)
	}
	if s.Name() != "scheduler" {
		t.Fatalf("unexpected name %s", s.Name())
	}
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := NewScheduler(newSchedulerContainer(t, "every minute", "")); err == nil {
		t.Fatalf("invalid relay spec should fail")
	}
	// 五段表达式缺少秒位
	if _, err := NewScheduler(newSchedulerContainer(t, "", "*/10 * * * *")); err == nil {
		t.Fatalf("spec without seconds should fail")
	}
}

func TestSchedulerJobsSkipMissingServices(t *testing.T) {
	s, err := NewScheduler(newSchedulerContainer(t, "", ""))
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	ctx := context.Background()
	if err := s.relayOutbox(ctx); err != nil {
		t.Fatalf("relay without outbox should be noop, got %v", err)
	}
	if err := s.triggerGiftExpiry(ctx); err != nil {
		t.Fatalf("expiry without service should be noop, got %v", err)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := NewScheduler(newSchedulerContainer(t, "", ""))
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not exit after cancel")
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestSpecOr(t *testing.T) {
	if got := specOr("  ", defaultRelaySpec); got != defaultRelaySpec {
		t.Fatalf("blank spec should fall back, got %q", got)
	}
	if got := specOr(" 0 0 * * * * ", defaultRelaySpec); got != "0 0 * * * *" {
		t.Fatalf("spec should be trimmed, got %q", got)
	}
}

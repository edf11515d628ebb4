package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingService struct {
	name     string
	startErr error
	stopErr  error
	block    bool

	mu      *sync.Mutex
	stopped *[]string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *recordingService) Stop(context.Context) error {
	s.mu.Lock()
	*s.stopped = append(*s.stopped, s.name)
	s.mu.Unlock()
	return s.stopErr
}

func TestRunnerStopsInReverseOrderOnCancel(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	runner := NewRunner(
		&recordingService{name: "http", block: true, mu: &mu, stopped: &stopped},
		nil,
		&recordingService{name: "worker", block: true, mu: &mu, stopped: &stopped},
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx, time.Second, nil) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancel should be a clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not exit")
	}
	if len(stopped) != 2 || stopped[0] != "worker" || stopped[1] != "http" {
		t.Fatalf("unexpected stop order: %v", stopped)
	}
}

func TestRunnerReturnsFirstServiceError(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	boom := errors.New("listen failed")
	stopErr := errors.New("flush failed")
	runner := NewRunner(
		&recordingService{name: "http", startErr: boom, mu: &mu, stopped: &stopped},
		&recordingService{name: "worker", block: true, stopErr: stopErr, mu: &mu, stopped: &stopped},
	)
	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) || !errors.Is(err, stopErr) {
		t.Fatalf("expected start and stop errors joined, got %v", err)
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
	if err := RunWithOptions(nil, Options{}); err == nil {
		t.Fatalf("nil runner should fail")
	}
}

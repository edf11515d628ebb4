package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/queue"
	"github.com/shiling-next/internal/repository"

	"gorm.io/gorm"
)

// NotificationIntent 随业务事务写入的待发通知
type NotificationIntent struct {
	Scene   string
	UserID  uint
	BizID   string
	Payload models.JSON
}

// NotificationOutboxService 通知发件箱：事务内落库，提交后派发
type NotificationOutboxService struct {
	repo        repository.NotificationOutboxRepository
	queueClient *queue.Client
	dispatcher  *NotificationPermissionService
	relayDelay  time.Duration
	batchSize   int
	maxAttempts int
}

// NewNotificationOutboxService 创建发件箱服务
func NewNotificationOutboxService(repo repository.NotificationOutboxRepository, queueClient *queue.Client, dispatcher *NotificationPermissionService, cfg config.NotificationConfig) *NotificationOutboxService {
	relayDelay := time.Duration(cfg.RelayDelaySeconds) * time.Second
	if relayDelay <= 0 {
		relayDelay = time.Minute
	}
	return &NotificationOutboxService{
		repo:        repo,
		queueClient: queueClient,
		dispatcher:  dispatcher,
		relayDelay:  relayDelay,
		batchSize:   positiveOr(cfg.RelayBatchSize, 100),
		maxAttempts: positiveOr(cfg.MaxAttempts, 5),
	}
}

// Stage 在业务事务内写入通知，返回发件箱 ID
func (s *NotificationOutboxService) Stage(tx *gorm.DB, intents ...NotificationIntent) ([]uint, error) {
	if s == nil || len(intents) == 0 {
		return nil, nil
	}
	now := time.Now()
	rows := make([]models.NotificationOutbox, 0, len(intents))
	for _, intent := range intents {
		if intent.UserID == 0 || intent.Scene == "" {
			continue
		}
		rows = append(rows, models.NotificationOutbox{
			Scene:       intent.Scene,
			UserID:      intent.UserID,
			BizID:       intent.BizID,
			Payload:     intent.Payload,
			Status:      constants.OutboxStatusPending,
			AvailableAt: now,
		})
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := s.repo.WithTx(tx).CreateBatch(rows); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// Publish 事务提交后调用；队列不可用时当前进程直接派发
func (s *NotificationOutboxService) Publish(ctx context.Context, ids []uint) {
	if s == nil {
		return
	}
	for _, id := range ids {
		if s.queueClient.Enabled() {
			if err := s.queueClient.EnqueueNotificationDispatch(queue.NotificationDispatchPayload{OutboxID: id}); err != nil {
				// 发件箱记录仍为 pending，由定时补偿重新投递
				logger.Warnw("notification_outbox_enqueue_failed", "outbox_id", id, "error", err)
			}
			continue
		}
		if err := s.Deliver(ctx, id); err != nil {
			logger.Warnw("notification_outbox_inline_deliver_failed", "outbox_id", id, "error", err)
		}
	}
}

// Deliver 派发一条发件箱记录，重复调用安全
func (s *NotificationOutboxService) Deliver(ctx context.Context, id uint) error {
	row, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if row == nil || row.Status != constants.OutboxStatusPending {
		return nil
	}
	claimed, err := s.repo.Claim(id, time.Now())
	if err != nil {
		return err
	}
	if claimed == 0 {
		return nil
	}

	outcome, sendErr := s.dispatcher.send(ctx, SendNotificationInput{
		Scene:   row.Scene,
		UserID:  row.UserID,
		BizID:   row.BizID,
		Payload: row.Payload,
	})
	if sendErr != nil {
		attempts := row.Attempts + 1
		if attempts >= s.maxAttempts {
			logger.Errorw("notification_outbox_give_up",
				"outbox_id", id,
				"scene", row.Scene,
				"attempts", attempts,
				"error", sendErr,
			)
			return s.repo.MarkDone(id, time.Now())
		}
		backoff := s.relayDelay * time.Duration(attempts)
		if err := s.repo.Release(id, sendErr.Error(), time.Now().Add(backoff)); err != nil {
			return fmt.Errorf("release outbox %d: %w", id, err)
		}
		// 由定时补偿在退避后重新投递
		logger.Warnw("notification_outbox_deferred",
			"outbox_id", id,
			"attempts", attempts,
			"retry_after", backoff.String(),
			"error", sendErr,
		)
		return nil
	}
	logger.Debugw("notification_outbox_delivered", "outbox_id", id, "scene", row.Scene, "outcome", outcome)
	return s.repo.MarkDone(id, time.Now())
}

// Relay 补偿投递：回收卡住的记录并重新发布到期记录
func (s *NotificationOutboxService) Relay(ctx context.Context) (int, error) {
	now := time.Now()
	if reset, err := s.repo.ResetStale(now.Add(-5 * s.relayDelay)); err != nil {
		return 0, err
	} else if reset > 0 {
		logger.Warnw("notification_outbox_stale_reset", "count", reset)
	}
	rows, err := s.repo.ListDue(repository.OutboxListFilter{
		AvailableBefore: now.Add(-s.relayDelay),
		Limit:           s.batchSize,
	})
	if err != nil {
		return 0, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	s.Publish(ctx, ids)
	return len(ids), nil
}

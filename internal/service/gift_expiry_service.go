package service

import (
	"context"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/repository"

	"gorm.io/gorm"
)

// GiftExpiryService 标记超过领取期限的礼物并通知赠礼人，退款由对账流程处理
type GiftExpiryService struct {
	orderRepo   repository.OrderRepository
	outbox      *NotificationOutboxService
	claimWindow time.Duration
	batchSize   int
	now         func() time.Time
}

// NewGiftExpiryService 创建礼物过期服务
func NewGiftExpiryService(orderRepo repository.OrderRepository, outbox *NotificationOutboxService, cfg config.FulfillmentConfig) *GiftExpiryService {
	return &GiftExpiryService{
		orderRepo:   orderRepo,
		outbox:      outbox,
		claimWindow: cfg.GiftClaimWindow(),
		batchSize:   positiveOr(cfg.GiftExpiryBatchSize, 100),
		now:         time.Now,
	}
}

// Sweep 处理一批过期礼物，返回本次标记的订单数
func (s *GiftExpiryService) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	orders, err := s.orderRepo.ListUnclaimedGiftOrders(now.Add(-s.claimWindow), s.batchSize)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, order := range orders {
		ok, err := s.expire(ctx, order, now)
		if err != nil {
			logger.Warnw("gift_expiry_mark_failed", "order_id", order.ID, "error", err)
			continue
		}
		if ok {
			marked++
		}
	}
	if marked > 0 {
		logger.Infow("gift_expiry_sweep_done", "marked", marked, "scanned", len(orders))
	}
	return marked, nil
}

func (s *GiftExpiryService) expire(ctx context.Context, order models.Order, now time.Time) (bool, error) {
	var outboxIDs []uint
	marked := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		affected, err := orderRepo.MarkGiftExpired(order.ID, now)
		if err != nil || affected == 0 {
			return err
		}
		marked = true
		items, err := orderRepo.ListItems(order.ID)
		if err != nil {
			return err
		}
		outboxIDs, err = s.outbox.Stage(tx, NotificationIntent{
			Scene:  constants.NotificationSceneGiftExpired,
			UserID: order.UserID,
			BizID:  order.OrderNo,
			Payload: models.JSON{
				"order_no":      order.OrderNo,
				"product_names": joinProductNames(items),
				"expired_at":    now.Format(time.RFC3339),
			},
		})
		return err
	})
	if err != nil {
		return false, err
	}
	s.outbox.Publish(ctx, outboxIDs)
	return marked, nil
}

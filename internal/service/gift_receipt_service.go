package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shiling-next/internal/config"
	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/metrics"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/repository"

	"gorm.io/gorm"
)

// ClaimantProfile 领取人资料
type ClaimantProfile struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// GiftClaimInput 领取礼物输入
type GiftClaimInput struct {
	OrderNo        string
	ClaimantUserID uint
	TargetItemID   *uint
	Address        models.ShippingAddress
	Profile        *ClaimantProfile
}

// ClaimedItem 已领取的订单项
type ClaimedItem struct {
	ItemID      uint             `json:"item_id"`
	ProductName string           `json:"product_name"`
	Quantity    int              `json:"quantity"`
	Windows     []DeliveryWindow `json:"windows"`
}

// GiftClaimResult 领取结果
type GiftClaimResult struct {
	OrderID uint          `json:"order_id"`
	OrderNo string        `json:"order_no"`
	Items   []ClaimedItem `json:"items"`
}

// GiftReceiptService 礼物领取
type GiftReceiptService struct {
	orderRepo    repository.OrderRepository
	planRepo     repository.DeliveryPlanRepository
	relationRepo repository.UserRelationRepository
	addressRepo  repository.UserAddressRepository
	userRepo     repository.UserRepository
	generator    *DeliveryPlanGenerator
	outbox       *NotificationOutboxService
	claimWindow  time.Duration
	now          func() time.Time
}

// NewGiftReceiptService 创建礼物领取服务
func NewGiftReceiptService(
	orderRepo repository.OrderRepository,
	planRepo repository.DeliveryPlanRepository,
	relationRepo repository.UserRelationRepository,
	addressRepo repository.UserAddressRepository,
	userRepo repository.UserRepository,
	generator *DeliveryPlanGenerator,
	outbox *NotificationOutboxService,
	cfg config.FulfillmentConfig,
) *GiftReceiptService {
	return &GiftReceiptService{
		orderRepo:    orderRepo,
		planRepo:     planRepo,
		relationRepo: relationRepo,
		addressRepo:  addressRepo,
		userRepo:     userRepo,
		generator:    generator,
		outbox:       outbox,
		claimWindow:  cfg.GiftClaimWindow(),
		now:          time.Now,
	}
}

// Claim 领取礼物，同一订单的领取按行锁串行
func (s *GiftReceiptService) Claim(ctx context.Context, input GiftClaimInput) (*GiftClaimResult, error) {
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" || input.ClaimantUserID == 0 {
		return nil, ErrInvalidInput
	}
	if input.Address.IsEmpty() {
		return nil, ErrGiftAddressInvalid
	}

	now := s.now()
	receiverName := s.receiverName(input)
	var (
		result    *GiftClaimResult
		order     *models.Order
		outboxIDs []uint
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		locked, err := orderRepo.GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return ErrOrderFetchFailed
		}
		if err := s.checkPreconditions(orderRepo, locked, input.ClaimantUserID, now); err != nil {
			return err
		}
		order = locked

		items, err := orderRepo.ListItems(order.ID)
		if err != nil {
			return ErrOrderFetchFailed
		}
		targets, err := s.pickTargets(orderRepo, order, items, input)
		if err != nil {
			return err
		}

		result = &GiftClaimResult{OrderID: order.ID, OrderNo: order.OrderNo}
		planRepo := s.planRepo.WithTx(tx)
		generator := s.generator.inTx(tx)
		for _, item := range targets {
			affected, err := orderRepo.ClaimItem(item.ID, input.ClaimantUserID, now)
			if err != nil {
				return ErrOrderUpdateFailed
			}
			if affected == 0 {
				return ErrGiftAlreadyClaimed
			}

			claimed := ClaimedItem{ItemID: item.ID, ProductName: item.ProductName, Quantity: item.Quantity}
			windows, policy, genErr := generator.scheduleItem(ctx, item, now)
			if genErr != nil {
				logger.Errorw("gift_claim_schedule_failed",
					"order_id", order.ID,
					"order_item_id", item.ID,
					"delivery_type", item.DeliveryType,
					"error", genErr,
				)
				result.Items = append(result.Items, claimed)
				continue
			}
			plans := buildDeliveryPlans(item, input.ClaimantUserID, input.Address, windows)
			if err := planRepo.CreateBatch(plans); err != nil {
				return errors.Join(ErrDeliveryPlanCreateFailed, err)
			}
			if len(plans) != item.TotalDeliveries {
				if err := orderRepo.UpdateItemFields(item.ID, map[string]interface{}{"total_deliveries": len(plans)}); err != nil {
					return ErrOrderUpdateFailed
				}
			}
			metrics.ObservePlansCreated("gift_claim", policy, len(plans))
			claimed.Windows = windows
			result.Items = append(result.Items, claimed)
		}

		remaining, err := orderRepo.CountUnclaimedItems(order.ID)
		if err != nil {
			return ErrOrderFetchFailed
		}
		if remaining == 0 {
			if _, err := orderRepo.TransitionStatus(order.ID, []int{constants.OrderStatusPaid}, constants.OrderStatusGifted, nil); err != nil {
				return ErrOrderUpdateFailed
			}
		}

		ids, err := s.outbox.Stage(tx, NotificationIntent{
			Scene:  constants.NotificationSceneGiftReceived,
			UserID: order.UserID,
			BizID:  order.OrderNo,
			Payload: models.JSON{
				"order_no":      order.OrderNo,
				"receiver_name": receiverName,
				"product_names": joinProductNames(targets),
				"received_at":   now.Format(time.RFC3339),
			},
		})
		if err != nil {
			return err
		}
		outboxIDs = ids
		return nil
	})
	if err != nil {
		metrics.ObserveGiftClaim(giftClaimMetricLabel(err))
		return nil, err
	}
	metrics.ObserveGiftClaim("claimed")

	s.maintainRelation(order, input.ClaimantUserID)
	s.saveDefaultAddress(input.ClaimantUserID, input.Address)
	s.fillProfile(input.ClaimantUserID, input.Profile)
	s.outbox.Publish(ctx, outboxIDs)
	return result, nil
}

// checkPreconditions 按顺序校验，返回第一个不满足的原因
func (s *GiftReceiptService) checkPreconditions(orderRepo *repository.GormOrderRepository, order *models.Order, claimantID uint, now time.Time) error {
	if order == nil {
		return ErrGiftOrderNotFound
	}
	if order.Status == constants.OrderStatusGifted && order.IsGift {
		// 已全部领取
		received, err := orderRepo.HasClaimByReceiver(order.ID, claimantID)
		if err != nil {
			return ErrOrderFetchFailed
		}
		if received {
			return ErrGiftAlreadyReceived
		}
		return ErrGiftAlreadyClaimed
	}
	if order.Status != constants.OrderStatusPaid {
		return ErrGiftOrderStatusInvalid
	}
	if !order.IsGift {
		return ErrNotGiftOrder
	}
	if order.PaidAt == nil || now.After(order.PaidAt.Add(s.claimWindow)) {
		return ErrGiftExpired
	}
	if order.UserID == claimantID {
		return ErrGiftSelfClaim
	}
	return nil
}

func (s *GiftReceiptService) pickTargets(orderRepo *repository.GormOrderRepository, order *models.Order, items []models.OrderItem, input GiftClaimInput) ([]models.OrderItem, error) {
	if order.GiftType == constants.GiftTypeMulti {
		received, err := orderRepo.HasClaimByReceiver(order.ID, input.ClaimantUserID)
		if err != nil {
			return nil, ErrOrderFetchFailed
		}
		if received {
			return nil, ErrGiftAlreadyReceived
		}
		if input.TargetItemID != nil {
			for _, item := range items {
				if item.ID == *input.TargetItemID && item.GiftStatus == constants.GiftStatusUnclaimed {
					return []models.OrderItem{item}, nil
				}
			}
			return nil, ErrGiftItemUnavailable
		}
		// items 已按 id 升序
		for _, item := range items {
			if item.GiftStatus == constants.GiftStatusUnclaimed {
				return []models.OrderItem{item}, nil
			}
		}
		return nil, ErrGiftAlreadyClaimed
	}

	targets := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.GiftStatus == constants.GiftStatusUnclaimed {
			targets = append(targets, item)
		}
	}
	if len(targets) == 0 {
		return nil, ErrGiftAlreadyClaimed
	}
	return targets, nil
}

func (s *GiftReceiptService) receiverName(input GiftClaimInput) string {
	if input.Profile != nil {
		if name := strings.TrimSpace(input.Profile.Nickname); name != "" {
			return name
		}
	}
	if s.userRepo != nil {
		if user, err := s.userRepo.GetByID(input.ClaimantUserID); err == nil && user != nil && strings.TrimSpace(user.Nickname) != "" {
			return user.Nickname
		}
	}
	return strings.TrimSpace(input.Address.Name)
}

// maintainRelation 建立赠礼双方关系，失败不影响领取
func (s *GiftReceiptService) maintainRelation(order *models.Order, claimantID uint) {
	if order == nil || s.relationRepo == nil {
		return
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		return s.relationRepo.WithTx(tx).EnsurePair(order.UserID, claimantID, constants.UserRelationTypeGift, order.ID)
	})
	if err != nil {
		logger.Warnw("gift_claim_relation_failed",
			"order_id", order.ID,
			"sender_id", order.UserID,
			"receiver_id", claimantID,
			"error", err,
		)
	}
}

// saveDefaultAddress 记住领取人的收货地址，失败不影响领取
func (s *GiftReceiptService) saveDefaultAddress(userID uint, addr models.ShippingAddress) {
	if s.addressRepo == nil {
		return
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		_, err := s.addressRepo.WithTx(tx).UpsertDefault(userID, addr)
		return err
	})
	if err != nil {
		logger.Warnw("gift_claim_address_upsert_failed", "user_id", userID, "error", err)
	}
}

// fillProfile 用领取时提交的资料补全领取人昵称头像，失败不影响领取
func (s *GiftReceiptService) fillProfile(userID uint, profile *ClaimantProfile) {
	if s.userRepo == nil || profile == nil {
		return
	}
	if _, err := s.userRepo.FillProfile(userID, profile.Nickname, profile.Avatar); err != nil {
		logger.Warnw("gift_claim_profile_fill_failed", "user_id", userID, "error", err)
	}
}

func giftClaimMetricLabel(err error) string {
	switch {
	case errors.Is(err, ErrGiftExpired):
		return "expired"
	case errors.Is(err, ErrGiftAlreadyClaimed), errors.Is(err, ErrGiftItemUnavailable):
		return "already_claimed"
	case errors.Is(err, ErrGiftAlreadyReceived):
		return "already_received"
	case errors.Is(err, ErrGiftSelfClaim):
		return "self_claim"
	case errors.Is(err, ErrGiftOrderNotFound), errors.Is(err, ErrGiftOrderStatusInvalid), errors.Is(err, ErrNotGiftOrder):
		return "rejected"
	default:
		return "error"
	}
}

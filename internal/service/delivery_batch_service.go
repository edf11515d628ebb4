package service

import (
	"context"
	"fmt"
	"sort"
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

// BatchConfirmInput 批量确认输入
type BatchConfirmInput struct {
	PlanIDs []uint
	// 计划 ID -> 本期配送的订阅商品
	SubscriptionProducts map[uint]uint
}

// BatchConfirmResult 批量确认结果
type BatchConfirmResult struct {
	ConfirmedCount int             `json:"confirmed_count"`
	DeliveryNos    map[uint]string `json:"delivery_nos"`
}

// BatchShipInput 批量发货输入
type BatchShipInput struct {
	PlanIDs     []uint
	CarrierName string
	TrackingNo  string
}

// BatchShipResult 批量发货结果
type BatchShipResult struct {
	ShippedCount        int `json:"shipped_count"`
	ItemCount           int `json:"item_count"`
	CompletedOrderCount int `json:"completed_order_count"`
}

// DeliveryBatchService 运营批量确认与发货
type DeliveryBatchService struct {
	planRepo       repository.DeliveryPlanRepository
	orderRepo      repository.OrderRepository
	sequenceRepo   repository.DeliveryNoRepository
	subProductRepo repository.SubscriptionProductRepository
	outbox         *NotificationOutboxService
	noPrefix       string
	loc            *time.Location
	now            func() time.Time
}

// NewDeliveryBatchService 创建批量处理服务
func NewDeliveryBatchService(
	planRepo repository.DeliveryPlanRepository,
	orderRepo repository.OrderRepository,
	sequenceRepo repository.DeliveryNoRepository,
	subProductRepo repository.SubscriptionProductRepository,
	outbox *NotificationOutboxService,
	cfg config.FulfillmentConfig,
) *DeliveryBatchService {
	return &DeliveryBatchService{
		planRepo:       planRepo,
		orderRepo:      orderRepo,
		sequenceRepo:   sequenceRepo,
		subProductRepo: subProductRepo,
		outbox:         outbox,
		noPrefix:       strings.TrimSpace(cfg.DeliveryNoPrefix),
		loc:            cfg.Location(),
		now:            time.Now,
	}
}

// BatchConfirm 批量确认配送计划并分配配送单号，不满足条件的计划会被跳过
func (s *DeliveryBatchService) BatchConfirm(ctx context.Context, input BatchConfirmInput) (*BatchConfirmResult, error) {
	ids := normalizeIDs(input.PlanIDs)
	if len(ids) == 0 {
		return nil, ErrDeliveryPlanIDsEmpty
	}
	now := s.now().In(s.loc)
	dayPrefix := s.noPrefix + now.Format("20060102")
	result := &BatchConfirmResult{DeliveryNos: map[uint]string{}}

	var outboxIDs []uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		planRepo := s.planRepo.WithTx(tx)
		plans, err := planRepo.ListConfirmableForUpdate(ids)
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			return nil
		}
		start, err := s.sequenceRepo.WithTx(tx).Reserve(dayPrefix, len(plans))
		if err != nil {
			return err
		}

		subRepo := s.subProductRepo.WithTx(tx)
		for i := range plans {
			plan := &plans[i]
			var subProductID *uint
			if mapped, ok := input.SubscriptionProducts[plan.ID]; ok && mapped > 0 {
				if err := s.reserveSubscriptionProduct(subRepo, mapped); err != nil {
					return err
				}
				id := mapped
				subProductID = &id
			}
			deliveryNo := fmt.Sprintf("%s%04d", dayPrefix, start+int64(i))
			affected, err := planRepo.AssignDeliveryNo(plan.ID, deliveryNo, subProductID, now)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrDeliveryPlanConflict
			}
			plan.DeliveryNo = &deliveryNo
			plan.SubscriptionProductID = subProductID
			result.DeliveryNos[plan.ID] = deliveryNo
		}
		result.ConfirmedCount = len(plans)

		names, err := s.itemNames(tx, plans)
		if err != nil {
			return err
		}
		intents := make([]NotificationIntent, 0, len(plans))
		for _, plan := range plans {
			intents = append(intents, NotificationIntent{
				Scene:  constants.NotificationSceneDeliveryPreparing,
				UserID: plan.UserID,
				BizID:  *plan.DeliveryNo,
				Payload: models.JSON{
					"delivery_no":   *plan.DeliveryNo,
					"product_name":  names[plan.OrderItemID],
					"plan_start_at": plan.PlanStartAt.Format(time.RFC3339),
					"remark":        plan.Note,
				},
			})
		}
		outboxIDs, err = s.outbox.Stage(tx, intents...)
		return err
	})
	if err != nil {
		logger.Warnw("delivery_batch_confirm_failed", "plan_count", len(ids), "error", err)
		return nil, err
	}
	metrics.ObserveDeliveryBatch("confirm", result.ConfirmedCount)
	s.outbox.Publish(ctx, outboxIDs)
	return result, nil
}

func (s *DeliveryBatchService) reserveSubscriptionProduct(repo *repository.GormSubscriptionProductRepository, id uint) error {
	product, err := repo.GetByIDForUpdate(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrSubscriptionProductNotFound
	}
	if !product.IsActive {
		return ErrSubscriptionProductInactive
	}
	if product.Stock <= 0 {
		return ErrSubscriptionProductOutOfStock
	}
	affected, err := repo.DecrementStock(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSubscriptionProductOutOfStock
	}
	return nil
}

// BatchShip 批量发货并回写订单项已发货次数，全部配送完成的订单置为已完成
func (s *DeliveryBatchService) BatchShip(ctx context.Context, input BatchShipInput) (*BatchShipResult, error) {
	ids := normalizeIDs(input.PlanIDs)
	if len(ids) == 0 {
		return nil, ErrDeliveryPlanIDsEmpty
	}
	carrier := strings.TrimSpace(input.CarrierName)
	trackingNo := strings.TrimSpace(input.TrackingNo)
	now := s.now()
	result := &BatchShipResult{}

	var outboxIDs []uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		planRepo := s.planRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		plans, err := planRepo.ListShippableForUpdate(ids)
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			return nil
		}
		shippableIDs := make([]uint, 0, len(plans))
		for _, plan := range plans {
			shippableIDs = append(shippableIDs, plan.ID)
		}
		affected, err := planRepo.MarkShipped(shippableIDs, carrier, trackingNo, now)
		if err != nil {
			return err
		}
		if affected != int64(len(plans)) {
			return ErrDeliveryPlanConflict
		}
		result.ShippedCount = len(plans)

		perItem := make(map[uint]int)
		orderIDs := make(map[uint]struct{})
		for _, plan := range plans {
			perItem[plan.OrderItemID]++
			orderIDs[plan.OrderID] = struct{}{}
		}
		itemIDs := make([]uint, 0, len(perItem))
		for itemID := range perItem {
			itemIDs = append(itemIDs, itemID)
		}
		sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })
		for _, itemID := range itemIDs {
			updated, err := orderRepo.IncrementDelivered(itemID, perItem[itemID])
			if err != nil {
				return err
			}
			if updated == 0 {
				return fmt.Errorf("%w: order_item_id=%d", ErrDeliveredCountOverflow, itemID)
			}
		}
		result.ItemCount = len(itemIDs)

		sortedOrderIDs := make([]uint, 0, len(orderIDs))
		for id := range orderIDs {
			sortedOrderIDs = append(sortedOrderIDs, id)
		}
		sort.Slice(sortedOrderIDs, func(i, j int) bool { return sortedOrderIDs[i] < sortedOrderIDs[j] })
		for _, orderID := range sortedOrderIDs {
			pending, err := orderRepo.CountUndeliveredItems(orderID)
			if err != nil {
				return err
			}
			if pending > 0 {
				continue
			}
			completed, err := orderRepo.TransitionStatus(orderID,
				[]int{constants.OrderStatusPaid, constants.OrderStatusGifted},
				constants.OrderStatusCompleted,
				map[string]interface{}{"completed_at": now},
			)
			if err != nil {
				return err
			}
			result.CompletedOrderCount += int(completed)
		}

		intents := make([]NotificationIntent, 0, len(plans))
		for _, plan := range plans {
			deliveryNo := ""
			if plan.DeliveryNo != nil {
				deliveryNo = *plan.DeliveryNo
			}
			intents = append(intents, NotificationIntent{
				Scene:  constants.NotificationSceneDeliveryShipped,
				UserID: plan.UserID,
				BizID:  deliveryNo,
				Payload: models.JSON{
					"delivery_no":  deliveryNo,
					"carrier_name": carrier,
					"tracking_no":  trackingNo,
					"shipped_at":   now.Format(time.RFC3339),
				},
			})
		}
		outboxIDs, err = s.outbox.Stage(tx, intents...)
		return err
	})
	if err != nil {
		logger.Warnw("delivery_batch_ship_failed", "plan_count", len(ids), "error", err)
		return nil, err
	}
	metrics.ObserveDeliveryBatch("ship", result.ShippedCount)
	s.outbox.Publish(ctx, outboxIDs)
	return result, nil
}

// ListAdmin 运营查询配送计划
func (s *DeliveryBatchService) ListAdmin(filter repository.DeliveryPlanListFilter) ([]models.DeliveryPlan, int64, error) {
	return s.planRepo.ListAdmin(filter)
}

// ListByUser 收货人查看自己的配送计划
func (s *DeliveryBatchService) ListByUser(userID uint, page, pageSize int) ([]models.DeliveryPlan, int64, error) {
	if userID == 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.planRepo.ListByUser(userID, page, pageSize)
}

func (s *DeliveryBatchService) itemNames(tx *gorm.DB, plans []models.DeliveryPlan) (map[uint]string, error) {
	ids := make([]uint, 0, len(plans))
	for _, plan := range plans {
		ids = append(ids, plan.OrderItemID)
	}
	items, err := s.orderRepo.WithTx(tx).ListItemsByIDs(normalizeIDs(ids))
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(items))
	for _, item := range items {
		names[item.ID] = item.ProductName
	}
	return names, nil
}

// normalizeIDs 去重并剔除 0，保持输入顺序
func normalizeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

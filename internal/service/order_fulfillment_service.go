package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/metrics"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/repository"

	"gorm.io/gorm"
)

// PaymentConfirmedSignal 支付成功信号
type PaymentConfirmedSignal struct {
	OrderNo               string
	Success               bool
	ProviderTransactionID string
	PayerIdentity         string
	SuccessTime           time.Time
	// 渠道实付金额（分），0 表示渠道未提供
	AmountFen int64
}

// FulfillmentResult 支付确认处理结果
type FulfillmentResult struct {
	OrderID      uint   `json:"order_id"`
	OrderNo      string `json:"order_no"`
	Duplicate    bool   `json:"duplicate"`
	Ignored      bool   `json:"ignored"`
	PlanCount    int    `json:"plan_count"`
	SkippedItems []uint `json:"skipped_items,omitempty"`
}

// OrderFulfillmentService 支付确认后的订单履约
type OrderFulfillmentService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	planRepo    repository.DeliveryPlanRepository
	generator   *DeliveryPlanGenerator
	outbox      *NotificationOutboxService
}

// NewOrderFulfillmentService 创建订单履约服务
func NewOrderFulfillmentService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	planRepo repository.DeliveryPlanRepository,
	generator *DeliveryPlanGenerator,
	outbox *NotificationOutboxService,
) *OrderFulfillmentService {
	return &OrderFulfillmentService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		planRepo:    planRepo,
		generator:   generator,
		outbox:      outbox,
	}
}

// HandlePaymentConfirmed 处理支付成功信号，同一订单重复投递不会重复生效
func (s *OrderFulfillmentService) HandlePaymentConfirmed(ctx context.Context, signal PaymentConfirmedSignal) (*FulfillmentResult, error) {
	orderNo := strings.TrimSpace(signal.OrderNo)
	if orderNo == "" {
		return nil, ErrPaymentInvalid
	}
	result := &FulfillmentResult{OrderNo: orderNo}
	if !signal.Success {
		logger.Infow("payment_signal_not_success_ignored", "order_no", orderNo)
		result.Ignored = true
		metrics.ObserveFulfillment("ignored")
		return result, nil
	}
	paidAt := signal.SuccessTime
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	var outboxIDs []uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return ErrOrderFetchFailed
		}
		if order == nil {
			return ErrOrderNotFound
		}
		result.OrderID = order.ID
		if order.Status != constants.OrderStatusCreated {
			result.Duplicate = true
			return nil
		}
		if signal.AmountFen > 0 && signal.AmountFen != order.TotalAmount.Fen() {
			logger.Errorw("payment_amount_mismatch",
				"order_no", orderNo,
				"order_amount_fen", order.TotalAmount.Fen(),
				"paid_amount_fen", signal.AmountFen,
			)
			return ErrPaymentAmountMismatch
		}

		affected, err := orderRepo.TransitionStatus(order.ID, []int{constants.OrderStatusCreated}, constants.OrderStatusPaid, map[string]interface{}{
			"paid_at":                paidAt,
			"payment_transaction_id": strings.TrimSpace(signal.ProviderTransactionID),
			"payer_identity":         strings.TrimSpace(signal.PayerIdentity),
		})
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if affected == 0 {
			result.Duplicate = true
			return nil
		}

		items, err := orderRepo.ListItems(order.ID)
		if err != nil {
			return ErrOrderFetchFailed
		}
		items, err = s.snapshotItemPolicies(tx, order, items)
		if err != nil {
			return err
		}

		if !order.IsGift {
			planCount, skipped, err := s.materializePlans(ctx, tx, order, items, paidAt)
			if err != nil {
				return err
			}
			result.PlanCount = planCount
			result.SkippedItems = skipped
		}

		ids, err := s.outbox.Stage(tx, NotificationIntent{
			Scene:  constants.NotificationScenePaymentSuccess,
			UserID: order.UserID,
			BizID:  order.OrderNo,
			Payload: models.JSON{
				"order_no":      order.OrderNo,
				"product_names": joinProductNames(items),
				"amount":        order.TotalAmount.String(),
				"paid_at":       paidAt.Format(time.RFC3339),
			},
		})
		if err != nil {
			return err
		}
		outboxIDs = ids
		return nil
	})
	if err != nil {
		metrics.ObserveFulfillment("error")
		return nil, err
	}
	if result.Duplicate {
		logger.Infow("payment_signal_duplicate_ignored", "order_no", orderNo, "order_id", result.OrderID)
		metrics.ObserveFulfillment("duplicate")
		return result, nil
	}
	metrics.ObserveFulfillment("fulfilled")
	s.outbox.Publish(ctx, outboxIDs)
	return result, nil
}

// snapshotItemPolicies 把商品的订阅策略复制到订单项
func (s *OrderFulfillmentService) snapshotItemPolicies(tx *gorm.DB, order *models.Order, items []models.OrderItem) ([]models.OrderItem, error) {
	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.productRepo.WithTx(tx).MapByIDs(productIDs)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}

	orderRepo := s.orderRepo.WithTx(tx)
	for i := range items {
		item := &items[i]
		if product, ok := products[item.ProductID]; ok {
			item.IsSubscription = product.IsSubscription
			item.DeliveryType = product.DeliveryType
			item.DeliveryInterval = product.DeliveryInterval
			item.DeliveriesPerUnit = product.MaxDeliveries
		} else {
			logger.Warnw("fulfillment_product_missing_keep_item_policy",
				"order_id", order.ID,
				"order_item_id", item.ID,
				"product_id", item.ProductID,
			)
		}
		if strings.TrimSpace(item.DeliveryType) == "" || !item.IsSubscription {
			item.DeliveryType = constants.DeliveryTypeOnce
		}
		if item.DeliveryType == constants.DeliveryTypeOnce || item.DeliveriesPerUnit < 1 {
			item.DeliveriesPerUnit = 1
		}
		item.TotalDeliveries = item.DeliveriesPerUnit * maxInt(item.Quantity, 1)

		updates := map[string]interface{}{
			"is_subscription":     item.IsSubscription,
			"delivery_type":       item.DeliveryType,
			"delivery_interval":   item.DeliveryInterval,
			"deliveries_per_unit": item.DeliveriesPerUnit,
			"total_deliveries":    item.TotalDeliveries,
		}
		if !order.IsGift {
			now := time.Now()
			receiverID := order.UserID
			item.GiftStatus = constants.GiftStatusClaimed
			item.ReceiverID = &receiverID
			item.ReceivedAt = &now
			updates["gift_status"] = constants.GiftStatusClaimed
			updates["receiver_id"] = receiverID
			updates["received_at"] = now
		}
		if err := orderRepo.UpdateItemFields(item.ID, updates); err != nil {
			return nil, ErrOrderUpdateFailed
		}
	}
	return items, nil
}

// materializePlans 自购订单按下单时的收货快照生成配送计划
func (s *OrderFulfillmentService) materializePlans(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem, paidAt time.Time) (int, []uint, error) {
	addr := order.AddressSnapshot()
	if addr.IsEmpty() {
		skipped := make([]uint, 0, len(items))
		for _, item := range items {
			skipped = append(skipped, item.ID)
		}
		logger.Warnw("fulfillment_address_snapshot_missing_skip_plans",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"item_count", len(items),
		)
		return 0, skipped, nil
	}

	total := 0
	planRepo := s.planRepo.WithTx(tx)
	orderRepo := s.orderRepo.WithTx(tx)
	generator := s.generator.inTx(tx)
	for _, item := range items {
		windows, policy := generator.scheduleItemWithFallback(ctx, item, paidAt)
		plans := buildDeliveryPlans(item, order.UserID, addr, windows)
		if err := planRepo.CreateBatch(plans); err != nil {
			return 0, nil, errors.Join(ErrDeliveryPlanCreateFailed, err)
		}
		if len(plans) != item.TotalDeliveries {
			if err := orderRepo.UpdateItemFields(item.ID, map[string]interface{}{"total_deliveries": len(plans)}); err != nil {
				return 0, nil, ErrOrderUpdateFailed
			}
		}
		metrics.ObservePlansCreated("payment", policy, len(plans))
		total += len(plans)
	}
	return total, nil, nil
}

func joinProductNames(items []models.OrderItem) string {
	names := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return strings.Join(names, "、")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package service

import (
	"context"
	"time"

	"github.com/shiling-next/internal/constants"
	"github.com/shiling-next/internal/logger"
	"github.com/shiling-next/internal/models"
)

// itemPlanInput 根据订单项上已复制的订阅字段生成排期输入
func itemPlanInput(item models.OrderItem, base time.Time) (GeneratePlanInput, error) {
	policy, err := ParseDeliveryPolicy(item.DeliveryType)
	if err != nil {
		return GeneratePlanInput{}, err
	}
	return GeneratePlanInput{
		Policy:        policy,
		Quantity:      item.Quantity,
		MaxDeliveries: item.DeliveriesPerUnit,
		IntervalDays:  item.DeliveryInterval,
		BaseDate:      base,
	}, nil
}

// scheduleItem 生成订单项的配送窗口
func (g *DeliveryPlanGenerator) scheduleItem(ctx context.Context, item models.OrderItem, base time.Time) ([]DeliveryWindow, string, error) {
	input, err := itemPlanInput(item, base)
	if err != nil {
		return nil, item.DeliveryType, err
	}
	windows, err := g.Generate(ctx, input)
	return windows, input.Policy.String(), err
}

// scheduleItemWithFallback 排期出错时降级为每份一次单次配送
func (g *DeliveryPlanGenerator) scheduleItemWithFallback(ctx context.Context, item models.OrderItem, base time.Time) ([]DeliveryWindow, string) {
	windows, policy, err := g.scheduleItem(ctx, item, base)
	if err == nil && len(windows) > 0 {
		return windows, policy
	}
	logger.Warnw("delivery_schedule_fallback_once",
		"order_item_id", item.ID,
		"delivery_type", item.DeliveryType,
		"quantity", item.Quantity,
		"error", err,
	)
	return g.FallbackOnce(item.Quantity, base), constants.DeliveryTypeOnce
}

// buildDeliveryPlans 把配送窗口转换为待确认的配送计划
func buildDeliveryPlans(item models.OrderItem, recipientID uint, addr models.ShippingAddress, windows []DeliveryWindow) []models.DeliveryPlan {
	plans := make([]models.DeliveryPlan, 0, len(windows))
	for _, w := range windows {
		plan := models.DeliveryPlan{
			OrderID:          item.OrderID,
			OrderItemID:      item.ID,
			UserID:           recipientID,
			Status:           constants.DeliveryPlanStatusPending,
			DeliverySequence: w.Sequence,
			PlanStartAt:      w.Start,
			PlanEndAt:        w.End,
			SolarTermID:      w.SolarTermID,
			Note:             w.Note,
		}
		plan.ApplyAddress(addr)
		plans = append(plans, plan)
	}
	return plans
}

package admin

import (
	"strconv"
	"strings"
	"time"

	handlershared "github.com/shiling-next/internal/http/handlers/shared"
	"github.com/shiling-next/internal/http/response"
	"github.com/shiling-next/internal/repository"
	"github.com/shiling-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ConfirmPlanEntry 单个计划的确认参数
type ConfirmPlanEntry struct {
	PlanID                uint `json:"plan_id" binding:"required"`
	SubscriptionProductID uint `json:"subscription_product_id"`
}

// BatchConfirmRequest 批量确认请求
type BatchConfirmRequest struct {
	Plans []ConfirmPlanEntry `json:"plans" binding:"required"`
}

// BatchShipRequest 批量发货请求
type BatchShipRequest struct {
	PlanIDs     []uint `json:"plan_ids" binding:"required"`
	CarrierName string `json:"carrier_name"`
	TrackingNo  string `json:"tracking_no"`
}

// ListDeliveryPlans 运营查询配送计划
func (h *Handler) ListDeliveryPlans(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.DeliveryPlanListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.Status = &status
	}
	orderID, ok := handlershared.QueryUint(c, "order_id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	filter.OrderID = orderID
	if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, h.Config.Fulfillment.Location())
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		end := day.AddDate(0, 0, 1)
		filter.PlanStartFrom = &day
		filter.PlanStartTo = &end
	}

	plans, total, err := h.DeliveryBatchService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.plan_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, plans, response.NewPagination(page, pageSize, total))
}

// BatchConfirmDeliveryPlans 批量确认并分配配送单号
func (h *Handler) BatchConfirmDeliveryPlans(c *gin.Context) {
	var req BatchConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.plan_ids_empty", nil)
		return
	}
	input := service.BatchConfirmInput{
		PlanIDs:              make([]uint, 0, len(req.Plans)),
		SubscriptionProducts: make(map[uint]uint),
	}
	for _, entry := range req.Plans {
		input.PlanIDs = append(input.PlanIDs, entry.PlanID)
		if entry.SubscriptionProductID > 0 {
			input.SubscriptionProducts[entry.PlanID] = entry.SubscriptionProductID
		}
	}

	result, err := h.DeliveryBatchService.BatchConfirm(c.Request.Context(), input)
	if err != nil {
		respondBatchError(c, err)
		return
	}
	adminID, _ := c.Get("admin_id")
	requestLog(c).Infow("admin_delivery_batch_confirmed",
		"admin_id", adminID,
		"requested", len(input.PlanIDs),
		"confirmed", result.ConfirmedCount,
	)
	response.Success(c, result)
}

// BatchShipDeliveryPlans 批量发货
func (h *Handler) BatchShipDeliveryPlans(c *gin.Context) {
	var req BatchShipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.plan_ids_empty", nil)
		return
	}
	result, err := h.DeliveryBatchService.BatchShip(c.Request.Context(), service.BatchShipInput{
		PlanIDs:     req.PlanIDs,
		CarrierName: strings.TrimSpace(req.CarrierName),
		TrackingNo:  strings.TrimSpace(req.TrackingNo),
	})
	if err != nil {
		respondBatchError(c, err)
		return
	}
	adminID, _ := c.Get("admin_id")
	requestLog(c).Infow("admin_delivery_batch_shipped",
		"admin_id", adminID,
		"requested", len(req.PlanIDs),
		"shipped", result.ShippedCount,
		"completed_orders", result.CompletedOrderCount,
	)
	response.Success(c, result)
}

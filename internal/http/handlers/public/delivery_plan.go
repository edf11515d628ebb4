package public

import (
	handlershared "github.com/shiling-next/internal/http/handlers/shared"
	"github.com/shiling-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListMyDeliveryPlans 当前用户作为收货人的配送计划
func (h *Handler) ListMyDeliveryPlans(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	plans, total, err := h.DeliveryBatchService.ListByUser(userID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.plan_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, plans, response.NewPagination(page, pageSize, total))
}

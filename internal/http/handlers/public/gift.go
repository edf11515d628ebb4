package public

import (
	"strings"

	"github.com/shiling-next/internal/http/response"
	"github.com/shiling-next/internal/models"
	"github.com/shiling-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GiftClaimRequest 领取礼物请求
type GiftClaimRequest struct {
	ItemID  *uint                    `json:"item_id"`
	Address models.ShippingAddress   `json:"address"`
	Profile *service.ClaimantProfile `json:"profile"`
}

// ClaimGift 领取礼物
func (h *Handler) ClaimGift(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderNo := strings.TrimSpace(c.Param("order_no"))
	if orderNo == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req GiftClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.GiftReceiptService.Claim(c.Request.Context(), service.GiftClaimInput{
		OrderNo:        orderNo,
		ClaimantUserID: userID,
		TargetItemID:   req.ItemID,
		Address:        req.Address,
		Profile:        req.Profile,
	})
	if err != nil {
		respondWithMappedError(c, err, giftClaimErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, result)
}

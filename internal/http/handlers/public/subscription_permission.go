package public

import (
	"github.com/shiling-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GrantPermissionsRequest 小程序 requestSubscribeMessage 接受的模板
type GrantPermissionsRequest struct {
	TemplateIDs []string `json:"template_ids" binding:"required"`
}

// GetSubscriptionPermissions 当前用户的订阅额度与场景模板
func (h *Handler) GetSubscriptionPermissions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	perms, err := h.NotificationService.ListPermissions(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.permission_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"permissions": perms,
		"scenes":      h.NotificationService.SceneTemplates(),
	})
}

// GrantSubscriptionPermissions 记录用户授权的订阅消息，每个模板额度 +1
func (h *Handler) GrantSubscriptionPermissions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req GrantPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.template_ids_empty", nil)
		return
	}
	perms, err := h.NotificationService.GrantPermissions(userID, req.TemplateIDs)
	if err != nil {
		respondWithMappedError(c, err, permissionErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, perms)
}

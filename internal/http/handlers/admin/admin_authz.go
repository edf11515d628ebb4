package admin

import (
	"strconv"

	"github.com/shiling-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzSetAdminRolesPayload struct {
	Roles []string `json:"roles"`
}

// GetAuthzMe 获取当前运营账号的权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"admin_id": adminID,
		"is_super": isSuperAdmin(c),
		"roles":    roles,
		"policies": policies,
	})
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// SetAuthzAdminRoles 覆盖设置运营账号角色
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || targetID == 0 {
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
		return
	}
	var req authzSetAdminRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	target, err := h.AdminRepo.GetByID(uint(targetID))
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if target == nil {
		respondError(c, response.CodeNotFound, "error.admin_id_invalid", nil)
		return
	}
	if err := h.AuthzService.SetAdminRoles(target.ID, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(target.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	operatorID, _ := c.Get("admin_id")
	requestLog(c).Infow("admin_roles_updated", "operator_id", operatorID, "admin_id", target.ID, "roles", roles)
	response.Success(c, gin.H{"admin_id": target.ID, "roles": roles})
}

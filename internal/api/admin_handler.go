package api

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers returns every account.
// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	users, err := h.adminService.ListUsers(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}

// BulkDeleteUsers removes many accounts. The caller's own id is refused.
// POST /admin/users/bulk-delete
func (h *AdminHandler) BulkDeleteUsers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	users, err := h.adminService.ListUsers(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.adminService.BulkDeleteUsers(c.Request.Context(), actor, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	remaining := service.PruneDeleted(users, func(u domain.Profile) string { return u.ID }, *result)
	c.JSON(http.StatusOK, BulkDeleteResponse[UserResponse]{
		BulkResult: result,
		Items:      MapUsersToResponse(remaining),
	})
}

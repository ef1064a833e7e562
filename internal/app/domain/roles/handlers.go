package roles

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
)

// RoleHandlers is the admin user-management surface.
type RoleHandlers struct {
	service RoleService
	logger  *zap.Logger
}

func NewRoleHandlers(service RoleService, logger *zap.Logger) *RoleHandlers {
	return &RoleHandlers{service: service, logger: logger}
}

func (h *RoleHandlers) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Warn("User list failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"users": []models.UserWithRoles{}})
		return
	}
	if users == nil {
		users = []models.UserWithRoles{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type roleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

func (h *RoleHandlers) GrantRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	if err := h.service.GrantRole(c.Request.Context(), userID, req.Role); err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			h.logger.Error("Role grant failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not grant role"})
		}
		return
	}
	metrics.RoleGrant(c.Request.Context(), string(req.Role))
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": req.Role})
}

func (h *RoleHandlers) RevokeRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	// Admins cannot lock themselves out by dropping their own admin role.
	if session := appmiddleware.GetSession(c); session != nil &&
		session.UserID == userID && req.Role == models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot revoke your own admin role"})
		return
	}

	if err := h.service.RevokeRole(c.Request.Context(), userID, req.Role); err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user does not hold that role"})
		default:
			h.logger.Error("Role revoke failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not revoke role"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": req.Role})
}

func (h *RoleHandlers) DeleteUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if session := appmiddleware.GetSession(c); session != nil && session.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("User delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
		return
	}
	c.Status(http.StatusNoContent)
}

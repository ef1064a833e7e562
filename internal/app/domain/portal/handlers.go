package portal

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/domain/roles"
	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
)

type PortalHandlers struct {
	roleService roles.RoleService
	logger      *zap.Logger
}

func NewPortalHandlers(roleService roles.RoleService, logger *zap.Logger) *PortalHandlers {
	return &PortalHandlers{roleService: roleService, logger: logger}
}

// ListPortals reports the portals the signed-in user can enter or acquire.
// A role-fetch failure still renders the selector with nothing owned rather
// than erroring the page.
func (h *PortalHandlers) ListPortals(c *gin.Context) {
	session := appmiddleware.GetSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	roleSet, err := h.roleService.FetchRoles(c.Request.Context(), session.UserID)
	if err != nil {
		h.logger.Warn("Role fetch failed on portal select, rendering unowned options",
			zap.Stringer("userID", session.UserID), zap.Error(err))
		roleSet = models.NewRoleSet()
	}

	c.JSON(http.StatusOK, gin.H{"portals": ListAvailablePortals(roleSet)})
}

// Dashboard is the landing page after sign-in: who you are plus the portals
// you can reach from here.
func (h *PortalHandlers) Dashboard(c *gin.Context) {
	session := appmiddleware.GetSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	roleSet, err := h.roleService.FetchRoles(c.Request.Context(), session.UserID)
	if err != nil {
		h.logger.Warn("Role fetch failed on dashboard, rendering unowned options",
			zap.Stringer("userID", session.UserID), zap.Error(err))
		roleSet = models.NewRoleSet()
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": session.UserID,
		"email":   session.Email,
		"phone":   session.Phone,
		"roles":   roleSet.Slice(),
		"portals": ListAvailablePortals(roleSet),
	})
}

type requestRoleBody struct {
	Role models.Role `json:"role" binding:"required"`
}

// RequestRole self-provisions a buyer or seller role and points the client
// at that portal's root. Double submissions land on the idempotent AddRole
// and both report success.
func (h *PortalHandlers) RequestRole(c *gin.Context) {
	session := appmiddleware.GetSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	var body requestRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	if err := h.roleService.AddRole(c.Request.Context(), session.UserID, body.Role); err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		case errors.Is(err, models.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "role cannot be self-assigned"})
		default:
			h.logger.Error("Role grant failed", zap.Error(err),
				zap.Stringer("userID", session.UserID), zap.String("role", string(body.Role)))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not grant role"})
		}
		return
	}

	metrics.RoleGrant(c.Request.Context(), string(body.Role))
	c.JSON(http.StatusOK, gin.H{"redirect": PortalRoot(body.Role)})
}

// RequestAdminBootstrap attempts the one-time first-admin grant. A false
// result is a normal answer, not an error: someone already holds admin.
func (h *PortalHandlers) RequestAdminBootstrap(c *gin.Context) {
	session := appmiddleware.GetSession(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session required"})
		return
	}

	granted, err := h.roleService.BootstrapAdmin(c.Request.Context(), session.UserID)
	if err != nil {
		h.logger.Error("Admin bootstrap failed", zap.Error(err), zap.Stringer("userID", session.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bootstrap failed"})
		return
	}

	if !granted {
		c.JSON(http.StatusOK, gin.H{"granted": false, "message": "Admin Already Exists"})
		return
	}

	metrics.RoleGrant(c.Request.Context(), string(models.RoleAdmin))
	// Full reload so every role-dependent piece of UI re-derives from the
	// fresh role set.
	c.JSON(http.StatusOK, gin.H{"granted": true, "reload": true, "redirect": PortalRoot(models.RoleAdmin)})
}

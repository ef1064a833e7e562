package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/domain/auth"
	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
)

const (
	signInPath    = "/auth"
	dashboardPath = "/dashboard"
)

// RoleRegistry is the slice of the role service the guard consults.
type RoleRegistry interface {
	FetchRoles(ctx context.Context, userID uuid.UUID) (models.RoleSet, error)
}

// Guard gates protected routes behind session and role checks. Every request
// re-verifies from scratch; there is deliberately no cross-request role
// cache, so a revoked role takes effect on the next navigation.
type Guard struct {
	sessions *auth.SessionStore
	roles    RoleRegistry
	logger   *zap.Logger
}

func NewGuard(sessions *auth.SessionStore, roles RoleRegistry, logger *zap.Logger) *Guard {
	return &Guard{sessions: sessions, roles: roles, logger: logger}
}

// RequireSession admits any live session; anonymous requests are redirected
// to sign-in.
func (g *Guard) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := g.currentSession(c)
		if session == nil {
			metrics.GuardDecision(c.Request.Context(), "denied_no_session")
			redirectTo(c, signInPath)
			return
		}
		c.Set(SessionContextKey, session)
		metrics.GuardDecision(c.Request.Context(), "authorized")
		c.Next()
	}
}

// RequireRole admits a session whose role set satisfies the requirement.
// Role-fetch failures fail closed onto the generic dashboard, never onto the
// protected view.
func (g *Guard) RequireRole(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := g.currentSession(c)
		if session == nil {
			metrics.GuardDecision(c.Request.Context(), "denied_no_session")
			redirectTo(c, signInPath)
			return
		}

		roleSet, err := g.roles.FetchRoles(c.Request.Context(), session.UserID)
		if err != nil {
			g.logger.Warn("Role fetch failed, denying portal access",
				zap.Stringer("userID", session.UserID),
				zap.String("required", string(required)),
				zap.Error(err))
			metrics.GuardDecision(c.Request.Context(), "denied_role_fetch_error")
			redirectTo(c, dashboardPath)
			return
		}

		if !roleSet.Satisfies(required) {
			metrics.GuardDecision(c.Request.Context(), "denied_insufficient_role")
			redirectTo(c, dashboardPath)
			return
		}

		c.Set(SessionContextKey, session)
		c.Set(RolesContextKey, roleSet)
		metrics.GuardDecision(c.Request.Context(), "authorized")
		c.Next()
	}
}

func (g *Guard) currentSession(c *gin.Context) *models.Session {
	token, err := c.Cookie(auth.AccessTokenCookie)
	if err != nil || token == "" {
		return nil
	}
	return g.sessions.Current(c.Request.Context(), token)
}

// redirectTo aborts the request with a redirect. HTMX requests get the
// HX-Redirect header so the client swaps the whole page.
func redirectTo(c *gin.Context, target string) {
	if c.GetHeader("HX-Request") == "true" {
		c.Header("HX-Redirect", target)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

// GetSession extracts the verified session placed by the guard.
func GetSession(c *gin.Context) *models.Session {
	v, exists := c.Get(SessionContextKey)
	if !exists {
		return nil
	}
	session, ok := v.(*models.Session)
	if !ok {
		return nil
	}
	return session
}

// GetRoles extracts the role set placed by RequireRole. Routes guarded only
// by RequireSession have no role set.
func GetRoles(c *gin.Context) models.RoleSet {
	v, exists := c.Get(RolesContextKey)
	if !exists {
		return nil
	}
	roleSet, ok := v.(models.RoleSet)
	if !ok {
		return nil
	}
	return roleSet
}

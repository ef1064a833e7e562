package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/domain/auth"
	"github.com/tractorbazar/marketplace/internal/app/models"
)

// stubAuthService validates exactly one token.
type stubAuthService struct {
	token   string
	session *models.Session
}

func (s *stubAuthService) ValidateToken(tokenString string) (*models.Session, error) {
	if tokenString == s.token {
		return s.session, nil
	}
	return nil, errors.New("invalid token")
}

func (s *stubAuthService) Register(context.Context, string, string, string) (uuid.UUID, error) {
	return uuid.Nil, errors.New("not implemented")
}
func (s *stubAuthService) Login(context.Context, string, string) (string, string, error) {
	return "", "", errors.New("not implemented")
}
func (s *stubAuthService) RequestOTP(context.Context, string) error {
	return errors.New("not implemented")
}
func (s *stubAuthService) VerifyOTP(context.Context, string, string) (string, string, error) {
	return "", "", errors.New("not implemented")
}
func (s *stubAuthService) RefreshSession(context.Context, string) (string, string, error) {
	return "", "", errors.New("not implemented")
}
func (s *stubAuthService) Logout(context.Context, string) error { return nil }
func (s *stubAuthService) GetUserByID(context.Context, uuid.UUID) (*models.UserAuth, error) {
	return nil, errors.New("not implemented")
}

type stubRoleRegistry struct {
	roles models.RoleSet
	err   error
}

func (s *stubRoleRegistry) FetchRoles(context.Context, uuid.UUID) (models.RoleSet, error) {
	return s.roles, s.err
}

func newGuardRouter(t *testing.T, registry RoleRegistry, required models.Role) (*gin.Engine, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	svc := &stubAuthService{token: "valid", session: &models.Session{UserID: userID}}
	sessions := auth.NewSessionStore(svc, zap.NewNop())
	guard := NewGuard(sessions, registry, zap.NewNop())

	r := gin.New()
	r.GET("/session-only", guard.RequireSession(), func(c *gin.Context) {
		require.NotNil(t, GetSession(c))
		c.Status(http.StatusOK)
	})
	r.GET("/protected", guard.RequireRole(required), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, userID
}

func doRequest(r *gin.Engine, path, token string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: token})
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSessionAnonymousRedirectsToSignIn(t *testing.T) {
	r, _ := newGuardRouter(t, &stubRoleRegistry{}, models.RoleBuyer)

	w := doRequest(r, "/session-only", "", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))
}

func TestRequireSessionInvalidTokenRedirects(t *testing.T) {
	r, _ := newGuardRouter(t, &stubRoleRegistry{}, models.RoleBuyer)

	w := doRequest(r, "/session-only", "forged", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))
}

func TestRequireSessionAdmitsValidSession(t *testing.T) {
	r, _ := newGuardRouter(t, &stubRoleRegistry{}, models.RoleBuyer)

	w := doRequest(r, "/session-only", "valid", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleAdmitsExplicitRole(t *testing.T) {
	registry := &stubRoleRegistry{roles: models.NewRoleSet(models.RoleBuyer)}
	r, _ := newGuardRouter(t, registry, models.RoleBuyer)

	w := doRequest(r, "/protected", "valid", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleAdminOverride(t *testing.T) {
	registry := &stubRoleRegistry{roles: models.NewRoleSet(models.RoleAdmin)}
	r, _ := newGuardRouter(t, registry, models.RoleSeller)

	w := doRequest(r, "/protected", "valid", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleInsufficientRedirectsToDashboard(t *testing.T) {
	registry := &stubRoleRegistry{roles: models.NewRoleSet(models.RoleBuyer)}
	r, _ := newGuardRouter(t, registry, models.RoleSeller)

	w := doRequest(r, "/protected", "valid", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestRequireRoleFetchErrorFailsClosed(t *testing.T) {
	registry := &stubRoleRegistry{err: errors.New("db unreachable")}
	r, _ := newGuardRouter(t, registry, models.RoleSeller)

	w := doRequest(r, "/protected", "valid", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestRequireRoleAnonymousGoesToSignInNotDashboard(t *testing.T) {
	registry := &stubRoleRegistry{roles: models.NewRoleSet(models.RoleBuyer)}
	r, _ := newGuardRouter(t, registry, models.RoleBuyer)

	w := doRequest(r, "/protected", "", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("Location"))
}

func TestRedirectUsesHTMXHeader(t *testing.T) {
	r, _ := newGuardRouter(t, &stubRoleRegistry{}, models.RoleBuyer)

	w := doRequest(r, "/session-only", "", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/auth", w.Header().Get("HX-Redirect"))
	assert.Empty(t, w.Header().Get("Location"))
}

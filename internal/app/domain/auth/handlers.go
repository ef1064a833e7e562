package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

const (
	AccessTokenCookie  = "auth_token"
	RefreshTokenCookie = "refresh_token"
)

type RegisterRequest struct {
	DisplayName     string `json:"display_name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type OTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type OTPVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required,len=6"`
}

type AuthHandlers struct {
	authService  AuthService
	sessions     *SessionStore
	logger       *zap.Logger
	secureCookie bool
}

func NewAuthHandlers(authService AuthService, sessions *SessionStore, secureCookie bool, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		sessions:     sessions,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// Register creates an email/password account and signs the user in. A fresh
// account holds no roles, so the client lands on portal selection.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration payload"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	userID, err := h.authService.Register(c.Request.Context(), req.DisplayName, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		h.logger.Error("Registration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	access, refresh, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Account exists; let the user sign in manually.
		c.JSON(http.StatusCreated, gin.H{"user_id": userID, "redirect": "/auth"})
		return
	}

	h.setAuthCookies(c, access, refresh)
	h.sessions.Broadcast(SessionEvent{Type: SessionSignedIn, UserID: userID})
	c.JSON(http.StatusCreated, gin.H{"user_id": userID, "redirect": "/portal-select"})
}

func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	access, refresh, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("Invalid login credentials", zap.String("email", req.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	h.setAuthCookies(c, access, refresh)
	if session, vErr := h.authService.ValidateToken(access); vErr == nil {
		h.sessions.Broadcast(SessionEvent{Type: SessionSignedIn, UserID: session.UserID})
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "/dashboard"})
}

func (h *AuthHandlers) RequestOTP(c *gin.Context) {
	var req OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
		return
	}

	if err := h.authService.RequestOTP(c.Request.Context(), req.Phone); err != nil {
		h.logger.Error("OTP request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send verification code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "code_sent"})
}

func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone and 6-digit code are required"})
		return
	}

	access, refresh, err := h.authService.VerifyOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrOTPExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "code expired, request a new one"})
		case errors.Is(err, models.ErrOTPMismatch):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect code"})
		case errors.Is(err, models.ErrOTPThrottled):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, request a new code"})
		default:
			h.logger.Error("OTP verification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		}
		return
	}

	h.setAuthCookies(c, access, refresh)
	if session, vErr := h.authService.ValidateToken(access); vErr == nil {
		h.sessions.Broadcast(SessionEvent{Type: SessionSignedIn, UserID: session.UserID})
	}
	c.JSON(http.StatusOK, gin.H{"redirect": "/portal-select"})
}

// Refresh rotates the token pair using the refresh cookie.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session to refresh"})
		return
	}

	access, newRefresh, err := h.authService.RefreshSession(c.Request.Context(), refreshToken)
	if err != nil {
		h.clearAuthCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	h.setAuthCookies(c, access, newRefresh)
	if session, vErr := h.authService.ValidateToken(access); vErr == nil {
		h.sessions.Broadcast(SessionEvent{Type: SessionRefreshed, UserID: session.UserID})
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshTokenCookie)
	accessToken, _ := c.Cookie(AccessTokenCookie)

	session := h.sessions.Current(c.Request.Context(), accessToken)
	if session != nil {
		if err := h.sessions.SignOut(c.Request.Context(), session.UserID, refreshToken); err != nil {
			h.logger.Warn("Sign-out cleanup failed", zap.Error(err))
		}
	}

	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"redirect": "/auth"})
}

func (h *AuthHandlers) setAuthCookies(c *gin.Context, access, refresh string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, access, 0, "/", "", h.secureCookie, true)
	c.SetCookie(RefreshTokenCookie, refresh, 0, "/", "", h.secureCookie, true)
}

func (h *AuthHandlers) clearAuthCookies(c *gin.Context) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", h.secureCookie, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", h.secureCookie, true)
}

package notifications

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/domain/auth"
	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/pkg/realtime"
)

// Tables a browser may stream. Everything else is 404.
var streamableTables = map[string]bool{
	"vehicles":      true,
	"notifications": true,
	"agreements":    true,
}

type NotificationHandlers struct {
	service  NotificationService
	hub      *realtime.Hub
	sessions *auth.SessionStore
	logger   *zap.Logger
}

func NewNotificationHandlers(service NotificationService, hub *realtime.Hub, sessions *auth.SessionStore, logger *zap.Logger) *NotificationHandlers {
	return &NotificationHandlers{service: service, hub: hub, sessions: sessions, logger: logger}
}

func (h *NotificationHandlers) List(c *gin.Context) {
	session := appmiddleware.GetSession(c)
	limit, _ := strconv.Atoi(c.Query("limit"))

	out, err := h.service.List(c.Request.Context(), session.UserID, limit)
	if err != nil {
		h.logger.Warn("Notification list failed, rendering empty list", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"notifications": []models.Notification{}})
		return
	}
	if out == nil {
		out = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

func (h *NotificationHandlers) UnreadCount(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	count, err := h.service.UnreadCount(c.Request.Context(), session.UserID)
	if err != nil {
		h.logger.Warn("Unread count failed, rendering zero", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"unread": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandlers) MarkRead(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), session.UserID, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		h.logger.Error("Mark read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark notification read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *NotificationHandlers) MarkAllRead(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	if err := h.service.MarkAllRead(c.Request.Context(), session.UserID); err != nil {
		h.logger.Error("Mark all read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark notifications read"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Stream is the SSE endpoint behind /realtime/:table. It forwards table
// changes to the browser and shuts the stream down the moment the signed-in
// user signs out anywhere, even from another tab.
func (h *NotificationHandlers) Stream(c *gin.Context) {
	session := appmiddleware.GetSession(c)

	table := c.Param("table")
	if !streamableTables[table] {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown stream"})
		return
	}

	changes, stop := h.hub.Subscribe(c.Request.Context(), table)
	defer stop()

	signedOut := make(chan struct{}, 1)
	unsubscribe := h.sessions.Subscribe(func(ev auth.SessionEvent) {
		if ev.Type == auth.SessionSignedOut && ev.UserID == session.UserID {
			select {
			case signedOut <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// Lift the server's write deadline for this response; the stream stays
	// open far longer than a normal request. If the writer does not support
	// it, EventSource reconnects when the deadline cuts the stream.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("Could not clear write deadline for stream", zap.Error(err))
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-signedOut:
			c.SSEvent("close", gin.H{"reason": "signed_out"})
			return false
		case change, ok := <-changes:
			if !ok {
				return false
			}
			// Per-user rows only go to their owner.
			if change.UserID != "" && change.UserID != session.UserID.String() {
				return true
			}
			c.SSEvent("change", change)
			return true
		}
	})
}

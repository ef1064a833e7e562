package notifications

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/pkg/realtime"
)

const tableName = "notifications"

type NotificationService interface {
	// Notify persists a notification for the user and publishes it on the
	// change feed so an open stream picks it up immediately.
	Notify(ctx context.Context, userID uuid.UUID, title, body string) error
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type NotificationServiceImpl struct {
	logger *zap.Logger
	repo   NotificationsRepo
	hub    *realtime.Hub
}

func NewNotificationService(repo NotificationsRepo, hub *realtime.Hub, logger *zap.Logger) *NotificationServiceImpl {
	return &NotificationServiceImpl{logger: logger, repo: repo, hub: hub}
}

func (s *NotificationServiceImpl) Notify(ctx context.Context, userID uuid.UUID, title, body string) error {
	n := &models.Notification{UserID: userID, Title: title, Body: body}
	id, err := s.repo.Insert(ctx, n)
	if err != nil {
		return err
	}
	n.ID = id

	payload, err := json.Marshal(n)
	if err != nil {
		payload = nil
	}
	if err := s.hub.Publish(ctx, realtime.Change{
		Table:   tableName,
		Op:      realtime.OpInsert,
		RowID:   id.String(),
		UserID:  userID.String(),
		Payload: payload,
	}); err != nil {
		// The row is stored; the user sees it on the next page load.
		s.logger.Warn("Failed to publish notification", zap.Stringer("id", id), zap.Error(err))
	}
	return nil
}

func (s *NotificationServiceImpl) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	return s.repo.ListForUser(ctx, userID, limit)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationServiceImpl) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

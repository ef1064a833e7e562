package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "signed_in"
	SessionSignedOut SessionEventType = "signed_out"
	SessionRefreshed SessionEventType = "refreshed"
)

// SessionEvent is broadcast to every subscriber whenever a session changes,
// regardless of which code path triggered the change.
type SessionEvent struct {
	Type   SessionEventType
	UserID uuid.UUID
}

type subscriber struct {
	mu     sync.Mutex
	fn     func(SessionEvent)
	closed bool
}

// deliver invokes the callback unless the subscriber already unsubscribed.
// Events that race with an unsubscribe are dropped on the floor, never
// applied late.
func (s *subscriber) deliver(ev SessionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(ev)
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// SessionStore is the single source of truth for "is anyone logged in, and
// who". It wraps the auth service for imperative checks and fans out change
// events to subscribers.
type SessionStore struct {
	svc    AuthService
	logger *zap.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

func NewSessionStore(svc AuthService, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		svc:    svc,
		logger: logger,
		subs:   make(map[int]*subscriber),
	}
}

// Current resolves the session behind an access token. Any failure reads as
// "no session": callers redirect to sign-in, never assume authenticated.
func (s *SessionStore) Current(_ context.Context, accessToken string) *models.Session {
	if accessToken == "" {
		return nil
	}
	session, err := s.svc.ValidateToken(accessToken)
	if err != nil {
		s.logger.Debug("Session check failed, treating as anonymous", zap.Error(err))
		return nil
	}
	return session
}

// Subscribe registers a callback for session change events. The returned
// handle MUST be invoked when the consumer tears down; afterwards the
// callback is guaranteed not to fire again.
func (s *SessionStore) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	sub := &subscriber{fn: fn}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.close()
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// SignOut invalidates the refresh token and notifies subscribers through the
// same path an externally triggered revocation would take.
func (s *SessionStore) SignOut(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if err := s.svc.Logout(ctx, refreshToken); err != nil {
		return err
	}
	s.Broadcast(SessionEvent{Type: SessionSignedOut, UserID: userID})
	return nil
}

// Broadcast delivers the event to a snapshot of current subscribers.
func (s *SessionStore) Broadcast(ev SessionEvent) {
	s.mu.Lock()
	snapshot := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		snapshot = append(snapshot, sub)
	}
	s.mu.Unlock()

	for _, sub := range snapshot {
		sub.deliver(ev)
	}
}

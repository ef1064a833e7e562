package notifications

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/domain/auth"
	appmiddleware "github.com/tractorbazar/marketplace/internal/app/middleware"
	"github.com/tractorbazar/marketplace/internal/app/models"
	"github.com/tractorbazar/marketplace/internal/pkg/realtime"
)

type streamFixture struct {
	router *gin.Engine
	hub    *realtime.Hub
	store  *auth.SessionStore
	userID uuid.UUID
}

func newStreamFixture(t *testing.T) *streamFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	hub := realtime.NewHub(rdb, zap.NewNop())
	t.Cleanup(func() { _ = hub.Close() })

	// Stream never calls through to the auth service or the notification
	// service, so neither needs a real implementation here.
	store := auth.NewSessionStore(nil, zap.NewNop())
	h := NewNotificationHandlers(nil, hub, store, zap.NewNop())

	userID := uuid.New()
	r := gin.New()
	r.GET("/realtime/:table", func(c *gin.Context) {
		c.Set(appmiddleware.SessionContextKey, &models.Session{UserID: userID})
	}, h.Stream)

	return &streamFixture{router: r, hub: hub, store: store, userID: userID}
}

// closeNotifyRecorder adds the http.CloseNotifier method that gin's
// Context.Stream requires of the ResponseWriter; httptest.ResponseRecorder
// alone does not implement it.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool { return c.closed }

func (f *streamFixture) serve(t *testing.T, table string) (*httptest.ResponseRecorder, <-chan struct{}) {
	t.Helper()
	w := &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}
	req := httptest.NewRequest(http.MethodGet, "/realtime/"+table, nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.router.ServeHTTP(w, req)
	}()
	// Give the pub/sub subscription time to register.
	time.Sleep(50 * time.Millisecond)
	return w.ResponseRecorder, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate")
	}
}

func TestStreamClosesOnSignOut(t *testing.T) {
	f := newStreamFixture(t)
	w, done := f.serve(t, "notifications")

	f.store.Broadcast(auth.SessionEvent{Type: auth.SessionSignedOut, UserID: f.userID})
	waitDone(t, done)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event:close")
	assert.Contains(t, w.Body.String(), "signed_out")
}

func TestStreamIgnoresOtherUsersSignOut(t *testing.T) {
	f := newStreamFixture(t)
	w, done := f.serve(t, "notifications")

	f.store.Broadcast(auth.SessionEvent{Type: auth.SessionSignedOut, UserID: uuid.New()})
	time.Sleep(50 * time.Millisecond)

	select {
	case <-done:
		t.Fatal("stream closed on a stranger's sign-out")
	default:
	}

	f.store.Broadcast(auth.SessionEvent{Type: auth.SessionSignedOut, UserID: f.userID})
	waitDone(t, done)
	assert.Contains(t, w.Body.String(), "signed_out")
}

func TestStreamFiltersForeignUserRows(t *testing.T) {
	f := newStreamFixture(t)
	w, done := f.serve(t, "notifications")

	mine := uuid.New().String()
	foreign := uuid.New().String()
	ctx := t.Context()

	require.NoError(t, f.hub.Publish(ctx, realtime.Change{
		Table: "notifications", Op: realtime.OpInsert, RowID: foreign, UserID: uuid.New().String(),
	}))
	require.NoError(t, f.hub.Publish(ctx, realtime.Change{
		Table: "notifications", Op: realtime.OpInsert, RowID: mine, UserID: f.userID.String(),
	}))
	// Let the stream drain both changes before ending it.
	time.Sleep(100 * time.Millisecond)

	f.store.Broadcast(auth.SessionEvent{Type: auth.SessionSignedOut, UserID: f.userID})
	waitDone(t, done)

	body := w.Body.String()
	assert.Contains(t, body, mine)
	assert.NotContains(t, body, foreign)
}

func TestStreamRejectsUnknownTable(t *testing.T) {
	f := newStreamFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/realtime/users", nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub(rdb, zap.NewNop())
	t.Cleanup(func() { _ = hub.Close() })
	return hub
}

func waitForChange(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case change, ok := <-ch:
		require.True(t, ok, "channel closed before a change arrived")
		return change
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	ch, stop := hub.Subscribe(ctx, "vehicles")
	defer stop()

	// Redis needs a moment to register the subscription.
	time.Sleep(50 * time.Millisecond)

	want := Change{Table: "vehicles", Op: OpInsert, RowID: "abc-123"}
	require.NoError(t, hub.Publish(ctx, want))

	got := waitForChange(t, ch)
	assert.Equal(t, want, got)
}

func TestSubscribersAreTableScoped(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	vehiclesCh, stopVehicles := hub.Subscribe(ctx, "vehicles")
	defer stopVehicles()
	notifCh, stopNotif := hub.Subscribe(ctx, "notifications")
	defer stopNotif()

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, hub.Publish(ctx, Change{Table: "notifications", Op: OpInsert, RowID: "n-1"}))

	got := waitForChange(t, notifCh)
	assert.Equal(t, "n-1", got.RowID)

	select {
	case change := <-vehiclesCh:
		t.Fatalf("vehicles subscriber received foreign change: %+v", change)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopClosesChannel(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	ch, stop := hub.Subscribe(ctx, "vehicles")
	time.Sleep(50 * time.Millisecond)
	stop()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must be closed after stop")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after stop")
	}
}

func TestCloseStopsAllPumps(t *testing.T) {
	hub := newTestHub(t)
	ctx := context.Background()

	ch, stop := hub.Subscribe(ctx, "vehicles")
	defer stop()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, hub.Close())

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after hub close")
	}

	// Idempotent.
	assert.NoError(t, hub.Close())
}

// Package realtime is the table-change feed: repositories publish row
// changes, SSE streams deliver them to interested browsers.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tractorbazar/marketplace/internal/app/observability/metrics"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one row change on a table.
type Change struct {
	Table   string          `json:"table"`
	Op      Op              `json:"op"`
	RowID   string          `json:"row_id"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func channelFor(table string) string { return "changes:" + table }

// Hub fans table changes out through Redis pub/sub so every server instance
// sees every change.
type Hub struct {
	rdb    *redis.Client
	logger *zap.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	group    *errgroup.Group
	groupCtx context.Context
	closed   bool
}

func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(ctx)
	return &Hub{rdb: rdb, logger: logger, cancel: cancel, group: group, groupCtx: groupCtx}
}

// Publish sends one change to every subscriber of the table's channel.
func (h *Hub) Publish(ctx context.Context, change Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := h.rdb.Publish(ctx, channelFor(change.Table), data).Err(); err != nil {
		h.logger.Warn("Failed to publish change",
			zap.String("table", change.Table), zap.Error(err))
		return fmt.Errorf("publish change: %w", err)
	}
	if m := metrics.Get(); m != nil {
		m.RealtimeEventsTotal.Add(ctx, 1)
	}
	return nil
}

// Subscribe returns a channel of changes for one table. The returned stop
// function MUST be called when the consumer goes away; after it returns no
// further sends happen on the channel.
func (h *Hub) Subscribe(ctx context.Context, table string) (<-chan Change, func()) {
	sub := h.rdb.Subscribe(ctx, channelFor(table))
	out := make(chan Change, 16)

	pumpCtx, stopPump := context.WithCancel(h.groupCtx)
	h.group.Go(func() error {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-pumpCtx.Done():
				return nil
			case <-ctx.Done():
				return nil
			case msg, ok := <-msgs:
				if !ok {
					return nil
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					h.logger.Warn("Dropping malformed change payload",
						zap.String("table", table), zap.Error(err))
					continue
				}
				select {
				case out <- change:
				case <-pumpCtx.Done():
					return nil
				case <-ctx.Done():
					return nil
				}
			}
		}
	})

	return out, stopPump
}

// Close stops every pump and waits for them to drain.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	return h.group.Wait()
}

package relay

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/smartcart/internal/feed"
	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/redis"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(context.Background(), "", &redis.Options{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return mr, adapter
}

type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []*model.RegisterEvent
	failures  int
}

func (d *fakeDeliverer) Deliver(_ context.Context, ev *model.RegisterEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures > 0 {
		d.failures--
		return errors.New("terminal unavailable")
	}
	d.delivered = append(d.delivered, ev)
	return nil
}

func (d *fakeDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.delivered)
}

func feedMessage(t *testing.T, id string, ev *model.RegisterEvent) *feed.Message {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return &feed.Message{ID: id, Type: ev.Type, Data: data, Timestamp: time.Now(), Attempts: 1}
}

func TestIdempotencyService(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()
	svc := NewIdempotencyService(adapter, DefaultIdempotencyConfig())

	t.Run("second acquire blocked by lock", func(t *testing.T) {
		a, err := svc.Acquire(ctx, "1-0")
		require.NoError(t, err)
		assert.False(t, a.IsRetry())

		_, err = svc.Acquire(ctx, "1-0")
		assert.ErrorIs(t, err, ErrLockAcquireFailed)

		svc.Release(ctx, a)
		a, err = svc.Acquire(ctx, "1-0")
		require.NoError(t, err)
		svc.Release(ctx, a)
	})

	t.Run("success marks relayed", func(t *testing.T) {
		a, err := svc.Acquire(ctx, "2-0")
		require.NoError(t, err)
		require.NoError(t, svc.MarkSuccess(ctx, a))

		relayed, err := svc.IsRelayed(ctx, "2-0")
		require.NoError(t, err)
		assert.True(t, relayed)

		_, err = svc.Acquire(ctx, "2-0")
		assert.ErrorIs(t, err, ErrAlreadyRelayed)
	})

	t.Run("failures count towards the budget", func(t *testing.T) {
		cfg := DefaultIdempotencyConfig()
		cfg.MaxRetries = 2
		limited := NewIdempotencyService(adapter, cfg)

		for i := 0; i < 2; i++ {
			a, err := limited.Acquire(ctx, "3-0")
			require.NoError(t, err)
			assert.Equal(t, i, a.RetryCount)
			limited.MarkFailure(ctx, a, errors.New("boom"))
		}

		_, err := limited.Acquire(ctx, "3-0")
		assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	})
}

func TestEventProcessor_Process(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()
	ev := &model.RegisterEvent{ID: "ev-1", Type: model.EventCashIntentVerified, Mobile: "******1111", OccurredAt: time.Now().UTC()}

	t.Run("delivers once per stream id", func(t *testing.T) {
		d := &fakeDeliverer{}
		p := NewEventProcessor(d, NewIdempotencyService(adapter, DefaultIdempotencyConfig()), nil)
		msg := feedMessage(t, "10-0", ev)

		require.NoError(t, p.Process(ctx, msg))
		require.NoError(t, p.Process(ctx, msg))
		assert.Equal(t, 1, d.count())
		assert.Equal(t, model.EventCashIntentVerified, d.delivered[0].Type)
	})

	t.Run("failed delivery is retried", func(t *testing.T) {
		d := &fakeDeliverer{failures: 1}
		p := NewEventProcessor(d, NewIdempotencyService(adapter, DefaultIdempotencyConfig()), nil)
		msg := feedMessage(t, "11-0", ev)

		assert.Error(t, p.Process(ctx, msg))
		require.NoError(t, p.Process(ctx, msg))
		assert.Equal(t, 1, d.count())
	})

	t.Run("malformed entry is dropped", func(t *testing.T) {
		d := &fakeDeliverer{}
		p := NewEventProcessor(d, NewIdempotencyService(adapter, DefaultIdempotencyConfig()), nil)

		err := p.Process(ctx, &feed.Message{ID: "12-0", Data: []byte("{not json")})
		assert.NoError(t, err)
		assert.Equal(t, 0, d.count())
	})
}

func TestService_RelaysFeed(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f, err := feed.New(ctx, adapter, feed.Config{
		Stream:            "test:relay",
		ConsumerGroup:     "relay",
		ConsumerName:      "relay-1",
		MaxRetries:        3,
		VisibilityTimeout: time.Second,
		PollInterval:      20 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
	})
	require.NoError(t, err)

	d := &fakeDeliverer{}
	svc := NewService(f, NewEventProcessor(d, NewIdempotencyService(adapter, DefaultIdempotencyConfig()), nil), 2)
	require.NoError(t, svc.Start(ctx))

	for _, typ := range []string{model.EventCashIntentCreated, model.EventCashIntentVerified, model.EventPurchaseRecorded} {
		require.NoError(t, f.Publish(ctx, &model.RegisterEvent{Type: typ, Mobile: "******1111", OccurredAt: time.Now().UTC()}))
	}

	assert.Eventually(t, func() bool { return d.count() == 3 }, 3*time.Second, 20*time.Millisecond)

	svc.Stop()
	snap := svc.Stats()
	assert.Equal(t, int64(3), snap.Relayed)
	assert.Equal(t, int64(0), snap.Failed)
}

func TestServiceStats_Snapshot(t *testing.T) {
	s := NewServiceStats()
	s.RecordSuccess(10 * time.Millisecond)
	s.RecordSuccess(30 * time.Millisecond)
	s.RecordFailure()

	snap := s.Snapshot()
	assert.Equal(t, int64(2), snap.Relayed)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, 20*time.Millisecond, snap.AvgDuration)
}

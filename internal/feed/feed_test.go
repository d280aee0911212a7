package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/redis"
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

func testConfig(stream string) Config {
	return Config{
		Stream:            stream,
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      50 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	}
}

func TestFeed_PublishAndConsume(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	f, err := New(ctx, adapter, testConfig("test:feed"))
	require.NoError(t, err)
	defer f.Stop(time.Second)

	expires := time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC)
	require.NoError(t, f.Publish(ctx, &model.RegisterEvent{
		ID:         "ev-1",
		Type:       model.EventCashIntentCreated,
		Mobile:     "******1111",
		Name:       "Asha",
		ExpiresAt:  &expires,
		OccurredAt: expires.Add(-15 * time.Minute),
	}))

	received := make(chan *model.RegisterEvent, 1)
	require.NoError(t, f.Consume(ctx, func(ctx context.Context, msg *Message) error {
		assert.Equal(t, model.EventCashIntentCreated, msg.Type)
		assert.Equal(t, 1, msg.Attempts)
		ev, err := msg.Event()
		require.NoError(t, err)
		received <- ev
		return nil
	}))

	select {
	case ev := <-received:
		assert.Equal(t, "ev-1", ev.ID)
		assert.Equal(t, "******1111", ev.Mobile)
		require.NotNil(t, ev.ExpiresAt)
		assert.True(t, ev.ExpiresAt.Equal(expires))
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}

	require.Eventually(t, func() bool {
		stats, err := f.Stats(ctx)
		return err == nil && stats.PendingMessages == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFeed_NewIsIdempotent(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	_, err := New(ctx, adapter, testConfig("test:feed"))
	require.NoError(t, err)
	_, err = New(ctx, adapter, testConfig("test:feed"))
	assert.NoError(t, err, "existing group is reused")

	_, err = New(ctx, adapter, Config{})
	assert.Error(t, err)
}

func TestFeed_FailedMessageStaysPending(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	f, err := New(ctx, adapter, testConfig("test:pending"))
	require.NoError(t, err)
	defer f.Stop(time.Second)

	require.NoError(t, f.Publish(ctx, &model.RegisterEvent{Type: model.EventPurchaseRecorded}))

	var calls atomic.Int32
	require.NoError(t, f.Consume(ctx, func(ctx context.Context, msg *Message) error {
		calls.Add(1)
		return assert.AnError
	}))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)

	stats, err := f.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingMessages)
}

func TestFeed_DeadLettersAfterMaxRetries(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	cfg := testConfig("test:dlq")
	cfg.MaxRetries = 1
	cfg.VisibilityTimeout = 100 * time.Millisecond
	f, err := New(ctx, adapter, cfg)
	require.NoError(t, err)
	defer f.Stop(time.Second)

	require.NoError(t, f.Publish(ctx, &model.RegisterEvent{Type: model.EventCashIntentVerified}))
	require.NoError(t, f.Consume(ctx, func(ctx context.Context, msg *Message) error {
		return assert.AnError
	}))

	require.Eventually(t, func() bool {
		n, err := adapter.XLen(ctx, "test:dlq:dlq")
		return err == nil && n == 1
	}, 3*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		stats, err := f.Stats(ctx)
		return err == nil && stats.PendingMessages == 0
	}, 2*time.Second, 50*time.Millisecond)
}

func TestFeed_ConcurrentPublish(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	f, err := New(ctx, adapter, testConfig("test:concurrent"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.Publish(ctx, &model.RegisterEvent{Type: model.EventPurchaseRecorded}))
		}()
	}
	wg.Wait()

	stats, err := f.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalMessages)
}

func TestFeed_ConsumeTwice(t *testing.T) {
	_, adapter := setupTestRedis(t)
	ctx := context.Background()

	f, err := New(ctx, adapter, testConfig("test:twice"))
	require.NoError(t, err)
	defer f.Stop(time.Second)

	noop := func(context.Context, *Message) error { return nil }
	require.NoError(t, f.Consume(ctx, noop))
	assert.Error(t, f.Consume(ctx, noop))
	assert.Error(t, (&Feed{}).Consume(ctx, nil))
}

package feed

import (
	"context"
	"time"

	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/redis"
	"github.com/pkg/errors"
)

const reclaimScanSize = 100

// Consume starts the poll loop in the background. It reads new entries,
// then reclaims entries idle longer than the visibility timeout.
func (f *Feed) Consume(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("feed handler is required")
	}
	if f.cancel != nil {
		return errors.New("feed is already consuming")
	}

	ctx, cancel := context.WithCancel(ctx)
	f.handler = handler
	f.cancel = cancel

	f.wg.Add(1)
	go f.consumeLoop(ctx)
	return nil
}

func (f *Feed) consumeLoop(ctx context.Context) {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.readNew(ctx)
			f.reclaimStuck(ctx)
		}
	}
}

func (f *Feed) readNew(ctx context.Context) {
	messages, err := f.adapter.XReadGroup(ctx, f.config.ConsumerGroup, f.config.ConsumerName, f.config.Stream, f.config.BatchSize)
	if err != nil {
		if !errors.Is(err, redis.NilError) && ctx.Err() == nil {
			logger.Warn("feed read failed", "stream", f.config.Stream, "error", err)
		}
		return
	}

	for _, sm := range messages {
		msg := toMessage(sm)
		msg.Attempts = 1
		f.handle(ctx, msg)
	}
}

func (f *Feed) reclaimStuck(ctx context.Context) {
	pending, err := f.adapter.XPendingExt(ctx, f.config.Stream, f.config.ConsumerGroup, reclaimScanSize)
	if err != nil || len(pending) == 0 {
		return
	}

	attempts := make(map[string]int)
	var ids []string
	for _, p := range pending {
		if p.Idle >= f.config.VisibilityTimeout {
			ids = append(ids, p.ID)
			attempts[p.ID] = int(p.RetryCount)
		}
	}
	if len(ids) == 0 {
		return
	}

	messages, err := f.adapter.XClaim(ctx, f.config.Stream, f.config.ConsumerGroup, f.config.ConsumerName, f.config.VisibilityTimeout, ids...)
	if err != nil {
		logger.Warn("feed reclaim failed", "stream", f.config.Stream, "error", err)
		return
	}

	for _, sm := range messages {
		msg := toMessage(sm)
		msg.Attempts = attempts[sm.ID]
		if msg.Attempts >= f.config.MaxRetries {
			f.deadLetter(ctx, msg)
			f.ack(ctx, msg.ID)
			continue
		}
		msg.Attempts++
		f.handle(ctx, msg)
	}
}

func (f *Feed) handle(ctx context.Context, msg *Message) {
	hctx, cancel := context.WithTimeout(ctx, f.config.VisibilityTimeout)
	defer cancel()

	if err := f.handler(hctx, msg); err != nil {
		logger.Warn("feed message failed, left pending", "id", msg.ID, "type", msg.Type, "attempts", msg.Attempts, "error", err)
		return
	}
	f.ack(ctx, msg.ID)
}

func (f *Feed) ack(ctx context.Context, id string) {
	if err := f.adapter.XAck(ctx, f.config.Stream, f.config.ConsumerGroup, id); err != nil {
		logger.Warn("feed ack failed", "id", id, "error", err)
	}
}

func (f *Feed) deadLetter(ctx context.Context, msg *Message) {
	if !f.config.EnableDLQ {
		logger.Warn("feed message dropped after retries", "id", msg.ID, "type", msg.Type)
		return
	}

	values := map[string]interface{}{
		"type":        msg.Type,
		"data":        string(msg.Data),
		"original_id": msg.ID,
		"attempts":    msg.Attempts,
		"failed_at":   time.Now().Unix(),
	}
	if _, err := f.adapter.XAdd(ctx, f.dlqName(), 0, values); err != nil {
		logger.Error("feed dead letter write failed", "id", msg.ID, "error", err)
		return
	}
	logger.Warn("feed message moved to dead letter stream", "id", msg.ID, "type", msg.Type, "attempts", msg.Attempts)
}

// Stop cancels the poll loop and waits up to timeout for it to return.
func (f *Feed) Stop(timeout time.Duration) error {
	if f.cancel == nil {
		return nil
	}
	f.cancel()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("timeout waiting for feed consumer to stop")
	}
}

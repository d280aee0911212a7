package relay

import (
	"context"
	"time"

	"github.com/nimasrn/smartcart/internal/feed"
	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/prom"
	"github.com/pkg/errors"
)

// Deliverer hands an event to the cashier terminal.
type Deliverer interface {
	Deliver(ctx context.Context, ev *model.RegisterEvent) error
}

// EventProcessor relays one feed message to the terminal exactly once.
type EventProcessor struct {
	deliverer   Deliverer
	idempotency *IdempotencyService
	metrics     *prom.Metrics
}

func NewEventProcessor(deliverer Deliverer, idempotency *IdempotencyService, metrics *prom.Metrics) *EventProcessor {
	return &EventProcessor{
		deliverer:   deliverer,
		idempotency: idempotency,
		metrics:     metrics,
	}
}

// Process returns nil for anything that should be acked, including
// malformed entries and events that ran out of retries.
func (p *EventProcessor) Process(ctx context.Context, msg *feed.Message) error {
	ev, err := msg.Event()
	if err != nil {
		logger.Error("dropping malformed feed entry", "id", msg.ID, "error", err)
		return nil
	}

	// The stream id is stable across redeliveries; the event id is not
	// guaranteed to be set by older publishers.
	key := msg.ID

	attempt, err := p.idempotency.Acquire(ctx, key)
	switch {
	case errors.Is(err, ErrAlreadyRelayed):
		logger.Debug("event already relayed", "id", key, "type", ev.Type)
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		logger.Error("event relay abandoned", "id", key, "type", ev.Type)
		return nil
	case err != nil:
		return err
	}
	defer p.idempotency.Release(ctx, attempt)

	start := time.Now()
	if err := p.deliverer.Deliver(ctx, ev); err != nil {
		p.idempotency.MarkFailure(ctx, attempt, err)
		return errors.Wrapf(err, "relay %s", ev.Type)
	}
	p.metrics.ObserveRelay(ev.Type, time.Since(start))

	if err := p.idempotency.MarkSuccess(ctx, attempt); err != nil {
		logger.Error("relay success marker failed", "id", key, "error", err)
	}
	logger.Info("event relayed", "id", key, "type", ev.Type, "mobile", ev.Mobile, "is_retry", attempt.IsRetry())
	return nil
}

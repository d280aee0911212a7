package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/logger"
)

// EventPublisher sends register events to the feed. A nil publisher disables the feed.
type EventPublisher interface {
	Publish(ctx context.Context, ev *model.RegisterEvent) error
}

// publishEvent never fails the caller; the feed is best effort.
func publishEvent(ctx context.Context, p EventPublisher, ev *model.RegisterEvent) {
	if p == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn("register feed publish failed", "type", ev.Type, "mobile", ev.Mobile, "error", err)
	}
}

package services

import (
	"context"
	"time"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/prom"
	"github.com/pkg/errors"
)

type PurchaseRepository interface {
	Create(ctx context.Context, p *model.Purchase) (*model.Purchase, error)
	List(ctx context.Context, f model.PurchaseFilter) ([]*model.Purchase, error)
}

// IntentRemover drops the pending cash intent of a mobile.
type IntentRemover interface {
	DeleteByMobile(ctx context.Context, mobile string) (int64, error)
}

type PurchaseService struct {
	purchases PurchaseRepository
	intents   IntentRemover
	events    EventPublisher
	metrics   *prom.Metrics
	now       func() time.Time
}

func NewPurchaseService(purchases PurchaseRepository, intents IntentRemover, events EventPublisher, metrics *prom.Metrics) *PurchaseService {
	return &PurchaseService{
		purchases: purchases,
		intents:   intents,
		events:    events,
		metrics:   metrics,
		now:       utcNow,
	}
}

// Record appends a purchase to the ledger. For cash purchases the pending
// intent of the mobile is removed afterwards; a failure there is only logged
// and the purchase stands.
func (s *PurchaseService) Record(ctx context.Context, req model.PurchaseCreateRequest) (*model.Purchase, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	created, err := s.purchases.Create(ctx, &model.Purchase{
		Name:          req.Name,
		Mobile:        req.Mobile,
		Email:         req.Email,
		Products:      req.Products,
		PaymentMethod: req.PaymentMethod,
		CashierCode:   req.CashierCode,
		Date:          s.now(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create purchase")
	}

	if created.PaymentMethod == model.PaymentMethodCash {
		if _, err := s.intents.DeleteByMobile(ctx, created.Mobile); err != nil {
			logger.Warn("cash intent cleanup failed after purchase", "purchase_id", created.ID, "error", err)
		}
	}

	s.metrics.IncPurchase(created.PaymentMethod)
	publishEvent(ctx, s.events, &model.RegisterEvent{
		Type:          model.EventPurchaseRecorded,
		Mobile:        model.MaskMobile(created.Mobile),
		Name:          created.Name,
		PaymentMethod: created.PaymentMethod,
		Total:         created.Total(),
		OccurredAt:    created.Date,
	})
	return created, nil
}

func (s *PurchaseService) List(ctx context.Context, f model.PurchaseFilter) ([]*model.Purchase, error) {
	list, err := s.purchases.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list purchases")
	}
	return list, nil
}

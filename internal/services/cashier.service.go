package services

import (
	"context"
	"time"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/internal/repository"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/prom"
	"github.com/pkg/errors"
)

const sweepBatchSize = 100

type CashIntentRepository interface {
	Upsert(ctx context.Context, ci *model.CashIntent) error
	FindByMobileAndCode(ctx context.Context, mobile, code string) (*model.CashIntent, error)
	DeleteByMobileAndCode(ctx context.Context, mobile, code string) (int64, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*model.CashIntent, error)
	List(ctx context.Context) ([]*model.CashIntent, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CashierCodeHistoryRepository interface {
	Create(ctx context.Context, h *model.CashierCodeHistory) (*model.CashierCodeHistory, error)
	MarkVerified(ctx context.Context, mobile, code string, at time.Time) (int64, error)
	List(ctx context.Context) ([]*model.CashierCodeHistory, error)
}

// CashierService runs the cash checkout handshake. Per mobile an intent goes
// Absent -> Pending -> Verified or Expired, and both end states delete the
// row again. The history table keeps the trace.
type CashierService struct {
	intents    CashIntentRepository
	history    CashierCodeHistoryRepository
	events     EventPublisher
	metrics    *prom.Metrics
	ttl        time.Duration
	codeLength int
	generate   CodeGenerator
	now        func() time.Time
}

func NewCashierService(intents CashIntentRepository, history CashierCodeHistoryRepository, events EventPublisher, metrics *prom.Metrics, ttl time.Duration, codeLength int) *CashierService {
	return &CashierService{
		intents:    intents,
		history:    history,
		events:     events,
		metrics:    metrics,
		ttl:        ttl,
		codeLength: codeLength,
		generate:   GenerateCashierCode,
		now:        utcNow,
	}
}

// CreateIntent issues a new code for the mobile, replacing any pending one.
// The intent upsert and the history append commit together.
func (s *CashierService) CreateIntent(ctx context.Context, req model.CashIntentCreateRequest) (*model.CashIntent, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	code, err := s.generate(s.codeLength)
	if err != nil {
		return nil, errors.Wrap(err, "generate cashier code")
	}

	now := s.now()
	intent := &model.CashIntent{
		Name:        req.Name,
		Mobile:      req.Mobile,
		CashierCode: code,
		Date:        now,
		ExpiresAt:   now.Add(s.ttl),
	}

	err = s.intents.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.intents.Upsert(ctx, intent); err != nil {
			return errors.Wrap(err, "upsert cash intent")
		}
		if _, err := s.history.Create(ctx, &model.CashierCodeHistory{
			CashierCode: code,
			Mobile:      req.Mobile,
			CreatedAt:   now,
		}); err != nil {
			return errors.Wrap(err, "append cashier code history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCashIntentCreated()
	expiresAt := intent.ExpiresAt
	publishEvent(ctx, s.events, &model.RegisterEvent{
		Type:       model.EventCashIntentCreated,
		Mobile:     model.MaskMobile(intent.Mobile),
		Name:       intent.Name,
		ExpiresAt:  &expiresAt,
		OccurredAt: now,
	})
	return intent, nil
}

// Verify consumes the pending intent matching mobile and code.
// No match gives ErrInvalidCode. A match past its expiry is deleted and gives
// ErrCodeExpired. Otherwise the intent is deleted and its history entry marked
// verified in the same transaction. Of two concurrent verifies only the one
// that deletes the row succeeds.
func (s *CashierService) Verify(ctx context.Context, req model.CashierCodeVerifyRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	now := s.now()
	var intent *model.CashIntent
	expired := false

	err := s.intents.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.intents.FindByMobileAndCode(ctx, req.Mobile, req.CashierCode)
		if err != nil {
			if errors.Is(err, repository.ErrCashIntentNotFound) {
				return ErrInvalidCode
			}
			return errors.Wrap(err, "find cash intent")
		}

		deleted, err := s.intents.DeleteByMobileAndCode(ctx, req.Mobile, req.CashierCode)
		if err != nil {
			return errors.Wrap(err, "delete cash intent")
		}
		if deleted == 0 {
			return ErrInvalidCode
		}

		intent = found
		if found.IsExpired(now) {
			expired = true
			return nil
		}

		if _, err := s.history.MarkVerified(ctx, req.Mobile, req.CashierCode, now); err != nil {
			return errors.Wrap(err, "mark cashier code verified")
		}
		return nil
	})

	switch {
	case errors.Is(err, ErrInvalidCode):
		s.metrics.IncVerification(prom.VerificationResultInvalid)
		return err
	case err != nil:
		s.metrics.IncVerification(prom.VerificationResultStoreFail)
		return err
	case expired:
		s.metrics.IncVerification(prom.VerificationResultExpired)
		s.publishExpired(ctx, intent, now)
		return ErrCodeExpired
	}

	s.metrics.IncVerification(prom.VerificationResultSuccess)
	publishEvent(ctx, s.events, &model.RegisterEvent{
		Type:       model.EventCashIntentVerified,
		Mobile:     model.MaskMobile(intent.Mobile),
		Name:       intent.Name,
		VerifiedAt: &now,
		OccurredAt: now,
	})
	return nil
}

func (s *CashierService) ListIntents(ctx context.Context) ([]*model.CashIntent, error) {
	list, err := s.intents.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list cash intents")
	}
	return list, nil
}

func (s *CashierService) ListHistory(ctx context.Context) ([]*model.CashierCodeHistory, error) {
	list, err := s.history.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list cashier code history")
	}
	return list, nil
}

// SweepExpired deletes pending intents whose expiry has passed and reports
// how many went. History entries are never touched.
func (s *CashierService) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0
	for {
		batch, err := s.intents.ListExpired(ctx, now, sweepBatchSize)
		if err != nil {
			return removed, errors.Wrap(err, "list expired cash intents")
		}

		deletedInBatch := 0
		for _, ci := range batch {
			n, err := s.intents.DeleteByMobileAndCode(ctx, ci.Mobile, ci.CashierCode)
			if err != nil {
				return removed, errors.Wrap(err, "delete expired cash intent")
			}
			if n == 0 {
				continue
			}
			deletedInBatch++
			s.publishExpired(ctx, ci, now)
		}
		removed += deletedInBatch

		if len(batch) < sweepBatchSize || deletedInBatch == 0 {
			return removed, nil
		}
	}
}

func (s *CashierService) publishExpired(ctx context.Context, ci *model.CashIntent, now time.Time) {
	expiresAt := ci.ExpiresAt
	publishEvent(ctx, s.events, &model.RegisterEvent{
		Type:       model.EventCashIntentExpired,
		Mobile:     model.MaskMobile(ci.Mobile),
		Name:       ci.Name,
		ExpiresAt:  &expiresAt,
		OccurredAt: now,
	})
}

// RunSweeper calls SweepExpired every interval until ctx ends.
func (s *CashierService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("cash intent sweeper started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("cash intent sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				logger.Error("cash intent sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired cash intents removed", "count", n)
			}
		}
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

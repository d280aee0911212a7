package relay

import (
	"context"
	"strconv"
	"time"

	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/redis"
	"github.com/pkg/errors"
)

var (
	ErrAlreadyRelayed     = errors.New("event already relayed")
	ErrLockAcquireFailed  = errors.New("failed to acquire relay lock")
	ErrMaxRetriesExceeded = errors.New("maximum relay retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL    time.Duration
	DoneTTL    time.Duration
	MaxRetries int

	RetryKeyPrefix string
	LockKeyPrefix  string
	DoneKeyPrefix  string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:        30 * time.Second,
		DoneTTL:        24 * time.Hour,
		MaxRetries:     5,
		RetryKeyPrefix: "relay:retry:",
		LockKeyPrefix:  "relay:lock:",
		DoneKeyPrefix:  "relay:done:",
	}
}

// IdempotencyService makes sure a feed entry reaches the terminal at most
// once even when the stream redelivers it.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(adapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  adapter,
		config: config,
	}
}

type Attempt struct {
	EventID      string
	RetryCount   int
	lockAcquired bool
}

func (a *Attempt) IsRetry() bool {
	return a.RetryCount > 0
}

// Acquire checks the done marker and the retry budget, then takes a short
// lock so only one worker relays the event.
func (s *IdempotencyService) Acquire(ctx context.Context, eventID string) (*Attempt, error) {
	exists, err := s.redis.Exist(ctx, s.config.DoneKeyPrefix+eventID)
	if err != nil {
		logger.Warn("relay done marker check failed", "event_id", eventID, "error", err)
	} else if exists > 0 {
		return nil, ErrAlreadyRelayed
	}

	retryCount, err := s.RetryCount(ctx, eventID)
	if err != nil {
		logger.Warn("relay retry counter read failed", "event_id", eventID, "error", err)
	}
	if retryCount >= s.config.MaxRetries {
		return nil, errors.Wrapf(ErrMaxRetriesExceeded, "event_id=%s retries=%d", eventID, retryCount)
	}

	lockValue := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.redis.SetNX(ctx, s.config.LockKeyPrefix+eventID, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, errors.Wrap(ErrLockAcquireFailed, err.Error())
	}
	if !acquired {
		return nil, ErrLockAcquireFailed
	}

	return &Attempt{
		EventID:      eventID,
		RetryCount:   retryCount,
		lockAcquired: true,
	}, nil
}

// MarkSuccess stores the done marker and clears the lock and retry counter.
func (s *IdempotencyService) MarkSuccess(ctx context.Context, a *Attempt) error {
	if err := s.redis.Set(ctx, s.config.DoneKeyPrefix+a.EventID, []byte("1"), s.config.DoneTTL); err != nil {
		return errors.Wrap(err, "set relay done marker")
	}
	s.del(ctx, s.config.LockKeyPrefix+a.EventID)
	s.del(ctx, s.config.RetryKeyPrefix+a.EventID)
	a.lockAcquired = false
	return nil
}

// MarkFailure bumps the retry counter and frees the lock for the next attempt.
func (s *IdempotencyService) MarkFailure(ctx context.Context, a *Attempt, reason error) {
	next := a.RetryCount + 1
	if err := s.redis.Set(ctx, s.config.RetryKeyPrefix+a.EventID, []byte(strconv.Itoa(next)), s.config.DoneTTL); err != nil {
		logger.Error("relay retry counter write failed", "event_id", a.EventID, "error", err)
	}
	s.del(ctx, s.config.LockKeyPrefix+a.EventID)
	a.lockAcquired = false

	logger.Warn("relay failed, will retry",
		"event_id", a.EventID,
		"retry_count", next,
		"max_retries", s.config.MaxRetries,
		"reason", reason)
}

func (s *IdempotencyService) Release(ctx context.Context, a *Attempt) {
	if a == nil || !a.lockAcquired {
		return
	}
	s.del(ctx, s.config.LockKeyPrefix+a.EventID)
	a.lockAcquired = false
}

func (s *IdempotencyService) RetryCount(ctx context.Context, eventID string) (int, error) {
	raw, err := s.redis.Get(ctx, s.config.RetryKeyPrefix+eventID)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, errors.Wrap(err, "parse retry counter")
	}
	return n, nil
}

func (s *IdempotencyService) IsRelayed(ctx context.Context, eventID string) (bool, error) {
	exists, err := s.redis.Exist(ctx, s.config.DoneKeyPrefix+eventID)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *IdempotencyService) del(ctx context.Context, key string) {
	if err := s.redis.Del(ctx, key); err != nil {
		logger.Warn("relay key cleanup failed", "key", key, "error", err)
	}
}

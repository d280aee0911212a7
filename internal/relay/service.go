package relay

import (
	"context"
	"sync"
	"time"

	"github.com/nimasrn/smartcart/internal/feed"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/nimasrn/smartcart/pkg/worker"
	"github.com/pkg/errors"
)

const (
	ProcessingTimeout = 10 * time.Second
	ReportInterval    = 30 * time.Second
	ShutdownTimeout   = 30 * time.Second
)

// Source is the consuming side of the register feed.
type Source interface {
	Consume(ctx context.Context, handler feed.Handler) error
	Stop(timeout time.Duration) error
	Stats(ctx context.Context) (*feed.Stats, error)
}

type Processor interface {
	Process(ctx context.Context, msg *feed.Message) error
}

// Service reads the feed and fans entries out to a worker pool. The feed
// handler waits for the worker result so acking follows the relay outcome.
type Service struct {
	source    Source
	processor Processor
	worker    *worker.WorkerManager
	stats     *ServiceStats
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

type job struct {
	ctx    context.Context
	msg    *feed.Message
	result chan error
}

func NewService(source Source, processor Processor, workers int) *Service {
	return &Service{
		source:    source,
		processor: processor,
		worker:    worker.NewWorkerManager(workers*4, workers),
		stats:     NewServiceStats(),
	}
}

func (s *Service) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("relay workers stopped", "error", err)
		}
	}()

	if err := s.source.Consume(ctx, s.messageHandler); err != nil {
		cancel()
		return errors.Wrap(err, "start feed consumer")
	}

	s.wg.Add(1)
	go s.reporter(ctx)

	logger.Info("relay service started")
	return nil
}

func (s *Service) Stop() {
	logger.Info("shutting down relay service...")
	if err := s.source.Stop(ShutdownTimeout); err != nil {
		logger.Warn("feed consumer stop", "error", err)
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.report(context.Background())
	logger.Info("relay service stopped")
}

func (s *Service) Stats() Snapshot {
	return s.stats.Snapshot()
}

func (s *Service) messageHandler(ctx context.Context, msg *feed.Message) error {
	jobCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout)
	defer cancel()

	j := &job{ctx: jobCtx, msg: msg, result: make(chan error, 1)}
	if !s.worker.Enqueue(jobCtx, j) {
		return errors.Wrap(jobCtx.Err(), "enqueue feed message")
	}

	select {
	case err := <-j.result:
		return err
	case <-jobCtx.Done():
		return errors.Wrap(jobCtx.Err(), "waiting for relay worker")
	}
}

func (s *Service) workerHandler(workerIndex int, v interface{}) {
	j, ok := v.(*job)
	if !ok {
		logger.Error("invalid job type in relay worker", "worker", workerIndex)
		return
	}
	if j.ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := s.processor.Process(j.ctx, j.msg)
	if err != nil {
		s.stats.RecordFailure()
		logger.Warn("relay worker failed", "worker", workerIndex, "id", j.msg.ID, "error", err)
	} else {
		s.stats.RecordSuccess(time.Since(start))
	}

	j.result <- err
}

func (s *Service) reporter(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.report(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) report(ctx context.Context) {
	snap := s.stats.Snapshot()
	fields := []any{
		"relayed", snap.Relayed,
		"failed", snap.Failed,
		"rate_per_second", snap.RatePerSecond,
		"avg_duration_ms", snap.AvgDuration.Milliseconds(),
		"uptime_seconds", snap.Uptime.Seconds(),
	}
	if fs, err := s.source.Stats(ctx); err == nil {
		fields = append(fields, "stream_total", fs.TotalMessages, "stream_pending", fs.PendingMessages)
	}
	logger.Info("relay stats", fields...)
}

package worker

import (
	"context"
	"sync"

	"github.com/nimasrn/smartcart/pkg/logger"
)

type WorkerHandler = func(workerIndex int, job interface{})

type WorkerManager struct {
	jobChannel     chan interface{}
	numberOfWorker int
	do             WorkerHandler
	waiter         sync.WaitGroup
}

// NewWorkerManager
// is a job manager based on go routines. Jobs published with Enqueue are
// spread over numberOfWorkers goroutines reading one buffered channel.
func NewWorkerManager(bufferSize, numberOfWorkers int) *WorkerManager {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	return &WorkerManager{
		numberOfWorker: numberOfWorkers,
		jobChannel:     make(chan interface{}, bufferSize),
	}
}

func (w *WorkerManager) GetUnreadCount() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue
// Publishes a job onto the channel. It returns false when ctx ends first.
func (w *WorkerManager) Enqueue(ctx context.Context, val interface{}) bool {
	select {
	case w.jobChannel <- val:
		return true
	case <-ctx.Done():
		return false
	}
}

// Start
// runs the workers and blocks until ctx is cancelled and every
// in-flight job has returned.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job := <-w.jobChannel:
					w.do(index, job)
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()
	logger.Info("worker manager stopped", "workers", w.numberOfWorker, "unread", w.GetUnreadCount())
	return ctx.Err()
}

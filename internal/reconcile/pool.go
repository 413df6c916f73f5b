package reconcile

import (
	"context"
	"log/slog"
	"sync"
)

// Job is one order to replay against the gateway.
type Job struct {
	OrderID   int64
	CartID    int64
	Reference string
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(context.Context, Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("reconcile worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("reconcile worker processing job", "worker_id", w.ID, "order_id", job.OrderID)
				processFunc(ctx, job)
			case <-ctx.Done():
				w.Logger.Debug("reconcile worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Pool dispatches queued jobs to idle workers.
type Pool struct {
	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	process    func(context.Context, Job)
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewPool(maxWorkers, queueSize int, process func(context.Context, Job), logger *slog.Logger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
		maxWorkers: maxWorkers,
		process:    process,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (p *Pool) Start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			NewWorker(i, p.workerPool, p.logger).Start(p.ctx, &p.wg, p.process)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("reconcile worker pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

// Submit queues a job without blocking. It returns false when the queue is full.
func (p *Pool) Submit(job Job) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		p.logger.Warn("reconcile queue full, job dropped",
			"order_id", job.OrderID,
			"queue_capacity", cap(p.jobQueue))
		return false
	}
}

func (p *Pool) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- job:
				case <-p.ctx.Done():
					return
				}
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			p.logger.Info("reconcile dispatcher shutting down")
			return
		}
	}
}

func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("reconcile worker pool shutdown complete")
}

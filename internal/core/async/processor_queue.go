package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/syllabus-tracker/internal/common"
	"github.com/joseph-ayodele/syllabus-tracker/internal/core"
	"github.com/joseph-ayodele/syllabus-tracker/internal/metrics"
)

// SyllabusProcessor is satisfied by *core.Processor.
type SyllabusProcessor interface {
	ProcessSyllabus(ctx context.Context, id uuid.UUID) (*core.ProcessResult, error)
}

// DateMaterializer is satisfied by *core.Projector.
type DateMaterializer interface {
	Materialize(ctx context.Context, id uuid.UUID) (*core.MaterializeReport, error)
}

type ProcessorQueue struct {
	proc      SyllabusProcessor
	projector DateMaterializer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	workers   int
	timeout   time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithMaterializer lets jobs with Materialize set project their dates.
func WithMaterializer(p DateMaterializer) Option {
	return func(q *ProcessorQueue) { q.projector = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *ProcessorQueue) { q.metrics = m }
}

func NewProcessorQueue(proc SyllabusProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 30 * time.Second,
		ch:      make(chan Job, 100),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.metrics.SetQueueDepth(len(q.ch))
					q.run(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.RequestID != "" {
		ctx = common.WithRequestID(ctx, job.RequestID)
	}
	ctx = common.WithSyllabusID(ctx, job.SyllabusID.String())
	log := common.LoggerWith(ctx, q.logger).With("worker_id", workerID)

	res, err := q.proc.ProcessSyllabus(ctx, job.SyllabusID)
	if err != nil {
		log.Error("processing failed", "error", err, "waited", time.Since(job.SubmittedAt))
		return
	}
	log.Info("processed syllabus", "extraction_id", res.ExtractionID, "confidence", res.Confidence)

	if !job.Materialize || q.projector == nil {
		return
	}
	report, err := q.projector.Materialize(ctx, job.SyllabusID)
	if err != nil {
		log.Error("materialize failed", "error", err)
		return
	}
	log.Info("materialized dates", "created", report.Created, "duplicates", report.Duplicates, "failed", len(report.Failed))
}

// Enqueue blocks while the buffer is full until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "syllabus_id", job.SyllabusID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "syllabus_id", job.SyllabusID)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	q.metrics.SetQueueDepth(len(q.ch))
	q.logger.Info("queued syllabus for processing", "syllabus_id", job.SyllabusID, "materialize", job.Materialize)
	return nil
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

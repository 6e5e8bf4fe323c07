package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gstbilling/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueuePDF   = "jobs:invoice_pdf"
	QueueEmail = "jobs:email"

	JobTypePDF   = "invoice_pdf"
	JobTypeEmail = "email"
)

// maxAttempts bounds withRetry inside handlers and is recorded on DLQ entries.
const maxAttempts = 3

// ErrInvalidPayload marks a job that can never succeed, so it skips retries.
var ErrInvalidPayload = errors.New("worker: invalid job payload")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes the payload of one job type.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// WorkerHandlers maps each queue to its handler. A nil handler leaves its
// jobs in the DLQ.
type WorkerHandlers struct {
	PDF   Handler
	Email Handler
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueuePDF asks the pool to render and store a bill's PDF.
func (d *Dispatcher) EnqueuePDF(ctx context.Context, payload PDFJobPayload) error {
	return d.enqueue(ctx, QueuePDF, JobTypePDF, payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobTypeEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return errors.New("worker: dispatcher has no redis connection")
	}
	encoded, err := encodeJob(jobType, payload)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

func encodeJob(jobType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Job{Type: jobType, Payload: data})
}

// Pool is a set of goroutines consuming the job queues.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

func newPool(rdb *redis.Client, h WorkerHandlers, m *metrics.Metrics) *Pool {
	handlers := make(map[string]Handler, 2)
	if h.PDF != nil {
		handlers[JobTypePDF] = h.PDF
	}
	if h.Email != nil {
		handlers[JobTypeEmail] = h.Email
	}
	return &Pool{rdb: rdb, handlers: handlers, metrics: m}
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP and exits once ctx is cancelled.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, h WorkerHandlers, numWorkers int, m *metrics.Metrics) *Pool {
	p := newPool(rdb, h, m)
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
	return p
}

// Wait blocks until every worker goroutine has returned.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	queues := []string{QueuePDF, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.handle(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) handle(ctx context.Context, queue, raw string) {
	job, err := p.processJob(ctx, raw)
	if err == nil {
		p.metrics.ObserveJob(queue, metrics.JobResultOK)
		return
	}

	attempts := maxAttempts
	if errors.Is(err, ErrInvalidPayload) {
		attempts = 1
	}
	log.Error().Err(err).Str("queue", queue).Str("type", job.Type).Msg("worker: job failed")
	payload := job.Payload
	if payload == nil {
		payload, _ = json.Marshal(raw)
	}
	SendToDLQ(ctx, p.rdb, queue, job.Type, payload, err.Error(), attempts)
	p.metrics.ObserveJob(queue, metrics.JobResultDLQ)
}

// processJob decodes one raw queue entry and runs its handler.
func (p *Pool) processJob(ctx context.Context, raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return job, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		return job, fmt.Errorf("%w: no handler for job type %q", ErrInvalidPayload, job.Type)
	}
	log.Debug().Str("type", job.Type).Msg("processing job")
	return job, h.Process(ctx, job.Payload)
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bookingcore/internal/model"
	"bookingcore/internal/repository"
)

const (
	eventBatchSize     = 10
	eventFlushInterval = time.Second
	eventBufferSize    = 100
)

// PaymentEventRecorder persists the payment audit trail asynchronously.
// Events are batched; when the buffer is full they are written synchronously.
type PaymentEventRecorder struct {
	repo   repository.PaymentEventRepository
	logger *logrus.Logger
	events chan model.PaymentEvent
	done   chan struct{}
	once   sync.Once

	// mu guards closed against sends racing Close.
	mu     sync.RWMutex
	closed bool
}

// NewPaymentEventRecorder creates a recorder and starts its worker.
func NewPaymentEventRecorder(repo repository.PaymentEventRepository, logger *logrus.Logger) *PaymentEventRecorder {
	r := &PaymentEventRecorder{
		repo:   repo,
		logger: logger,
		events: make(chan model.PaymentEvent, eventBufferSize),
		done:   make(chan struct{}),
	}
	go r.worker()
	return r
}

// Record queues an event without blocking the caller. After Close, or when
// the buffer is full, the event is written synchronously.
func (r *PaymentEventRecorder) Record(ctx context.Context, event model.PaymentEvent) {
	r.mu.RLock()
	if !r.closed {
		select {
		case r.events <- event:
			r.mu.RUnlock()
			return
		default:
		}
	}
	r.mu.RUnlock()

	if err := r.repo.Create(context.WithoutCancel(ctx), &event); err != nil {
		r.logger.WithError(err).Warn("payment event dropped")
	}
}

// List returns the audit trail of a booking, oldest first.
func (r *PaymentEventRecorder) List(ctx context.Context, bookingID uint) ([]model.PaymentEvent, error) {
	return r.repo.ListByBooking(ctx, bookingID)
}

// Close flushes pending events and stops the worker. It is safe to call more than once.
func (r *PaymentEventRecorder) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()
		<-r.done
	})
}

func (r *PaymentEventRecorder) worker() {
	defer close(r.done)

	ctx := context.Background()
	batch := make([]model.PaymentEvent, 0, eventBatchSize)
	ticker := time.NewTicker(eventFlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.repo.CreateBatch(ctx, batch); err != nil {
			r.logger.WithError(err).WithField("count", len(batch)).Warn("payment events dropped")
		}
		batch = make([]model.PaymentEvent, 0, eventBatchSize)
	}

	for {
		select {
		case event, ok := <-r.events:
			if !ok {
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= eventBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

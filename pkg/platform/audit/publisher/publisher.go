// Package publisher delivers audit events to a store, synchronously or through
// a bounded buffer drained by a background worker.
//
// Compliance events are always written synchronously and fail closed: if the
// store rejects them, Emit returns the error and the caller must fail too.
// Operational events may be sampled and, in async mode, dropped when the
// buffer is full.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "onboard/pkg/platform/audit"
	"onboard/pkg/platform/audit/worker"
	"onboard/pkg/platform/sentinel"
)

var (
	ErrBufferFull    = errors.New("audit buffer full")
	ErrMissingAction = errors.New("audit event requires Action")
	ErrNotQueryable  = fmt.Errorf("audit store does not support queries: %w", sentinel.ErrUnavailable)
)

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	sampler *Sampler

	bufferSize int
	inbox      chan audit.Event
	done       chan struct{}
	closeOnce  sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a buffer of n events.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.bufferSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithSampler(s *Sampler) Option {
	return func(p *Publisher) {
		p.sampler = s
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}

	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox,
			worker.WithLogger(p.logger),
			worker.WithFailureHook(func(audit.Event, error) { p.metrics.IncPersistFailures() }),
		)
		go func() {
			defer close(p.done)
			// Background context: the worker must outlive the request that
			// emitted the event. Close drains it.
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit stamps and delivers one event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return ErrMissingAction
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	action := audit.AuditEvent(event.Action)
	event.Category = action.Category()

	if event.Category == audit.CategoryCompliance {
		return p.persist(ctx, event)
	}

	if p.sampler != nil && !p.sampler.Keep(action) {
		p.metrics.IncSampled()
		return nil
	}

	if p.inbox == nil {
		return p.persist(ctx, event)
	}

	select {
	case p.inbox <- event:
		p.metrics.IncEmitted(string(event.Category))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.metrics.IncDropped()
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", event.Action,
				"client_id", event.ClientID,
			)
		}
		return ErrBufferFull
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"action", event.Action,
				"category", event.Category,
				"client_id", event.ClientID,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}
	p.metrics.IncEmitted(string(event.Category))
	return nil
}

// List returns the events recorded for a client when the store is queryable.
func (p *Publisher) List(ctx context.Context, clientID int64) ([]audit.Event, error) {
	r, ok := p.store.(audit.Reader)
	if !ok {
		return nil, ErrNotQueryable
	}
	return r.ListByClient(ctx, clientID)
}

// Close stops accepting async events and waits until the buffer is drained.
// Emit must not be called after Close.
func (p *Publisher) Close() error {
	if p.inbox == nil {
		return nil
	}
	p.closeOnce.Do(func() {
		close(p.inbox)
	})
	<-p.done
	return nil
}

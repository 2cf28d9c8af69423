// Package service loads client snapshots from the record stores, runs the
// onboarding engine over them and records the outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"onboard/internal/onboarding"
	"onboard/internal/onboarding/metrics"
	"onboard/internal/onboarding/ports"
	dErrors "onboard/pkg/domain-errors"
	"onboard/pkg/platform/audit"
	"onboard/pkg/platform/sentinel"
	"onboard/pkg/requestcontext"
)

// Stores groups the read ports. All four are required.
type Stores struct {
	Clients      ports.ClientStore
	Documents    ports.DocumentStore
	Applications ports.ApplicationStore
	Catalog      ports.CatalogStore
}

const defaultRescoreConcurrency = 8

// Service orchestrates evaluations. It is safe for concurrent use.
type Service struct {
	clients      ports.ClientStore
	documents    ports.DocumentStore
	applications ports.ApplicationStore
	catalog      ports.CatalogStore

	engine             *onboarding.Engine
	snapshots          ports.SnapshotStore
	snapshotTTL        time.Duration
	auditPublisher     ports.AuditPublisher
	auditReader        ports.AuditReader
	metrics            *metrics.Metrics
	logger             *slog.Logger
	tracer             trace.Tracer
	rescoreConcurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditPublisher also enables AuditTrail when the publisher can list.
func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
		if r, ok := publisher.(ports.AuditReader); ok {
			s.auditReader = r
		}
	}
}

// WithSnapshots keeps the latest evaluation per client for ttl.
func WithSnapshots(store ports.SnapshotStore, ttl time.Duration) Option {
	return func(s *Service) {
		s.snapshots = store
		s.snapshotTTL = ttl
	}
}

func WithEngine(engine *onboarding.Engine) Option {
	return func(s *Service) {
		s.engine = engine
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func WithRescoreConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.rescoreConcurrency = n
		}
	}
}

func New(stores Stores, opts ...Option) (*Service, error) {
	switch {
	case stores.Clients == nil:
		return nil, errors.New("client store is required")
	case stores.Documents == nil:
		return nil, errors.New("document store is required")
	case stores.Applications == nil:
		return nil, errors.New("application store is required")
	case stores.Catalog == nil:
		return nil, errors.New("catalog store is required")
	}

	s := &Service{
		clients:            stores.Clients,
		documents:          stores.Documents,
		applications:       stores.Applications,
		catalog:            stores.Catalog,
		engine:             onboarding.NewEngine(),
		tracer:             otel.Tracer("onboard/onboarding"),
		rescoreConcurrency: defaultRescoreConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Evaluate scores one client as of the request time and records the result.
func (s *Service) Evaluate(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.Evaluate",
		trace.WithAttributes(attribute.Int64("client_id", int64(clientID))))
	defer span.End()

	ev, err := s.evaluate(ctx, clientID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("stage", string(ev.Progress.Stage)),
		attribute.String("risk_level", string(ev.Risk.Level)),
	)
	return ev, nil
}

func (s *Service) evaluate(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error) {
	start := time.Now()

	in, err := s.loadInput(ctx, clientID)
	if err != nil {
		s.metrics.IncEvaluationFailure(string(dErrors.CodeOf(err)))
		return nil, err
	}

	ev, err := s.engine.Evaluate(*in)
	if err != nil {
		s.metrics.IncEvaluationFailure(string(dErrors.CodeOf(err)))
		s.logger.WarnContext(ctx, "evaluation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"client_id", clientID,
			"error", err,
		)
		return nil, err
	}

	if err := s.record(ctx, ev); err != nil {
		s.metrics.IncEvaluationFailure(string(dErrors.CodeOf(err)))
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.ObserveEvaluation(string(ev.Progress.Stage), string(ev.Risk.Level), elapsed.Seconds(), ev.Risk.RequiresManualReview)
	s.logger.InfoContext(ctx, "client evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", clientID,
		"stage", ev.Progress.Stage,
		"completeness", ev.Progress.Completeness,
		"confidence", ev.Risk.Confidence,
		"risk_level", ev.Risk.Level,
		"duration_ms", elapsed.Milliseconds(),
	)
	return ev, nil
}

// loadInput fetches the client first so an unknown id fails fast, then the
// documents, applications and catalog in parallel.
func (s *Service) loadInput(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Input, error) {
	if clientID <= 0 {
		return nil, onboarding.ErrClientNotFound
	}
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, onboarding.ErrClientNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}

	in := &onboarding.Input{Client: *client, Now: requestcontext.Now(ctx)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.documents.ListDocuments(gctx, clientID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load documents")
		}
		in.Documents = docs
		return nil
	})
	g.Go(func() error {
		apps, err := s.applications.ListApplications(gctx, clientID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applications")
		}
		in.Applications = apps
		return nil
	})
	g.Go(func() error {
		types, err := s.catalog.ListCatalog(gctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document catalog")
		}
		in.Catalog = types
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// record saves the snapshot and emits audit events. A lost snapshot or
// operational event is logged; a lost manual-review event fails the call.
func (s *Service) record(ctx context.Context, ev *onboarding.Evaluation) error {
	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, *ev, s.snapshotTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to save evaluation snapshot",
				"request_id", requestcontext.RequestID(ctx),
				"client_id", ev.ClientID,
				"error", err,
			)
		}
	}

	if s.auditPublisher == nil {
		return nil
	}

	event := s.auditEvent(ctx, audit.EventClientEvaluated, ev)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"client_id", ev.ClientID,
			"error", err,
		)
	}

	if ev.Risk.RequiresManualReview {
		event := s.auditEvent(ctx, audit.EventManualReviewRequired, ev)
		event.Reason = fmt.Sprintf("confidence %d%% below review threshold", ev.Risk.Confidence)
		if err := s.auditPublisher.Emit(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record manual review")
		}
	}
	return nil
}

func (s *Service) auditEvent(ctx context.Context, action audit.AuditEvent, ev *onboarding.Evaluation) audit.Event {
	return audit.Event{
		Timestamp:    requestcontext.Now(ctx),
		ClientID:     int64(ev.ClientID),
		Subject:      fmt.Sprintf("client:%d", ev.ClientID),
		Action:       string(action),
		Decision:     string(ev.Risk.Level),
		Stage:        string(ev.Progress.Stage),
		Completeness: ev.Progress.Completeness,
		Confidence:   ev.Risk.Confidence,
		RequestID:    requestcontext.RequestID(ctx),
		ActorIP:      requestcontext.ClientIP(ctx),
	}
}

// Preview runs the engine as of the request time without recording anything:
// no snapshot, no audit event, no evaluation metrics.
func (s *Service) Preview(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.Preview",
		trace.WithAttributes(attribute.Int64("client_id", int64(clientID))))
	defer span.End()

	in, err := s.loadInput(ctx, clientID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	ev, err := s.engine.Evaluate(*in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return ev, nil
}

// Latest returns the last saved evaluation without re-running the engine.
func (s *Service) Latest(ctx context.Context, clientID onboarding.ClientID) (*onboarding.Evaluation, error) {
	if s.snapshots == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "evaluation snapshots are disabled")
	}
	ev, err := s.snapshots.Find(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no evaluation recorded for client")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evaluation")
	}
	return ev, nil
}

// ValidateDocument runs the coherence rules for one document against the
// client and the rest of its documents.
func (s *Service) ValidateDocument(ctx context.Context, clientID onboarding.ClientID, documentID onboarding.DocumentID) ([]onboarding.ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.ValidateDocument", trace.WithAttributes(
		attribute.Int64("client_id", int64(clientID)),
		attribute.Int64("document_id", int64(documentID)),
	))
	defer span.End()

	in, err := s.loadInput(ctx, clientID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	results, err := onboarding.CheckDocument(in.Client, documentID, in.Documents, onboarding.NewCatalog(in.Catalog), in.Now)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.auditPublisher != nil {
		outcome := onboarding.OutcomeValid
		for _, r := range results {
			if r.Outcome.Failed() {
				outcome = r.Outcome
				break
			}
		}
		event := audit.Event{
			Timestamp: in.Now,
			ClientID:  int64(clientID),
			Subject:   fmt.Sprintf("document:%d", documentID),
			Action:    string(audit.EventDocumentValidated),
			Decision:  string(outcome),
			RequestID: requestcontext.RequestID(ctx),
			ActorIP:   requestcontext.ClientIP(ctx),
		}
		if err := s.auditPublisher.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
		}
	}
	return results, nil
}

// AuditTrail lists the recorded audit events of a client.
func (s *Service) AuditTrail(ctx context.Context, clientID onboarding.ClientID) ([]audit.Event, error) {
	if s.auditReader == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "audit trail is not queryable with the configured sink")
	}
	events, err := s.auditReader.List(ctx, int64(clientID))
	if errors.Is(err, sentinel.ErrUnavailable) {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail is not queryable with the configured sink")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	if events == nil {
		events = []audit.Event{}
	}
	return events, nil
}

// RescoreSummary reports one batch run.
type RescoreSummary struct {
	Evaluated    int                          `json:"evaluated"`
	Skipped      int                          `json:"skipped"`
	ManualReview int                          `json:"manual_review"`
	ByRisk       map[onboarding.RiskLevel]int `json:"by_risk"`
	StartedAt    time.Time                    `json:"started_at"`
	Duration     time.Duration                `json:"duration_ns"`
}

// RescoreAll re-evaluates every client with bounded concurrency. Clients that
// disappear mid-run are skipped; any other failure cancels the batch.
func (s *Service) RescoreAll(ctx context.Context) (*RescoreSummary, error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.RescoreAll")
	defer span.End()

	start := time.Now()
	ids, err := s.clients.ListIDs(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}

	summary := &RescoreSummary{
		ByRisk:    make(map[onboarding.RiskLevel]int),
		StartedAt: requestcontext.Now(ctx),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.rescoreConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			ev, err := s.evaluate(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) {
					summary.Skipped++
					return nil
				}
				return fmt.Errorf("rescore client %d: %w", id, err)
			}
			summary.Evaluated++
			summary.ByRisk[ev.Risk.Level]++
			if ev.Risk.RequiresManualReview {
				summary.ManualReview++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "rescore aborted", "error", err)
		return nil, err
	}

	summary.Duration = time.Since(start)
	s.metrics.ObserveRescore(summary.Evaluated, summary.Skipped, summary.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("evaluated", summary.Evaluated),
		attribute.Int("skipped", summary.Skipped),
	)
	s.logger.InfoContext(ctx, "rescore completed",
		"evaluated", summary.Evaluated,
		"skipped", summary.Skipped,
		"manual_review", summary.ManualReview,
		"duration_ms", summary.Duration.Milliseconds(),
	)

	if s.auditPublisher != nil {
		event := audit.Event{
			Timestamp: summary.StartedAt,
			Subject:   "batch:rescore",
			Action:    string(audit.EventRescoreCompleted),
			Reason:    fmt.Sprintf("evaluated=%d skipped=%d manual_review=%d", summary.Evaluated, summary.Skipped, summary.ManualReview),
			RequestID: requestcontext.RequestID(ctx),
		}
		if err := s.auditPublisher.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
		}
	}
	return summary, nil
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"onboard/internal/onboarding"
	"onboard/internal/onboarding/catalogfile"
	"onboard/internal/onboarding/handler"
	onboardingmetrics "onboard/internal/onboarding/metrics"
	"onboard/internal/onboarding/ports"
	"onboard/internal/onboarding/seedfile"
	"onboard/internal/onboarding/service"
	"onboard/internal/onboarding/store/records"
	"onboard/internal/onboarding/store/snapshot"
	"onboard/internal/platform/config"
	"onboard/internal/platform/httpserver"
	"onboard/internal/platform/kafka"
	"onboard/internal/platform/logger"
	"onboard/internal/platform/metrics"
	"onboard/internal/platform/middleware"
	"onboard/internal/platform/postgres"
	redisplatform "onboard/internal/platform/redis"
	"onboard/pkg/platform/audit"
	"onboard/pkg/platform/audit/publisher"
	kafkaaudit "onboard/pkg/platform/audit/store/kafka"
	memoryaudit "onboard/pkg/platform/audit/store/memory"
	postgresaudit "onboard/pkg/platform/audit/store/postgres"
	"onboard/pkg/platform/circuit"
	"onboard/pkg/platform/httputil"
	"onboard/pkg/platform/middleware/metadata"
	"onboard/pkg/platform/middleware/requestid"
	"onboard/pkg/platform/middleware/requesttime"
	"onboard/pkg/requestcontext"
)

// main wires the stores selected by configuration, exposes the HTTP router and
// keeps the process lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("onboard exited", "error", err)
		os.Exit(1)
	}
}

// recordStore is what the service needs plus catalog sync and seeding.
type recordStore interface {
	ports.ClientStore
	ports.DocumentStore
	ports.ApplicationStore
	ports.CatalogStore
	seedfile.Writer
	SyncCatalog(ctx context.Context, types []onboarding.DocumentType) error
}

type infra struct {
	db       *sql.DB
	redis    *redisplatform.Client
	producer *kgo.Client
}

func (i *infra) close() {
	if i.producer != nil {
		i.producer.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var deps infra
	defer deps.close()

	var err error
	if deps.db, err = postgres.Open(ctx, cfg.Database); err != nil {
		return err
	}
	if deps.redis, err = redisplatform.New(ctx, cfg.Redis); err != nil {
		return err
	}
	if deps.producer, err = kafka.NewProducer(ctx, cfg.Kafka, log); err != nil {
		return err
	}

	store, err := recordsFor(ctx, deps.db)
	if err != nil {
		return err
	}
	types, err := catalogfile.Load(cfg.Onboarding.CatalogPath)
	if err != nil {
		return err
	}
	if err := store.SyncCatalog(ctx, types); err != nil {
		return fmt.Errorf("sync catalog: %w", err)
	}
	log.Info("document catalog loaded", "path", cfg.Onboarding.CatalogPath, "types", len(types))

	if cfg.Onboarding.SeedPath != "" {
		seed, err := seedfile.Load(cfg.Onboarding.SeedPath, time.Now())
		if err != nil {
			return err
		}
		if err := seedfile.Apply(ctx, store, seed); err != nil {
			return err
		}
		log.Info("sample records loaded", "path", cfg.Onboarding.SeedPath, "clients", len(seed.Clients))
	} else if deps.db == nil {
		log.Warn("no database and no ONBOARD_SEED_PATH: the in-memory record store starts empty")
	}

	auditPublisher := publisher.NewPublisher(auditSink(cfg, deps, log),
		publisher.WithAsyncBuffer(cfg.Onboarding.AuditBuffer),
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
		publisher.WithSampler(publisher.NewSampler(cfg.Onboarding.AuditSampleRate)),
	)
	defer func() { _ = auditPublisher.Close() }()

	var snapshots ports.SnapshotStore = snapshot.NewInMemoryStore()
	if deps.redis != nil {
		snapshots = snapshot.NewRedisStore(deps.redis.Client)
	}

	svc, err := service.New(
		service.Stores{Clients: store, Documents: store, Applications: store, Catalog: store},
		service.WithLogger(log),
		service.WithMetrics(onboardingmetrics.New()),
		service.WithAuditPublisher(auditPublisher),
		service.WithSnapshots(snapshots, cfg.Onboarding.SnapshotTTL),
		service.WithRescoreConcurrency(cfg.Onboarding.RescoreConcurrency),
	)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Addr, router(log, svc, deps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting onboard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	if cfg.Onboarding.RescoreInterval > 0 {
		g.Go(func() error {
			rescoreLoop(gctx, svc, cfg.Onboarding.RescoreInterval, log)
			return nil
		})
	}
	return g.Wait()
}

func recordsFor(ctx context.Context, db *sql.DB) (recordStore, error) {
	if db == nil {
		return records.NewInMemoryStore(), nil
	}
	if err := migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return records.NewPostgres(db), nil
}

// auditSink prefers the Kafka stream, then the Postgres outbox, then memory.
func auditSink(cfg config.Server, deps infra, log *slog.Logger) audit.Store {
	switch {
	case deps.producer != nil:
		breaker := circuit.New("audit-kafka",
			circuit.WithRetry(3, 100*time.Millisecond, 2*time.Second, kafkaaudit.Retryable),
			circuit.WithLogger(log),
		)
		return kafkaaudit.New(deps.producer, cfg.Kafka.AuditTopic, kafkaaudit.WithBreaker(breaker))
	case deps.db != nil:
		return postgresaudit.New(deps.db)
	default:
		return memoryaudit.NewInMemoryStore()
	}
}

func router(log *slog.Logger, svc *service.Service, deps infra) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log))
	r.Use(metrics.New().Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		status := http.StatusOK
		if deps.db != nil {
			checks["postgres"] = "ok"
			if err := deps.db.PingContext(r.Context()); err != nil {
				checks["postgres"], status = err.Error(), http.StatusServiceUnavailable
			}
		}
		if deps.redis != nil {
			checks["redis"] = "ok"
			if err := deps.redis.Health(r.Context()); err != nil {
				checks["redis"], status = err.Error(), http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": checks})
	})
	r.Handle("/metrics", promhttp.Handler())

	handler.New(svc, log).Register(r)
	return r
}

// rescoreLoop re-evaluates every client on a fixed interval so expirations
// surface without a console action.
func rescoreLoop(ctx context.Context, svc *service.Service, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			runCtx := requestcontext.WithRequestID(requestcontext.WithTime(ctx, now), "rescore-"+uuid.NewString())
			if _, err := svc.RescoreAll(runCtx); err != nil {
				log.ErrorContext(runCtx, "scheduled rescore failed", "error", err)
			}
		}
	}
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vouch/internal/audit"
	"vouch/internal/audit/publisher"
	"vouch/internal/jwttoken"
	"vouch/internal/notify"
	"vouch/internal/platform/config"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/middleware"
	platformredis "vouch/internal/platform/redis"
	"vouch/internal/reviewer"
	reviewerhandler "vouch/internal/reviewer/handler"
	"vouch/internal/verification"
	verifhandler "vouch/internal/verification/handler"
	vmetrics "vouch/internal/verification/metrics"
	"vouch/internal/verification/pendinglock"
	"vouch/internal/verification/providers"
	"vouch/internal/verification/providers/httpapi"
	"vouch/internal/verification/providers/stub"
	"vouch/internal/verification/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Record store: postgres when configured, otherwise in-memory.
	var records store.RecordStore
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("record schema migration failed", "error", err)
			os.Exit(1)
		}
		records = pg
	} else {
		log.Warn("no postgres DSN configured, using in-memory record store")
		records = store.NewInMemory()
	}

	// Audit store shares the database but uses its own pool.
	var auditStore audit.Store
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("audit pool failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pg := audit.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("audit schema migration failed", "error", err)
			os.Exit(1)
		}
		auditStore = pg
	} else {
		auditStore = audit.NewInMemoryStore()
	}

	// Pending lock: redis across instances, mutex within one.
	var locks pendinglock.Lock = pendinglock.NewInMemory()
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		locks = pendinglock.NewRedis(redisClient.Client)
	} else {
		log.Warn("no redis URL configured, pending lock is process-local")
	}

	// Kafka fan-out: audit publisher and outcome notifier.
	var auditPublisher audit.Publisher
	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := publisher.NewKafka(ctx, cfg.KafkaBrokers, log)
		if err != nil {
			log.Error("kafka publisher failed", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		auditPublisher = kafkaPublisher

		kafkaNotifier, err := notify.NewKafka(cfg.KafkaBrokers, notify.DefaultTopic, log)
		if err != nil {
			log.Error("kafka notifier failed", "error", err)
			os.Exit(1)
		}
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	auditService := audit.NewService(auditStore, auditPublisher, log)

	documents, addresses, faces := buildProviders(cfg, log)

	metrics := vmetrics.New()
	verifier := verification.NewService(records, locks, documents, addresses, faces,
		verification.WithAudit(auditService),
		verification.WithNotifier(notifier),
		verification.WithMetrics(metrics),
		verification.WithLogger(log),
		verification.WithConfig(verification.Config{
			PollInterval:    cfg.PollInterval,
			MaxPollAttempts: cfg.MaxPollAttempts,
			ProviderTimeout: cfg.ProviderTimeout,
		}),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "vouch", "vouch-reviewers")
	reviewerStore := reviewer.NewInMemoryStore()
	reviewerService := reviewer.NewService(reviewerStore, jwtService)
	seedDevReviewer(ctx, reviewerService, log)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Device)
	router.Use(middleware.Logger(log))
	// A verify request may sit through the whole poll budget plus the
	// surrounding provider calls; bound it just above that worst case.
	requestBudget := time.Duration(cfg.MaxPollAttempts)*(cfg.PollInterval+cfg.ProviderTimeout) + 2*cfg.ProviderTimeout
	router.Use(middleware.Timeout(requestBudget))

	verifhandler.New(verifier, log, validatorAdapter{jwtService}).Register(router)
	reviewerhandler.New(reviewerService, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting vouch", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// buildProviders wires the REST analyzer clients, falling back to the
// deterministic dev stubs when no URLs are configured.
func buildProviders(cfg config.Server, log *slog.Logger) (providers.DocumentAnalyzer, providers.AddressValidator, providers.FaceComparer) {
	if cfg.DocumentProviderURL == "" && cfg.AddressProviderURL == "" && cfg.FaceProviderURL == "" {
		log.Warn("no provider URLs configured, using deterministic dev analyzers")
		s := stub.New()
		return s, s, stub.NewFaces()
	}

	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	documents := httpapi.NewDocumentClient(httpapi.NewClient(cfg.DocumentProviderURL, cfg.ProviderAPIKey, httpClient))
	addresses := httpapi.NewAddressClient(httpapi.NewClient(cfg.AddressProviderURL, cfg.ProviderAPIKey, httpClient))
	faces := httpapi.NewFaceClient(httpapi.NewClient(cfg.FaceProviderURL, cfg.ProviderAPIKey, httpClient))
	return documents, addresses, faces
}

// seedDevReviewer registers one reviewer for local testing when requested,
// logging the one-time credentials.
func seedDevReviewer(ctx context.Context, svc *reviewer.Service, log *slog.Logger) {
	if os.Getenv("VOUCH_SEED_DEV_REVIEWER") != "true" {
		return
	}
	rev, apiKey, err := svc.Register(ctx, "dev-reviewer")
	if err != nil {
		log.Error("dev reviewer seed failed", "error", err)
		return
	}
	log.Info("dev reviewer seeded", "reviewer_id", rev.ID, "api_key", apiKey)
}

// validatorAdapter narrows the JWT service to the middleware contract.
type validatorAdapter struct {
	jwt *jwttoken.JWTService
}

func (a validatorAdapter) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{ReviewerID: claims.ReviewerID}, nil
}

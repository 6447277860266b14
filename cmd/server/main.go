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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"creditgate/internal/audit"
	"creditgate/internal/authtoken"
	"creditgate/internal/bureau"
	"creditgate/internal/pipeline"
	"creditgate/internal/pipeline/metrics"
	"creditgate/internal/platform/config"
	"creditgate/internal/platform/httpserver"
	"creditgate/internal/platform/logger"
	"creditgate/internal/platform/middleware"
	platformredis "creditgate/internal/platform/redis"
	"creditgate/internal/record"
	httptransport "creditgate/internal/transport/http"
)

const auditBufferSize = 256

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages; everything here is assembly.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	identity := bureau.NewIdentityClient(cfg.IdentityAPIURL, cfg.LookupTimeout)
	credit := bureau.NewCreditClient(cfg.CreditAPIURL, cfg.LookupTimeout)

	opts := []pipeline.Option{pipeline.WithObserver(metrics.New())}

	var worker *audit.Worker
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()

		events := make(chan audit.Event, auditBufferSize)
		worker = audit.NewWorker(publisher, events, log)
		opts = append(opts, pipeline.WithAuditRecorder(audit.NewRecorder(events, log)))
		log.Info("audit publishing enabled", "topic", cfg.AuditTopic)
	} else {
		log.Warn("KAFKA_BROKERS not set, audit publishing disabled")
	}

	service, err := pipeline.New(store, identity, credit, log, opts...)
	if err != nil {
		return err
	}

	var tokens *authtoken.Manager
	var authMW func(http.Handler) http.Handler
	if cfg.JWTSigningKey != "" {
		tokens = authtoken.NewManager(cfg.JWTSigningKey, cfg.APIClientID, cfg.ClientSecretHash, cfg.TokenTTL)
		authMW = middleware.RequireToken(tokens, log)
	} else {
		log.Warn("JWT_SIGNING_KEY not set, credit endpoints are unauthenticated")
	}

	// A typed nil would defeat the router's "is auth configured" check, so
	// only pass the manager when it exists.
	var issuer httptransport.TokenIssuer
	if tokens != nil {
		issuer = tokens
	}
	handler := httptransport.New(service, issuer, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, authMW))

	group, groupCtx := errgroup.WithContext(ctx)

	if worker != nil {
		group.Go(func() error {
			if err := worker.Run(groupCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		log.Info("starting creditgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// buildStore picks the record store from configuration: Postgres when
// DATABASE_URL is set, in-memory otherwise, with an optional Redis cache for
// terminal records layered on top.
func buildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (record.Store, func(), error) {
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store record.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })

		if err := db.PingContext(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}

		pg := record.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		store = pg
	} else {
		log.Warn("DATABASE_URL not set, using in-memory record store")
		store = record.NewInMemoryStore()
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		store = record.NewCachedStore(store, client, cfg.CacheTTL, log)
		log.Info("terminal record cache enabled", "ttl", cfg.CacheTTL)
	}

	return store, closeAll, nil
}

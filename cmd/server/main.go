// main wires the onboarding service: config, stores, the Kakao client, the
// identity provider, the auth and profile modules, and the HTTP server
// lifecycle. Business logic lives in the internal packages.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	authhandler "gomunity/internal/auth/handler"
	authservice "gomunity/internal/auth/service"
	"gomunity/internal/authstate"
	"gomunity/internal/identity/local"
	sessionstore "gomunity/internal/identity/store/session"
	userstore "gomunity/internal/identity/store/user"
	jwttoken "gomunity/internal/jwt_token"
	"gomunity/internal/kakao"
	"gomunity/internal/platform/config"
	"gomunity/internal/platform/database"
	"gomunity/internal/platform/httpserver"
	platformkafka "gomunity/internal/platform/kafka"
	"gomunity/internal/platform/logger"
	"gomunity/internal/platform/metrics"
	"gomunity/internal/platform/middleware"
	platformredis "gomunity/internal/platform/redis"
	profilehandler "gomunity/internal/profile/handler"
	profileservice "gomunity/internal/profile/service"
	profilestore "gomunity/internal/profile/store"
	"gomunity/pkg/platform/audit/publisher"
	auditkafka "gomunity/pkg/platform/audit/sink/kafka"
	auditmemory "gomunity/pkg/platform/audit/store/memory"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Storage. Postgres and Redis are optional so local development can run
	// entirely in memory.
	var db *sql.DB
	var users local.UserStore = userstore.NewInMemory()
	var profiles profileservice.Store = profilestore.NewInMemory()
	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		users = userstore.NewPostgres(db)
		profiles = profilestore.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var sessions local.SessionStore = sessionstore.NewInMemory()
	if redisClient != nil {
		defer redisClient.Close()
		sessions = sessionstore.NewRedis(redisClient.Client)
		log.Info("using redis session storage")
	}

	// Audit pipeline: in-memory store, async publisher, optional Kafka sink.
	pubOpts := []publisher.Option{publisher.WithAsyncBuffer(256), publisher.WithLogger(log)}
	var producer *platformkafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = platformkafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.AuditTopic, 1); err != nil {
			return err
		}
		pubOpts = append(pubOpts, publisher.WithSink(auditkafka.NewSink(producer, cfg.AuditTopic)))
		log.Info("audit events published to kafka", "topic", cfg.AuditTopic)
	}
	auditor := publisher.NewPublisher(auditmemory.NewInMemoryStore(), pubOpts...)
	defer auditor.Close()

	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "gomunity", "gomunity")
	kakaoClient := kakao.New(cfg.Kakao)

	provider := local.New(users, sessions, jwtSvc,
		local.WithLogger(log),
		local.WithSessionTTL(cfg.SessionTTL),
	)

	profileSvc := profileservice.NewService(profiles,
		profileservice.WithLogger(log),
		profileservice.WithMetrics(m),
		profileservice.WithAuditor(auditor),
	)
	authSvc := authservice.NewService(kakaoClient, provider, profileSvc, cfg.CredentialSalt, cfg.Kakao.RedirectURI,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithAuditor(auditor),
	)

	// Auth-state cache kept in sync with provider notifications.
	state := authstate.New(provider, profileSvc, authstate.WithLogger(log))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	authhandler.New(authSvc, jwtSvc, log).Register(r)
	profilehandler.New(profileSvc, jwtSvc, log).Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthz(db, redisClient))

	srv := httpserver.New(cfg.Addr, r)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		state.Run(ctx, provider.Subscribe())
		return nil
	})
	g.Go(func() error {
		log.Info("starting gomunity server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// healthz reports database and redis connectivity. Backends that are not
// configured are skipped.
func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	alerthandler "github.com/vishvendra9627/tourist-safety-app/internal/alert/handler"
	alertservice "github.com/vishvendra9627/tourist-safety-app/internal/alert/service"
	alertstore "github.com/vishvendra9627/tourist-safety-app/internal/alert/store"
	"github.com/vishvendra9627/tourist-safety-app/internal/audit"
	identityhandler "github.com/vishvendra9627/tourist-safety-app/internal/identity/handler"
	identityservice "github.com/vishvendra9627/tourist-safety-app/internal/identity/service"
	identitystore "github.com/vishvendra9627/tourist-safety-app/internal/identity/store"
	"github.com/vishvendra9627/tourist-safety-app/internal/identity/validation"
	jwttoken "github.com/vishvendra9627/tourist-safety-app/internal/jwt_token"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/cache"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/geocoder"
	locationhandler "github.com/vishvendra9627/tourist-safety-app/internal/location/handler"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/resolver"
	locationservice "github.com/vishvendra9627/tourist-safety-app/internal/location/service"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/tracker"
	"github.com/vishvendra9627/tourist-safety-app/internal/location/watch"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/config"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/httpserver"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/kafka"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/logger"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/metrics"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/otel"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/postgres"
	"github.com/vishvendra9627/tourist-safety-app/internal/platform/redis"
	httptransport "github.com/vishvendra9627/tourist-safety-app/internal/transport/http"
	"github.com/vishvendra9627/tourist-safety-app/pkg/platform/circuit"
)

// main wires dependencies and runs the HTTP server and the location watcher
// until SIGINT or SIGTERM. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	kafkaClient, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := kafka.EnsureTopic(ctx, kafkaClient, cfg.Kafka); err != nil {
			return err
		}
	}

	m := metrics.New()
	auditor := audit.NewPublisher(auditStore(log, kafkaClient, cfg.Kafka.AuditTopic),
		audit.WithLogger(log),
		audit.WithAsyncBuffer(256),
	)
	defer auditor.Close()

	policy, err := validation.ParseContactPolicy(cfg.Server.ContactPolicy)
	if err != nil {
		return err
	}

	identities := identityservice.New(identityStore(db),
		identityservice.WithAuditPublisher(auditor),
		identityservice.WithMetrics(m),
		identityservice.WithLogger(log),
		identityservice.WithContactPolicy(policy),
	)

	resolverOpts := []resolver.Option{
		resolver.WithTimeout(cfg.Geocoder.Timeout),
		resolver.WithBreaker(circuit.New("geocoder")),
		resolver.WithMetrics(m),
		resolver.WithLogger(log),
	}
	var locTracker interface {
		watch.Tracker
		locationservice.Tracker
	} = tracker.NewInMemory()
	if rdb != nil {
		resolverOpts = append(resolverOpts, resolver.WithCache(cache.NewRedis(rdb, cfg.Geocoder.CacheTTL)))
		locTracker = tracker.NewRedis(rdb, cfg.Location.TTL)
	}
	if cfg.Geocoder.APIKey == "" {
		log.Warn("GOOGLE_MAPS_API_KEY is empty; reverse geocoding requests will be rejected upstream")
	}
	geo := geocoder.NewGoogle(cfg.Geocoder.APIKey,
		geocoder.WithBaseURL(cfg.Geocoder.BaseURL),
		geocoder.WithHTTPClient(&http.Client{Timeout: cfg.Geocoder.Timeout}),
	)
	locResolver := resolver.New(geo, resolverOpts...)

	feed := watch.NewFeed()
	watcher := watch.NewWatcher(feed, locResolver, locTracker,
		watch.WithThrottle(cfg.Location.SampleRate, cfg.Location.SampleBurst),
		watch.WithMetrics(m),
		watch.WithLogger(log),
	)
	locations := locationservice.New(feed, locTracker, locResolver)

	alerts := alertservice.New(alertStore(db), identities, locations,
		alertservice.WithAuditPublisher(auditor),
		alertservice.WithMetrics(m),
		alertservice.WithLogger(log),
		alertservice.WithContactPolicy(policy),
	)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		AdminToken:     cfg.Auth.AdminToken,
		RequestTimeout: cfg.Server.RequestTimeout,
		Identity:       identityhandler.New(identities, log),
		Location:       locationhandler.New(locations, log),
		Alert:          alerthandler.New(alerts, log),
		HealthChecks:   healthChecks(db, rdb),
		Metrics:        promhttp.Handler(),
	})
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting tourist-safety server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func identityStore(db *sql.DB) identityservice.Store {
	if db == nil {
		return identitystore.NewInMemory()
	}
	return identitystore.NewPostgres(db)
}

func alertStore(db *sql.DB) alertservice.Store {
	if db == nil {
		return alertstore.NewInMemory()
	}
	return alertstore.NewPostgres(db)
}

func auditStore(log *slog.Logger, client *kgo.Client, topic string) audit.Store {
	logStore := audit.NewLogStore(log)
	if client == nil {
		return logStore
	}
	return audit.MultiStore{logStore, audit.NewKafkaStore(client, topic)}
}

func healthChecks(db *sql.DB, rdb *redis.Client) []httptransport.HealthCheck {
	var checks []httptransport.HealthCheck
	if db != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if rdb != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: rdb.Health})
	}
	return checks
}

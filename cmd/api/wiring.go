package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"

	"github.com/dejobratic/cafe/internal/auth"
	catalogadapters "github.com/dejobratic/cafe/internal/catalog/adapters"
	cataloghttp "github.com/dejobratic/cafe/internal/catalog/adapters/http"
	catalogpostgres "github.com/dejobratic/cafe/internal/catalog/adapters/postgres"
	"github.com/dejobratic/cafe/internal/catalog/adapters/rediscache"
	catalogapp "github.com/dejobratic/cafe/internal/catalog/app"
	catalogports "github.com/dejobratic/cafe/internal/catalog/ports"
	"github.com/dejobratic/cafe/internal/config"
	contenthttp "github.com/dejobratic/cafe/internal/content/adapters/http"
	contentmemory "github.com/dejobratic/cafe/internal/content/adapters/memory"
	contentmongo "github.com/dejobratic/cafe/internal/content/adapters/mongo"
	contentapp "github.com/dejobratic/cafe/internal/content/app"
	contentports "github.com/dejobratic/cafe/internal/content/ports"
	"github.com/dejobratic/cafe/internal/database"
	"github.com/dejobratic/cafe/internal/idempotency"
	idempostgres "github.com/dejobratic/cafe/internal/idempotency/postgres"
	identityhttp "github.com/dejobratic/cafe/internal/identity/adapters/http"
	identitymemory "github.com/dejobratic/cafe/internal/identity/adapters/memory"
	identitypostgres "github.com/dejobratic/cafe/internal/identity/adapters/postgres"
	"github.com/dejobratic/cafe/internal/identity/adapters/rediscodes"
	identityapp "github.com/dejobratic/cafe/internal/identity/app"
	identityports "github.com/dejobratic/cafe/internal/identity/ports"
	"github.com/dejobratic/cafe/internal/kafka"
	"github.com/dejobratic/cafe/internal/mail"
	notificationshttp "github.com/dejobratic/cafe/internal/notifications/adapters/http"
	notificationspostgres "github.com/dejobratic/cafe/internal/notifications/adapters/postgres"
	notificationsapp "github.com/dejobratic/cafe/internal/notifications/app"
	notificationsports "github.com/dejobratic/cafe/internal/notifications/ports"
	ordersadapters "github.com/dejobratic/cafe/internal/orders/adapters"
	ordershttp "github.com/dejobratic/cafe/internal/orders/adapters/http"
	orderspostgres "github.com/dejobratic/cafe/internal/orders/adapters/postgres"
	ordersapp "github.com/dejobratic/cafe/internal/orders/app"
	ordersmetrics "github.com/dejobratic/cafe/internal/orders/metrics"
	"github.com/dejobratic/cafe/internal/outbox"
	outboxpostgres "github.com/dejobratic/cafe/internal/outbox/postgres"
	"github.com/dejobratic/cafe/internal/payment"
	promotionshttp "github.com/dejobratic/cafe/internal/promotions/adapters/http"
	promotionspostgres "github.com/dejobratic/cafe/internal/promotions/adapters/postgres"
	promotionsapp "github.com/dejobratic/cafe/internal/promotions/app"
	reportshttp "github.com/dejobratic/cafe/internal/reports/adapters/http"
	reportsapp "github.com/dejobratic/cafe/internal/reports/app"
	"github.com/dejobratic/cafe/internal/web"
)

// registrar is implemented by every module's HTTP handler.
type registrar interface {
	Register(r chi.Router)
}

type application struct {
	logger      *slog.Logger
	tokens      *auth.Tokens
	httpMetrics *web.Metrics
	handlers    []registrar
	relay       *outbox.Relay
	checks      []database.Check
	closers     []func()
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger, meter metric.Meter) (app *application, err error) {
	app = &application{logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	app.closers = append(app.closers, pool.Close)
	app.checks = append(app.checks, database.Check{
		Name:  "postgres",
		Ping: func(ctx context.Context) error { return database.CheckHealth(ctx, pool) },
	})

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	if app.httpMetrics, err = web.NewMetrics(meter); err != nil {
		return nil, err
	}

	if app.tokens, err = auth.NewTokens(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL, cfg.Service.Name); err != nil {
		return nil, fmt.Errorf("create token issuer: %w", err)
	}

	rdb, err := app.connectRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	contentStore, err := app.connectContent(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}

	events := outboxpostgres.NewStore(pool)

	var products catalogports.ProductRepository = catalogadapters.NewObservableRepository(catalogpostgres.NewRepository(pool), dbMetrics)
	if rdb != nil {
		products = rediscache.NewCachedRepository(products, rdb, cfg.Redis.CatalogCacheTTL, logger)
	}

	userRepo := identitypostgres.NewRepository(pool)
	catalog := catalogapp.NewService(products, userDirectory{users: userRepo})

	var codes identityports.CodeStore = identitymemory.NewCodeStore()
	if rdb != nil {
		codes = rediscodes.NewStore(rdb)
	}
	identity := identityapp.NewService(identityapp.Dependencies{
		Repository: userRepo,
		Codes:      codes,
		Tokens:     app.tokens,
		Products:   catalog,
		Events:     events,
		CodeTTL:    cfg.Auth.CodeTTL,
		Logger:     logger,
	})

	promotions := promotionsapp.NewService(promotionspostgres.NewRepository(pool))
	content := contentapp.NewService(contentStore)
	notificationsRepo := notificationspostgres.NewRepository(pool)

	ordersMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	ordersRepo := ordersadapters.NewObservableRepository(orderspostgres.NewRepository(pool), dbMetrics)
	orders := ordersapp.NewService(ordersapp.Dependencies{
		Repository:       ordersRepo,
		Catalog:          catalog,
		Customers:        identity,
		Coupons:          promotions,
		Settings:         content,
		Gateway:          payment.NewClient(cfg.Payment.GatewayBaseURL, cfg.Payment.Timeout),
		Idempotency:      idempostgres.NewStore(pool, idempotency.DefaultTTL),
		PointsPerHundred: cfg.Rewards.PointsPerHundred,
		Logger:           logger,
		Metrics:          ordersMetrics,
	})

	if app.relay, err = app.buildRelay(cfg, events, notificationsRepo, meter); err != nil {
		return nil, err
	}

	app.handlers = []registrar{
		identityhttp.NewHandler(identity, catalog),
		cataloghttp.NewHandler(catalog),
		promotionshttp.NewHandler(promotions, identity),
		ordershttp.NewHandler(orders, logger),
		notificationshttp.NewHandler(notificationsapp.NewService(notificationsRepo)),
		contenthttp.NewHandler(content),
		reportshttp.NewHandler(reportsapp.NewService(ordersRepo, catalog)),
	}
	return app, nil
}

// connectRedis returns nil when no address is configured. The catalog is
// then served uncached and one-time codes stay in process memory.
func (a *application) connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		a.logger.Warn("redis not configured, catalog cache disabled and one-time codes kept in memory")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	a.checks = append(a.checks, database.Check{
		Name:  "redis",
		Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})
	return rdb, nil
}

func (a *application) connectContent(ctx context.Context, cfg config.MongoConfig) (contentports.Store, error) {
	if cfg.URI == "" {
		a.logger.Warn("mongodb not configured, content and settings kept in memory")
		return contentmemory.NewStore(), nil
	}

	db, err := contentmongo.Connect(ctx, cfg.URI, cfg.Database)
	if err != nil {
		return nil, err
	}
	client := db.Client()
	a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
	a.checks = append(a.checks, database.Check{
		Name:  "mongodb",
		Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
	})
	return contentmongo.NewStore(db), nil
}

func (a *application) buildRelay(cfg *config.Config, store outbox.Store, notifications notificationsports.Repository, meter metric.Meter) (*outbox.Relay, error) {
	outboxMetrics, err := outbox.NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	relay := outbox.NewRelay(store, outbox.RelayConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
	}, a.logger, outboxMetrics)

	relay.Register(outbox.SinkNotification, notificationsapp.NewNotificationSink(notifications))
	relay.Register(outbox.SinkAudit, notificationsapp.NewAuditSink(notifications))

	templates, err := mail.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load mail templates: %w", err)
	}
	var sender mail.Sender = mail.NewLogSender(a.logger)
	if cfg.Mail.Enabled {
		smtp, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
		if err != nil {
			return nil, err
		}
		sender = smtp
	}
	relay.Register(outbox.SinkMail, mail.NewHandler(sender, templates))

	if len(cfg.Kafka.Brokers) == 0 {
		relay.Register(outbox.SinkBroker, kafka.NewNoopPublisher(a.logger))
		return relay, nil
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, kafkaMetrics)
	a.closers = append(a.closers, func() {
		if err := publisher.Close(); err != nil {
			a.logger.Error("close kafka publisher", "error", err)
		}
	})
	relay.Register(outbox.SinkBroker, publisher)
	return relay, nil
}

func (a *application) router(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(web.WithRecovery(a.logger))
	r.Use(web.WithLogging(a.logger))
	r.Use(web.WithCORS(cfg.HTTP.CORSOrigins))
	r.Use(web.WithMetrics(a.httpMetrics))
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckAll(r.Context(), a.checks...); err != nil {
			a.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			web.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate(a.tokens))
		for _, h := range a.handlers {
			h.Register(r)
		}
	})

	return otelhttp.NewHandler(r, cfg.Service.Name)
}

// close releases connections in reverse order of acquisition.
func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// userDirectory resolves review author names straight from the user store.
type userDirectory struct {
	users identityports.UserRepository
}

func (d userDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	user, err := d.users.GetByID(ctx, userID)
	if errors.Is(err, identityports.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

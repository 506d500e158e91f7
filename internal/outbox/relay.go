package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/cafe/internal/telemetry"
)

var ErrNoHandler = errors.New("no handler registered for sink")

// Handler delivers one event to a sink. Returning an error schedules a retry.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	Lease        time.Duration
}

// Relay polls the outbox and dispatches pending events to their sink handlers.
type Relay struct {
	store    Store
	handlers map[string]Handler
	cfg      RelayConfig
	logger   *slog.Logger
	metrics  *Metrics
}

func NewRelay(store Store, cfg RelayConfig, logger *slog.Logger, metrics *Metrics) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 30 * time.Second
	}

	return &Relay{
		store:    store,
		handlers: make(map[string]Handler),
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// Register binds a handler to a sink. Registering twice replaces the handler.
func (r *Relay) Register(sink string, handler Handler) {
	r.handlers[sink] = handler
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "outbox batch failed", slog.String("error", err.Error()))
			}
		}
	}
}

// ProcessBatch dispatches one batch and returns how many events were delivered.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	events, err := r.store.ClaimPending(ctx, r.cfg.BatchSize, r.cfg.MaxAttempts, r.cfg.Lease)
	if err != nil {
		return 0, fmt.Errorf("claim pending events: %w", err)
	}

	delivered := 0
	for _, event := range events {
		if err := r.dispatch(ctx, event); err != nil {
			attempt := event.Attempts + 1
			level := slog.LevelWarn
			if attempt >= r.cfg.MaxAttempts {
				level = slog.LevelError
			}
			r.logger.Log(ctx, level, "outbox dispatch failed",
				slog.String("event_id", event.ID.String()),
				slog.String("sink", event.Sink),
				slog.String("type", event.Type),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			if markErr := r.store.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				return delivered, fmt.Errorf("mark event %s failed: %w", event.ID, markErr)
			}
			continue
		}

		if err := r.store.MarkProcessed(ctx, event.ID); err != nil {
			return delivered, fmt.Errorf("mark event %s processed: %w", event.ID, err)
		}
		delivered++
	}

	return delivered, nil
}

func (r *Relay) dispatch(ctx context.Context, event Event) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "Outbox.Dispatch",
		attribute.String("outbox.sink", event.Sink),
		attribute.String("outbox.event_type", event.Type),
		attribute.String("outbox.aggregate_id", event.AggregateID),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	handler, ok := r.handlers[event.Sink]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, event.Sink)
	}

	start := time.Now()
	err = handler.Handle(ctx, event)
	r.metrics.RecordDispatch(ctx, event.Sink, event.Type, time.Since(start).Seconds(), err == nil)
	return err
}

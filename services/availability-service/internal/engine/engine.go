package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Store is the read side of the scheduling database. Implementations return flat rows and
// wrap ErrNotFound for missing tenants or services.
type Store interface {
	GetTenant(ctx context.Context, tenantID string) (model.TenantConfig, error)
	GetService(ctx context.Context, tenantID, serviceID string) (model.ServiceContext, error)
	ListServiceProviders(ctx context.Context, tenantID, serviceID string) ([]model.ProviderContext, error)
	ListServiceSchedules(ctx context.Context, serviceID string) ([]model.ScheduleSlot, error)
	ListServiceOverrides(ctx context.Context, serviceID, fromDate, toDate string) ([]model.Override, error)
	ListProviderSchedules(ctx context.Context, providerIDs []string) ([]model.ScheduleSlot, error)
	ListProviderOverrides(ctx context.Context, providerIDs []string, fromDate, toDate string) ([]model.Override, error)
	// ListActiveBookings returns bookings with start in [from, to).
	ListActiveBookings(ctx context.Context, providerIDs []string, from, to time.Time) ([]model.BookingRecord, error)
}

// CalendarFeed supplies external busy time for providers.
type CalendarFeed interface {
	BusyIntervals(ctx context.Context, providers []model.ProviderContext, from, to time.Time) ([]model.CalendarEvent, error)
}

type Options struct {
	Clock           Clock
	Logger          *slog.Logger
	DefaultStrategy string
	// FailurePolicy applies when the tenant does not set one.
	FailurePolicy string
	// Intn backs the random assignment strategy.
	Intn func(n int) int
}

type Engine struct {
	store           Store
	calendar        CalendarFeed
	clock           Clock
	logger          *slog.Logger
	defaultStrategy string
	failurePolicy   string
	intn            func(n int) int
	tracer          trace.Tracer
}

// New builds an engine. calendar may be nil when no external feed is configured.
func New(store Store, calendar CalendarFeed, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultStrategy == "" {
		opts.DefaultStrategy = model.StrategyRoundRobin
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = model.FailOpen
	}
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}
	return &Engine{
		store:           store,
		calendar:        calendar,
		clock:           opts.Clock,
		logger:          opts.Logger,
		defaultStrategy: opts.DefaultStrategy,
		failurePolicy:   opts.FailurePolicy,
		intn:            opts.Intn,
		tracer:          otel.Tracer("availability-service/engine"),
	}
}

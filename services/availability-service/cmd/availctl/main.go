package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/md-rashed-zaman/apptslots/libs/db"
	"github.com/md-rashed-zaman/apptslots/libs/runtime"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/calendar"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/engine"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		slog.Error("availctl failed", "error", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "availctl",
		Usage: "Compute appointment availability against the database or a JSON fixture.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fixture", Usage: "JSON fixture file; DATABASE_URL is used when empty"},
			&cli.StringFlag{Name: "database-url", EnvVars: []string{"DATABASE_URL"}, Usage: "PostgreSQL connection string"},
			&cli.StringFlag{Name: "now", Usage: "freeze the clock at this RFC3339 instant"},
			&cli.StringFlag{Name: "strategy", Value: model.StrategyRoundRobin, EnvVars: []string{"ASSIGNMENT_STRATEGY"}, Usage: "default assignment strategy"},
			&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"LOG_LEVEL"}},
			&cli.StringFlag{Name: "tenant", Required: true, Usage: "tenant id"},
			&cli.StringFlag{Name: "service", Required: true, Usage: "service id"},
		},
		Writer: out,
		Commands: []*cli.Command{
			slotsCommand(),
			checkCommand(),
			providersCommand(),
		},
	}
}

func slotsCommand() *cli.Command {
	return &cli.Command{
		Name:  "slots",
		Usage: "List bookable slots for a date range.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Required: true, Usage: "first date, YYYY-MM-DD"},
			&cli.StringFlag{Name: "end", Usage: "last date, YYYY-MM-DD (defaults to start)"},
			&cli.StringFlag{Name: "provider", Usage: "restrict to one provider"},
			&cli.StringFlag{Name: "timezone", Usage: "IANA timezone for rendered times"},
		},
		Action: func(c *cli.Context) error {
			return withEngine(c, func(ctx context.Context, eng *engine.Engine) (any, error) {
				end := c.String("end")
				if end == "" {
					end = c.String("start")
				}
				return eng.GetAvailability(ctx, model.AvailabilityRequest{
					TenantID:   c.String("tenant"),
					ServiceID:  c.String("service"),
					StartDate:  c.String("start"),
					EndDate:    end,
					ProviderID: c.String("provider"),
					Timezone:   c.String("timezone"),
				})
			})
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check whether one provider can take a slot.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Required: true},
			&cli.TimestampFlag{Name: "at", Layout: time.RFC3339, Required: true, Usage: "slot start, RFC3339"},
			&cli.StringFlag{Name: "timezone"},
		},
		Action: func(c *cli.Context) error {
			return withEngine(c, func(ctx context.Context, eng *engine.Engine) (any, error) {
				return eng.CheckSlot(ctx, model.SlotCheckRequest{
					TenantID:   c.String("tenant"),
					ServiceID:  c.String("service"),
					ProviderID: c.String("provider"),
					StartTime:  *c.Timestamp("at"),
					Timezone:   c.String("timezone"),
				})
			})
		},
	}
}

func providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List providers free for an interval, or assign one with --assign.",
		Flags: []cli.Flag{
			&cli.TimestampFlag{Name: "from", Layout: time.RFC3339, Required: true},
			&cli.TimestampFlag{Name: "to", Layout: time.RFC3339, Required: true},
			&cli.BoolFlag{Name: "assign", Usage: "pick one provider with the assignment strategy"},
		},
		Action: func(c *cli.Context) error {
			return withEngine(c, func(ctx context.Context, eng *engine.Engine) (any, error) {
				from, to := *c.Timestamp("from"), *c.Timestamp("to")
				if c.Bool("assign") {
					return eng.AssignProvider(ctx, c.String("tenant"), c.String("service"), from, to)
				}
				return eng.ProvidersForSlot(ctx, c.String("tenant"), c.String("service"), from, to)
			})
		},
	}
}

// withEngine builds an engine from the global flags, runs fn and prints its result as JSON.
func withEngine(c *cli.Context, fn func(context.Context, *engine.Engine) (any, error)) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: runtime.ParseLevel(c.String("log-level"))}))

	opts := engine.Options{Logger: logger, DefaultStrategy: c.String("strategy")}
	if raw := c.String("now"); raw != "" {
		now, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
		opts.Clock = engine.FixedClock(now)
	}

	var (
		store engine.Store
		feed  engine.CalendarFeed
	)
	if path := c.String("fixture"); path != "" {
		f, err := storage.LoadFixture(path)
		if err != nil {
			return err
		}
		store = storage.NewMemoryStore(f)
		feed = calendar.StaticFeed{Events: f.CalendarEvents}
	} else {
		dsn := c.String("database-url")
		if dsn == "" {
			return fmt.Errorf("either --fixture or DATABASE_URL is required")
		}
		pool, err := db.Open(c.Context, dsn, db.Options{MaxConns: 4})
		if err != nil {
			return fmt.Errorf("db connection failed: %w", err)
		}
		defer pool.Close()
		store = storage.NewRepository(pool)
	}

	result, err := fn(c.Context, engine.New(store, feed, opts))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

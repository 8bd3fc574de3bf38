package inbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/apptslots/libs/db"
)

// Repository records consumed event ids so redelivered Kafka messages are applied once.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record returns false when the event was already recorded.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	ctx, span := db.StartSpan(ctx, "inbox_events.insert")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}
	if isUniqueViolation(err) {
		return false, nil
	}
	return false, err
}

// Prune deletes events received before the cutoff and returns how many were removed.
// Redeliveries older than the retention window are no longer deduplicated.
func (r *Repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	ctx, span := db.StartSpan(ctx, "inbox_events.prune")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM inbox_events WHERE received_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RunPruner prunes every interval until ctx is done.
func (r *Repository) RunPruner(ctx context.Context, logger *slog.Logger, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := r.Prune(ctx, now.Add(-retention))
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("inbox prune failed", "err", err)
				}
				continue
			}
			if n > 0 {
				logger.Info("inbox pruned", "deleted", n)
			}
		}
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/apptslots/libs/db"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/engine"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// Repository reads scheduling data from PostgreSQL. Every list method is a single query
// over the whole owner set and date range.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ engine.Store = (*Repository)(nil)

func (r *Repository) GetTenant(ctx context.Context, tenantID string) (model.TenantConfig, error) {
	ctx, span := db.StartSpan(ctx, "tenants.get")
	defer span.End()

	var t model.TenantConfig
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, timezone, min_notice_hours, max_future_days, slot_interval_minutes,
			COALESCE(assignment_strategy, ''), COALESCE(failure_policy, '')
		FROM tenants
		WHERE id = $1
	`, tenantID).Scan(&t.ID, &t.Name, &t.Timezone, &t.MinNoticeHours, &t.MaxFutureDays, &t.SlotIntervalMinutes,
		&t.AssignmentStrategy, &t.FailurePolicy)
	if err != nil {
		return model.TenantConfig{}, mapNotFound(err, "tenant", tenantID)
	}
	return t, nil
}

func (r *Repository) GetService(ctx context.Context, tenantID, serviceID string) (model.ServiceContext, error) {
	ctx, span := db.StartSpan(ctx, "services.get")
	defer span.End()

	var s model.ServiceContext
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, duration_minutes, buffer_before_minutes, buffer_after_minutes,
			capacity, min_notice_hours, max_future_days, slot_interval_minutes, COALESCE(assignment_strategy, '')
		FROM services
		WHERE tenant_id = $1 AND id = $2 AND is_active
	`, tenantID, serviceID).Scan(&s.ID, &s.TenantID, &s.Name, &s.DurationMinutes, &s.BufferBeforeMinutes, &s.BufferAfterMinutes,
		&s.Capacity, &s.MinNoticeHours, &s.MaxFutureDays, &s.SlotIntervalMinutes, &s.AssignmentStrategy)
	if err != nil {
		return model.ServiceContext{}, mapNotFound(err, "service", serviceID)
	}
	return s, nil
}

func (r *Repository) ListServiceProviders(ctx context.Context, tenantID, serviceID string) ([]model.ProviderContext, error) {
	ctx, span := db.StartSpan(ctx, "service_providers.list")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT p.id::text, p.tenant_id::text, p.name, COALESCE(p.calendar_id, ''), p.is_active
		FROM service_providers sp
		JOIN providers p ON p.id = sp.provider_id
		WHERE sp.service_id = $2 AND p.tenant_id = $1
		ORDER BY p.created_at, p.id
	`, tenantID, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProviderContext
	for rows.Next() {
		var p model.ProviderContext
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.CalendarID, &p.IsActive); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) ListServiceSchedules(ctx context.Context, serviceID string) ([]model.ScheduleSlot, error) {
	ctx, span := db.StartSpan(ctx, "service_schedules.list")
	defer span.End()

	return r.querySchedules(ctx, `
		SELECT service_id::text, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), is_available
		FROM service_schedules
		WHERE service_id = $1
		ORDER BY day_of_week, start_time
	`, serviceID)
}

func (r *Repository) ListProviderSchedules(ctx context.Context, providerIDs []string) ([]model.ScheduleSlot, error) {
	ctx, span := db.StartSpan(ctx, "provider_schedules.list")
	defer span.End()

	return r.querySchedules(ctx, `
		SELECT provider_id::text, day_of_week, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), is_available
		FROM provider_schedules
		WHERE provider_id = ANY($1::uuid[])
		ORDER BY provider_id, day_of_week, start_time
	`, providerIDs)
}

func (r *Repository) querySchedules(ctx context.Context, sql string, arg any) ([]model.ScheduleSlot, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScheduleSlot
	for rows.Next() {
		var s model.ScheduleSlot
		if err := rows.Scan(&s.OwnerID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) ListServiceOverrides(ctx context.Context, serviceID, fromDate, toDate string) ([]model.Override, error) {
	ctx, span := db.StartSpan(ctx, "service_overrides.list")
	defer span.End()

	return r.queryOverrides(ctx, `
		SELECT service_id::text, to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
			is_available, COALESCE(reason, '')
		FROM service_overrides
		WHERE service_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date, start_time NULLS FIRST
	`, serviceID, fromDate, toDate)
}

func (r *Repository) ListProviderOverrides(ctx context.Context, providerIDs []string, fromDate, toDate string) ([]model.Override, error) {
	ctx, span := db.StartSpan(ctx, "provider_overrides.list")
	defer span.End()

	return r.queryOverrides(ctx, `
		SELECT provider_id::text, to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
			is_available, COALESCE(reason, '')
		FROM provider_overrides
		WHERE provider_id = ANY($1::uuid[]) AND date BETWEEN $2::date AND $3::date
		ORDER BY provider_id, date, start_time NULLS FIRST
	`, providerIDs, fromDate, toDate)
}

func (r *Repository) queryOverrides(ctx context.Context, sql string, args ...any) ([]model.Override, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Override
	for rows.Next() {
		var o model.Override
		if err := rows.Scan(&o.OwnerID, &o.Date, &o.StartTime, &o.EndTime, &o.IsAvailable, &o.Reason); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repository) ListActiveBookings(ctx context.Context, providerIDs []string, from, to time.Time) ([]model.BookingRecord, error) {
	ctx, span := db.StartSpan(ctx, "bookings.list_active")
	defer span.End()

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, provider_id::text, service_id::text, start_time, end_time,
			buffer_before_minutes, buffer_after_minutes, status
		FROM bookings
		WHERE provider_id = ANY($1::uuid[])
			AND start_time >= $2 AND start_time < $3
			AND status NOT IN ('cancelled', 'rejected')
		ORDER BY start_time
	`, providerIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BookingRecord
	for rows.Next() {
		var b model.BookingRecord
		if err := rows.Scan(&b.ID, &b.ProviderID, &b.ServiceID, &b.StartTime, &b.EndTime,
			&b.BufferBeforeMinutes, &b.BufferAfterMinutes, &b.Status); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// mapNotFound turns a missing row, or an id that is not a valid uuid, into engine.ErrNotFound.
func mapNotFound(err error, kind, id string) error {
	if IsNotFound(err) {
		return fmt.Errorf("%s %s: %w", kind, id, engine.ErrNotFound)
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

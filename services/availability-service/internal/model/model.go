package model

import "time"

// Window is a wall-clock range in minutes since local midnight, half-open [Start, End).
type Window struct {
	Start int
	End   int
}

// ScheduleSlot is one weekly recurring row for a service or a provider. DayOfWeek uses Sunday=0.
type ScheduleSlot struct {
	OwnerID     string `json:"owner_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// Override is a date-specific exception to a weekly schedule.
//
//	IsAvailable=false, no times: the whole date is blocked
//	IsAvailable=false, times:    only that window is blocked
//	IsAvailable=true,  times:    the window replaces the weekly schedule
//	IsAvailable=true,  no times: no-op
type Override struct {
	OwnerID     string  `json:"owner_id"`
	Date        string  `json:"date"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	IsAvailable bool    `json:"is_available"`
	Reason      string  `json:"reason,omitempty"`
}

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusRejected  = "rejected"
	BookingStatusNoShow    = "no_show"
)

type BookingRecord struct {
	ID                  string    `json:"id"`
	ProviderID          string    `json:"provider_id"`
	ServiceID           string    `json:"service_id"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	BufferBeforeMinutes int       `json:"buffer_before_minutes"`
	BufferAfterMinutes  int       `json:"buffer_after_minutes"`
	Status              string    `json:"status"`
}

// Active reports whether the booking still occupies its provider.
func (b BookingRecord) Active() bool {
	return b.Status != BookingStatusCancelled && b.Status != BookingStatusRejected
}

// Occupied returns the booking range widened by its buffers.
func (b BookingRecord) Occupied() (time.Time, time.Time) {
	return b.StartTime.Add(-time.Duration(b.BufferBeforeMinutes) * time.Minute),
		b.EndTime.Add(time.Duration(b.BufferAfterMinutes) * time.Minute)
}

type CalendarEvent struct {
	ProviderID string    `json:"provider_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	IsAllDay   bool      `json:"is_all_day"`
	Source     string    `json:"source,omitempty"`
}

const (
	StrategyRoundRobin  = "round_robin"
	StrategyLeastBooked = "least_booked"
	StrategyRandom      = "random"
)

const (
	FailOpen   = "open"
	FailClosed = "closed"
)

type TenantConfig struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Timezone            string `json:"timezone"`
	MinNoticeHours      int    `json:"min_notice_hours"`
	MaxFutureDays       int    `json:"max_future_days"`
	SlotIntervalMinutes int    `json:"slot_interval_minutes"`
	AssignmentStrategy  string `json:"assignment_strategy,omitempty"`
	FailurePolicy       string `json:"failure_policy,omitempty"`
}

// ServiceContext carries per-service settings. Nil pointers fall back to the tenant values.
type ServiceContext struct {
	ID                  string `json:"id"`
	TenantID            string `json:"tenant_id"`
	Name                string `json:"name"`
	DurationMinutes     int    `json:"duration_minutes"`
	BufferBeforeMinutes int    `json:"buffer_before_minutes"`
	BufferAfterMinutes  int    `json:"buffer_after_minutes"`
	Capacity            int    `json:"capacity"`
	MinNoticeHours      *int   `json:"min_notice_hours,omitempty"`
	MaxFutureDays       *int   `json:"max_future_days,omitempty"`
	SlotIntervalMinutes *int   `json:"slot_interval_minutes,omitempty"`
	AssignmentStrategy  string `json:"assignment_strategy,omitempty"`
}

type ProviderContext struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name"`
	CalendarID string `json:"calendar_id,omitempty"`
	IsActive   bool   `json:"is_active"`
}

// ServiceConfig is the effective configuration a response was computed with.
type ServiceConfig struct {
	DurationMinutes     int    `json:"duration_minutes"`
	BufferBeforeMinutes int    `json:"buffer_before_minutes"`
	BufferAfterMinutes  int    `json:"buffer_after_minutes"`
	Capacity            int    `json:"capacity"`
	SlotIntervalMinutes int    `json:"slot_interval_minutes"`
	MinNoticeHours      int    `json:"min_notice_hours"`
	MaxFutureDays       int    `json:"max_future_days"`
	Timezone            string `json:"timezone"`
	AssignmentStrategy  string `json:"assignment_strategy"`
	FailurePolicy       string `json:"failure_policy"`
}

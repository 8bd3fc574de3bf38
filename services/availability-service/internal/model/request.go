package model

import "time"

type AvailabilityRequest struct {
	ServiceID  string
	TenantID   string
	StartDate  string
	EndDate    string
	ProviderID string
	Timezone   string
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityResponse struct {
	ServiceID       string            `json:"service_id"`
	TenantID        string            `json:"tenant_id"`
	DateRange       DateRange         `json:"date_range"`
	Days            []DayAvailability `json:"days"`
	TotalSlots      int               `json:"total_slots"`
	AnyProviderMode bool              `json:"any_provider_mode"`
	ServiceConfig   ServiceConfig     `json:"service_config"`
	DegradedLayers  []string          `json:"degraded_layers,omitempty"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

type DayAvailability struct {
	Date            string `json:"date"`
	HasAvailability bool   `json:"has_availability"`
	Slots           []Slot `json:"slots"`
}

// Slot is one bookable start. In any-provider mode ProviderID is an advisory suggestion;
// the provider to book is the one returned by the assign operation.
type Slot struct {
	StartTime            string   `json:"start_time"`
	EndTime              string   `json:"end_time"`
	ProviderID           string   `json:"provider_id,omitempty"`
	AvailableProviderIDs []string `json:"available_provider_ids,omitempty"`
	RemainingCapacity    *int     `json:"remaining_capacity,omitempty"`

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

type ConflictType string

const (
	ConflictNotice   ConflictType = "notice"
	ConflictHorizon  ConflictType = "horizon"
	ConflictSchedule ConflictType = "schedule"
	ConflictOverride ConflictType = "override"
	ConflictBooking  ConflictType = "booking"
	ConflictCalendar ConflictType = "calendar"
)

type SlotCheckRequest struct {
	TenantID   string
	ServiceID  string
	ProviderID string
	StartTime  time.Time
	Timezone   string
}

type SlotCheckResult struct {
	Available    bool         `json:"available"`
	Reason       string       `json:"reason,omitempty"`
	ConflictType ConflictType `json:"conflict_type,omitempty"`
	StartTime    string       `json:"start_time"`
	EndTime      string       `json:"end_time"`
}

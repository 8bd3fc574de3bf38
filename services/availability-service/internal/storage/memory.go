package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/engine"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// FixtureService is a service plus the providers linked to it.
type FixtureService struct {
	model.ServiceContext
	ProviderIDs []string `json:"provider_ids"`
}

// Fixture is a whole scheduling dataset, used by availctl and tests.
type Fixture struct {
	Tenants           []model.TenantConfig    `json:"tenants"`
	Services          []FixtureService        `json:"services"`
	Providers         []model.ProviderContext `json:"providers"`
	ServiceSchedules  []model.ScheduleSlot    `json:"service_schedules"`
	ServiceOverrides  []model.Override        `json:"service_overrides"`
	ProviderSchedules []model.ScheduleSlot    `json:"provider_schedules"`
	ProviderOverrides []model.Override        `json:"provider_overrides"`
	Bookings          []model.BookingRecord   `json:"bookings"`
	CalendarEvents    []model.CalendarEvent   `json:"calendar_events"`
}

func LoadFixture(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return f, nil
}

// MemoryStore serves a Fixture with the same filtering the SQL repository applies.
type MemoryStore struct {
	mu sync.RWMutex
	f  Fixture
}

var _ engine.Store = (*MemoryStore)(nil)

func NewMemoryStore(f Fixture) *MemoryStore {
	return &MemoryStore{f: f}
}

// AddBooking appends a booking, e.g. to simulate a concurrent submission.
func (s *MemoryStore) AddBooking(b model.BookingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.Bookings = append(s.f.Bookings, b)
}

func (s *MemoryStore) GetTenant(_ context.Context, tenantID string) (model.TenantConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.f.Tenants {
		if t.ID == tenantID {
			return t, nil
		}
	}
	return model.TenantConfig{}, fmt.Errorf("tenant %s: %w", tenantID, engine.ErrNotFound)
}

func (s *MemoryStore) GetService(_ context.Context, tenantID, serviceID string) (model.ServiceContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if svc, ok := s.service(tenantID, serviceID); ok {
		return svc.ServiceContext, nil
	}
	return model.ServiceContext{}, fmt.Errorf("service %s: %w", serviceID, engine.ErrNotFound)
}

func (s *MemoryStore) service(tenantID, serviceID string) (FixtureService, bool) {
	for _, svc := range s.f.Services {
		if svc.ID == serviceID && svc.TenantID == tenantID {
			return svc, true
		}
	}
	return FixtureService{}, false
}

func (s *MemoryStore) ListServiceProviders(_ context.Context, tenantID, serviceID string) ([]model.ProviderContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.service(tenantID, serviceID)
	if !ok {
		return nil, nil
	}
	var out []model.ProviderContext
	for _, p := range s.f.Providers {
		if p.TenantID == tenantID && slices.Contains(svc.ProviderIDs, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListServiceSchedules(_ context.Context, serviceID string) ([]model.ScheduleSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterSchedules(s.f.ServiceSchedules, []string{serviceID}), nil
}

func (s *MemoryStore) ListProviderSchedules(_ context.Context, providerIDs []string) ([]model.ScheduleSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterSchedules(s.f.ProviderSchedules, providerIDs), nil
}

func (s *MemoryStore) ListServiceOverrides(_ context.Context, serviceID, fromDate, toDate string) ([]model.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterOverrides(s.f.ServiceOverrides, []string{serviceID}, fromDate, toDate), nil
}

func (s *MemoryStore) ListProviderOverrides(_ context.Context, providerIDs []string, fromDate, toDate string) ([]model.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterOverrides(s.f.ProviderOverrides, providerIDs, fromDate, toDate), nil
}

func (s *MemoryStore) ListActiveBookings(_ context.Context, providerIDs []string, from, to time.Time) ([]model.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.BookingRecord
	for _, b := range s.f.Bookings {
		if !b.Active() || !slices.Contains(providerIDs, b.ProviderID) {
			continue
		}
		if b.StartTime.Before(from) || !b.StartTime.Before(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func filterSchedules(rows []model.ScheduleSlot, owners []string) []model.ScheduleSlot {
	var out []model.ScheduleSlot
	for _, row := range rows {
		if slices.Contains(owners, row.OwnerID) {
			out = append(out, row)
		}
	}
	return out
}

// filterOverrides relies on YYYY-MM-DD dates ordering lexically.
func filterOverrides(rows []model.Override, owners []string, fromDate, toDate string) []model.Override {
	var out []model.Override
	for _, row := range rows {
		if !slices.Contains(owners, row.OwnerID) || row.Date < fromDate || row.Date > toDate {
			continue
		}
		out = append(out, row)
	}
	return out
}

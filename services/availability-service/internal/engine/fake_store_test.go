package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

type fakeStore struct {
	tenant            model.TenantConfig
	service           model.ServiceContext
	providers         []model.ProviderContext
	serviceSchedules  []model.ScheduleSlot
	serviceOverrides  []model.Override
	providerSchedules []model.ScheduleSlot
	providerOverrides []model.Override
	bookings          []model.BookingRecord

	fail map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (s *fakeStore) record(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
	return s.fail[name]
}

func (s *fakeStore) layerCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for name, c := range s.calls {
		switch name {
		case "tenant", "service", "providers":
		default:
			n += c
		}
	}
	return n
}

func (s *fakeStore) GetTenant(_ context.Context, tenantID string) (model.TenantConfig, error) {
	if err := s.record("tenant"); err != nil {
		return model.TenantConfig{}, err
	}
	if tenantID != s.tenant.ID {
		return model.TenantConfig{}, fmt.Errorf("tenant %s: %w", tenantID, ErrNotFound)
	}
	return s.tenant, nil
}

func (s *fakeStore) GetService(_ context.Context, tenantID, serviceID string) (model.ServiceContext, error) {
	if err := s.record("service"); err != nil {
		return model.ServiceContext{}, err
	}
	if tenantID != s.service.TenantID || serviceID != s.service.ID {
		return model.ServiceContext{}, fmt.Errorf("service %s: %w", serviceID, ErrNotFound)
	}
	return s.service, nil
}

func (s *fakeStore) ListServiceProviders(context.Context, string, string) ([]model.ProviderContext, error) {
	if err := s.record("providers"); err != nil {
		return nil, err
	}
	return s.providers, nil
}

func (s *fakeStore) ListServiceSchedules(context.Context, string) ([]model.ScheduleSlot, error) {
	return s.serviceSchedules, s.record(layerServiceSchedule)
}

func (s *fakeStore) ListServiceOverrides(context.Context, string, string, string) ([]model.Override, error) {
	return s.serviceOverrides, s.record(layerServiceOverride)
}

func (s *fakeStore) ListProviderSchedules(context.Context, []string) ([]model.ScheduleSlot, error) {
	return s.providerSchedules, s.record(layerProviderSchedule)
}

func (s *fakeStore) ListProviderOverrides(context.Context, []string, string, string) ([]model.Override, error) {
	return s.providerOverrides, s.record(layerProviderOverride)
}

func (s *fakeStore) ListActiveBookings(_ context.Context, _ []string, from, to time.Time) ([]model.BookingRecord, error) {
	if err := s.record(layerBookings); err != nil {
		return nil, err
	}
	var out []model.BookingRecord
	for _, b := range s.bookings {
		if !b.StartTime.Before(from) && b.StartTime.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeCalendar struct {
	events []model.CalendarEvent
	err    error
}

func (c *fakeCalendar) BusyIntervals(context.Context, []model.ProviderContext, time.Time, time.Time) ([]model.CalendarEvent, error) {
	return c.events, c.err
}

var errBoom = errors.New("boom")

func ptr(s string) *string { return &s }

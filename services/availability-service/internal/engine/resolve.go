package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// requestContext is everything resolved once per request before any layer is fetched.
type requestContext struct {
	tenant      model.TenantConfig
	service     model.ServiceContext
	providers   []model.ProviderContext
	anyProvider bool
	tenantLoc   *time.Location
	outLoc      *time.Location
	config      model.ServiceConfig
}

func (rc *requestContext) providerIDs() []string {
	ids := make([]string, 0, len(rc.providers))
	for _, p := range rc.providers {
		ids = append(ids, p.ID)
	}
	return ids
}

func (rc *requestContext) failClosed() bool {
	return rc.config.FailurePolicy == model.FailClosed
}

func (e *Engine) resolve(ctx context.Context, tenantID, serviceID, providerID, timezone string) (*requestContext, error) {
	tenantID = strings.TrimSpace(tenantID)
	serviceID = strings.TrimSpace(serviceID)
	providerID = strings.TrimSpace(providerID)
	if tenantID == "" || serviceID == "" {
		return nil, fmt.Errorf("%w: tenant and service are required", ErrInvalidRequest)
	}

	tenant, err := e.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant %s: %w", tenantID, err)
	}
	service, err := e.store.GetService(ctx, tenantID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("resolve service %s: %w", serviceID, err)
	}

	tenantLoc := time.UTC
	if tz := strings.TrimSpace(tenant.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			e.logger.WarnContext(ctx, "tenant timezone invalid; using UTC", "tenant_id", tenantID, "timezone", tz, "err", err)
		} else {
			tenantLoc = loc
		}
	}
	outLoc := tenantLoc
	if tz := strings.TrimSpace(timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidRequest, tz)
		}
		outLoc = loc
	}

	linked, err := e.store.ListServiceProviders(ctx, tenantID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("resolve providers for service %s: %w", serviceID, err)
	}
	var providers []model.ProviderContext
	for _, p := range linked {
		if !p.IsActive {
			continue
		}
		if providerID != "" && p.ID != providerID {
			continue
		}
		providers = append(providers, p)
	}
	if providerID != "" && len(providers) == 0 {
		return nil, fmt.Errorf("provider %s not linked to service %s: %w", providerID, serviceID, ErrNotFound)
	}

	return &requestContext{
		tenant:      tenant,
		service:     service,
		providers:   providers,
		anyProvider: providerID == "",
		tenantLoc:   tenantLoc,
		outLoc:      outLoc,
		config:      e.effectiveConfig(tenant, service, tenantLoc),
	}, nil
}

func (e *Engine) effectiveConfig(tenant model.TenantConfig, service model.ServiceContext, loc *time.Location) model.ServiceConfig {
	cfg := model.ServiceConfig{
		DurationMinutes:     service.DurationMinutes,
		BufferBeforeMinutes: max(service.BufferBeforeMinutes, 0),
		BufferAfterMinutes:  max(service.BufferAfterMinutes, 0),
		Capacity:            max(service.Capacity, 1),
		MinNoticeHours:      pick(service.MinNoticeHours, tenant.MinNoticeHours),
		MaxFutureDays:       pick(service.MaxFutureDays, tenant.MaxFutureDays),
		SlotIntervalMinutes: pick(service.SlotIntervalMinutes, tenant.SlotIntervalMinutes),
		Timezone:            loc.String(),
		AssignmentStrategy:  firstNonEmpty(tenant.AssignmentStrategy, service.AssignmentStrategy, e.defaultStrategy),
		FailurePolicy:       firstNonEmpty(tenant.FailurePolicy, e.failurePolicy),
	}
	if cfg.SlotIntervalMinutes <= 0 {
		cfg.SlotIntervalMinutes = cfg.DurationMinutes
	}
	cfg.MinNoticeHours = max(cfg.MinNoticeHours, 0)
	cfg.MaxFutureDays = max(cfg.MaxFutureDays, 0)
	return cfg
}

func pick(override *int, fallback int) int {
	if override != nil {
		return *override
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

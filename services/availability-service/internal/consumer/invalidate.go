package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/apptslots/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// Invalidator drops cached availability for a tenant.
type Invalidator interface {
	InvalidateTenant(ctx context.Context, tenantID string) error
}

type bookingEvent struct {
	TenantID   string `json:"tenant_id"`
	BusinessID string `json:"business_id"`
}

// InvalidationHandler reacts to booking lifecycle events by invalidating the tenant's cache.
// Events without a tenant are logged and skipped.
func InvalidationHandler(logger *slog.Logger, inv Invalidator) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		tenantID := tenantOf(msg)
		if tenantID == "" {
			logger.Warn("booking event without tenant", "topic", msg.Topic)
			return nil
		}
		if err := inv.InvalidateTenant(ctx, tenantID); err != nil {
			return err
		}
		logger.Debug("availability cache invalidated", "tenant_id", tenantID, "topic", msg.Topic)
		return nil
	}
}

func tenantOf(msg kafka.Message) string {
	var payload bookingEvent
	if err := json.Unmarshal(msg.Value, &payload); err == nil {
		if v := strings.TrimSpace(payload.TenantID); v != "" {
			return v
		}
		if v := strings.TrimSpace(payload.BusinessID); v != "" {
			return v
		}
	}
	return strings.TrimSpace(kafkax.ExtractEventMeta(msg).TenantID)
}

// Package cache keeps computed availability responses in Redis for a short TTL.
//
// Keys embed a per-tenant generation counter. Bumping the counter on booking events
// orphans every cached response for the tenant without scanning keys.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
	"github.com/redis/go-redis/v9"
)

type ResponseCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewResponseCache(rdb *redis.Client, ttl time.Duration, prefix string) *ResponseCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = "avail"
	}
	return &ResponseCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

// Get returns (nil, false, nil) on a miss.
func (c *ResponseCache) Get(ctx context.Context, req model.AvailabilityRequest) (*model.AvailabilityResponse, bool, error) {
	key, err := c.key(ctx, req)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var resp model.AvailabilityResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		// Treat an undecodable entry as a miss; Put overwrites it.
		return nil, false, nil
	}
	return &resp, true, nil
}

func (c *ResponseCache) Put(ctx context.Context, req model.AvailabilityRequest, resp *model.AvailabilityResponse) error {
	key, err := c.key(ctx, req)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// InvalidateTenant drops every cached response for the tenant.
func (c *ResponseCache) InvalidateTenant(ctx context.Context, tenantID string) error {
	return c.rdb.Incr(ctx, c.genKey(tenantID)).Err()
}

func (c *ResponseCache) genKey(tenantID string) string {
	return c.prefix + ":gen:" + tenantID
}

func (c *ResponseCache) key(ctx context.Context, req model.AvailabilityRequest) (string, error) {
	gen, err := c.rdb.Get(ctx, c.genKey(req.TenantID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		req.ServiceID, req.ProviderID, req.StartDate, req.EndDate, req.Timezone,
	}, "|")))
	return fmt.Sprintf("%s:%s:%d:%s", c.prefix, req.TenantID, gen, hex.EncodeToString(sum[:12])), nil
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptslots/libs/httpx"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/engine"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

// ResponseCache is satisfied by cache.ResponseCache.
type ResponseCache interface {
	Get(ctx context.Context, req model.AvailabilityRequest) (*model.AvailabilityResponse, bool, error)
	Put(ctx context.Context, req model.AvailabilityRequest, resp *model.AvailabilityResponse) error
}

type AvailabilityHandler struct {
	engine *engine.Engine
	cache  ResponseCache
	logger *slog.Logger
}

// NewAvailabilityHandler wires the engine. cache may be nil.
func NewAvailabilityHandler(eng *engine.Engine, cache ResponseCache, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{engine: eng, cache: cache, logger: logger}
}

func (h *AvailabilityHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/public/availability", h.Availability)
	mux.HandleFunc("/api/v1/public/slots/check", h.Check)
	mux.HandleFunc("/api/v1/public/slots/providers", h.Providers)
	mux.HandleFunc("/api/v1/public/slots/assign", h.Assign)
}

type checkSlotRequest struct {
	TenantID   string `json:"tenant_id"`
	ServiceID  string `json:"service_id"`
	ProviderID string `json:"provider_id"`
	StartTime  string `json:"start_time"`
	Timezone   string `json:"timezone"`
}

type assignRequest struct {
	TenantID  string `json:"tenant_id"`
	ServiceID string `json:"service_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type providerItem struct {
	ProviderID string `json:"provider_id"`
	Name       string `json:"name"`
}

type providersResponse struct {
	Providers []providerItem `json:"providers"`
}

type assignResponse struct {
	ProviderID string `json:"provider_id"`
	Name       string `json:"name"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func (h *AvailabilityHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	req := model.AvailabilityRequest{
		TenantID:   tenantFrom(r, ""),
		ServiceID:  strings.TrimSpace(q.Get("service_id")),
		StartDate:  strings.TrimSpace(q.Get("start_date")),
		EndDate:    strings.TrimSpace(q.Get("end_date")),
		ProviderID: strings.TrimSpace(q.Get("provider_id")),
		Timezone:   strings.TrimSpace(q.Get("timezone")),
	}
	if req.TenantID == "" || req.ServiceID == "" || req.StartDate == "" || req.EndDate == "" {
		http.Error(w, "tenant_id, service_id, start_date, and end_date are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, req)
		if err != nil {
			h.logger.WarnContext(ctx, "availability cache read failed", "err", err)
		} else if ok && h.engine.RefreshCached(cached) {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	resp, err := h.engine.GetAvailability(ctx, req)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	// Degraded responses are not cached so a recovered layer is picked up on the next request.
	if h.cache != nil && len(resp.DegradedLayers) == 0 {
		if err := h.cache.Put(ctx, req, resp); err != nil {
			h.logger.WarnContext(ctx, "availability cache write failed", "err", err)
		}
	}
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, resp)
}

func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body checkSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req := model.SlotCheckRequest{
		TenantID:   tenantFrom(r, body.TenantID),
		ServiceID:  strings.TrimSpace(body.ServiceID),
		ProviderID: strings.TrimSpace(body.ProviderID),
		Timezone:   strings.TrimSpace(body.Timezone),
	}
	if req.TenantID == "" || req.ServiceID == "" || req.ProviderID == "" {
		http.Error(w, "tenant_id, service_id, and provider_id are required", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(body.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	req.StartTime = start

	result, err := h.engine.CheckSlot(r.Context(), req)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AvailabilityHandler) Providers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	tenantID := tenantFrom(r, "")
	serviceID := strings.TrimSpace(q.Get("service_id"))
	if tenantID == "" || serviceID == "" {
		http.Error(w, "tenant_id and service_id are required", http.StatusBadRequest)
		return
	}
	start, end, ok := parseRange(q.Get("start_time"), q.Get("end_time"))
	if !ok {
		http.Error(w, "start_time and end_time must be RFC3339 with end after start", http.StatusBadRequest)
		return
	}

	providers, err := h.engine.ProvidersForSlot(r.Context(), tenantID, serviceID, start, end)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	resp := providersResponse{Providers: make([]providerItem, 0, len(providers))}
	for _, p := range providers {
		resp.Providers = append(resp.Providers, providerItem{ProviderID: p.ID, Name: p.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AvailabilityHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body assignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	tenantID := tenantFrom(r, body.TenantID)
	serviceID := strings.TrimSpace(body.ServiceID)
	if tenantID == "" || serviceID == "" {
		http.Error(w, "tenant_id and service_id are required", http.StatusBadRequest)
		return
	}
	start, end, ok := parseRange(body.StartTime, body.EndTime)
	if !ok {
		http.Error(w, "start_time and end_time must be RFC3339 with end after start", http.StatusBadRequest)
		return
	}

	provider, err := h.engine.AssignProvider(r.Context(), tenantID, serviceID, start, end)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignResponse{
		ProviderID: provider.ID,
		Name:       provider.Name,
		StartTime:  start.Format(time.RFC3339),
		EndTime:    end.Format(time.RFC3339),
	})
}

func (h *AvailabilityHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, engine.ErrSlotUnavailable):
		http.Error(w, "no provider available for the requested time", http.StatusConflict)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "request timed out", http.StatusGatewayTimeout)
	default:
		h.logger.ErrorContext(ctx, "availability request failed", "err", err, "request_id", httpx.RequestIDFromContext(ctx))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// tenantFrom prefers the tenant resolved by middleware over the request body.
func tenantFrom(r *http.Request, fallback string) string {
	if v := httpx.TenantIDFromContext(r.Context()); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

func parseRange(rawStart, rawEnd string) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(rawStart))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(rawEnd))
	if err != nil || !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

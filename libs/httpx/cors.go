package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lists the browser origins allowed to call the API. Booking widgets embedded
// on tenant sites call the public availability endpoints directly.
//
// Origins match exactly, by "*", or by "*.host" for any subdomain of host (not the apex).
// Empty method and header lists fall back to what the availability API uses.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	defaultCORSHeaders = []string{"Content-Type", RequestIDHeader, TenantIDHeader}
	defaultCORSExposed = []string{"X-Cache", RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
)

type corsRules struct {
	origins     []string
	credentials bool
	methods     string
	headers     string
	exposed     string
	maxAge      string
}

func (p CORSPolicy) rules() corsRules {
	join := func(values, fallback []string) string {
		if v := normalizeList(values); len(v) > 0 {
			return strings.Join(v, ", ")
		}
		return strings.Join(fallback, ", ")
	}
	r := corsRules{
		origins:     normalizeList(p.AllowedOrigins),
		credentials: p.AllowCredentials,
		methods:     join(p.AllowedMethods, defaultCORSMethods),
		headers:     join(p.AllowedHeaders, defaultCORSHeaders),
		exposed:     join(p.ExposedHeaders, defaultCORSExposed),
	}
	if secs := int(p.MaxAge.Seconds()); secs > 0 {
		r.maxAge = strconv.Itoa(secs)
	}
	return r
}

// WithCORS answers preflights and decorates cross-origin responses. With no allowed
// origins it is a no-op; requests from other origins pass through undecorated.
func WithCORS(cfg CORSPolicy) Middleware {
	rules := cfg.rules()
	if len(rules.origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			allowOrigin, ok := rules.match(origin)
			if origin == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			if rules.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", rules.methods)
				h.Set("Access-Control-Allow-Headers", rules.headers)
				if rules.maxAge != "" {
					h.Set("Access-Control-Max-Age", rules.maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			h.Set("Access-Control-Expose-Headers", rules.exposed)
			next.ServeHTTP(w, r)
		})
	}
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// match returns the Access-Control-Allow-Origin value for origin. A bare "*" is echoed
// back as the origin when credentials are allowed, since browsers reject "*" then.
func (r corsRules) match(origin string) (string, bool) {
	host := originHost(origin)
	for _, candidate := range r.origins {
		switch {
		case candidate == "*":
			if r.credentials {
				return origin, true
			}
			return "*", true
		case strings.EqualFold(candidate, origin):
			return origin, true
		case strings.HasPrefix(candidate, "*."):
			suffix := strings.ToLower(candidate[1:])
			if len(host) > len(suffix) && strings.HasSuffix(host, suffix) {
				return origin, true
			}
		}
	}
	return "", false
}

// originHost lowercases the host of a scheme://host[:port] origin.
func originHost(origin string) string {
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}

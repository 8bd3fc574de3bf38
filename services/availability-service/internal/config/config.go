// Package config declares the availability-service environment.
package config

import (
	"fmt"
	"strings"
	"time"

	libconfig "github.com/md-rashed-zaman/apptslots/libs/config"
	"github.com/md-rashed-zaman/apptslots/services/availability-service/internal/model"
)

const (
	CalendarNone   = "none"
	CalendarGoogle = "google"
	CalendarCalDAV = "caldav"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"availability-service"`
	Port        string `envconfig:"PORT" default:"8085"`
	GRPCPort    string `envconfig:"GRPC_PORT" default:"9095"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"AVAILABILITY_CACHE_TTL" default:"30s"`
	CachePrefix   string        `envconfig:"AVAILABILITY_CACHE_PREFIX" default:"avail"`

	KafkaBrokers       string        `envconfig:"KAFKA_BROKERS"`
	KafkaGroupID       string        `envconfig:"KAFKA_GROUP_ID" default:"availability-service"`
	KafkaConsumeTopics string        `envconfig:"KAFKA_CONSUME_TOPICS" default:"booking.appointment.booked.v1,booking.appointment.cancelled.v1"`
	InboxRetention     time.Duration `envconfig:"INBOX_RETENTION" default:"168h"`

	RateLimitPerMinute    int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	RateLimitFailOpen     bool          `envconfig:"RATE_LIMIT_FAIL_OPEN" default:"true"`
	RequestBodyLimitBytes int64         `envconfig:"REQUEST_BODY_LIMIT_BYTES" default:"1048576"`
	RequestTimeout        time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	AssignmentStrategy    string `envconfig:"ASSIGNMENT_STRATEGY" default:"round_robin"`
	OverrideFailurePolicy string `envconfig:"OVERRIDE_FAILURE_POLICY" default:"open"`

	CalendarProvider      string `envconfig:"CALENDAR_PROVIDER" default:"none"`
	GoogleCredentialsFile string `envconfig:"GOOGLE_CREDENTIALS_FILE"`
	CalDAVEndpoint        string `envconfig:"CALDAV_ENDPOINT"`
	CalDAVUsername        string `envconfig:"CALDAV_USERNAME"`
	CalDAVPassword        string `envconfig:"CALDAV_PASSWORD"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// Load reads .env (if present) and the process environment, then validates.
func Load(files ...string) (Config, error) {
	var cfg Config
	if err := libconfig.Load(&cfg, files...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	var err error
	if c.Port, err = libconfig.ValidPort("PORT", c.Port); err != nil {
		return err
	}
	if c.GRPCPort, err = libconfig.ValidPort("GRPC_PORT", c.GRPCPort); err != nil {
		return err
	}
	c.AssignmentStrategy = strings.ToLower(strings.TrimSpace(c.AssignmentStrategy))
	switch c.AssignmentStrategy {
	case model.StrategyRoundRobin, model.StrategyLeastBooked, model.StrategyRandom:
	default:
		return fmt.Errorf("ASSIGNMENT_STRATEGY must be one of round_robin, least_booked, random (got %q)", c.AssignmentStrategy)
	}
	c.OverrideFailurePolicy = strings.ToLower(strings.TrimSpace(c.OverrideFailurePolicy))
	switch c.OverrideFailurePolicy {
	case model.FailOpen, model.FailClosed:
	default:
		return fmt.Errorf("OVERRIDE_FAILURE_POLICY must be open or closed (got %q)", c.OverrideFailurePolicy)
	}
	c.CalendarProvider = strings.ToLower(strings.TrimSpace(c.CalendarProvider))
	switch c.CalendarProvider {
	case "", CalendarNone:
		c.CalendarProvider = CalendarNone
	case CalendarGoogle:
		if c.GoogleCredentialsFile == "" {
			return fmt.Errorf("GOOGLE_CREDENTIALS_FILE is required when CALENDAR_PROVIDER=google")
		}
	case CalendarCalDAV:
		if c.CalDAVEndpoint == "" {
			return fmt.Errorf("CALDAV_ENDPOINT is required when CALENDAR_PROVIDER=caldav")
		}
	default:
		return fmt.Errorf("CALENDAR_PROVIDER must be none, google or caldav (got %q)", c.CalendarProvider)
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 120
	}
	return nil
}

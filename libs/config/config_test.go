package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testSpec struct {
	Port    string        `envconfig:"APPTSLOTS_TEST_PORT" default:"8085"`
	TTL     time.Duration `envconfig:"APPTSLOTS_TEST_TTL" default:"30s"`
	Topics  []string      `envconfig:"APPTSLOTS_TEST_TOPICS" default:"a,b"`
	FromEnv string        `envconfig:"APPTSLOTS_TEST_FROM_ENV"`
}

func TestLoad_DefaultsAndDotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("APPTSLOTS_TEST_FROM_ENV=dotenv\nAPPTSLOTS_TEST_TTL=1m\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("APPTSLOTS_TEST_TTL", "5s")
	t.Cleanup(func() { _ = os.Unsetenv("APPTSLOTS_TEST_FROM_ENV") })

	var spec testSpec
	if err := Load(&spec, envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if spec.Port != "8085" {
		t.Fatalf("expected default port, got %q", spec.Port)
	}
	if spec.TTL != 5*time.Second {
		t.Fatalf("process env must win over .env, got %s", spec.TTL)
	}
	if spec.FromEnv != "dotenv" {
		t.Fatalf("expected value from .env, got %q", spec.FromEnv)
	}
	if len(spec.Topics) != 2 || spec.Topics[1] != "b" {
		t.Fatalf("unexpected topics %v", spec.Topics)
	}
}

func TestValidPort(t *testing.T) {
	if _, err := ValidPort("PORT", "8080"); err != nil {
		t.Fatalf("expected valid port: %v", err)
	}
	if _, err := ValidPort("PORT", "70000"); err == nil {
		t.Fatalf("expected error for out of range port")
	}
	if _, err := ValidPort("PORT", "http"); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

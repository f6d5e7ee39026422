package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CLASSPULSE_CONFIG_DIR", "/tmp/classpulse-test")

	v, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.APIURL != "http://localhost:9001/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.CacheBackend != "file" {
		t.Errorf("CacheBackend = %q, want file", cfg.CacheBackend)
	}
	if cfg.CacheDir != filepath.Join("/tmp/classpulse-test", "cache") {
		t.Errorf("cache dir should default under config dir, got %q", cfg.CacheDir)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CLASSPULSE_API_URL", "http://api.test/api/")
	t.Setenv("CLASSPULSE_POLL_INTERVAL", "500ms")
	t.Setenv("CLASSPULSE_CACHE_BACKEND", "Redis")
	t.Setenv("CLASSPULSE_REDIS_URL", "redis://localhost:6379/0")

	v, err := New()
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.APIURL != "http://api.test/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.CacheBackend != "redis" || cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("cache settings not read from env: %+v", cfg)
	}
}

func TestLoad_RejectsInvalidInterval(t *testing.T) {
	t.Setenv("CLASSPULSE_POLL_INTERVAL", "0s")

	v, _ := New()
	if _, err := Load(v); err == nil {
		t.Error("zero poll interval should be rejected")
	}
}

func TestBindFlags_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv("CLASSPULSE_API_URL", "http://from-env/api")

	v, _ := New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", "", "")
	if err := BindFlags(v, flags, map[string]string{"api-url": KeyAPIURL}); err != nil {
		t.Fatalf("BindFlags failed: %v", err)
	}
	if err := flags.Parse([]string{"--api-url", "http://from-flag/api"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.APIURL != "http://from-flag/api" {
		t.Errorf("flag should win over environment, got %q", cfg.APIURL)
	}
}

func TestBindFlags_UnknownFlag(t *testing.T) {
	v, _ := New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)

	if err := BindFlags(v, flags, map[string]string{"missing": KeyAPIURL}); err == nil {
		t.Error("binding an unknown flag should fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CLASSPULSE_TEST_DOTENV=loaded\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("CLASSPULSE_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("CLASSPULSE_TEST_DOTENV"); got != "loaded" {
		t.Errorf("variable from .env not set, got %q", got)
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

// Package config loads classpulse settings from defaults, a .env file,
// CLASSPULSE_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment.
const EnvPrefix = "CLASSPULSE"

// Keys.
const (
	KeyAPIURL       = "api_url"
	KeyConfigDir    = "config_dir"
	KeyCacheBackend = "cache_backend"
	KeyCacheDir     = "cache_dir"
	KeyRedisURL     = "redis_url"
	KeyPollInterval = "poll_interval"
	KeyListenAddr   = "listen_addr"
	KeyFrontendURL  = "frontend_url"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
)

// Config is the resolved configuration.
type Config struct {
	APIURL       string
	ConfigDir    string
	CacheBackend string
	CacheDir     string
	RedisURL     string
	PollInterval time.Duration
	ListenAddr   string
	FrontendURL  string
	LogLevel     string
	LogFormat    string
}

// New returns a viper instance with defaults set and the environment bound.
// A .env file in the working directory is loaded if it exists.
func New() (*viper.Viper, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(KeyAPIURL, "http://localhost:9001/api")
	v.SetDefault(KeyConfigDir, defaultConfigDir())
	v.SetDefault(KeyCacheBackend, "file")
	v.SetDefault(KeyCacheDir, "")
	v.SetDefault(KeyRedisURL, "")
	v.SetDefault(KeyPollInterval, 2*time.Second)
	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyFrontendURL, "http://localhost:3000")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v, nil
}

// LoadDotEnv loads path into the process environment. A missing file is not
// an error; variables already set are not overridden.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// BindFlags binds each named flag to the key of the same name, with dashes
// mapped to underscores.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, mapping map[string]string) error {
	for flag, key := range mapping {
		f := flags.Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", flag, err)
		}
	}
	return nil
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIURL:       strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		ConfigDir:    v.GetString(KeyConfigDir),
		CacheBackend: strings.ToLower(v.GetString(KeyCacheBackend)),
		CacheDir:     v.GetString(KeyCacheDir),
		RedisURL:     v.GetString(KeyRedisURL),
		PollInterval: v.GetDuration(KeyPollInterval),
		ListenAddr:   v.GetString(KeyListenAddr),
		FrontendURL:  strings.TrimRight(v.GetString(KeyFrontendURL), "/"),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
	}

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api url must not be empty (set CLASSPULSE_API_URL)")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("invalid poll interval %q: must be a positive duration like 2s", v.GetString(KeyPollInterval))
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.ConfigDir, "cache")
	}

	return cfg, nil
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "classpulse")
	}
	return filepath.Join(home, ".config", "classpulse")
}

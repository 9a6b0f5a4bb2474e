// Package config loads settings from DT_-prefixed environment variables, an
// optional config file and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr       string `mapstructure:"listen_addr"`
	LookupListenAddr string `mapstructure:"lookup_listen_addr"`
	DBPath           string `mapstructure:"db_path"`
	StoragePath      string `mapstructure:"storage_path"`
	AuthToken        string `mapstructure:"auth_token"`
	MaxUploadSize    int64  `mapstructure:"max_upload_size"`

	// Resolver
	LookupServiceURL string        `mapstructure:"lookup_service_url"`
	LookupTimeout    time.Duration `mapstructure:"lookup_timeout"`
	DirectProvider   bool          `mapstructure:"direct_provider"`
	StripPrefix      string        `mapstructure:"strip_prefix"`
	CacheBackend     string        `mapstructure:"cache_backend"`
	RedisURL         string        `mapstructure:"redis_url"`
	MemoryCacheLife  time.Duration `mapstructure:"memory_cache_life"`
	CacheFailures    bool          `mapstructure:"cache_failures"`
	FailureTTL       time.Duration `mapstructure:"failure_ttl"`

	// Variants
	Quality   int    `mapstructure:"quality"`
	CropToken string `mapstructure:"crop_token"`
	SizesFile string `mapstructure:"sizes_file"`

	// Lookup service and local provider
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// New returns a viper instance with the defaults registered and DT_
// environment variables bound. A non-empty file is read by Load.
func New(file string) *viper.Viper {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	}

	v.SetEnvPrefix("DT")
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// Load decodes the settings of v. Malformed values are errors rather than
// silently replaced by their defaults.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// FromEnv loads the configuration from the environment alone.
func FromEnv() (*Config, error) {
	return Load(New(""))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("lookup_listen_addr", ":8081")
	v.SetDefault("db_path", "/data/db/media.db")
	v.SetDefault("storage_path", "/data/objects")
	v.SetDefault("auth_token", "")
	v.SetDefault("max_upload_size", 32<<20)

	v.SetDefault("lookup_service_url", "")
	v.SetDefault("lookup_timeout", 5*time.Second)
	v.SetDefault("direct_provider", false)
	v.SetDefault("strip_prefix", "gs://")
	v.SetDefault("cache_backend", "sqlite")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("memory_cache_life", 24*time.Hour)
	v.SetDefault("cache_failures", false)
	v.SetDefault("failure_ttl", 5*time.Minute)

	v.SetDefault("quality", 0)
	v.SetDefault("crop_token", "p")
	v.SetDefault("sizes_file", "")

	v.SetDefault("bucket", "media")
	v.SetDefault("public_base_url", "https://localhost:8081/img")
}

func validate(cfg *Config) error {
	if cfg.LookupTimeout <= 0 {
		return errors.New("lookup_timeout must be positive")
	}
	if cfg.MemoryCacheLife <= 0 {
		return errors.New("memory_cache_life must be positive")
	}
	if cfg.FailureTTL < 0 {
		return errors.New("failure_ttl must not be negative")
	}
	if cfg.MaxUploadSize <= 0 {
		return errors.New("max_upload_size must be positive")
	}
	return nil
}

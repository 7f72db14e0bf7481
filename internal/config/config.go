package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix = "PORTCO"

	// DefaultFeedURL is the syndication feed aggregating portfolio company news.
	DefaultFeedURL = "https://zapier.com/engine/rss/21248761/feed"

	CacheBackendMemory = "memory"
	CacheBackendBolt   = "bolt"
)

// Config holds runtime settings for the harvester.
type Config struct {
	Feed       FeedConfig
	Sheet      SheetConfig
	HTTP       HTTPConfig
	Cache      CacheConfig
	Publishers PublishersConfig
	Run        RunConfig
	Log        LogConfig
}

type FeedConfig struct {
	URL string
	// InsecureSkipVerify disables TLS certificate checks for endpoints with non-standard certificates.
	InsecureSkipVerify bool
}

type SheetConfig struct {
	ID              string
	CredentialsJSON string
	CredentialsFile string
}

type HTTPConfig struct {
	Timeout time.Duration
}

type CacheConfig struct {
	TTL     time.Duration
	Backend string
	Path    string
}

type PublishersConfig struct {
	File string
}

type RunConfig struct {
	// Interval between refresh cycles; zero runs a single cycle.
	Interval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, an optional .env file and an optional config file.
// configFile may be empty.
func Load(configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile = strings.TrimSpace(configFile); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", DefaultFeedURL)
	v.SetDefault("feed.insecure_skip_verify", true)
	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("sheet.id", "")
	v.SetDefault("sheet.credentials_json", "")
	v.SetDefault("sheet.credentials_file", "credentials.json")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.path", "portco-cache.db")
	v.SetDefault("publishers.file", "")
	v.SetDefault("run.interval", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Feed: FeedConfig{
			URL:                strings.TrimSpace(v.GetString("feed.url")),
			InsecureSkipVerify: v.GetBool("feed.insecure_skip_verify"),
		},
		Sheet: SheetConfig{
			ID:              strings.TrimSpace(v.GetString("sheet.id")),
			CredentialsJSON: strings.TrimSpace(v.GetString("sheet.credentials_json")),
			CredentialsFile: strings.TrimSpace(v.GetString("sheet.credentials_file")),
		},
		HTTP: HTTPConfig{
			Timeout: v.GetDuration("http.timeout"),
		},
		Cache: CacheConfig{
			TTL:     v.GetDuration("cache.ttl"),
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("cache.backend"))),
			Path:    strings.TrimSpace(v.GetString("cache.path")),
		},
		Publishers: PublishersConfig{
			File: strings.TrimSpace(v.GetString("publishers.file")),
		},
		Run: RunConfig{
			Interval: v.GetDuration("run.interval"),
		},
		Log: LogConfig{
			Level:  strings.TrimSpace(v.GetString("log.level")),
			Format: strings.TrimSpace(v.GetString("log.format")),
		},
	}
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	if c.Feed.URL == "" {
		return errors.New("feed.url is required")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendBolt:
		if c.Cache.Path == "" {
			return errors.New("cache.path is required for the bolt backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Run.Interval < 0 {
		return fmt.Errorf("run.interval must not be negative, got %s", c.Run.Interval)
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultFeedURL, cfg.Feed.URL)
	assert.True(t, cfg.Feed.InsecureSkipVerify)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, "credentials.json", cfg.Sheet.CredentialsFile)
	assert.Zero(t, cfg.Run.Interval)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORTCO_FEED_URL", "https://example.com/rss")
	t.Setenv("PORTCO_FEED_INSECURE_SKIP_VERIFY", "false")
	t.Setenv("PORTCO_SHEET_ID", "sheet-123")
	t.Setenv("PORTCO_CACHE_TTL", "30m")
	t.Setenv("PORTCO_CACHE_BACKEND", "BOLT")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/rss", cfg.Feed.URL)
	assert.False(t, cfg.Feed.InsecureSkipVerify)
	assert.Equal(t, "sheet-123", cfg.Sheet.ID)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, CacheBackendBolt, cfg.Cache.Backend)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "portco.yaml")
	content := "sheet:\n  id: from-file\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Sheet.ID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Feed:  FeedConfig{URL: "https://example.com"},
		HTTP:  HTTPConfig{Timeout: time.Second},
		Cache: CacheConfig{TTL: time.Minute, Backend: CacheBackendMemory},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty feed url", func(c *Config) { c.Feed.URL = "" }},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }},
		{"bolt without path", func(c *Config) { c.Cache.Backend = CacheBackendBolt; c.Cache.Path = "" }},
		{"negative interval", func(c *Config) { c.Run.Interval = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+): it changes the working
// directory and restores the previous one when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}

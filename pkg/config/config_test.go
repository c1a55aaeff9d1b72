package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithFile(t *testing.T, contents string) *CommunityConfig {
	t.Helper()
	dir := t.TempDir()
	if contents != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(contents), 0o600))
	}
	t.Setenv("COMMUNITY_CONFIG_PATH", dir)
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadWithFile(t, "")

	assert.Equal(t, 1000, cfg.APIListLimitMax)
	assert.Equal(t, 100, cfg.APIListLimitDefault)
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.Equal(t, 5*time.Minute, cfg.SignedURLDuration())
	assert.Equal(t, "/var/lib/community/storage", cfg.StorageRoot)
	assert.Equal(t, int64(10485760), cfg.StorageMaxUploadBytes)
	assert.Equal(t, []string{"avatars", "post-media", "course-media", "branding"}, cfg.StorageBuckets)
	assert.False(t, cfg.EventsEnabled())
	assert.Equal(t, "community.changes", cfg.EventTopic)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.IsAuthenticatorEnabled("authn"))
	assert.Equal(t, "default", cfg.Source("storage_root"))
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Setenv("COMMUNITY_API_LIST_LIMIT_MAX", "50")
	t.Setenv("COMMUNITY_EVENT_BROKERS", "kafka-1:9092, kafka-2:9092")
	cfg := loadWithFile(t, `
api_list_limit_max: 500
api_list_limit_default: 25
storage_root: /srv/storage
storage_buckets: [avatars, docs]
log_level: debug
`)

	assert.Equal(t, 50, cfg.APIListLimitMax)
	assert.Equal(t, "environment", cfg.Source("api_list_limit_max"))
	assert.Equal(t, 25, cfg.APIListLimitDefault)
	assert.Equal(t, "file", cfg.Source("api_list_limit_default"))
	assert.Equal(t, "/srv/storage", cfg.StorageRoot)
	assert.Equal(t, []string{"avatars", "docs"}, cfg.StorageBuckets)
	assert.True(t, cfg.IsBucketAllowed("docs"))
	assert.False(t, cfg.IsBucketAllowed("branding"))
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.EventBrokers)
	assert.True(t, cfg.EventsEnabled())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "default", cfg.Source("signed_url_ttl"))
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("api_list_limit_max: [oops"), 0o600))
	t.Setenv("COMMUNITY_CONFIG_PATH", dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *CommunityConfig)
	}{
		{"bad proxy", func(c *CommunityConfig) { c.TrustedProxies = []string{"not-an-ip"} }},
		{"default above max", func(c *CommunityConfig) { c.APIListLimitDefault = 2000 }},
		{"zero ttl", func(c *CommunityConfig) { c.AccessTokenTTL = 0 }},
		{"no buckets", func(c *CommunityConfig) { c.StorageBuckets = nil }},
		{"bad bucket", func(c *CommunityConfig) { c.StorageBuckets = []string{"../etc"} }},
		{"brokers without topic", func(c *CommunityConfig) {
			c.EventBrokers = []string{"kafka:9092"}
			c.EventTopic = ""
		}},
		{"unknown authenticator", func(c *CommunityConfig) { c.Authenticators = []string{"authn-ldap"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newDefault()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestIsTrustedProxy(t *testing.T) {
	cfg := newDefault()
	assert.False(t, cfg.IsTrustedProxy("10.0.0.1"))

	cfg.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.5"}
	assert.True(t, cfg.IsTrustedProxy("10.1.2.3"))
	assert.True(t, cfg.IsTrustedProxy("192.168.1.5"))
	assert.False(t, cfg.IsTrustedProxy("192.168.1.6"))
	assert.False(t, cfg.IsTrustedProxy("garbage"))
}

func TestFormat(t *testing.T) {
	cfg := loadWithFile(t, "")

	text := cfg.FormatText()
	assert.Contains(t, text, "storage_buckets")
	assert.Contains(t, text, "(not set)")

	raw, err := cfg.FormatJSON()
	require.NoError(t, err)
	var decoded struct {
		ConfigFile string      `json:"config_file"`
		Attributes []Attribute `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, cfg.ConfigFilePath(), decoded.ConfigFile)
	assert.Len(t, decoded.Attributes, len(attributeNames()))
}

func TestGetAndReload(t *testing.T) {
	cfg := loadWithFile(t, "signed_url_ttl: 60\n")
	require.Equal(t, 60, cfg.SignedURLTTL)

	require.NoError(t, Reload())
	assert.Equal(t, 60, Get().SignedURLTTL)
	assert.Equal(t, "file", Get().Source("signed_url_ttl"))
}

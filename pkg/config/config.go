package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const (
	DefaultConfigPath = "/etc/community/config"
	ConfigFileName    = "community.yml"
)

// ValidAuthenticators is the list of valid authenticator types
var ValidAuthenticators = []string{"authn"}

// CommunityConfig holds all server configuration settings
type CommunityConfig struct {
	// TrustedProxies is a list of CIDR ranges for trusted proxies
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// APIListLimitMax caps the number of rows a table query may return
	APIListLimitMax int `yaml:"api_list_limit_max" json:"api_list_limit_max"`

	// APIListLimitDefault is the row limit applied when a query sets none
	APIListLimitDefault int `yaml:"api_list_limit_default" json:"api_list_limit_default"`

	// AccessTokenTTL is the access token lifetime in seconds
	AccessTokenTTL int `yaml:"access_token_ttl" json:"access_token_ttl"`

	// SignedURLTTL is the default signed storage URL lifetime in seconds
	SignedURLTTL int `yaml:"signed_url_ttl" json:"signed_url_ttl"`

	StorageRoot           string   `yaml:"storage_root" json:"storage_root"`
	StorageMaxUploadBytes int64    `yaml:"storage_max_upload_bytes" json:"storage_max_upload_bytes"`
	StorageBuckets        []string `yaml:"storage_buckets" json:"storage_buckets"`

	// EventBrokers lists Kafka bootstrap brokers. Empty means change events
	// are only logged.
	EventBrokers []string `yaml:"event_brokers" json:"event_brokers"`
	EventTopic   string   `yaml:"event_topic" json:"event_topic"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins"`

	// Authenticators is a list of enabled authenticators
	Authenticators []string `yaml:"authenticators" json:"authenticators"`

	AuditEnabled bool   `yaml:"audit_enabled" json:"audit_enabled"`
	LogLevel     string `yaml:"log_level" json:"log_level"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *CommunityConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *CommunityConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *CommunityConfig {
	return &CommunityConfig{
		TrustedProxies:        []string{},
		APIListLimitMax:       1000,
		APIListLimitDefault:   100,
		AccessTokenTTL:        3600,
		SignedURLTTL:          300,
		StorageRoot:           "/var/lib/community/storage",
		StorageMaxUploadBytes: 10 << 20,
		StorageBuckets:        []string{"avatars", "post-media", "course-media", "branding"},
		EventBrokers:          []string{},
		EventTopic:            "community.changes",
		CORSAllowedOrigins:    []string{},
		Authenticators:        []string{"authn"},
		AuditEnabled:          false,
		LogLevel:              "info",
		sources:               make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*CommunityConfig, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("COMMUNITY_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig CommunityConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"trusted_proxies", "api_list_limit_max", "api_list_limit_default",
		"access_token_ttl", "signed_url_ttl", "storage_root",
		"storage_max_upload_bytes", "storage_buckets", "event_brokers",
		"event_topic", "cors_allowed_origins", "authenticators",
		"audit_enabled", "log_level",
	}
}

func (c *CommunityConfig) applyFileConfig(file *CommunityConfig) {
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
	if file.APIListLimitMax != 0 {
		c.APIListLimitMax = file.APIListLimitMax
		c.sources["api_list_limit_max"] = "file"
	}
	if file.APIListLimitDefault != 0 {
		c.APIListLimitDefault = file.APIListLimitDefault
		c.sources["api_list_limit_default"] = "file"
	}
	if file.AccessTokenTTL != 0 {
		c.AccessTokenTTL = file.AccessTokenTTL
		c.sources["access_token_ttl"] = "file"
	}
	if file.SignedURLTTL != 0 {
		c.SignedURLTTL = file.SignedURLTTL
		c.sources["signed_url_ttl"] = "file"
	}
	if file.StorageRoot != "" {
		c.StorageRoot = file.StorageRoot
		c.sources["storage_root"] = "file"
	}
	if file.StorageMaxUploadBytes != 0 {
		c.StorageMaxUploadBytes = file.StorageMaxUploadBytes
		c.sources["storage_max_upload_bytes"] = "file"
	}
	if len(file.StorageBuckets) > 0 {
		c.StorageBuckets = file.StorageBuckets
		c.sources["storage_buckets"] = "file"
	}
	if len(file.EventBrokers) > 0 {
		c.EventBrokers = file.EventBrokers
		c.sources["event_brokers"] = "file"
	}
	if file.EventTopic != "" {
		c.EventTopic = file.EventTopic
		c.sources["event_topic"] = "file"
	}
	if len(file.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = file.CORSAllowedOrigins
		c.sources["cors_allowed_origins"] = "file"
	}
	if len(file.Authenticators) > 0 {
		c.Authenticators = file.Authenticators
		c.sources["authenticators"] = "file"
	}
	if file.AuditEnabled {
		c.AuditEnabled = true
		c.sources["audit_enabled"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
}

func (c *CommunityConfig) applyEnvConfig() {
	if val := os.Getenv("COMMUNITY_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
	if val := os.Getenv("COMMUNITY_API_LIST_LIMIT_MAX"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.APIListLimitMax = i
			c.sources["api_list_limit_max"] = "environment"
		}
	}
	if val := os.Getenv("COMMUNITY_API_LIST_LIMIT_DEFAULT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.APIListLimitDefault = i
			c.sources["api_list_limit_default"] = "environment"
		}
	}
	if val := os.Getenv("COMMUNITY_ACCESS_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.AccessTokenTTL = i
			c.sources["access_token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("COMMUNITY_SIGNED_URL_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SignedURLTTL = i
			c.sources["signed_url_ttl"] = "environment"
		}
	}
	if val := os.Getenv("COMMUNITY_STORAGE_ROOT"); val != "" {
		c.StorageRoot = val
		c.sources["storage_root"] = "environment"
	}
	if val := os.Getenv("COMMUNITY_STORAGE_MAX_UPLOAD_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.StorageMaxUploadBytes = i
			c.sources["storage_max_upload_bytes"] = "environment"
		}
	}
	if val := os.Getenv("COMMUNITY_STORAGE_BUCKETS"); val != "" {
		c.StorageBuckets = splitAndTrim(val)
		c.sources["storage_buckets"] = "environment"
	}
	if val := os.Getenv("COMMUNITY_EVENT_BROKERS"); val != "" {
		c.EventBrokers = splitAndTrim(val)
		c.sources["event_brokers"] = "environment"
	}
	if val := os.Getenv("COMMUNITY_EVENT_TOPIC"); val != "" {
		c.EventTopic = val
		c.sources["event_topic"] = "environment"
	}
	if val := os.Getenv("COMMUNITY_CORS_ALLOWED_ORIGINS"); val != "" {
		c.CORSAllowedOrigins = splitAndTrim(val)
		c.sources["cors_allowed_origins"] = "environment"
	}
	if val := os.Getenv("COMMUNITY_AUTHENTICATORS"); val != "" {
		c.Authenticators = splitAndTrim(val)
		c.sources["authenticators"] = "environment"
	}
	if val := os.Getenv("COMMUNITY_AUDIT_ENABLED"); val != "" {
		c.AuditEnabled = val == "true" || val == "1"
		c.sources["audit_enabled"] = "environment"
	}
	if val := os.Getenv("COMMUNITY_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *CommunityConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *CommunityConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// TokenTTL returns the access token TTL as a duration
func (c *CommunityConfig) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTL) * time.Second
}

// SignedURLDuration returns the signed URL TTL as a duration
func (c *CommunityConfig) SignedURLDuration() time.Duration {
	return time.Duration(c.SignedURLTTL) * time.Second
}

// EventsEnabled reports whether change events go to Kafka
func (c *CommunityConfig) EventsEnabled() bool {
	return len(c.EventBrokers) > 0
}

// IsAuthenticatorEnabled checks if an authenticator is enabled
func (c *CommunityConfig) IsAuthenticatorEnabled(authenticator string) bool {
	for _, a := range c.Authenticators {
		if a == authenticator {
			return true
		}
	}
	return false
}

// IsBucketAllowed checks if uploads may target bucket
func (c *CommunityConfig) IsBucketAllowed(bucket string) bool {
	for _, b := range c.StorageBuckets {
		if b == bucket {
			return true
		}
	}
	return false
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *CommunityConfig) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Try as plain IP
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *CommunityConfig) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}

	if c.APIListLimitMax <= 0 {
		return fmt.Errorf("api_list_limit_max must be positive")
	}
	if c.APIListLimitDefault <= 0 || c.APIListLimitDefault > c.APIListLimitMax {
		return fmt.Errorf("api_list_limit_default must be between 1 and api_list_limit_max")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access_token_ttl must be positive")
	}
	if c.SignedURLTTL <= 0 {
		return fmt.Errorf("signed_url_ttl must be positive")
	}
	if c.StorageMaxUploadBytes <= 0 {
		return fmt.Errorf("storage_max_upload_bytes must be positive")
	}
	if len(c.StorageBuckets) == 0 {
		return fmt.Errorf("storage_buckets must not be empty")
	}
	for _, b := range c.StorageBuckets {
		if err := validation.Var(b, "slug"); err != nil {
			return fmt.Errorf("invalid storage bucket name: %s", b)
		}
	}
	if c.EventsEnabled() && c.EventTopic == "" {
		return fmt.Errorf("event_topic is required when event_brokers is set")
	}

	validAuthenticators := make(map[string]bool)
	for _, a := range ValidAuthenticators {
		validAuthenticators[a] = true
	}
	for _, auth := range c.Authenticators {
		if !validAuthenticators[auth] {
			return fmt.Errorf("invalid authenticator type: %s", auth)
		}
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *CommunityConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "api_list_limit_max", Value: strconv.Itoa(c.APIListLimitMax), Source: c.Source("api_list_limit_max")},
		{Name: "api_list_limit_default", Value: strconv.Itoa(c.APIListLimitDefault), Source: c.Source("api_list_limit_default")},
		{Name: "access_token_ttl", Value: strconv.Itoa(c.AccessTokenTTL), Source: c.Source("access_token_ttl")},
		{Name: "signed_url_ttl", Value: strconv.Itoa(c.SignedURLTTL), Source: c.Source("signed_url_ttl")},
		{Name: "storage_root", Value: c.StorageRoot, Source: c.Source("storage_root")},
		{Name: "storage_max_upload_bytes", Value: strconv.FormatInt(c.StorageMaxUploadBytes, 10), Source: c.Source("storage_max_upload_bytes")},
		{Name: "storage_buckets", Value: strings.Join(c.StorageBuckets, ","), Source: c.Source("storage_buckets")},
		{Name: "event_brokers", Value: strings.Join(c.EventBrokers, ","), Source: c.Source("event_brokers")},
		{Name: "event_topic", Value: c.EventTopic, Source: c.Source("event_topic")},
		{Name: "cors_allowed_origins", Value: strings.Join(c.CORSAllowedOrigins, ","), Source: c.Source("cors_allowed_origins")},
		{Name: "authenticators", Value: strings.Join(c.Authenticators, ","), Source: c.Source("authenticators")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.AuditEnabled), Source: c.Source("audit_enabled")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
	}
}

// FormatText returns a text representation of the configuration
func (c *CommunityConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-45s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-45s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-45s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *CommunityConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Package config parses the JSON blobs and scalar settings injected at
// startup as environment variables (spec §6) into explicit structs.
// Unknown JSON fields are ignored forward-compatibly by encoding/json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hamed0406/regionalmonitor/internal/domain"
)

// NotificationConfig is NOTIFICATION_CONFIG: webhook delivery plus the
// global notification knobs that aren't per-monitor.
type NotificationConfig struct {
	Webhook                      *WebhookConfig `json:"webhook,omitempty"`
	Timezone                     string         `json:"timezone,omitempty"`
	GracePeriodMinutes           int            `json:"grace_period,omitempty"`
	SkipIDs                      []string       `json:"skip_ids,omitempty"`
	SkipErrorChangeNotification  bool           `json:"skip_error_change_notification,omitempty"`
}

// WebhookConfig describes how to render and deliver a notification.
type WebhookConfig struct {
	URL         string            `json:"url"`
	Method      string            `json:"method,omitempty"`
	PayloadType string            `json:"payload_type,omitempty"` // json | x-www-form-urlencoded | param
	Payload     map[string]string `json:"payload,omitempty"`
	TimeoutMS   int               `json:"timeout_ms,omitempty"`
}

// Skip reports whether monitorID is in the notification skip list.
func (n NotificationConfig) Skip(monitorID string) bool {
	for _, id := range n.SkipIDs {
		if id == monitorID {
			return true
		}
	}
	return false
}

// PageConfig is opaque UI metadata, passed through unmodified by the
// query layer.
type PageConfig map[string]any

// Config is the fully parsed, process-wide configuration.
type Config struct {
	Addr               string // HTTP bind address for cmd/api
	LogDir             string
	Region              string // this process's region identifier (regional probe only)
	TableName           string // TABLE_NAME
	CentralRegion       string // CENTRAL_REGION, overrides AWS SDK region resolution
	PasswordProtection  string // "user:pass", empty disables basic auth

	Monitors     []domain.MonitorTarget
	Notification NotificationConfig
	Maintenances []domain.Maintenance
	Page         PageConfig

	MaxConcurrentChecks int
	RateLimitRPM        int
	RateLimitBurst      int
}

// FromEnv reads and parses all of the environment described in spec §6.
// JSON blobs that are empty or absent parse to zero values rather than
// erroring, so a minimal deployment (e.g. just the query layer with no
// monitors yet) still starts.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("API_ADDR", ":8080"),
		LogDir:              envOr("LOG_DIR", "logs"),
		Region:              os.Getenv("PROBE_REGION"),
		TableName:           os.Getenv("TABLE_NAME"),
		CentralRegion:       os.Getenv("CENTRAL_REGION"),
		PasswordProtection:  os.Getenv("PASSWORD_PROTECTION"),
		MaxConcurrentChecks: envInt("MAX_CONCURRENT_CHECKS", 16),
		RateLimitRPM:        envInt("RATE_LIMIT_RPM", 300),
		RateLimitBurst:      envInt("RATE_LIMIT_BURST", 60),
	}

	if err := parseJSONEnv("MONITORS_CONFIG", &cfg.Monitors); err != nil {
		return Config{}, fmt.Errorf("MONITORS_CONFIG: %w", err)
	}
	for i := range cfg.Monitors {
		cfg.Monitors[i].Normalize()
	}
	if err := parseJSONEnv("NOTIFICATION_CONFIG", &cfg.Notification); err != nil {
		return Config{}, fmt.Errorf("NOTIFICATION_CONFIG: %w", err)
	}
	if err := parseJSONEnv("MAINTENANCES_CONFIG", &cfg.Maintenances); err != nil {
		return Config{}, fmt.Errorf("MAINTENANCES_CONFIG: %w", err)
	}
	if err := parseJSONEnv("PAGE_CONFIG", &cfg.Page); err != nil {
		return Config{}, fmt.Errorf("PAGE_CONFIG: %w", err)
	}

	return cfg, nil
}

// BasicAuthUserPass splits PASSWORD_PROTECTION ("user:pass") into its
// two halves. ok is false if protection is disabled or malformed.
func (c Config) BasicAuthUserPass() (user, pass string, ok bool) {
	if c.PasswordProtection == "" {
		return "", "", false
	}
	parts := strings.SplitN(c.PasswordProtection, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func parseJSONEnv(key string, out any) error {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

package config

import (
	"testing"
)

func TestFromEnv_ParsesScalarsAndDefaults(t *testing.T) {
	t.Setenv("API_ADDR", ":9090")
	t.Setenv("LOG_DIR", "./_testlogs")
	t.Setenv("TABLE_NAME", "uptime")
	t.Setenv("CENTRAL_REGION", "us-east-1")
	t.Setenv("PASSWORD_PROTECTION", "admin:secret")
	t.Setenv("MAX_CONCURRENT_CHECKS", "7")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.LogDir != "./_testlogs" {
		t.Fatalf("addr/logdir wrong: %+v", cfg)
	}
	if cfg.TableName != "uptime" || cfg.CentralRegion != "us-east-1" {
		t.Fatalf("store settings wrong: %+v", cfg)
	}
	if cfg.MaxConcurrentChecks != 7 {
		t.Fatalf("want MaxConcurrentChecks=7, got %d", cfg.MaxConcurrentChecks)
	}
	if cfg.RateLimitRPM != 300 || cfg.RateLimitBurst != 60 {
		t.Fatalf("want default rate limit 300/60, got %d/%d", cfg.RateLimitRPM, cfg.RateLimitBurst)
	}

	user, pass, ok := cfg.BasicAuthUserPass()
	if !ok || user != "admin" || pass != "secret" {
		t.Fatalf("want admin:secret split, got %q %q %v", user, pass, ok)
	}
}

func TestFromEnv_DefaultsWhenUnset(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("want default addr, got %q", cfg.Addr)
	}
	if _, _, ok := cfg.BasicAuthUserPass(); ok {
		t.Fatalf("want basic auth disabled when PASSWORD_PROTECTION unset")
	}
}

func TestFromEnv_ParsesMonitorsConfigAndNormalizesPrimaryRegion(t *testing.T) {
	t.Setenv("MONITORS_CONFIG", `[
		{"id":"m1","name":"Example","method":"GET","target":"https://example.com",
		 "regions":["us-east","eu-west"],"primary_region":"ap-south"}
	]`)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.Monitors) != 1 {
		t.Fatalf("want 1 monitor, got %d", len(cfg.Monitors))
	}
	m := cfg.Monitors[0]
	if !m.HasRegion("ap-south") {
		t.Fatalf("want primary region normalized into regions, got %v", m.Regions)
	}
}

func TestFromEnv_ParsesNotificationConfig(t *testing.T) {
	t.Setenv("NOTIFICATION_CONFIG", `{
		"webhook": {"url":"https://hooks.example.com/x","payload_type":"json"},
		"grace_period": 5,
		"skip_ids": ["m2"]
	}`)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Notification.Webhook == nil || cfg.Notification.Webhook.URL != "https://hooks.example.com/x" {
		t.Fatalf("want webhook parsed, got %+v", cfg.Notification.Webhook)
	}
	if !cfg.Notification.Skip("m2") {
		t.Fatalf("want m2 in skip list")
	}
	if cfg.Notification.Skip("m1") {
		t.Fatalf("want m1 not in skip list")
	}
}

func TestFromEnv_InvalidJSONErrors(t *testing.T) {
	t.Setenv("MONITORS_CONFIG", `{not valid json`)
	if _, err := FromEnv(); err == nil {
		t.Fatalf("want error for invalid MONITORS_CONFIG JSON")
	}
}

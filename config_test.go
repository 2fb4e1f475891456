package main

import (
	"os"
	"path/filepath"
	"testing"
)

func setMinimalValidConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ZOHO_CLIENT_ID", "zc-test")
	t.Setenv("ZOHO_CLIENT_SECRET", "zs-test")
	t.Setenv("ZOHO_REFRESH_TOKEN", "zr-test")
	t.Setenv("ZOHO_ORG_ID", "org-test")
	t.Setenv("CLICKUP_API_TOKEN", "cu-test")
	t.Setenv("CLICKUP_TEAM_ID", "team-test")
	t.Setenv("CLICKUP_DEFAULT_LIST_ID", "list-default")
	t.Setenv("TIMEZONE", "UTC")
}

func TestLoadConfigFromEnvWithDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
	setMinimalValidConfigEnv(t)

	cfg := LoadConfig()

	if cfg.ZohoClientID != "zc-test" {
		t.Fatalf("unexpected zoho client id: %q", cfg.ZohoClientID)
	}
	if cfg.DBPath != "./ticketrouter.db" {
		t.Fatalf("unexpected db path default: %q", cfg.DBPath)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr default: %q", cfg.ListenAddr)
	}
	if cfg.SyncSchedule != "0 * * * *" {
		t.Fatalf("unexpected sync schedule default: %q", cfg.SyncSchedule)
	}
	if cfg.LookbackHours != 24 {
		t.Fatalf("unexpected lookback default: %d", cfg.LookbackHours)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("unexpected max retries default: %d", cfg.MaxRetries)
	}
	if cfg.SimilarityThreshold != 0.8 {
		t.Fatalf("unexpected similarity threshold default: %f", cfg.SimilarityThreshold)
	}
	if cfg.DefaultCategory != "Learning Portal Issues" {
		t.Fatalf("unexpected default category: %q", cfg.DefaultCategory)
	}
	if cfg.DefaultTeam != "Product/Tech" {
		t.Fatalf("unexpected default team: %q", cfg.DefaultTeam)
	}
	if cfg.LogRetention != 1000 {
		t.Fatalf("unexpected log retention default: %d", cfg.LogRetention)
	}
	if cfg.Location == nil || cfg.Location.String() != "UTC" {
		t.Fatalf("unexpected location: %v", cfg.Location)
	}
	if cfg.SlackConfigured() {
		t.Fatal("slack must be disabled without token and channel")
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
zoho_client_id: "yaml-client"
zoho_client_secret: "yaml-secret"
zoho_refresh_token: "yaml-refresh"
zoho_org_id: "yaml-org"
clickup_api_token: "yaml-token"
clickup_team_id: "yaml-team"
clickup_default_list_id: "yaml-list"
clickup_list_ids:
  Facilities: "list-fac"
db_path: "/tmp/yaml.db"
lookback_hours: 48
sync_schedule: "30 * * * *"
timezone: "UTC"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("DB_PATH", "/tmp/env.db")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("SIMILARITY_THRESHOLD", "0.9")

	cfg := LoadConfig()

	if cfg.ZohoClientID != "yaml-client" {
		t.Fatalf("expected zoho client from yaml, got %q", cfg.ZohoClientID)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("expected db path from env override, got %q", cfg.DBPath)
	}
	if cfg.LookbackHours != 48 {
		t.Fatalf("expected lookback from yaml, got %d", cfg.LookbackHours)
	}
	if cfg.SyncSchedule != "30 * * * *" {
		t.Fatalf("expected schedule from yaml, got %q", cfg.SyncSchedule)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("expected max retries from env override, got %d", cfg.MaxRetries)
	}
	if cfg.SimilarityThreshold != 0.9 {
		t.Fatalf("expected similarity threshold from env override, got %f", cfg.SimilarityThreshold)
	}
	if cfg.ClickUpListIDs["Facilities"] != "list-fac" {
		t.Fatalf("expected list mapping from yaml, got %v", cfg.ClickUpListIDs)
	}
}

func TestListForCategory(t *testing.T) {
	cfg := Config{
		ClickUpListIDs:       map[string]string{"Facilities": "list-fac"},
		ClickUpDefaultListID: "list-default",
	}

	if got := cfg.ListForCategory("Facilities"); got != "list-fac" {
		t.Fatalf("expected mapped list, got %q", got)
	}
	if got := cfg.ListForCategory("Unmapped"); got != "list-default" {
		t.Fatalf("expected default list, got %q", got)
	}

	cfg.ClickUpDefaultListID = ""
	if got := cfg.ListForCategory("Unmapped"); got != "" {
		t.Fatalf("expected empty for no mapping and no default, got %q", got)
	}
}

package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ZohoClientID     string `yaml:"zoho_client_id"`
	ZohoClientSecret string `yaml:"zoho_client_secret"`
	ZohoRefreshToken string `yaml:"zoho_refresh_token"`
	ZohoOrgID        string `yaml:"zoho_org_id"`

	ClickUpAPIToken      string            `yaml:"clickup_api_token"`
	ClickUpTeamID        string            `yaml:"clickup_team_id"`
	ClickUpListIDs       map[string]string `yaml:"clickup_list_ids"` // category -> list ID
	ClickUpDefaultListID string            `yaml:"clickup_default_list_id"`

	DBPath     string `yaml:"db_path"`
	ListenAddr string `yaml:"listen_addr"`

	SyncSchedule        string  `yaml:"sync_schedule"` // 5-field cron expression
	LookbackHours       int     `yaml:"lookback_hours"`
	MaxRetries          int     `yaml:"max_retries"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	DefaultCategory     string  `yaml:"default_category"`
	DefaultTeam         string  `yaml:"default_team"`
	LogRetention        int     `yaml:"log_retention"` // sync_logs rows kept by the cleanup job

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	Timezone string `yaml:"timezone"`
	Location *time.Location
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ZohoClientID, "ZOHO_CLIENT_ID")
	envOverride(&cfg.ZohoClientSecret, "ZOHO_CLIENT_SECRET")
	envOverride(&cfg.ZohoRefreshToken, "ZOHO_REFRESH_TOKEN")
	envOverride(&cfg.ZohoOrgID, "ZOHO_ORG_ID")
	envOverride(&cfg.ClickUpAPIToken, "CLICKUP_API_TOKEN")
	envOverride(&cfg.ClickUpTeamID, "CLICKUP_TEAM_ID")
	envOverride(&cfg.ClickUpDefaultListID, "CLICKUP_DEFAULT_LIST_ID")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.SyncSchedule, "SYNC_SCHEDULE")
	envOverrideInt(&cfg.LookbackHours, "LOOKBACK_HOURS")
	envOverrideInt(&cfg.MaxRetries, "MAX_RETRIES")
	envOverrideFloat(&cfg.SimilarityThreshold, "SIMILARITY_THRESHOLD")
	envOverride(&cfg.DefaultCategory, "DEFAULT_CATEGORY")
	envOverride(&cfg.DefaultTeam, "DEFAULT_TEAM")
	envOverrideInt(&cfg.LogRetention, "LOG_RETENTION")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "./ticketrouter.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.SyncSchedule == "" {
		cfg.SyncSchedule = "0 * * * *"
	}
	if cfg.LookbackHours == 0 {
		cfg.LookbackHours = 24
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = 0.8
	}
	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = "Learning Portal Issues"
	}
	if cfg.DefaultTeam == "" {
		cfg.DefaultTeam = "Product/Tech"
	}
	if cfg.LogRetention == 0 {
		cfg.LogRetention = 1000
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate required fields
	required := map[string]string{
		"zoho_client_id":     cfg.ZohoClientID,
		"zoho_client_secret": cfg.ZohoClientSecret,
		"zoho_refresh_token": cfg.ZohoRefreshToken,
		"zoho_org_id":        cfg.ZohoOrgID,
		"clickup_api_token":  cfg.ClickUpAPIToken,
		"clickup_team_id":    cfg.ClickUpTeamID,
	}
	for name, val := range required {
		if val == "" {
			log.Fatalf("Required config '%s' is not set (via config.yaml or env var)", name)
		}
	}
	if len(cfg.ClickUpListIDs) == 0 && cfg.ClickUpDefaultListID == "" {
		log.Fatalf("At least one of clickup_list_ids or clickup_default_list_id must be set")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cfg.SyncSchedule); err != nil {
		log.Fatalf("invalid sync_schedule '%s': %v", cfg.SyncSchedule, err)
	}
	if cfg.LookbackHours < 1 {
		log.Fatalf("invalid lookback_hours '%d': must be >= 1", cfg.LookbackHours)
	}
	if cfg.MaxRetries < 0 {
		log.Fatalf("invalid max_retries '%d': must be >= 0", cfg.MaxRetries)
	}
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		log.Fatalf("invalid similarity_threshold '%f': must be in (0, 1]", cfg.SimilarityThreshold)
	}
	if cfg.LogRetention < 1 {
		log.Fatalf("invalid log_retention '%d': must be >= 1", cfg.LogRetention)
	}

	if cfg.Timezone == "Local" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

// ListForCategory resolves the ClickUp list for a category, falling back
// to the default list. Empty means no list is configured at all.
func (c Config) ListForCategory(category string) string {
	if id, ok := c.ClickUpListIDs[category]; ok && id != "" {
		return id
	}
	return c.ClickUpDefaultListID
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

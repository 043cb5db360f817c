package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type RenewalConfig struct {
	OwnerNoticeDays     int
	TenantNoticeDays    int
	RenewalNoticeDays   int
	RenewalDeadlineDays int
	Timezone            string
	SyncCron            string
	SyncOnStart         bool
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Renewal     RenewalConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	v.SetDefault("RENEWAL_OWNER_NOTICE_DAYS", 180)
	v.SetDefault("RENEWAL_TENANT_NOTICE_DAYS", 30)
	v.SetDefault("RENEWAL_NOTICE_DAYS", 60)
	v.SetDefault("RENEWAL_DEADLINE_DAYS", 30)

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Renewal: RenewalConfig{
			OwnerNoticeDays:     v.GetInt("RENEWAL_OWNER_NOTICE_DAYS"),
			TenantNoticeDays:    v.GetInt("RENEWAL_TENANT_NOTICE_DAYS"),
			RenewalNoticeDays:   v.GetInt("RENEWAL_NOTICE_DAYS"),
			RenewalDeadlineDays: v.GetInt("RENEWAL_DEADLINE_DAYS"),
			Timezone:            v.GetString("RENEWAL_TIMEZONE"),
			SyncCron:            v.GetString("RENEWAL_SYNC_CRON"),
			SyncOnStart:         v.GetBool("RENEWAL_SYNC_ON_START"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Renewal.Timezone == "" {
		cfg.Renewal.Timezone = "UTC"
	}
	if cfg.Renewal.SyncCron == "" {
		cfg.Renewal.SyncCron = "0 0 6 * * *"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c RenewalConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	r := cfg.Renewal
	if r.OwnerNoticeDays < 0 || r.TenantNoticeDays < 0 || r.RenewalNoticeDays < 0 || r.RenewalDeadlineDays < 0 {
		return fmt.Errorf("RENEWAL_*_DAYS must not be negative")
	}
	if _, err := r.Location(); err != nil {
		return fmt.Errorf("invalid RENEWAL_TIMEZONE: %w", err)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(r.SyncCron); err != nil {
		return fmt.Errorf("invalid RENEWAL_SYNC_CRON: %w", err)
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

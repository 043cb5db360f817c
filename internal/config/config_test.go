package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/leases")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 180, cfg.Renewal.OwnerNoticeDays)
	assert.Equal(t, 30, cfg.Renewal.TenantNoticeDays)
	assert.Equal(t, 60, cfg.Renewal.RenewalNoticeDays)
	assert.Equal(t, 30, cfg.Renewal.RenewalDeadlineDays)
	assert.Equal(t, "UTC", cfg.Renewal.Timezone)
	assert.Equal(t, "0 0 6 * * *", cfg.Renewal.SyncCron)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/leases")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("RENEWAL_OWNER_NOTICE_DAYS", "90")
	t.Setenv("RENEWAL_TIMEZONE", "Asia/Shanghai")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Renewal.OwnerNoticeDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	loc, err := cfg.Renewal.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn", map[string]string{"JWT_ACCESS_SECRET": "secret"}},
		{"missing secret", map[string]string{"DB_DSN": "dsn"}},
		{"negative days", map[string]string{"DB_DSN": "dsn", "JWT_ACCESS_SECRET": "s", "RENEWAL_DEADLINE_DAYS": "-1"}},
		{"bad timezone", map[string]string{"DB_DSN": "dsn", "JWT_ACCESS_SECRET": "s", "RENEWAL_TIMEZONE": "Mars/Olympus"}},
		{"bad cron", map[string]string{"DB_DSN": "dsn", "JWT_ACCESS_SECRET": "s", "RENEWAL_SYNC_CRON": "every day"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DSN", "")
			t.Setenv("JWT_ACCESS_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

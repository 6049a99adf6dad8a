package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtrackd/subtrack/config"
)

func TestNewDefaults(t *testing.T) {
	cfg := config.New()

	assert.Equal(t, 5500, cfg.HTTP.Port)
	assert.Equal(t, ":5500", cfg.Addr())
	assert.Equal(t, "file:subtrack.db?cache=shared&mode=rwc", cfg.Database.DSN)
	assert.Equal(t, 24, cfg.Auth.TokenExpiration)
	assert.Equal(t, "0 0 * * *", cfg.Sweeper.Schedule)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.Auth.DeterministicIDs)
}

func TestNewEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_URI", "file:override.db")
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("JWT_EXPIRE_TIME", "48")
	t.Setenv("APP_ENV", "production")
	t.Setenv("RENEWAL_SWEEP_SCHEDULE", "*/5 * * * *")
	t.Setenv("AUTH_DETERMINISTIC_IDS", "true")

	cfg := config.New()

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "file:override.db", cfg.Database.DSN)
	assert.Equal(t, "super-secret", cfg.Auth.Secret)
	assert.Equal(t, "super-secret", cfg.GetSigningKey())
	assert.Equal(t, 48, cfg.Auth.TokenExpiration)
	assert.Equal(t, 48, cfg.GetTokenExpiration())
	assert.Equal(t, "*/5 * * * *", cfg.Sweeper.Schedule)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Auth.DeterministicIDs)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{
			name: "valid configuration",
			mutate: func(c *config.Config) {
				c.Auth.Secret = "super-secret"
			},
			wantErr: false,
		},
		{
			name:    "missing secret",
			mutate:  func(c *config.Config) {},
			wantErr: true,
		},
		{
			name: "non-positive expiration",
			mutate: func(c *config.Config) {
				c.Auth.Secret = "super-secret"
				c.Auth.TokenExpiration = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAuthInterfaceConstants(t *testing.T) {
	cfg := config.New()

	require.Equal(t, "user", cfg.GetContextKey())
	require.Equal(t, "Bearer", cfg.GetAuthScheme())
	require.Equal(t, "subtrack", cfg.GetIssuer())
}

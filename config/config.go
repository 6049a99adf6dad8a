package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type (
	// Config is the process configuration, loaded from the environment
	Config struct {
		HTTP
		Database
		Auth
		Sweeper
		App
	}

	HTTP struct {
		Port int
	}

	Database struct {
		DSN string
	}

	Auth struct {
		Secret           string
		TokenExpiration  int // hours
		DeterministicIDs bool
	}

	Sweeper struct {
		Schedule string // cron format: "0 0 * * *" = daily at midnight
	}

	App struct {
		Environment string
	}
)

// New loads configuration from environment variables with sane defaults
func New() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", 5500)
	v.SetDefault("db_uri", "file:subtrack.db?cache=shared&mode=rwc")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_expire_time", 24)
	v.SetDefault("app_env", "development")
	v.SetDefault("renewal_sweep_schedule", "0 0 * * *")
	v.SetDefault("auth_deterministic_ids", false)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt("PORT"),
		},
		Database: Database{
			DSN: v.GetString("DB_URI"),
		},
		Auth: Auth{
			Secret:           v.GetString("JWT_SECRET"),
			TokenExpiration:  v.GetInt("JWT_EXPIRE_TIME"),
			DeterministicIDs: v.GetBool("AUTH_DETERMINISTIC_IDS"),
		},
		Sweeper: Sweeper{
			Schedule: v.GetString("RENEWAL_SWEEP_SCHEDULE"),
		},
		App: App{
			Environment: v.GetString("APP_ENV"),
		},
	}
}

// Validate rejects configurations the server cannot safely run with
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	if c.Auth.TokenExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRE_TIME must be a positive number of hours")
	}

	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetSigningKey implements the auth Config interface
func (c *Config) GetSigningKey() string {
	return c.Auth.Secret
}

// GetTokenExpiration returns the token lifetime in hours
func (c *Config) GetTokenExpiration() int {
	return c.Auth.TokenExpiration
}

// GetContextKey is the request-local key the resolved user is stored under
func (c *Config) GetContextKey() string {
	return "user"
}

// GetAuthScheme is the authorization header scheme
func (c *Config) GetAuthScheme() string {
	return "Bearer"
}

// GetIssuer is the iss claim stamped on every token
func (c *Config) GetIssuer() string {
	return "subtrack"
}

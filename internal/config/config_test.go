package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:            "production",
		Port:           "3000",
		JWTSecret:      "secure-secret-at-least-32-chars-long",
		DBPassword:     "secure-password",
		DBSSLMode:      "require",
		AllowedOrigins: "https://blackdonut.app",
		ResetTokenTTL:  15 * time.Minute,
		SessionTTL:     7 * 24 * time.Hour,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid production", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"default secret in production", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"short secret in production", func(c *Config) { c.JWTSecret = "short" }, true},
		{"short secret in development", func(c *Config) { c.Env = "development"; c.JWTSecret = "short" }, false},
		{"weak db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"ssl disabled in production", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"ssl disabled in test", func(c *Config) { c.Env = "test"; c.DBSSLMode = "disable" }, false},
		{"wildcard origins in production", func(c *Config) { c.AllowedOrigins = "*" }, true},
		{"zero reset ttl", func(c *Config) { c.ResetTokenTTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("FRONTEND_URL", "http://localhost:5173/")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "http://localhost:5173", c.FrontendURL)
	assert.Equal(t, 15*time.Minute, c.ResetTokenTTL)
	assert.Equal(t, 7*24*time.Hour, c.SessionTTL)
	assert.False(t, c.MediaConfigured())
	assert.False(t, c.MailConfigured())
}

func TestConfig_Origins(t *testing.T) {
	c := &Config{AllowedOrigins: " http://a.test, ,http://b.test "}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Origins())
}

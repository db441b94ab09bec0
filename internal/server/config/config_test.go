package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":5000", c.HTTPAddr)
	assert.Empty(t, c.DatabaseDSN)
	assert.Empty(t, c.SessionSecret)
	assert.Equal(t, 7*24*time.Hour, c.SessionTTL)
	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, "admin", c.AdminUsername)
	assert.Equal(t, "canteen-exports", c.S3Bucket)
	assert.Equal(t, 15*time.Minute, c.ExportURLExpiry)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	c, err := LoadConfig([]string{"-env", "/nonexistent/.env", "-d", "postgres://u:p@db/canteen", "-a", ":8080"})
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "postgres://u:p@db/canteen", c.DatabaseDSN)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 7*24*time.Hour, c.SessionTTL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		c.DatabaseDSN = "postgres://db"
		return c
	}

	t.Run("missing DSN fails fast", func(t *testing.T) {
		c := base()
		c.DatabaseDSN = ""
		_, err := c.Validate()
		require.Error(t, err)
	})

	t.Run("development falls back with warnings", func(t *testing.T) {
		c := base()
		warnings, err := c.Validate()
		require.NoError(t, err)
		assert.Len(t, warnings, 2)
		assert.Equal(t, DefaultSessionSecret, c.SessionSecret)
		assert.Equal(t, DefaultAdminPassword, c.AdminPassword)
	})

	t.Run("production requires session secret", func(t *testing.T) {
		c := base()
		c.Environment = EnvironmentProduction
		c.AdminPassword = "Str0ng!"
		_, err := c.Validate()
		require.ErrorContains(t, err, "SESSION_SECRET")
	})

	t.Run("production requires admin password", func(t *testing.T) {
		c := base()
		c.Environment = EnvironmentProduction
		c.SessionSecret = "s3cr3t"
		_, err := c.Validate()
		require.ErrorContains(t, err, "ADMIN_PASSWORD")
	})

	t.Run("production with secrets has no warnings", func(t *testing.T) {
		c := base()
		c.Environment = EnvironmentProduction
		c.SessionSecret = "s3cr3t"
		c.AdminPassword = "Str0ng!"
		warnings, err := c.Validate()
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("bcrypt cost out of range", func(t *testing.T) {
		c := base()
		c.BcryptCost = 99
		_, err := c.Validate()
		require.Error(t, err)
	})

	t.Run("non-positive session TTL", func(t *testing.T) {
		c := base()
		c.SessionTTL = 0
		_, err := c.Validate()
		require.Error(t, err)
	})
}

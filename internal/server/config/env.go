package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// EnvConfig lists the recognized environment variables.
type EnvConfig struct {
	DatabaseURL    string        `env:"DATABASE_URL"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	SessionTTL     time.Duration `env:"SESSION_TTL"`
	Port           string        `env:"PORT"`
	Environment    string        `env:"APP_ENV"`
	CookieSecure   string        `env:"COOKIE_SECURE"`
	AdminUsername  string        `env:"ADMIN_USERNAME"`
	AdminPassword  string        `env:"ADMIN_PASSWORD"`
	StaticDir      string        `env:"STATIC_DIR"`
	S3RootUser     string        `env:"S3_ROOT_USER"`
	S3RootPassword string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket       string        `env:"S3_BUCKET"`
	S3Region       string        `env:"S3_REGION"`
	S3BaseEndpoint string        `env:"S3_BASE_ENDPOINT"`
}

// parseEnv loads envFile (when it exists) into the process environment
// without overriding variables already set, then overlays recognized
// variables onto config.
func parseEnv(config *Config, envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	var e EnvConfig
	if err := envdecode.Decode(&e); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("decode environment: %w", err)
	}

	setString(&config.DatabaseDSN, e.DatabaseURL)
	setString(&config.SessionSecret, e.SessionSecret)
	setString(&config.Environment, e.Environment)
	setString(&config.AdminUsername, e.AdminUsername)
	setString(&config.AdminPassword, e.AdminPassword)
	setString(&config.StaticDir, e.StaticDir)
	setString(&config.S3RootUser, e.S3RootUser)
	setString(&config.S3RootPassword, e.S3RootPassword)
	setString(&config.S3Bucket, e.S3Bucket)
	setString(&config.S3Region, e.S3Region)
	setString(&config.S3BaseEndpoint, e.S3BaseEndpoint)

	if e.Port != "" {
		if _, err := strconv.Atoi(e.Port); err != nil {
			return fmt.Errorf("invalid PORT %q", e.Port)
		}
		config.HTTPAddr = ":" + e.Port
	}
	if e.SessionTTL > 0 {
		config.SessionTTL = e.SessionTTL
	}
	if e.CookieSecure != "" {
		v, err := strconv.ParseBool(e.CookieSecure)
		if err != nil {
			return fmt.Errorf("invalid COOKIE_SECURE %q", e.CookieSecure)
		}
		config.CookieSecure = v
	}
	return nil
}

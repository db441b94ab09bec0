// Package config handles configuration for the canteen server and the
// operator CLI: defaults, an optional JSON file, environment variables
// (including a .env file) and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kantina/canteen/internal/flagx"
	"golang.org/x/crypto/bcrypt"
)

// Insecure development fallbacks. Validate refuses them in production.
const (
	DefaultSessionSecret = "dev-secret-change-this-in-production"
	DefaultAdminPassword = "admin-change-me"

	EnvironmentProduction = "production"
)

// Config holds runtime settings for the canteen server.
//
// Fields:
//   - HTTPAddr: bind address of the JSON API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Required.
//   - SessionSecret: HMAC secret signing session cookies.
//   - SessionTTL: lifetime of a login session and its cookie.
//   - Environment: "development" or "production".
//   - AdminUsername / AdminPassword: bootstrap admin account.
//   - S3*: object storage used for invoiced exports.
type Config struct {
	HTTPAddr        string
	DatabaseDSN     string
	SessionSecret   string
	SessionTTL      time.Duration
	Environment     string
	CookieSecure    bool
	BcryptCost      int
	AdminUsername   string
	AdminPassword   string
	StaticDir       string
	ShutdownTimeout time.Duration
	S3RootUser      string
	S3RootPassword  string
	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	ExportURLExpiry time.Duration
}

// LoadDefaults populates Config with development defaults. The DSN, the
// session secret and the admin password are left empty on purpose.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5000"
	c.SessionTTL = 7 * 24 * time.Hour
	c.Environment = "development"
	c.BcryptCost = bcrypt.DefaultCost
	c.AdminUsername = "admin"
	c.ShutdownTimeout = 10 * time.Second
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "canteen-exports"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.ExportURLExpiry = 15 * time.Minute
}

// IsProduction reports whether the process runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Validate checks required settings. Outside production, missing secrets are
// replaced with insecure defaults and reported as warnings.
func (c *Config) Validate() ([]string, error) {
	var warnings []string

	if c.DatabaseDSN == "" {
		return nil, errors.New("database DSN is required (DATABASE_URL or -d)")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", c.BcryptCost)
	}
	if c.SessionTTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}

	if c.SessionSecret == "" {
		if c.IsProduction() {
			return nil, errors.New("SESSION_SECRET is required in production")
		}
		c.SessionSecret = DefaultSessionSecret
		warnings = append(warnings, "SESSION_SECRET not set, using an insecure development default")
	}

	if c.AdminPassword == "" {
		if c.IsProduction() {
			return nil, errors.New("ADMIN_PASSWORD is required in production")
		}
		c.AdminPassword = DefaultAdminPassword
		warnings = append(warnings, "ADMIN_PASSWORD not set, using an insecure development default")
	}

	return warnings, nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, flagx.ConfigFileFlag(args)); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, flagx.EnvFileFlag(args)); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is LoadConfig over os.Args that exits on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kantina/canteen/internal/timex"
)

// JSONConfig mirrors Config for unmarshalling. Durations accept both "15m"
// strings and integer nanoseconds. Pointer fields distinguish "absent" from
// a zero value so the file only overrides what it names.
type JSONConfig struct {
	HTTPAddr        string          `json:"http_addr"`
	DatabaseDSN     string          `json:"database_dsn"`
	SessionSecret   string          `json:"session_secret"`
	SessionTTL      *timex.Duration `json:"session_ttl"`
	Environment     string          `json:"environment"`
	CookieSecure    *bool           `json:"cookie_secure"`
	BcryptCost      int             `json:"bcrypt_cost"`
	AdminUsername   string          `json:"admin_username"`
	AdminPassword   string          `json:"admin_password"`
	StaticDir       string          `json:"static_dir"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
	S3RootUser      string          `json:"s3_root_user"`
	S3RootPassword  string          `json:"s3_root_password"`
	S3Bucket        string          `json:"s3_bucket"`
	S3Region        string          `json:"s3_region"`
	S3BaseEndpoint  string          `json:"s3_base_endpoint"`
	ExportURLExpiry *timex.Duration `json:"export_url_expiry"`
}

// parseJSON overlays values from the JSON file at path. An empty path is a
// no-op.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JSONConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SessionSecret, c.SessionSecret)
	setString(&config.Environment, c.Environment)
	setString(&config.AdminUsername, c.AdminUsername)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.StaticDir, c.StaticDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.ExportURLExpiry != nil {
		config.ExportURLExpiry = c.ExportURLExpiry.Duration
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Package config loads layered service configuration: defaults, an optional
// YAML file, then CLUSO_* and legacy deployment environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-shop/pkg/validation"
)

// Environment modes.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// MinSecretLength is the shortest accepted JWT signing secret.
const MinSecretLength = 32

// Config is the full service configuration.
type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Security SecurityConfig `mapstructure:"security"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	SiteURL         string        `mapstructure:"site_url"`
	TrustedProxies  string        `mapstructure:"trusted_proxies"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig selects the store. An empty URL runs the in-memory store.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// RedisConfig enables the shared limiter store when URL is set.
type RedisConfig struct {
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	// Ephemeral is set when a development secret was generated at load time.
	Ephemeral bool `mapstructure:"-"`
}

type SecurityConfig struct {
	RouteRulesFile    string `mapstructure:"route_rules_file"`
	MaxUploadRequest  int64  `mapstructure:"max_upload_request"`
	SlowRequestMillis int    `mapstructure:"slow_request_ms"`
}

// UploadsConfig stores images on local disk unless S3Bucket is set.
type UploadsConfig struct {
	Dir         string `mapstructure:"dir"`
	URLPrefix   string `mapstructure:"url_prefix"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3Prefix    string `mapstructure:"s3_prefix"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3PublicURL string `mapstructure:"s3_public_url"`
	S3PathStyle bool   `mapstructure:"s3_path_style"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"`
	SecurityDir   string `mapstructure:"security_dir"`
	RetentionDays int    `mapstructure:"retention_days"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsProduction reports whether production hardening applies.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IsDevelopment reports whether development conveniences apply.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

var (
	ErrMissingSecret = errors.New("auth.jwt_secret is required in production")
	ErrShortSecret   = fmt.Errorf("auth.jwt_secret must be at least %d characters", MinSecretLength)
	ErrUnknownEnv    = errors.New("env must be development, production or test")
)

// Validate checks cross-field constraints after loading and reports every
// problem at once.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("config").
		Custom("env", func() error {
			switch c.Env {
			case EnvDevelopment, EnvProduction, EnvTest:
				return nil
			}
			return fmt.Errorf("%w: %q", ErrUnknownEnv, c.Env)
		}).
		Custom("auth.jwt_secret", func() error {
			switch {
			case c.Auth.JWTSecret == "" && c.IsProduction():
				return ErrMissingSecret
			case c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < MinSecretLength:
				return ErrShortSecret
			}
			return nil
		}).
		PositiveDuration("auth.token_ttl", c.Auth.TokenTTL).
		When(c.Uploads.S3Bucket == "", func(cv *validation.ConfigValidator) {
			cv.Required("uploads.dir", c.Uploads.Dir)
		}).
		OneOf("logging.format", c.Logging.Format, []string{"json", "console"}).
		MinInt("logging.retention_days", c.Logging.RetentionDays, 1).
		Validate()
}

package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: CLUSO_SERVER_ADDR, CLUSO_AUTH_JWT_SECRET, ...
const EnvPrefix = "CLUSO"

// legacyEnv maps config keys to the deployment variables the storefront has
// always read. CLUSO_* names take precedence.
var legacyEnv = map[string]string{
	"env":                    "APP_ENV",
	"auth.jwt_secret":        "JWT_SECRET",
	"database.url":           "DATABASE_URL",
	"server.site_url":        "SITE_URL",
	"server.trusted_proxies": "TRUSTED_PROXIES",
	"redis.url":              "REDIS_URL",
	"uploads.dir":            "UPLOAD_DIR",
	"uploads.s3_bucket":      "S3_BUCKET",
	"logging.security_dir":   "LOG_DIR",
	"logging.level":          "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDevelopment)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.site_url", "http://localhost:3000")
	v.SetDefault("server.trusted_proxies", "")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.key_prefix", "cluso:rl:")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 2*time.Hour)

	v.SetDefault("security.route_rules_file", "")
	v.SetDefault("security.max_upload_request", 10<<20)
	v.SetDefault("security.slow_request_ms", 1000)

	v.SetDefault("uploads.dir", "public/uploads/productos")
	v.SetDefault("uploads.url_prefix", "/uploads/productos")
	v.SetDefault("uploads.s3_bucket", "")
	v.SetDefault("uploads.s3_region", "us-east-1")
	v.SetDefault("uploads.s3_prefix", "uploads/productos")
	v.SetDefault("uploads.s3_endpoint", "")
	v.SetDefault("uploads.s3_access_key", "")
	v.SetDefault("uploads.s3_secret_key", "")
	v.SetDefault("uploads.s3_public_url", "")
	v.SetDefault("uploads.s3_path_style", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.security_dir", "logs")
	v.SetDefault("logging.retention_days", 30)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// New returns a viper instance with defaults and environment bindings but
// no file. Commands bind their flags onto it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, envKey, legacy)
	}
	return v
}

// Load reads file (optional) into v and decodes the result. A development or
// test config without a JWT secret gets a random one.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
		if cfg.IsDevelopment() {
			cfg.Logging.Format = "console"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Auth.JWTSecret = secret
		cfg.Auth.Ephemeral = true
	}
	return &cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, MinSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(errors.New("generate development secret"), err)
	}
	return hex.EncodeToString(b), nil
}

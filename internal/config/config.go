package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Env        string           `koanf:"env"`
	Server     ServerConfig     `koanf:"server"`
	Store      StoreConfig      `koanf:"store"`
	Mongo      MongoConfig      `koanf:"mongo"`
	Redis      RedisConfig      `koanf:"redis"`
	Auth       AuthConfig       `koanf:"auth"`
	Mail       MailConfig       `koanf:"mail"`
	Recaptcha  RecaptchaConfig  `koanf:"recaptcha"`
	Uploads    UploadsConfig    `koanf:"uploads"`
	Moderation ModerationConfig `koanf:"moderation"`
	Cleanup    CleanupConfig    `koanf:"cleanup"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Log        LogConfig        `koanf:"log"`
}

type ServerConfig struct {
	Address         string        `koanf:"address"`
	ClientURL       string        `koanf:"client_url"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver  string `koanf:"driver"`
	DataDir string `koanf:"data_dir"`
}

type MongoConfig struct {
	URI          string `koanf:"uri"`
	Database     string `koanf:"database"`
	Transactions bool   `koanf:"transactions"`
	// ForceTLS12 pins the handshake to TLS 1.2 (needed for some Atlas deployments).
	ForceTLS12 bool `koanf:"force_tls12"`
}

type RedisConfig struct {
	URL string `koanf:"url"`
}

type AuthConfig struct {
	JWTSecret           string        `koanf:"jwt_secret"`
	TokenTTL            time.Duration `koanf:"token_ttl"`
	CookieName          string        `koanf:"cookie_name"`
	CookieSecure        bool          `koanf:"cookie_secure"`
	ModeratorSignupCode string        `koanf:"moderator_signup_code"`
}

type MailConfig struct {
	SendGridAPIKey string `koanf:"sendgrid_api_key"`
	FromEmail      string `koanf:"from_email"`
	SupportEmail   string `koanf:"support_email"`
}

type RecaptchaConfig struct {
	Secret   string `koanf:"secret"`
	Hostname string `koanf:"hostname"`
}

type UploadsConfig struct {
	Dir       string `koanf:"dir"`
	MaxSizeMB int64  `koanf:"max_size_mb"`
}

type ModerationConfig struct {
	WarningThreshold      int  `koanf:"warning_threshold"`
	AutoDeleteOnThreshold bool `koanf:"auto_delete_on_threshold"`
}

type CleanupConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Interval      time.Duration `koanf:"interval"`
	UnverifiedTTL time.Duration `koanf:"unverified_ttl"`
	EventGrace    time.Duration `koanf:"event_grace"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Disabled bool          `koanf:"disabled"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Address:         ":8080",
			ClientURL:       "http://localhost:5173",
			CORSOrigins:     []string{"http://localhost:5173"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:  StoreMongo,
			DataDir: "./data",
		},
		Mongo: MongoConfig{
			URI:          "mongodb://localhost:27017",
			Database:     "recipehub",
			Transactions: true,
		},
		Auth: AuthConfig{
			TokenTTL:   7 * 24 * time.Hour,
			CookieName: "token",
		},
		Mail: MailConfig{
			SupportEmail: "support@recipehub.local",
		},
		Uploads: UploadsConfig{
			Dir:       "./uploads",
			MaxSizeMB: 10,
		},
		Moderation: ModerationConfig{
			WarningThreshold: 3,
		},
		Cleanup: CleanupConfig{
			Enabled:       true,
			Interval:      time.Hour,
			UnverifiedTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 20,
			Window:   time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envMappings maps environment variable names to koanf paths.
var envMappings = map[string]string{
	"app_env":                  "env",
	"server_address":           "server.address",
	"port":                     "server.address",
	"client_url":               "server.client_url",
	"cors_origins":             "server.cors_origins",
	"store_driver":             "store.driver",
	"data_dir":                 "store.data_dir",
	"mongo_uri":                "mongo.uri",
	"mongo_db":                 "mongo.database",
	"mongo_transactions":       "mongo.transactions",
	"mongo_force_tls12":        "mongo.force_tls12",
	"redis_url":                "redis.url",
	"jwt_secret":               "auth.jwt_secret",
	"jwt_ttl":                  "auth.token_ttl",
	"cookie_name":              "auth.cookie_name",
	"cookie_secure":            "auth.cookie_secure",
	"moderator_signup_code":    "auth.moderator_signup_code",
	"sendgrid_api_key":         "mail.sendgrid_api_key",
	"mail_from_email":          "mail.from_email",
	"support_to_email":         "mail.support_email",
	"recaptcha_secret":         "recaptcha.secret",
	"recaptcha_hostname":       "recaptcha.hostname",
	"upload_dir":               "uploads.dir",
	"max_upload_size_mb":       "uploads.max_size_mb",
	"warning_threshold":        "moderation.warning_threshold",
	"auto_delete_on_threshold": "moderation.auto_delete_on_threshold",
	"cleanup_enabled":          "cleanup.enabled",
	"cleanup_interval":         "cleanup.interval",
	"unverified_ttl":           "cleanup.unverified_ttl",
	"event_grace":              "cleanup.event_grace",
	"rate_limit_requests":      "rate_limit.requests",
	"rate_limit_window":        "rate_limit.window",
	"rate_limit_disabled":      "rate_limit.disabled",
	"log_level":                "log.level",
	"log_format":               "log.format",
}

// envTransform returns "" for variables that are not part of the config so
// the env provider skips them.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

// Load builds the configuration from defaults, an optional YAML file and the
// environment (highest priority). A .env file is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	// Env values arrive as strings; CORS origins are comma separated.
	if v, ok := k.Get("server.cors_origins").(string); ok {
		_ = k.Set("server.cors_origins", splitList(v))
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalize accepts a bare port number for the listen address (PORT=8080).
func (c *Config) normalize() {
	if c.Server.Address != "" && !strings.Contains(c.Server.Address, ":") {
		c.Server.Address = ":" + c.Server.Address
	}
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Store.Driver != StoreMongo && c.Store.Driver != StoreMemory {
		errs = append(errs, fmt.Errorf("store.driver must be %q or %q, got %q", StoreMongo, StoreMemory, c.Store.Driver))
	}
	if c.Store.Driver == StoreMongo && c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri is required for the mongo store"))
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required in production"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Moderation.WarningThreshold <= 0 {
		errs = append(errs, errors.New("moderation.warning_threshold must be positive"))
	}
	if c.Cleanup.Enabled && c.Cleanup.Interval <= 0 {
		errs = append(errs, errors.New("cleanup.interval must be positive when cleanup is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// JWTSecretOrDev returns the configured secret, or a fixed development secret
// outside production.
func (c *Config) JWTSecretOrDev() string {
	if c.Auth.JWTSecret != "" {
		return c.Auth.JWTSecret
	}
	return "dev-secret-change-in-production"
}

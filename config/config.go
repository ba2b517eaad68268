// Package config loads runtime settings for the tours API.
//
// Values are layered: built-in defaults, then an optional YAML file
// (CONFIG_PATH, default "config.yml"), then the process environment
// (a local .env file is loaded into the environment first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type StorageConfig struct {
	Driver          string // none, r2, gcs
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicDomain    string
	CredentialsFile string
	MaxUploadSizeMB int
}

type Config struct {
	Env               string
	Port              string
	AppURL            string
	TrustedProxies    []string
	MongoURI          string
	DatabaseName      string
	JWTSecret         string
	JWTExpiresIn      time.Duration
	JWTCookieExpires  time.Duration
	Email             EmailConfig
	AllowedOrigins    []string
	RateLimitMax      int
	RateLimitWindow   time.Duration
	RedisAddr         string
	RedisPassword     string
	ReadQueryMaxLimit int
	Storage           StorageConfig
	AdminEmail        string
	AdminPassword     string
}

type fileConfig struct {
	App struct {
		Env            string   `yaml:"env"`
		Port           int      `yaml:"port"`
		URL            string   `yaml:"url"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"app"`
	Database struct {
		URI  string `yaml:"uri"`
		Name string `yaml:"name"`
	} `yaml:"database"`
	JWT struct {
		Secret              string `yaml:"secret"`
		ExpiresIn           string `yaml:"expires_in"`
		CookieExpiresInDays int    `yaml:"cookie_expires_in_days"`
	} `yaml:"jwt"`
	Email struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"email"`
	RateLimit struct {
		Max           int    `yaml:"max"`
		Window        string `yaml:"window"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
	} `yaml:"rate_limit"`
	Query struct {
		MaxLimit int `yaml:"max_limit"`
	} `yaml:"query"`
	Storage struct {
		Driver          string `yaml:"driver"`
		Bucket          string `yaml:"bucket"`
		Endpoint        string `yaml:"endpoint"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		PublicDomain    string `yaml:"public_domain"`
		CredentialsFile string `yaml:"credentials_file"`
		MaxUploadSizeMB int    `yaml:"max_upload_size_mb"`
	} `yaml:"storage"`
}

// Defaults returns a development configuration. The JWT secret and Mongo URI
// are intentionally left empty so Validate catches a missing setup.
func Defaults() *Config {
	return &Config{
		Env:               EnvDevelopment,
		Port:              "8080",
		DatabaseName:      "natours",
		JWTExpiresIn:      90 * 24 * time.Hour,
		JWTCookieExpires:  90 * 24 * time.Hour,
		Email:             EmailConfig{Host: "localhost", Port: 2525, From: "Natours <hello@natours.io>"},
		RateLimitMax:      100,
		RateLimitWindow:   time.Hour,
		ReadQueryMaxLimit: 1000,
		Storage:           StorageConfig{Driver: "none", MaxUploadSizeMB: 5},
	}
}

// Load builds the configuration from defaults, the YAML file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment variables")
	}

	cfg := Defaults()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yml"
	}
	if err := cfg.ApplyFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyFile overlays non-zero values from a YAML file.
func (c *Config) ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}

	setString(&c.Env, f.App.Env)
	if f.App.Port > 0 {
		c.Port = strconv.Itoa(f.App.Port)
	}
	setString(&c.AppURL, f.App.URL)
	if len(f.App.AllowedOrigins) > 0 {
		c.AllowedOrigins = f.App.AllowedOrigins
	}
	if len(f.App.TrustedProxies) > 0 {
		c.TrustedProxies = f.App.TrustedProxies
	}
	setString(&c.MongoURI, f.Database.URI)
	setString(&c.DatabaseName, f.Database.Name)
	setString(&c.JWTSecret, f.JWT.Secret)
	if f.JWT.ExpiresIn != "" {
		d, err := ParseDuration(f.JWT.ExpiresIn)
		if err != nil {
			return fmt.Errorf("invalid jwt.expires_in: %w", err)
		}
		c.JWTExpiresIn = d
	}
	if f.JWT.CookieExpiresInDays > 0 {
		c.JWTCookieExpires = time.Duration(f.JWT.CookieExpiresInDays) * 24 * time.Hour
	}
	setString(&c.Email.Host, f.Email.Host)
	setInt(&c.Email.Port, f.Email.Port)
	setString(&c.Email.Username, f.Email.Username)
	setString(&c.Email.Password, f.Email.Password)
	setString(&c.Email.From, f.Email.From)
	setInt(&c.RateLimitMax, f.RateLimit.Max)
	if f.RateLimit.Window != "" {
		d, err := ParseDuration(f.RateLimit.Window)
		if err != nil {
			return fmt.Errorf("invalid rate_limit.window: %w", err)
		}
		c.RateLimitWindow = d
	}
	setString(&c.RedisAddr, f.RateLimit.RedisAddr)
	setString(&c.RedisPassword, f.RateLimit.RedisPassword)
	setInt(&c.ReadQueryMaxLimit, f.Query.MaxLimit)
	setString(&c.Storage.Driver, f.Storage.Driver)
	setString(&c.Storage.Bucket, f.Storage.Bucket)
	setString(&c.Storage.Endpoint, f.Storage.Endpoint)
	setString(&c.Storage.AccessKeyID, f.Storage.AccessKeyID)
	setString(&c.Storage.SecretAccessKey, f.Storage.SecretAccessKey)
	setString(&c.Storage.PublicDomain, f.Storage.PublicDomain)
	setString(&c.Storage.CredentialsFile, f.Storage.CredentialsFile)
	setInt(&c.Storage.MaxUploadSizeMB, f.Storage.MaxUploadSizeMB)
	return nil
}

// ApplyEnv overlays values found through getenv. Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString(&c.Env, getenv("APP_ENV"))
	setString(&c.Port, getenv("PORT"))
	setString(&c.AppURL, getenv("APP_URL"))
	setString(&c.MongoURI, getenv("MONGODB_URI"))
	setString(&c.DatabaseName, getenv("DATABASE_NAME"))
	setString(&c.JWTSecret, getenv("JWT_SECRET"))

	if v := getenv("JWT_EXPIRES_IN"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
		}
		c.JWTExpiresIn = d
	}
	if v := getenv("JWT_COOKIE_EXPIRES_IN"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return fmt.Errorf("invalid JWT_COOKIE_EXPIRES_IN: %q", v)
		}
		c.JWTCookieExpires = time.Duration(days) * 24 * time.Hour
	}

	setString(&c.Email.Host, getenv("EMAIL_HOST"))
	if err := setIntEnv(&c.Email.Port, getenv, "EMAIL_PORT"); err != nil {
		return err
	}
	setString(&c.Email.Username, getenv("EMAIL_USERNAME"))
	setString(&c.Email.Password, getenv("EMAIL_PASSWORD"))
	setString(&c.Email.From, getenv("EMAIL_FROM"))

	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := getenv("TRUSTED_PROXIES"); v != "" {
		c.TrustedProxies = splitList(v)
	}

	if err := setIntEnv(&c.RateLimitMax, getenv, "RATE_LIMIT_MAX"); err != nil {
		return err
	}
	if v := getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
		}
		c.RateLimitWindow = d
	}
	setString(&c.RedisAddr, getenv("REDIS_ADDR"))
	setString(&c.RedisPassword, getenv("REDIS_PASSWORD"))
	if err := setIntEnv(&c.ReadQueryMaxLimit, getenv, "READ_QUERY_MAX_LIMIT"); err != nil {
		return err
	}

	setString(&c.Storage.Driver, getenv("STORAGE_DRIVER"))
	switch c.Storage.Driver {
	case "r2":
		setString(&c.Storage.Bucket, getenv("R2_BUCKET"))
		setString(&c.Storage.Endpoint, getenv("R2_ENDPOINT"))
		setString(&c.Storage.AccessKeyID, getenv("R2_ACCESS_KEY_ID"))
		setString(&c.Storage.SecretAccessKey, getenv("R2_SECRET_ACCESS_KEY"))
		setString(&c.Storage.PublicDomain, getenv("R2_PUBLIC_DOMAIN"))
	case "gcs":
		setString(&c.Storage.Bucket, getenv("GCS_BUCKET"))
		setString(&c.Storage.CredentialsFile, getenv("CREDENTIALS_FILE_LOCATION"))
	}
	if err := setIntEnv(&c.Storage.MaxUploadSizeMB, getenv, "MAX_UPLOAD_SIZE_MB"); err != nil {
		return err
	}

	setString(&c.AdminEmail, getenv("ADMIN_EMAIL"))
	setString(&c.AdminPassword, getenv("ADMIN_PASSWORD"))
	return nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return errors.New("missing MONGODB_URI")
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	if c.AppURL == "" && c.IsProduction() {
		return errors.New("missing APP_URL")
	}
	if c.AppURL != "" {
		u, err := url.Parse(c.AppURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("APP_URL must be an absolute http(s) URL, got %q", c.AppURL)
		}
	}
	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", proxy)
			}
		}
	}
	if c.RateLimitMax < 1 {
		return fmt.Errorf("RATE_LIMIT_MAX must be at least 1, got %d", c.RateLimitMax)
	}
	switch c.Storage.Driver {
	case "none":
	case "r2", "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage driver %q requires a bucket", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// PublicURL is the base address mailed links point at. Development falls
// back to the local listener.
func (c *Config) PublicURL() string {
	if c.AppURL != "" {
		return strings.TrimRight(c.AppURL, "/")
	}
	return "http://localhost:" + c.Port
}

// ParseDuration accepts Go durations plus a day suffix ("90d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", s)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setIntEnv(dst *int, getenv func(string) string, key string) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = n
	return nil
}

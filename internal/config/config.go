// Package config builds the immutable server configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// FILMAPI_* environment variables, then command-line flags. The result is
// validated once and passed by pointer to the components that need it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// ErrMissingSecret is returned by Validate when no JWT secret is configured.
var ErrMissingSecret = errors.New("jwt secret is required (set FILMAPI_JWT_SECRET or --jwt-secret)")

// Server holds HTTP listener settings.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Log holds logger settings.
type Log struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	AccessFile string `yaml:"access_file"`
}

// Storage selects and locates the backend.
type Storage struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Auth holds token and password settings.
type Auth struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	Issuer     string        `yaml:"issuer"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// CORS holds the allowed origins.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimit limits login and registration attempts per client IP.
type RateLimit struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	// TrustProxy берет IP клиента из X-Forwarded-For / X-Real-IP.
	// Включать только за reverse proxy, который перезаписывает эти заголовки.
	TrustProxy bool `yaml:"trust_proxy"`
}

// Config is the full server configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
	Storage   Storage   `yaml:"storage"`
	Auth      Auth      `yaml:"auth"`
	CORS      CORS      `yaml:"cors"`
	RateLimit RateLimit `yaml:"rate_limit"`

	// ShowVersion is set by --version; the caller prints build info and exits.
	ShowVersion bool `yaml:"-"`
}

// Default returns development defaults. The JWT secret is left empty on purpose:
// it has to be supplied explicitly.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Storage: Storage{
			Driver: DriverSQLite,
			Path:   "filmapi.db",
		},
		Auth: Auth{
			Issuer:     "filmapi",
			TokenTTL:   7 * 24 * time.Hour,
			BcryptCost: 10,
		},
		CORS: CORS{
			AllowedOrigins: []string{"http://localhost:8080"},
		},
		RateLimit: RateLimit{
			Requests: 10,
			Window:   time.Minute,
		},
	}
}

// Load builds the configuration from args (without the program name) and the
// process environment.
func Load(args []string) (*Config, error) {
	return load(args, os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	fs := pflag.NewFlagSet("filmapi", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to YAML config file")
	fs.StringVarP(&cfg.Server.Addr, "addr", "a", cfg.Server.Addr, "HTTP listen address")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format (json, text)")
	fs.StringVar(&cfg.Log.AccessFile, "access-log", cfg.Log.AccessFile, "append HTTP access log to this file")
	fs.StringVar(&cfg.Storage.Driver, "storage-driver", cfg.Storage.Driver, "storage driver (sqlite, bolt)")
	fs.StringVarP(&cfg.Storage.Path, "storage-path", "d", cfg.Storage.Path, "database file path")
	fs.StringVarP(&cfg.Auth.JWTSecret, "jwt-secret", "s", cfg.Auth.JWTSecret, "HMAC secret for access tokens")
	fs.DurationVar(&cfg.Auth.TokenTTL, "token-ttl", cfg.Auth.TokenTTL, "access token lifetime, 0 disables expiry")
	fs.IntVar(&cfg.Auth.BcryptCost, "bcrypt-cost", cfg.Auth.BcryptCost, "bcrypt work factor")
	fs.StringSliceVar(&cfg.CORS.AllowedOrigins, "cors-origin", cfg.CORS.AllowedOrigins, "allowed CORS origins")
	fs.BoolVar(&cfg.RateLimit.TrustProxy, "trust-proxy", cfg.RateLimit.TrustProxy, "take client IP from X-Forwarded-For for rate limiting")
	fs.BoolVarP(&cfg.ShowVersion, "version", "v", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	// Флаги имеют наивысший приоритет: запоминаем явно заданные значения
	// и восстанавливаем их после файла и окружения.
	restore := explicitFlags(fs)

	if *configPath != "" {
		if err := cfg.mergeFile(*configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return nil, err
	}
	for _, apply := range restore {
		if err := apply(); err != nil {
			return nil, fmt.Errorf("failed to apply flags: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// explicitFlags snapshots every flag set on the command line and returns
// closures that write those values back into their bound fields.
func explicitFlags(fs *pflag.FlagSet) []func() error {
	var restore []func() error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "version" {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			saved := append([]string(nil), sv.GetSlice()...)
			restore = append(restore, func() error { return sv.Replace(saved) })
			return
		}
		value, saved := f.Value, f.Value.String()
		restore = append(restore, func() error { return value.Set(saved) })
	})
	return restore
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + v
	}
	if v, ok := lookup("FILMAPI_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("FILMAPI_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("FILMAPI_LOG_FORMAT"); ok && v != "" {
		c.Log.Format = v
	}
	if v, ok := lookup("FILMAPI_ACCESS_LOG"); ok {
		c.Log.AccessFile = v
	}
	if v, ok := lookup("FILMAPI_STORAGE_DRIVER"); ok && v != "" {
		c.Storage.Driver = v
	}
	if v, ok := lookup("FILMAPI_STORAGE_PATH"); ok && v != "" {
		c.Storage.Path = v
	}
	if v, ok := lookup("FILMAPI_JWT_SECRET"); ok && v != "" {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("FILMAPI_TOKEN_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FILMAPI_TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = ttl
	}
	if v, ok := lookup("FILMAPI_BCRYPT_COST"); ok && v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FILMAPI_BCRYPT_COST: %w", err)
		}
		c.Auth.BcryptCost = cost
	}
	if v, ok := lookup("FILMAPI_TRUST_PROXY"); ok && v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FILMAPI_TRUST_PROXY: %w", err)
		}
		c.RateLimit.TrustProxy = trust
	}
	if v, ok := lookup("FILMAPI_CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}
	return nil
}

// Validate reports configuration errors that must stop the process.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("token ttl must not be negative: %s", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return errors.New("storage path is required")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.RateLimit.Requests < 0 || c.RateLimit.Window < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}

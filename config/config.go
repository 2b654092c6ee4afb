/*
config.go - Environment-driven configuration

PURPOSE:
  Collects every runtime setting of the staffplan service in one struct.
  Values come from the process environment, optionally seeded from .env
  files. CLI flags override individual fields after loading.

KEYS (all prefixed STAFFPLAN_):
  PORT              HTTP port (8080)
  DB_PATH           SQLite database path (staffplan.db, ":memory:" allowed)
  LOG_LEVEL         panic|fatal|error|warn|info|debug|trace (info)
  LOG_FORMAT        text|json (text)
  CORS_ORIGINS      Comma-separated allowed origins
  METRICS_ENABLED   Expose Prometheus metrics (true)
  METRICS_PATH      Metrics route (/metrics)
  GRADE_SEED        Optional YAML grade table applied at startup
  SHUTDOWN_TIMEOUT  Graceful shutdown budget (30s)

SEE ALSO:
  - cmd/staffplan/main.go: Flag overrides
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Prefix is prepended to every environment key.
const Prefix = "STAFFPLAN_"

// DefaultEnvFiles are loaded by Load when no files are given.
var DefaultEnvFiles = []string{".env", ".env.local"}

// MetricsOptions controls the Prometheus endpoint.
type MetricsOptions struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Config is the complete service configuration.
type Config struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	DBPath          string        `env:"DB_PATH" envDefault:"staffplan.db"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"text"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envDefault:"http://localhost:5173,http://localhost:8080" envSeparator:","`
	GradeSeed       string        `env:"GRADE_SEED"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	Metrics         MetricsOptions
}

// Load reads the existing files among envFiles into the environment and
// parses the configuration from it. Missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	return FromEnvironment(nil)
}

// FromEnvironment parses the configuration from environ, or from the process
// environment when environ is nil.
func FromEnvironment(environ map[string]string) (*Config, error) {
	var c Config
	opts := env.Options{Prefix: Prefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid %sPORT=%d (expected 1-65535)", Prefix, c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, fmt.Errorf("%sDB_PATH is required", Prefix))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid %sLOG_LEVEL=%q", Prefix, c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid %sLOG_FORMAT=%q (expected text|json)", Prefix, c.LogFormat))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("invalid %sMETRICS_PATH=%q (must start with /)", Prefix, c.Metrics.Path))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid %sSHUTDOWN_TIMEOUT=%s", Prefix, c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// NewLogger builds the service logger. Output goes to stderr so CLI results
// on stdout stay machine-readable.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

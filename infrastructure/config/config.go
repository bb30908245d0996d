package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	// Lambda configuration
	IsLambda           bool   `yaml:"-"`
	LambdaFunctionName string `yaml:"-"`

	Server  Server  `yaml:"server"`
	Solver  Solver  `yaml:"solver"`
	Cache   Cache   `yaml:"cache"`
	Tracing Tracing `yaml:"tracing"`
	CORS    CORS    `yaml:"cors"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableTracing bool `yaml:"enable_tracing"`
	EnableCORS    bool `yaml:"enable_cors"`

	// File is the YAML file the configuration was layered from, if any
	File string `yaml:"-"`
}

// Server holds HTTP server timeouts
type Server struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// Solver holds request limits and the unclassifiable-input policy
type Solver struct {
	UnclassifiedPolicy string `yaml:"unclassified_policy"`
	MaxEquations       int    `yaml:"max_equations"`
	MaxEquationLength  int    `yaml:"max_equation_length"`
	MaxBodyBytes       int64  `yaml:"max_body_bytes"`
}

// Cache configures the per-input result cache
type Cache struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// Tracing configures the OTLP exporter
type Tracing struct {
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate"`
}

// CORS configures allowed origins
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Defaults returns a configuration with sensible defaults. Port is left
// unset; it must come from APP_PORT or the config file.
func Defaults() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Server: Server{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  20 * time.Second,
		},
		Solver: Solver{
			UnclassifiedPolicy: "drop",
			MaxEquations:       100,
			MaxEquationLength:  1000,
			MaxBodyBytes:       1 << 20,
		},
		Cache: Cache{
			Enabled:    false,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
		},
		EnableMetrics: true,
		EnableCORS:    true,
	}
}

// LoadConfig loads configuration from defaults, the YAML file named by
// CONFIG_FILE (if set) and environment variables, in increasing priority.
func LoadConfig() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is LoadConfig with an explicit YAML path. An empty path skips the
// file layer.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.File = path
	}

	loadEnvironmentVariables(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// loadEnvironmentVariables overlays environment variables on the configuration
func loadEnvironmentVariables(cfg *Config) {
	cfg.Port = getEnvInt("APP_PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", "")
	cfg.IsLambda = getEnvBool("IS_LAMBDA", cfg.LambdaFunctionName != "")

	cfg.Server.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Solver.UnclassifiedPolicy = getEnv("UNCLASSIFIED_POLICY", cfg.Solver.UnclassifiedPolicy)
	cfg.Solver.MaxEquations = getEnvInt("MAX_EQUATIONS", cfg.Solver.MaxEquations)
	cfg.Solver.MaxEquationLength = getEnvInt("MAX_EQUATION_LENGTH", cfg.Solver.MaxEquationLength)
	cfg.Solver.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(cfg.Solver.MaxBodyBytes)))

	cfg.Cache.Enabled = getEnvBool("ENABLE_CACHE", cfg.Cache.Enabled)
	if secs := getEnvInt("CACHE_TTL_SECONDS", 0); secs > 0 {
		cfg.Cache.TTL = time.Duration(secs) * time.Second
	}
	cfg.Cache.MaxEntries = getEnvInt("CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)

	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.EnableTracing)
	cfg.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)

	cfg.EnableCORS = getEnvBool("ENABLE_CORS", cfg.EnableCORS)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = splitList(origins)
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	var errs []error

	if !c.IsLambda && (c.Port <= 0 || c.Port > 65535) {
		errs = append(errs, errors.New("APP_PORT must be set to a port between 1 and 65535"))
	}
	switch strings.ToLower(c.Solver.UnclassifiedPolicy) {
	case "", "drop", "reject":
	default:
		errs = append(errs, fmt.Errorf("UNCLASSIFIED_POLICY must be drop or reject, got %q", c.Solver.UnclassifiedPolicy))
	}
	if c.Solver.MaxEquations <= 0 {
		errs = append(errs, errors.New("MAX_EQUATIONS must be positive"))
	}
	if c.Solver.MaxEquationLength <= 0 {
		errs = append(errs, errors.New("MAX_EQUATION_LENGTH must be positive"))
	}
	if c.Solver.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache TTL must be positive when the cache is enabled"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, errors.New("tracing sample rate must be between 0 and 1"))
	}

	return errors.Join(errs...)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protodoc/pkg/docs"
	"github.com/platinummonkey/protodoc/pkg/emitter"
	"github.com/platinummonkey/protodoc/pkg/observability"
)

// FileNames are the configuration files searched for, in order
var FileNames = []string{"protodoc.yaml", "protodoc.yml", ".protodoc.yaml"}

// Config holds all application configuration
type Config struct {
	// Title of the generated index page
	Title string `yaml:"title"`

	Inputs        InputsConfig        `yaml:"inputs"`
	Output        OutputConfig        `yaml:"output"`
	Publish       PublishConfig       `yaml:"publish"`
	Serve         ServeConfig         `yaml:"serve"`
	Observability ObservabilityConfig `yaml:"observability"`

	// Path is the file the configuration was read from, empty for defaults
	Path string `yaml:"-"`
}

// InputsConfig selects the proto sources to document
type InputsConfig struct {
	ImportPaths []string `yaml:"import_paths"`
	Files       []string `yaml:"files"`
}

// OutputConfig controls how pages are rendered and where they are written
type OutputConfig struct {
	Directory string   `yaml:"directory"`
	Formats   []string `yaml:"formats"`
	Flavor    string   `yaml:"flavor"`

	BlankLineBeforeTable bool `yaml:"blank_line_before_table"`
	PadTableColumns      bool `yaml:"pad_table_columns"`

	// Clean empties the output directory before writing
	Clean       bool `yaml:"clean"`
	Concurrency int  `yaml:"concurrency"`
}

// PublishConfig holds remote publishing destinations
type PublishConfig struct {
	S3       S3Config       `yaml:"s3"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds settings for publishing pages into a database table
type DatabaseConfig struct {
	Enabled bool `yaml:"enabled"`
	// Driver is postgres or sqlite3
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// S3Config holds S3 publishing settings
type S3Config struct {
	Enabled      bool   `yaml:"enabled"`
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Prefix       string `yaml:"prefix"`
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
}

// ServeConfig holds documentation server configuration
type ServeConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`

	// RedisAddr enables the shared page cache
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// RefreshSchedule is a cron expression for reloading the proto sources
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Title: docs.DefaultTitle,
		Output: OutputConfig{
			Directory:            "docs",
			Formats:              []string{string(docs.FormatMarkdown)},
			Flavor:               string(docs.FlavorMarkdown),
			BlankLineBeforeTable: true,
		},
		Publish: PublishConfig{
			S3:       S3Config{Region: "us-east-1"},
			Database: DatabaseConfig{Driver: "postgres", Table: "doc_pages"},
		},
		Serve: ServeConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CacheTTL:        10 * time.Minute,
			CacheSize:       1000,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "protodoc",
			OTelServiceVersion: "dev",
			OTelInsecure:       true,
		},
	}
}

// Load reads the configuration file at path, or the first of FileNames found
// in dir when path is empty, applies PROTODOC_* environment overrides and
// validates the result
func Load(dir, path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file over the current values. Relative paths in
// the file are taken relative to the file's directory.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.Path = path

	base := filepath.Dir(path)
	for i, p := range c.Inputs.ImportPaths {
		c.Inputs.ImportPaths[i] = resolvePath(base, p)
	}
	c.Output.Directory = resolvePath(base, c.Output.Directory)
	return nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// applyEnv overrides values with PROTODOC_* environment variables
func (c *Config) applyEnv() {
	c.Title = getEnv("PROTODOC_TITLE", c.Title)
	c.Inputs.ImportPaths = getEnvList("PROTODOC_IMPORT_PATHS", c.Inputs.ImportPaths)
	c.Inputs.Files = getEnvList("PROTODOC_FILES", c.Inputs.Files)

	c.Output.Directory = getEnv("PROTODOC_OUTPUT_DIR", c.Output.Directory)
	c.Output.Formats = getEnvList("PROTODOC_FORMATS", c.Output.Formats)
	c.Output.Flavor = getEnv("PROTODOC_FLAVOR", c.Output.Flavor)
	c.Output.BlankLineBeforeTable = getEnvBool("PROTODOC_BLANK_LINE_BEFORE_TABLE", c.Output.BlankLineBeforeTable)
	c.Output.PadTableColumns = getEnvBool("PROTODOC_PAD_TABLE_COLUMNS", c.Output.PadTableColumns)
	c.Output.Clean = getEnvBool("PROTODOC_CLEAN", c.Output.Clean)
	c.Output.Concurrency = getEnvInt("PROTODOC_CONCURRENCY", c.Output.Concurrency)

	s3 := &c.Publish.S3
	s3.Enabled = getEnvBool("PROTODOC_S3_ENABLED", s3.Enabled)
	s3.Bucket = getEnv("PROTODOC_S3_BUCKET", s3.Bucket)
	s3.Region = getEnv("PROTODOC_S3_REGION", s3.Region)
	s3.Prefix = getEnv("PROTODOC_S3_PREFIX", s3.Prefix)
	s3.Endpoint = getEnv("PROTODOC_S3_ENDPOINT", s3.Endpoint)
	s3.UsePathStyle = getEnvBool("PROTODOC_S3_USE_PATH_STYLE", s3.UsePathStyle)
	s3.AccessKey = getEnv("PROTODOC_S3_ACCESS_KEY", s3.AccessKey)
	s3.SecretKey = getEnv("PROTODOC_S3_SECRET_KEY", s3.SecretKey)

	database := &c.Publish.Database
	database.Enabled = getEnvBool("PROTODOC_DB_ENABLED", database.Enabled)
	database.Driver = getEnv("PROTODOC_DB_DRIVER", database.Driver)
	database.DSN = getEnv("PROTODOC_DB_DSN", database.DSN)
	database.Table = getEnv("PROTODOC_DB_TABLE", database.Table)

	serve := &c.Serve
	serve.Addr = getEnv("PROTODOC_ADDR", serve.Addr)
	serve.ReadTimeout = getEnvDuration("PROTODOC_READ_TIMEOUT", serve.ReadTimeout)
	serve.WriteTimeout = getEnvDuration("PROTODOC_WRITE_TIMEOUT", serve.WriteTimeout)
	serve.ShutdownTimeout = getEnvDuration("PROTODOC_SHUTDOWN_TIMEOUT", serve.ShutdownTimeout)
	serve.CacheTTL = getEnvDuration("PROTODOC_CACHE_TTL", serve.CacheTTL)
	serve.CacheSize = getEnvInt("PROTODOC_CACHE_SIZE", serve.CacheSize)
	serve.RedisAddr = getEnv("PROTODOC_REDIS_ADDR", serve.RedisAddr)
	serve.RedisPassword = getEnv("PROTODOC_REDIS_PASSWORD", serve.RedisPassword)
	serve.RedisDB = getEnvInt("PROTODOC_REDIS_DB", serve.RedisDB)
	serve.RefreshSchedule = getEnv("PROTODOC_REFRESH_SCHEDULE", serve.RefreshSchedule)

	obs := &c.Observability
	obs.LogLevel = getEnv("PROTODOC_LOG_LEVEL", obs.LogLevel)
	obs.MetricsEnabled = getEnvBool("PROTODOC_METRICS_ENABLED", obs.MetricsEnabled)
	obs.OTelEnabled = getEnvBool("PROTODOC_OTEL_ENABLED", obs.OTelEnabled)
	obs.OTelEndpoint = getEnv("PROTODOC_OTEL_ENDPOINT", obs.OTelEndpoint)
	obs.OTelServiceName = getEnv("PROTODOC_OTEL_SERVICE_NAME", obs.OTelServiceName)
	obs.OTelServiceVersion = getEnv("PROTODOC_OTEL_SERVICE_VERSION", obs.OTelServiceVersion)
	obs.OTelInsecure = getEnvBool("PROTODOC_OTEL_INSECURE", obs.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Output.Formats) == 0 {
		return fmt.Errorf("at least one output format is required")
	}
	if _, err := c.Formats(); err != nil {
		return err
	}
	if _, err := docs.ParseFlavor(c.Output.Flavor); err != nil {
		return err
	}
	if c.Output.Concurrency < 0 {
		return fmt.Errorf("output concurrency cannot be negative")
	}

	if c.Publish.S3.Enabled && c.Publish.S3.Bucket == "" {
		return fmt.Errorf("S3 bucket is required when S3 publishing is enabled")
	}
	if db := c.Publish.Database; db.Enabled {
		if db.Driver != "postgres" && db.Driver != "sqlite3" {
			return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", db.Driver)
		}
		if db.DSN == "" {
			return fmt.Errorf("database DSN is required when database publishing is enabled")
		}
	}

	if c.Serve.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Serve.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	if c.Serve.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.Serve.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", c.Serve.RefreshSchedule, err)
		}
	}

	if _, err := observability.ParseLogLevel(c.Observability.LogLevel); err != nil {
		return err
	}
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}
	return nil
}

// Formats returns the parsed output formats without duplicates
func (c *Config) Formats() ([]docs.Format, error) {
	var out []docs.Format
	seen := make(map[docs.Format]bool)
	for _, name := range c.Output.Formats {
		f, err := docs.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// DocsOptions returns documenter options for one output format
func (c *Config) DocsOptions(format docs.Format) docs.Options {
	flavor, _ := docs.ParseFlavor(c.Output.Flavor)
	spacing := emitter.TableSpacingNewLine
	if c.Output.BlankLineBeforeTable {
		spacing = emitter.TableSpacingBlankLine
	}
	return docs.Options{
		Title:           c.Title,
		Format:          format,
		Flavor:          flavor,
		TableSpacing:    spacing,
		PadTableColumns: c.Output.PadTableColumns,
		Concurrency:     c.Output.Concurrency,
	}
}

// LogLevel returns the configured log level
func (c *Config) LogLevel() observability.LogLevel {
	level, _ := observability.ParseLogLevel(c.Observability.LogLevel)
	return level
}

// OTelConfig returns the OpenTelemetry settings
func (c *Config) OTelConfig() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

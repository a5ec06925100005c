package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

// EnvPrefix scopes the environment overrides, e.g. SYLLABUS_QUEUE_WORKERS -> queue.workers.
const EnvPrefix = "SYLLABUS_"

const maxConfigFileSize = 1024 * 1024

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Queue      QueueConfig      `koanf:"queue"`
	Watch      WatchConfig      `koanf:"watch"`
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string        `koanf:"dsn"`
	MaxConns         int32         `koanf:"max_conns"`
	MinConns         int32         `koanf:"min_conns"`
	MaxConnLifetime  time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `koanf:"max_conn_idle_time"`
	DialTimeout      time.Duration `koanf:"dial_timeout"`
	StatementTimeout time.Duration `koanf:"statement_timeout"`
}

// ExtractionConfig tunes the syllabus extractor.
type ExtractionConfig struct {
	MaxInputChars int    `koanf:"max_input_chars"`
	Method        string `koanf:"method"`
}

// QueueConfig sizes the async processing queue.
type QueueConfig struct {
	Workers        int           `koanf:"workers"`
	Size           int           `koanf:"size"`
	ProcessTimeout time.Duration `koanf:"process_timeout"`
	Materialize    bool          `koanf:"materialize"`
}

// WatchConfig drives the directory watcher in syllabusd.
type WatchConfig struct {
	Dir      string        `koanf:"dir"`
	Debounce time.Duration `koanf:"debounce"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr        string        `koanf:"grpc_addr"`
	HTTPAddr        string        `koanf:"http_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// LoadConfig reads the optional YAML file at path, applies SYLLABUS_*
// environment overrides, fills defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps SYLLABUS_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("config file %s exceeds %d bytes", path, maxConfigFileSize), ErrInvalidInput)
	}
	return io.ReadAll(f)
}

func applyDefaults(c *Config) {
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 20
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = 2
	}
	if c.Database.MaxConnLifetime == 0 {
		c.Database.MaxConnLifetime = 30 * time.Minute
	}
	if c.Database.MaxConnIdleTime == 0 {
		c.Database.MaxConnIdleTime = 5 * time.Minute
	}
	if c.Database.DialTimeout == 0 {
		c.Database.DialTimeout = 3 * time.Second
	}

	if c.Extraction.MaxInputChars == 0 {
		c.Extraction.MaxInputChars = constants.MaxInputChars
	}
	if c.Extraction.Method == "" {
		c.Extraction.Method = constants.ExtractionMethod
	}

	if c.Queue.Workers == 0 {
		c.Queue.Workers = 4
	}
	if c.Queue.Size == 0 {
		c.Queue.Size = 100
	}
	if c.Queue.ProcessTimeout == 0 {
		c.Queue.ProcessTimeout = 30 * time.Second
	}

	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}

	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":8080"
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":9090"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Extraction.MaxInputChars < 0 {
		return NewAppError("CONFIG_ERROR", "extraction.max_input_chars must not be negative", ErrInvalidInput)
	}
	if c.Queue.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "queue.workers must be at least 1", ErrInvalidInput)
	}
	if c.Queue.Size < 1 {
		return NewAppError("CONFIG_ERROR", "queue.size must be at least 1", ErrInvalidInput)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return NewAppError("CONFIG_ERROR", "database.min_conns exceeds database.max_conns", ErrInvalidInput)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return NewAppError("CONFIG_ERROR", err.Error(), ErrInvalidInput)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return NewAppError("CONFIG_ERROR", "log.format must be json or text", ErrInvalidInput)
	}
	return nil
}

// RequireDatabase is checked by commands that open a database.
func (c *Config) RequireDatabase() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "database.dsn is required (SYLLABUS_DATABASE_DSN)", ErrInvalidInput)
	}
	return nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q", s)
	}
	return lvl, nil
}

// NewLogger builds the process logger described by c.
func NewLogger(c LogConfig, w io.Writer) *slog.Logger {
	lvl, err := ParseLogLevel(c.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

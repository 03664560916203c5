// Package config loads the service configuration from flags, FORMFILL_*
// environment variables and defaults, in that order of precedence. A .env
// file in the working directory is loaded by the godotenv autoload import in
// cmd/api.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 5050
	DefaultLogLevel      = "info"
	DefaultMaxUploadSize = 25 * 1024 * 1024 // 25MB
	DefaultOutputTTL     = 10 * time.Minute
	DefaultSessionTTL    = 30 * time.Minute

	DefaultDirPerm = 0o750
)

// ErrHelp is returned when --help was requested.
var ErrHelp = pflag.ErrHelp

// Config holds all configuration for the form filling service
type Config struct {
	Host string
	Port int

	TemplatesDir string
	DataDir      string
	OutputDir    string

	MaxUploadSize int64
	OutputTTL     time.Duration
	SessionTTL    time.Duration
	LogLevel      string

	// Field cache; an empty address selects the in-memory cache
	RedisAddr     string
	RedisDB       int
	RedisPassword string

	// Secret for signed download links; empty means random per process
	LinkSecret string

	CORSOrigins []string
}

// DefaultConfig returns the stock configuration: port 5050 and the
// templates, data and output directories under the working directory.
func DefaultConfig() *Config {
	return &Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		TemplatesDir:  "templates",
		DataDir:       "data",
		OutputDir:     "output",
		MaxUploadSize: DefaultMaxUploadSize,
		OutputTTL:     DefaultOutputTTL,
		SessionTTL:    DefaultSessionTTL,
		LogLevel:      DefaultLogLevel,
		CORSOrigins:   []string{"https://*", "http://*"},
	}
}

// LoadFromFlags parses args (without the program name) and returns a
// validated configuration.
func LoadFromFlags(args []string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setupViperEnvironment(v, cfg)

	fs := pflag.NewFlagSet("formfill-api", pflag.ContinueOnError)
	defineCommandLineFlags(fs, cfg)
	setupUsageMessage(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	populateConfigFromViper(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix("FORMFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	port := cfg.Port
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		port = p
	}

	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", port)
	v.SetDefault("templates-dir", cfg.TemplatesDir)
	v.SetDefault("data-dir", cfg.DataDir)
	v.SetDefault("output-dir", cfg.OutputDir)
	v.SetDefault("max-upload-size", cfg.MaxUploadSize)
	v.SetDefault("output-ttl", cfg.OutputTTL)
	v.SetDefault("session-ttl", cfg.SessionTTL)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("redis-addr", cfg.RedisAddr)
	v.SetDefault("redis-db", cfg.RedisDB)
	v.SetDefault("redis-password", cfg.RedisPassword)
	v.SetDefault("link-secret", cfg.LinkSecret)
	v.SetDefault("cors-origins", cfg.CORSOrigins)
}

func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("host", cfg.Host, "Server host address")
	fs.Int("port", cfg.Port, "Server port")
	fs.String("templates-dir", cfg.TemplatesDir, "Directory holding PDF templates")
	fs.String("data-dir", cfg.DataDir, "Directory holding CSV datasets")
	fs.String("output-dir", cfg.OutputDir, "Directory for generated PDFs")
	fs.Int64("max-upload-size", cfg.MaxUploadSize, "Maximum upload size in bytes")
	fs.Duration("output-ttl", cfg.OutputTTL, "How long generated PDFs are kept")
	fs.Duration("session-ttl", cfg.SessionTTL, "Idle time after which UI sessions expire")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("redis-addr", cfg.RedisAddr, "Redis address for the field cache (empty: in-memory)")
	fs.Int("redis-db", cfg.RedisDB, "Redis database number")
	fs.String("redis-password", cfg.RedisPassword, "Redis password")
	fs.String("link-secret", cfg.LinkSecret, "Secret for signed download links (empty: random)")
	fs.StringSlice("cors-origins", cfg.CORSOrigins, "Allowed CORS origins")
}

func setupUsageMessage(fs *pflag.FlagSet) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nformfill-api - fill PDF form templates from CSV data\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  Every option can be set as FORMFILL_<OPTION>, e.g. FORMFILL_TEMPLATES_DIR.\n")
		fmt.Fprintf(os.Stderr, "  PORT is honoured when --port and FORMFILL_PORT are unset.\n")
	}
}

func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.TemplatesDir = v.GetString("templates-dir")
	cfg.DataDir = v.GetString("data-dir")
	cfg.OutputDir = v.GetString("output-dir")
	cfg.MaxUploadSize = v.GetInt64("max-upload-size")
	cfg.OutputTTL = v.GetDuration("output-ttl")
	cfg.SessionTTL = v.GetDuration("session-ttl")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
	cfg.RedisAddr = v.GetString("redis-addr")
	cfg.RedisDB = v.GetInt("redis-db")
	cfg.RedisPassword = v.GetString("redis-password")
	cfg.LinkSecret = v.GetString("link-secret")
	cfg.CORSOrigins = v.GetStringSlice("cors-origins")
}

// Validate checks if the configuration is valid and creates missing
// directories.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	for label, dir := range map[string]string{
		"templates": c.TemplatesDir,
		"data":      c.DataDir,
		"output":    c.OutputDir,
	} {
		if dir == "" {
			return fmt.Errorf("%s directory cannot be empty", label)
		}
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create %s directory %s: %w", label, dir, err)
		}
	}

	if c.MaxUploadSize <= 0 {
		return errors.New("maximum upload size must be positive")
	}
	if c.OutputTTL <= 0 || c.SessionTTL <= 0 {
		return errors.New("output and session TTLs must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %s, Port: %d, Templates: %s, Data: %s, Output: %s, LogLevel: %s, Redis: %q}",
		c.Host, c.Port, c.TemplatesDir, c.DataDir, c.OutputDir, c.LogLevel, c.RedisAddr)
}

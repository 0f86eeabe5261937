package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
	"github.com/vnykmshr/hellopool/pkg/common/validation"
)

// Format is a configuration file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var (
	// ErrEmptyPath is returned by Load for an empty path.
	ErrEmptyPath = errors.New("config: empty config path")

	// ErrUnsupportedFormat is returned for an unknown file extension or Format.
	ErrUnsupportedFormat = errors.New("config: unsupported config format")

	// ErrLoadFailed wraps failures reading the config file.
	ErrLoadFailed = errors.New("config: failed to load config")

	// ErrParseFailed wraps failures decoding the config data.
	ErrParseFailed = errors.New("config: failed to parse config")
)

// Config is the hello server configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Stats   StatsConfig   `koanf:"stats"`
}

// ServerConfig configures the listener and its worker pool.
type ServerConfig struct {
	Addr     string `koanf:"addr"`
	PoolSize int    `koanf:"pool_size"`

	// Root is a directory holding hello.html and 404.html.
	// Empty selects the built-in pages.
	Root string `koanf:"root"`

	// MaxConnections stops the server after that many connections. Zero means unlimited.
	MaxConnections int `koanf:"max_connections"`

	// ReadTimeout bounds the wait for a request line. Zero means no deadline.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// AcceptRate caps accepted connections per second. Zero means unlimited.
	AcceptRate  float64 `koanf:"accept_rate"`
	AcceptBurst int     `koanf:"accept_burst"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`

	// File, when set, sends logs to a size-rotated file instead of stderr.
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
}

// StatsConfig configures periodic pool stats logging.
type StatsConfig struct {
	// Schedule is a cron expression or descriptor such as "@every 30s".
	// Empty disables the reporter.
	Schedule string `koanf:"schedule"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        "127.0.0.1:7878",
			PoolSize:    4,
			AcceptBurst: 1,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9090",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// Validate checks that the configuration can start a server.
func (c Config) Validate() error {
	return errors.Join(
		validation.ValidateNotEmpty("config", "server.addr", c.Server.Addr),
		validation.ValidatePositive("config", "server.pool_size", c.Server.PoolSize),
		validation.ValidateNonNegative("config", "server.max_connections", c.Server.MaxConnections),
		c.validateReadTimeout(),
		c.validateAcceptRate(),
		c.validateMetrics(),
		validation.ValidateOneOf("config", "log.level", strings.ToLower(c.Log.Level), "debug", "info", "warn", "error"),
		validation.ValidateOneOf("config", "log.format", strings.ToLower(c.Log.Format), "text", "json"),
		validation.ValidateNonNegative("config", "log.max_size_mb", c.Log.MaxSizeMB),
		validation.ValidateNonNegative("config", "log.max_backups", c.Log.MaxBackups),
	)
}

func (c Config) validateReadTimeout() error {
	if c.Server.ReadTimeout < 0 {
		return hperrors.NewValidationError("config", "server.read_timeout", c.Server.ReadTimeout, "must be non-negative")
	}
	return nil
}

func (c Config) validateAcceptRate() error {
	if c.Server.AcceptRate < 0 {
		return hperrors.NewValidationError("config", "server.accept_rate", c.Server.AcceptRate, "must be non-negative")
	}
	if c.Server.AcceptRate > 0 {
		return validation.ValidatePositive("config", "server.accept_burst", c.Server.AcceptBurst)
	}
	return nil
}

func (c Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	return validation.ValidateNotEmpty("config", "metrics.addr", c.Metrics.Addr)
}

// Load reads path and overlays it on Default.
// The format is chosen by extension: .yaml, .yml or .json.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, ErrEmptyPath
	}

	format, err := DetectFormat(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	return LoadBytes(data, format)
}

// LoadBytes decodes data in the given format and overlays it on Default.
// Empty data yields Default.
func LoadBytes(data []byte, format Format) (Config, error) {
	k := koanf.New(".")
	if len(data) > 0 {
		if err := loadData(k, data, format); err != nil {
			return Config{}, err
		}
	} else if !isValidFormat(format) {
		return Config{}, ErrUnsupportedFormat
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return cfg, nil
}

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}

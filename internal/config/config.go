package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/dom"
	"github.com/vango-go/weft/pkg/runtime"
	"github.com/vango-go/weft/pkg/server"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "weft.yaml"

	// DefaultAddress is the default listen address of weft serve.
	DefaultAddress = ":8080"

	// DefaultNamespace prefixes metric names.
	DefaultNamespace = "weft"
)

// Config represents weft.yaml.
type Config struct {
	// Server contains the websocket server settings.
	Server ServerConfig `yaml:"server"`

	// Log contains logging settings.
	Log LogConfig `yaml:"log"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `yaml:"metrics"`

	// Render contains local rendering settings.
	Render RenderConfig `yaml:"render"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains the websocket server settings.
type ServerConfig struct {
	// Address is the listen address.
	Address string `yaml:"address"`

	// ReadTimeout bounds the wait for a client message.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds a single write.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Heartbeat is the ping interval.
	Heartbeat time.Duration `yaml:"heartbeat"`

	// MaxEventQueue bounds each session's pending tasks.
	MaxEventQueue int `yaml:"max_event_queue"`

	// MaxSessions caps concurrent sessions; zero means no limit.
	MaxSessions int `yaml:"max_sessions"`

	// FrameInterval is the render frame period.
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// RenderConfig contains local rendering settings.
type RenderConfig struct {
	// SanitizeRawHTML filters raw markup through a UGC policy before it
	// reaches the live tree.
	SanitizeRawHTML bool `yaml:"sanitize_raw_html"`
}

// Default returns a Config with default values.
func Default() *Config {
	sc := server.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Address:       DefaultAddress,
			ReadTimeout:   sc.ReadTimeout,
			WriteTimeout:  sc.WriteTimeout,
			Heartbeat:     sc.HeartbeatInterval,
			MaxEventQueue: sc.MaxEventQueue,
			FrameInterval: runtime.DefaultFrameInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads the configuration file at path. Fields the file leaves out
// keep their defaults; unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E120").
				WithDetail("No " + ConfigFileName + " at " + path).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New("E121").Wrap(err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New("E121").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML and uses known keys")
	}

	cfg.configPath = path
	return cfg, nil
}

// Find walks up from dir to the nearest directory holding weft.yaml and
// returns the file's path.
func Find(dir string) (string, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := start; ; {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E120").
				WithDetail("No " + ConfigFileName + " found in " + start + " or any parent directory")
		}
		dir = parent
	}
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks that every value is in range.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New("E122").WithDetail(detail)
	}
	if c.Server.Address == "" {
		return invalid("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return invalid("server.read_timeout and server.write_timeout must be positive")
	}
	if c.Server.Heartbeat <= 0 {
		return invalid("server.heartbeat must be positive")
	}
	if c.Server.Heartbeat >= c.Server.ReadTimeout {
		return invalid("server.heartbeat must be shorter than server.read_timeout")
	}
	if c.Server.MaxEventQueue <= 0 {
		return invalid("server.max_event_queue must be positive")
	}
	if c.Server.MaxSessions < 0 {
		return invalid("server.max_sessions must not be negative")
	}
	if c.Server.FrameInterval <= 0 {
		return invalid("server.frame_interval must be positive")
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return invalid("log.level must be one of debug, info, warn, error")
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return invalid("log.format must be text or json")
	}
	if c.Metrics.Namespace == "" {
		return invalid("metrics.namespace must not be empty")
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger builds the configured logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levels[strings.ToLower(c.Log.Level)]}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ServerConfig returns the pkg/server configuration these settings
// describe.
func (c *Config) ServerConfig(logger *slog.Logger) *server.Config {
	sc := server.DefaultConfig()
	sc.Address = c.Server.Address
	sc.ReadTimeout = c.Server.ReadTimeout
	sc.WriteTimeout = c.Server.WriteTimeout
	sc.HeartbeatInterval = c.Server.Heartbeat
	sc.MaxEventQueue = c.Server.MaxEventQueue
	sc.MaxSessions = c.Server.MaxSessions
	sc.FrameInterval = c.Server.FrameInterval
	sc.MetricsNamespace = c.Metrics.Namespace
	sc.Logger = logger
	return sc
}

// Document returns an empty live document with the configured sanitizer.
func (c *Config) Document() *dom.Document {
	doc := dom.NewDocument()
	if c.Render.SanitizeRawHTML {
		doc.Sanitizer = dom.UGCSanitizer()
	}
	return doc
}

package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-go/weft/pkg/runtime"
)

// Config holds configuration for the HTTP/WebSocket server and its
// sessions.
type Config struct {
	// Address is the address to listen on (e.g., ":8080").
	// Default: ":8080".
	Address string

	// ReadTimeout is the maximum time to wait for a message from the
	// client. Heartbeat pongs count as messages.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between heartbeat pings.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxEventQueue bounds the tasks waiting on a session's loop. Events
	// arriving while it is full are dropped and the client is told.
	// Default: 256.
	MaxEventQueue int

	// FrameInterval is the render frame period of each session loop.
	// Default: runtime.DefaultFrameInterval.
	FrameInterval time.Duration

	// MaxSessions caps concurrent sessions; zero means no limit.
	MaxSessions int

	// MaxMessageSize is the largest websocket message accepted.
	// Default: protocol frame header plus payload limit.
	MaxMessageSize int64

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// CheckOrigin validates the websocket request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Logger is the server logger. Sessions derive from it.
	// Default: slog.Default().
	Logger *slog.Logger

	// Registry receives the server and runtime collectors and backs the
	// /metrics route. Default: a fresh prometheus.Registry.
	Registry *prometheus.Registry

	// MetricsNamespace prefixes every metric name.
	// Default: "weft".
	MetricsNamespace string

	// Tracer traces session events. Default: the global otel tracer.
	Tracer trace.Tracer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxEventQueue:     256,
		FrameInterval:     runtime.DefaultFrameInterval,
		MaxMessageSize:    4 + 65535,
		ShutdownTimeout:   30 * time.Second,
		CheckOrigin:       SameOriginCheck,
		MetricsNamespace:  "weft",
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := c.Clone()
	d := DefaultConfig()
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = d.HeartbeatInterval
	}
	if out.MaxEventQueue <= 0 {
		out.MaxEventQueue = d.MaxEventQueue
	}
	if out.FrameInterval <= 0 {
		out.FrameInterval = d.FrameInterval
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.MetricsNamespace == "" {
		out.MetricsNamespace = d.MetricsNamespace
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Registry == nil {
		out.Registry = prometheus.NewRegistry()
	}
	return out
}

// SameOriginCheck accepts requests without an Origin header and those
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && originURL.Host == r.Host
}

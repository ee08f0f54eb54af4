package server

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{"no origin", "example.com", "", true},
		{"same host", "example.com", "https://example.com", true},
		{"same host and port", "localhost:8080", "http://localhost:8080", true},
		{"other host", "example.com", "https://evil.com", false},
		{"other port", "localhost:8080", "http://localhost:9090", false},
		{"malformed", "example.com", "://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := SameOriginCheck(r); got != tt.want {
				t.Errorf("SameOriginCheck() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := &Config{Address: ":9000", HeartbeatInterval: time.Second}
	got := cfg.withDefaults()

	if got == cfg {
		t.Fatal("withDefaults() returned the receiver, want a copy")
	}
	if got.Address != ":9000" || got.HeartbeatInterval != time.Second {
		t.Errorf("set fields overwritten: %q %v", got.Address, got.HeartbeatInterval)
	}
	d := DefaultConfig()
	if got.ReadTimeout != d.ReadTimeout || got.MaxEventQueue != d.MaxEventQueue || got.MetricsNamespace != d.MetricsNamespace {
		t.Errorf("unset fields not defaulted: %+v", got)
	}
	if got.Logger == nil || got.Registry == nil || got.CheckOrigin == nil {
		t.Error("Logger, Registry and CheckOrigin must be defaulted")
	}

	if nilCfg := (*Config)(nil).withDefaults(); nilCfg.Address != d.Address {
		t.Errorf("nil withDefaults() Address = %q, want %q", nilCfg.Address, d.Address)
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Address = ":1"
	if cfg.Address == ":1" {
		t.Error("Clone() shares state with the original")
	}
	if (*Config)(nil).Clone() != nil {
		t.Error("nil Clone() != nil")
	}
}

func TestSessionError(t *testing.T) {
	err := NewSessionError("abc", "push", ErrSessionClosed)

	if !errors.Is(err, ErrSessionClosed) {
		t.Error("errors.Is(SessionError, ErrSessionClosed) = false")
	}
	var se *SessionError
	if !errors.As(err, &se) || se.Op != "push" {
		t.Errorf("errors.As() = %+v", se)
	}
	if got, want := err.Error(), "server: session abc: push: server: session closed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := NewSessionError("", "start", ErrNilMount).Error(), "server: start: server: nil mount"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestSessionManagerLimit(t *testing.T) {
	sm := NewSessionManager(1)
	a := &Session{ID: "a", done: make(chan struct{})}
	b := &Session{ID: "b", done: make(chan struct{})}

	if err := sm.add(a); err != nil {
		t.Fatalf("add(a) error = %v", err)
	}
	if !sm.Full() {
		t.Error("Full() = false at the limit")
	}
	if err := sm.add(b); !errors.Is(err, ErrMaxSessionsReached) {
		t.Fatalf("add(b) error = %v, want %v", err, ErrMaxSessionsReached)
	}
	if sm.Get("a") != a || sm.Count() != 1 {
		t.Errorf("Get(a) = %v, Count() = %d", sm.Get("a"), sm.Count())
	}

	a.onClose(a)
	if sm.Count() != 0 || sm.Full() {
		t.Errorf("after remove Count() = %d, Full() = %v", sm.Count(), sm.Full())
	}
}

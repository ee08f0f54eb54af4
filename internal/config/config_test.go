package config

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-go/weft/internal/errors"
)

func errorCode(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Address != DefaultAddress {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, DefaultAddress)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
server:
  address: ":9090"
  heartbeat: 5s
  max_sessions: 10
log:
  level: debug
  format: json
render:
  sanitize_raw_html: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	want.Server.Address = ":9090"
	want.Server.Heartbeat = 5 * time.Second
	want.Server.MaxSessions = 10
	want.Log = LogConfig{Level: "debug", Format: "json"}
	want.Render.SanitizeRawHTML = true
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("empty file should keep defaults (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "server:\n  port: 80\n", "E121"},
		{"bad yaml", "server: [\n", "E121"},
		{"bad duration", "server:\n  heartbeat: soon\n", "E121"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if got := errorCode(err); got != tt.want {
				t.Errorf("Load() error = %v, want code %s", err, tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), ConfigFileName))
		if got := errorCode(err); got != "E120" {
			t.Errorf("Load() error = %v, want code E120", err)
		}
	})
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := Find(nested)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	want, _ := filepath.Abs(path)
	if got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}

func TestFindMissing(t *testing.T) {
	if _, err := Find(t.TempDir()); errorCode(err) != "E120" {
		t.Errorf("Find() error = %v, want code E120", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"heartbeat not below read timeout", func(c *Config) { c.Server.Heartbeat = c.Server.ReadTimeout }},
		{"zero queue", func(c *Config) { c.Server.MaxEventQueue = 0 }},
		{"negative sessions", func(c *Config) { c.Server.MaxSessions = -1 }},
		{"zero frame interval", func(c *Config) { c.Server.FrameInterval = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"empty namespace", func(c *Config) { c.Metrics.Namespace = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); errorCode(err) != "E122" {
				t.Errorf("Validate() error = %v, want code E122", err)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log = LogConfig{Level: "warn", Format: "json"}

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written below warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("json output = %q", out)
	}
}

func TestServerConfig(t *testing.T) {
	cfg := Default()
	cfg.Server.Address = ":7000"
	cfg.Server.MaxSessions = 3
	cfg.Metrics.Namespace = "app"

	sc := cfg.ServerConfig(nil)
	if sc.Address != ":7000" || sc.MaxSessions != 3 || sc.MetricsNamespace != "app" {
		t.Errorf("ServerConfig() = %+v", sc)
	}
	if sc.HeartbeatInterval != cfg.Server.Heartbeat || sc.FrameInterval != cfg.Server.FrameInterval {
		t.Errorf("ServerConfig() timing = %v %v", sc.HeartbeatInterval, sc.FrameInterval)
	}
}

func TestDocumentSanitizer(t *testing.T) {
	cfg := Default()
	if cfg.Document().Sanitizer != nil {
		t.Error("sanitizer set without sanitize_raw_html")
	}

	cfg.Render.SanitizeRawHTML = true
	doc := cfg.Document()
	if doc.Sanitizer == nil {
		t.Fatal("sanitizer not set")
	}
	div := doc.CreateElement("div")
	if err := div.SetInnerHTML(`<b>ok</b><script>alert(1)</script>`); err != nil {
		t.Fatal(err)
	}
	if got := div.InnerHTML(); got != "<b>ok</b>" {
		t.Errorf("InnerHTML() = %q, want %q", got, "<b>ok</b>")
	}
}

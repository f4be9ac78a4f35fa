package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/docstore"
	"github.com/matzehuels/patternmark/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Storage.Backend != docstore.BackendFile {
		t.Errorf("Backend = %q, want file", cfg.Storage.Backend)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	p := cfg.StorePreferences()
	if !p.ShowLabels || !p.AnimationEnabled {
		t.Errorf("default flags = %+v", p)
	}
	if diff := cmp.Diff(annotation.DefaultColorScheme(), p.ColorScheme); diff != "" {
		t.Errorf("default scheme (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[storage]
backend = "sqlite"
dsn = "/tmp/pm.db"

[preferences]
show_labels = false

[colors.CICD]
testing = "#0ea5e9"

[colors.ai-agent]
custom = "#123"

[server]
addr = ":9000"
`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	ds := cfg.DocStore()
	if ds.Backend != docstore.BackendSQLite || ds.DSN != "/tmp/pm.db" {
		t.Errorf("DocStore() = %+v", ds)
	}
	if ds.RedisAddr != "localhost:6379" || ds.Prefix != "patternmark:" {
		t.Errorf("defaults lost: %+v", ds)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}

	p := cfg.StorePreferences()
	if p.ShowLabels || !p.AnimationEnabled {
		t.Errorf("flags = %+v", p)
	}
	if got := annotation.ResolveColor(annotation.PatternCICD, "testing", p.ColorScheme); got != "#0ea5e9" {
		t.Errorf("CICD/testing = %q, want override", got)
	}
	if got := annotation.ResolveColor(annotation.PatternCICD, "build", p.ColorScheme); got != "#2563eb" {
		t.Errorf("CICD/build = %q, want default kept", got)
	}
	if got := annotation.ResolveColor(annotation.PatternAIAgent, "custom", p.ColorScheme); got != "#123" {
		t.Errorf("alias type override = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"syntax", `[storage`, "parse config"},
		{"unknown key", "[storage]\nbackend = \"file\"\nbuckets = 3", "storage.buckets"},
		{"unknown backend", "[storage]\nbackend = \"etcd\"", "etcd"},
		{"s3 without bucket", "[storage]\nbackend = \"s3\"", "s3_bucket"},
		{"postgres without dsn", "[storage]\nbackend = \"postgres\"", "dsn"},
		{"bad color", "[colors.RPA]\ntrigger = \"orange\"", "colors.RPA.trigger"},
		{"bad type", "[colors.IOT]\nsensor = \"#fff\"", "colors.IOT"},
		{"empty addr", "[server]\naddr = \"\"", "server.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("error = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/xdg", "patternmark", "config.toml") {
		t.Errorf("Path() = %s", p)
	}

	t.Setenv(EnvConfigPath, "/etc/pm.toml")
	if p, _ := Path(); p != "/etc/pm.toml" {
		t.Errorf("Path() with env = %s", p)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", dir)

	// Missing default file means defaults.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load default: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	// Missing explicit file is an error.
	if _, err := Load(filepath.Join(dir, "nope.toml")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("explicit missing error = %v", err)
	}

	path := filepath.Join(dir, "patternmark", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[storage]\nbackend = \"memory\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != docstore.BackendMemory {
		t.Errorf("Backend = %q, want memory", cfg.Storage.Backend)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	off := false
	cfg := Default()
	cfg.Storage.Backend = docstore.BackendRedis
	cfg.Preferences.AnimationEnabled = &off
	cfg.Colors = map[string]map[string]string{"RPA": {"trigger": "#000000"}}

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Parse(buf.String())
	if err != nil {
		t.Fatalf("Parse(Write()) error: %v\n%s", err, buf.String())
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != defaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "c.yaml"),
		"addr: \":9000\"\ncache_size: 4096\nworkers: 3\nlexicon_path: lex.yaml\n")
	cfg, err := loadConfig(path, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9000" || cfg.CacheSize != 4096 || cfg.Workers != 3 || cfg.LexiconPath != "lex.yaml" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DBPath != "templates.db" || cfg.LogLevel != "info" {
		t.Errorf("unset keys lost their defaults: %+v", cfg)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"bad yaml":       "addr: [\n",
		"negative cache": "cache_size: -1\n",
		"cert no key":    "tls_cert: cert.pem\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".yaml"), content)
			if _, err := loadConfig(path, slog.Default()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", levelTrace},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTraceLevelLabel(t *testing.T) {
	var buf bytes.Buffer
	newLogger("trace", &buf).Log(context.Background(), levelTrace, "row")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("log = %q", buf.String())
	}
}

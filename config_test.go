package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.lang != "en" || !cfg.tui || !cfg.hotkey || !cfg.beep || cfg.maxResults != 1 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.headless() {
		t.Error("default session should use the TUI")
	}
}

func TestParseFlags(t *testing.T) {
	for _, tt := range []struct {
		name    string
		args    []string
		check   func(config) bool
		wantErr bool
	}{
		{"test mode", []string{"-test", "in.wav", "-fake", "hi"}, func(c config) bool {
			return c.testWAV == "in.wav" && c.fake == "hi" && c.headless()
		}, false},
		{"no tui", []string{"-tui=false"}, func(c config) bool { return c.headless() }, false},
		{"auto language", []string{"-lang", ""}, func(c config) bool { return c.lang == "" }, false},
		{"language normalized", []string{"-lang", " DE "}, func(c config) bool { return c.lang == "de" }, false},
		{"max results", []string{"-max-results", "3"}, func(c config) bool { return c.maxResults == 3 }, false},
		{"quiet", []string{"-beep=false", "-hotkey=false"}, func(c config) bool { return !c.beep && !c.hotkey }, false},
		{"zero results", []string{"-max-results", "0"}, nil, true},
		{"stray argument", []string{"extra"}, nil, true},
		{"unknown flag", []string{"-autopaste"}, nil, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", cfg)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(cfg) {
				t.Errorf("unexpected config %+v", cfg)
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	if _, err := parseFlags([]string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("err = %v, want flag.ErrHelp", err)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GROQ_API_KEY=from-file\nSAYSO_PROVIDER=groq\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GROQ_API_KEY", "from-env")
	t.Setenv("SAYSO_PROVIDER", "")
	os.Unsetenv("SAYSO_PROVIDER")

	if err := loadEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("GROQ_API_KEY"); got != "from-env" {
		t.Errorf("GROQ_API_KEY = %q, existing environment should win", got)
	}
	if got := os.Getenv("SAYSO_PROVIDER"); got != "groq" {
		t.Errorf("SAYSO_PROVIDER = %q, want groq", got)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := loadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

package config

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func TestHolder_GetAndReload(t *testing.T) {
	path := writeConfig(t, `
schemas: { dir: ./schemas }
logging: { level: info }
`)

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	if h.Get().Logging.Level != "info" {
		t.Errorf("Level = %q, want info", h.Get().Logging.Level)
	}

	if err := os.WriteFile(path, []byte(`
schemas: { dir: ./schemas }
logging: { level: debug }
`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if h.Get().Logging.Level != "debug" {
		t.Errorf("Level after reload = %q, want debug", h.Get().Logging.Level)
	}
}

func TestHolder_FailedReloadKeepsOldConfig(t *testing.T) {
	path := writeConfig(t, `schemas: { dir: ./schemas }`)

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	// Break the file: schemas.dir is required.
	if err := os.WriteFile(path, []byte(`server: { port: 8080 }`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.Reload(); err == nil {
		t.Fatal("Reload() error = nil, want validation failure")
	}
	if h.Get().Schemas.Dir != "./schemas" {
		t.Errorf("Dir = %q, want old config retained", h.Get().Schemas.Dir)
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, `schemas: { dir: ./schemas }`)

	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error = %v", err)
	}
	defer h.Stop()

	var gotLevel string
	h.OnChange(func(cfg *Config) {
		gotLevel = cfg.Logging.Level
	})

	if err := os.WriteFile(path, []byte(`
schemas: { dir: ./schemas }
logging: { level: error }
`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if gotLevel != "error" {
		t.Errorf("listener saw level %q, want error", gotLevel)
	}
}

func TestHolder_MissingFile(t *testing.T) {
	if _, err := NewHolder("/nonexistent/toolgate.yaml", zerolog.Nop()); err == nil {
		t.Error("NewHolder() error = nil, want load failure")
	}
}

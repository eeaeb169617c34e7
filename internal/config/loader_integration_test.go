package config

import (
	"os"
	"path/filepath"
	"testing"
)

// Integration tests that exercise the full load pipeline:
// defaults < YAML < environment variables < CLI.

func TestLoadFrom_FullHierarchy(t *testing.T) {
	// YAML sets port=9090, env overrides to 7070. Env must win.
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
logging:
  level: "debug"
gallery:
  latest_limit: 12
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SHOWCASE_PORT", "7070")
	t.Setenv("SHOWCASE_LOG_LEVEL", "warn")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("env should override YAML: got port %q, want 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should override YAML: got level %q, want warn", cfg.Logging.Level)
	}
	if cfg.Gallery.LatestLimit != 12 {
		t.Errorf("YAML should override defaults: got latest limit %d, want 12", cfg.Gallery.LatestLimit)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(yamlPath); err == nil {
		t.Fatal("expected parse error for invalid YAML")
	}
}

func TestLoadFrom_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
storage:
  driver: "s3"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(yamlPath); err == nil {
		t.Fatal("expected validation error for s3 driver without bucket")
	}
}

func TestCLIOverridesEnv(t *testing.T) {
	// CLI flags must win over ENV.
	t.Setenv("SHOWCASE_PORT", "7070")
	t.Setenv("SHOWCASE_LOG_LEVEL", "warn")

	flags, err := ParseFlags([]string{"--port", "3333", "--log-level", "error", "--config", "/nonexistent/showcase.yaml"})
	if err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadWithCLI(flags)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "3333" {
		t.Errorf("expected CLI port 3333 to override ENV 7070, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected CLI log-level error to override ENV warn, got %s", cfg.Logging.Level)
	}
}

func TestLoadWithCLICustomConfig(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "custom.yaml")
	content := `
server:
  port: "5555"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	flags, err := ParseFlags([]string{"--config", yamlPath})
	if err != nil {
		t.Fatal(err)
	}

	cfg, resolvedPath, err := LoadWithCLI(flags)
	if err != nil {
		t.Fatal(err)
	}

	if resolvedPath != yamlPath {
		t.Errorf("expected resolved path %s, got %s", yamlPath, resolvedPath)
	}
	if cfg.Server.Port != "5555" {
		t.Errorf("expected port 5555 from custom YAML, got %s", cfg.Server.Port)
	}
}

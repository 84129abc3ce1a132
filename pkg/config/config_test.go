package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBuildDefaults(t *testing.T) {
	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Errorf("Unexpected default base URL: %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("Unexpected default timeout: %v", cfg.APITimeout)
	}
	if cfg.PageLimit != 20 {
		t.Errorf("Unexpected default page limit: %d", cfg.PageLimit)
	}
	if cfg.StaleTime != 0 {
		t.Errorf("Expected always-stale default, got %v", cfg.StaleTime)
	}
	if cfg.GCTime != 10*time.Minute {
		t.Errorf("Unexpected default gc time: %v", cfg.GCTime)
	}
	if cfg.Retry != 3 {
		t.Errorf("Unexpected default retry count: %d", cfg.Retry)
	}
	if cfg.SessionPath == "" {
		t.Error("Expected a default session path")
	}
}

func TestBuildReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "api_base_url: https://budget.example.com/api\npage_limit: 50\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Build(path, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.APIBaseURL != "https://budget.example.com/api" {
		t.Errorf("Expected the file value, got %q", cfg.APIBaseURL)
	}
	if cfg.PageLimit != 50 {
		t.Errorf("Expected page limit from file, got %d", cfg.PageLimit)
	}
	// Untouched keys keep their defaults.
	if cfg.Retry != 3 {
		t.Errorf("Expected default retry, got %d", cfg.Retry)
	}
}

func TestBuildEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("page_limit: 50\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("BUDGETBOOK_PAGE_LIMIT", "5")

	cfg, err := Build(path, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.PageLimit != 5 {
		t.Errorf("Expected the environment to win over the file, got %d", cfg.PageLimit)
	}
}

func TestBuildRejectsMalformedExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Build(path, nil); err == nil {
		t.Error("Expected an error for a malformed explicit config file")
	}
}

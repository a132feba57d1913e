package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"specgen/internal/domain"
)

func createTestConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ResolveEndpoint() != "http://localhost:7071/api/upload" {
		t.Errorf("Expected local endpoint, got '%s'", cfg.ResolveEndpoint())
	}
	if cfg.Upload.ModeField != "testType" {
		t.Errorf("Expected mode field 'testType', got '%s'", cfg.Upload.ModeField)
	}
	if cfg.Upload.DefaultFilename != "generated_files.zip" {
		t.Errorf("Expected default filename 'generated_files.zip', got '%s'", cfg.Upload.DefaultFilename)
	}
	if cfg.HTTP.Timeout != 0 {
		t.Errorf("Expected no timeout by default, got %s", cfg.HTTP.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestDefaultConfig_ReturnsIndependentCopies(t *testing.T) {
	a := DefaultConfig()
	a.Modes["unit"] = ModeConfig{}

	b := DefaultConfig()
	if len(b.Modes["unit"].Slots) != 1 {
		t.Error("mutating one default config leaked into another")
	}
}

func TestProfiles(t *testing.T) {
	cfg := DefaultConfig()
	profiles := cfg.Profiles()

	unit, ok := profiles[domain.ModeUnit]
	if !ok {
		t.Fatal("unit profile missing")
	}
	if len(unit.Slots) != 1 || unit.Slots[0].Field != "documentFile" {
		t.Errorf("unexpected unit slots: %+v", unit.Slots)
	}

	integration := profiles[domain.ModeIntegration]
	if len(integration.Slots) != 2 || !integration.Slots[0].Multiple {
		t.Errorf("unexpected integration slots: %+v", integration.Slots)
	}
	if integration.Slots[0].Field != "structuredDesignFiles" || integration.Slots[1].Field != "transitionDiagramFile" {
		t.Errorf("unexpected integration fields: %+v", integration.Slots)
	}
	if integration.Mode != domain.ModeIntegration {
		t.Errorf("profile mode = %s", integration.Mode)
	}
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint EndpointConfig
		want     string
	}{
		{"local target", EndpointConfig{Target: TargetLocal, Local: "http://l", Deployed: "https://d"}, "http://l"},
		{"deployed target", EndpointConfig{Target: TargetDeployed, Local: "http://l", Deployed: "https://d"}, "https://d"},
		{"explicit url wins", EndpointConfig{URL: "https://x", Target: TargetDeployed, Deployed: "https://d"}, "https://x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Endpoint = tt.endpoint
			if got := cfg.ResolveEndpoint(); got != tt.want {
				t.Errorf("ResolveEndpoint() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLoadConfig_WithFileAndEnvironment(t *testing.T) {
	t.Setenv("SPECGEN_ENDPOINT_TARGET", "deployed")
	t.Setenv("SPECGEN_HTTP_TIMEOUT", "90s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	testConfig := `
endpoint:
  local: "http://127.0.0.1:9000/api/upload"
  deployed: "https://generator.example.com/api/upload"
upload:
  modeField: "kind"
modes:
  integration:
    validationMessage: "three files please"
    slots:
      - field: structuredDesignFiles
        multiple: true
      - field: transitionDiagramFile
      - field: testPerspectiveFile
output:
  dir: "/tmp/specgen-out"
logging:
  level: "WARN"
`
	path := createTestConfigFile(t, "specgen.yaml", testConfig)

	cfg, source, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if source != path {
		t.Errorf("Expected source %s, got %s", path, source)
	}
	if cfg.ResolveEndpoint() != "https://generator.example.com/api/upload" {
		t.Errorf("Expected env target to select deployed endpoint, got %s", cfg.ResolveEndpoint())
	}
	if cfg.HTTP.Timeout != 90*time.Second {
		t.Errorf("Expected timeout 90s, got %s", cfg.HTTP.Timeout)
	}
	if cfg.Upload.ModeField != "kind" {
		t.Errorf("Expected mode field 'kind', got %s", cfg.Upload.ModeField)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env log level to win, got %s", cfg.Logging.Level)
	}

	profiles := cfg.Profiles()
	if n := len(profiles[domain.ModeIntegration].Slots); n != 3 {
		t.Errorf("Expected 3 integration slots, got %d", n)
	}
	if n := len(profiles[domain.ModeUnit].Slots); n != 1 {
		t.Errorf("Expected default unit profile to survive partial modes block, got %d slots", n)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestLoadConfig_InvalidEnvDuration(t *testing.T) {
	t.Setenv("SPECGEN_HTTP_TIMEOUT", "soon")
	path := createTestConfigFile(t, "specgen.yaml", "logging:\n  level: INFO\n")

	if _, _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected error for unparseable timeout")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SPECGEN_TEST_BASE=base\nSPECGEN_TEST_SHARED=base\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("SPECGEN_TEST_SHARED=local\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("SPECGEN_TEST_BASE")
		os.Unsetenv("SPECGEN_TEST_SHARED")
	})

	if err := loadEnvFiles(dir); err != nil {
		t.Fatalf("loadEnvFiles failed: %v", err)
	}

	if got := os.Getenv("SPECGEN_TEST_BASE"); got != "base" {
		t.Errorf("SPECGEN_TEST_BASE = %q", got)
	}
	if got := os.Getenv("SPECGEN_TEST_SHARED"); got != "local" {
		t.Errorf("Expected .env.local to override .env, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad target", func(c *Config) { c.Endpoint.Target = "staging" }, "invalid endpoint target"},
		{"deployed without url", func(c *Config) { c.Endpoint.Target = TargetDeployed }, "no endpoint configured"},
		{"ftp endpoint", func(c *Config) { c.Endpoint.URL = "ftp://example.com/upload" }, "only http and https"},
		{"negative timeout", func(c *Config) { c.HTTP.Timeout = -time.Second }, "invalid http timeout"},
		{"unknown mode", func(c *Config) { c.Modes["e2e"] = ModeConfig{Slots: []domain.Slot{{Field: "f"}}} }, "invalid mode"},
		{"empty slots", func(c *Config) { c.Modes["unit"] = ModeConfig{} }, "at least one slot"},
		{"slot shadows mode field", func(c *Config) {
			c.Modes["unit"] = ModeConfig{Slots: []domain.Slot{{Field: "testType"}}}
		}, "collides"},
		{"s3 without bucket", func(c *Config) { c.Output.Sink = SinkS3 }, "s3 bucket required"},
		{"half credentials", func(c *Config) {
			c.Output.Sink = SinkS3
			c.S3.Bucket = "artifacts"
			c.S3.AccessKeyID = "AKIA"
		}, "set together"},
		{"server message without code", func(c *Config) { c.Messages.ServerError = "error" }, "serverError"},
		{"transport message with two verbs", func(c *Config) { c.Messages.TransportError = "%s: %s" }, "transportError"},
		{"unknown sink", func(c *Config) { c.Output.Sink = "ftp" }, "invalid output sink"},
		{"bad log level", func(c *Config) { c.Logging.Level = "TRACE" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specgen.yaml")
	if err := GenerateDefaultConfig(path); err != nil {
		t.Fatalf("GenerateDefaultConfig failed: %v", err)
	}

	cfg, _, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig on generated file failed: %v", err)
	}
	if cfg.Upload.ModeField != "testType" {
		t.Errorf("round trip lost mode field: %s", cfg.Upload.ModeField)
	}
	if len(cfg.Modes) != 2 {
		t.Errorf("round trip lost modes: %v", cfg.ModeNames())
	}
}

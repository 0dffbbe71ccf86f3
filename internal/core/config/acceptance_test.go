package config

import (
	"os"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	tmpfile.Close()
	return tmpfile.Name()
}

// TestConfigPrecedence covers secret handling and the env > file > defaults order.
func TestConfigPrecedence(t *testing.T) {
	t.Run("config file with broker token rejected with clear error", func(t *testing.T) {
		path := writeConfig(t, `broker:
  url: "https://broker.example"
  token: "should_be_rejected"
`)
		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("expected error for secret in config file")
		}
		want := "broker credentials not allowed in config files (use PACT_BROKER_PASSWORD or PACT_BROKER_TOKEN environment variables)"
		if err.Error() != want {
			t.Fatalf("wrong error message: %v", err)
		}
	})

	t.Run("config file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `mock_server:
  port: 9090
  pact_dir: "/tmp/pacts"
broker:
  tags: ["prod", "main"]
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig error: %v", err)
		}
		if cfg.MockServer.Port != 9090 {
			t.Errorf("expected port 9090, got %d", cfg.MockServer.Port)
		}
		if cfg.MockServer.PactDir != "/tmp/pacts" {
			t.Errorf("expected pact_dir /tmp/pacts, got %s", cfg.MockServer.PactDir)
		}
		if len(cfg.Broker.Tags) != 2 || cfg.Broker.Tags[0] != "prod" {
			t.Errorf("expected tags [prod main], got %v", cfg.Broker.Tags)
		}
	})

	t.Run("environment overrides config file", func(t *testing.T) {
		t.Setenv("PACT_MOCK_SERVER_PORT", "8080")
		path := writeConfig(t, `mock_server:
  port: 9090
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig error: %v", err)
		}
		// Environment variable (8080) should override config file (9090)
		if cfg.MockServer.Port != 8080 {
			t.Fatalf("environment should override config file. Expected 8080, got %d", cfg.MockServer.Port)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})
}

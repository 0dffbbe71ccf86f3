package config

import (
	"fmt"
	"strings"

	"github.com/solatis/pactkeeper/internal/pact"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWith(viper.New(), configPath)
}

// LoadConfigWith loads configuration into v, which may already carry bound CLI flags.
func LoadConfigWith(v *viper.Viper, configPath string) (*Config, error) {
	// Set defaults matching DefaultMockProviderConfig
	def := DefaultMockProviderConfig()
	v.SetDefault("mock_server.host", def.Host)
	v.SetDefault("mock_server.port", def.Port)
	v.SetDefault("mock_server.scheme", def.Scheme)
	v.SetDefault("mock_server.tls_cert", "")
	v.SetDefault("mock_server.tls_key", "")
	v.SetDefault("mock_server.pact_version", def.PactVersion.String())
	v.SetDefault("mock_server.pact_dir", def.PactDir)
	v.SetDefault("mock_server.request_timeout", def.RequestTimeout.String())
	v.SetDefault("mock_server.shutdown_timeout", def.ShutdownTimeout.String())
	v.SetDefault("mock_server.control_port", def.ControlPort)
	v.SetDefault("broker.url", "")
	v.SetDefault("broker.username", "")
	v.SetDefault("broker.tags", []string{})

	// Bind environment variables with PACT_ prefix
	v.SetEnvPrefix("PACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Broker credentials are environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	version, err := pact.ParseSpecVersion(v.GetString("mock_server.pact_version"))
	if err != nil {
		return nil, err
	}

	password, token := BrokerSecrets()
	cfg := &Config{
		MockServer: MockProviderConfig{
			Host:            v.GetString("mock_server.host"),
			Port:            v.GetInt("mock_server.port"),
			Scheme:          strings.ToLower(v.GetString("mock_server.scheme")),
			TLSCertFile:     v.GetString("mock_server.tls_cert"),
			TLSKeyFile:      v.GetString("mock_server.tls_key"),
			PactVersion:     version,
			PactDir:         v.GetString("mock_server.pact_dir"),
			RequestTimeout:  v.GetDuration("mock_server.request_timeout"),
			ShutdownTimeout: v.GetDuration("mock_server.shutdown_timeout"),
			ControlPort:     v.GetInt("mock_server.control_port"),
		},
		Broker: BrokerConfig{
			URL:      v.GetString("broker.url"),
			Username: v.GetString("broker.username"),
			Tags:     v.GetStringSlice("broker.tags"),
			Password: password,
			Token:    token,
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port ranges, scheme, TLS files and positive timeouts.
func validateConfig(cfg *Config) error {
	ms := &cfg.MockServer
	if ms.Port < 0 || ms.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", ms.Port)
	}
	if ms.ControlPort < 0 || ms.ControlPort > 65535 {
		return fmt.Errorf("control_port must be between 0 and 65535, got %d", ms.ControlPort)
	}
	switch ms.Scheme {
	case "http":
	case "https":
		if ms.TLSCertFile == "" || ms.TLSKeyFile == "" {
			return fmt.Errorf("scheme https requires tls_cert and tls_key")
		}
	default:
		return fmt.Errorf("scheme must be http or https, got %q", ms.Scheme)
	}
	if ms.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", ms.RequestTimeout)
	}
	if ms.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %v", ms.ShutdownTimeout)
	}
	if ms.PactDir == "" {
		return fmt.Errorf("pact_dir must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("broker.password") || v.InConfig("broker.token") {
		return fmt.Errorf("broker credentials not allowed in config files (use PACT_BROKER_PASSWORD or PACT_BROKER_TOKEN environment variables)")
	}
	return nil
}

// Package config provides configuration management for the pactkeeper mock provider.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/solatis/pactkeeper/internal/pact"
)

// MockProviderConfig holds configuration for the HTTP mock provider.
type MockProviderConfig struct {
	Host            string
	Port            int // 0 picks a free port
	Scheme          string
	TLSCertFile     string
	TLSKeyFile      string
	PactVersion     pact.SpecVersion
	PactDir         string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	ControlPort     int // gRPC health endpoint; 0 disables it
}

// BrokerConfig holds pact broker settings. Password and Token come from the
// environment only.
type BrokerConfig struct {
	URL      string
	Username string
	Tags     []string
	Password string
	Token    string
}

// Config is the complete pactkeeper configuration.
type Config struct {
	MockServer MockProviderConfig
	Broker     BrokerConfig
}

// DefaultMockProviderConfig returns configuration with default values.
func DefaultMockProviderConfig() *MockProviderConfig {
	return &MockProviderConfig{
		Host:            "127.0.0.1",
		Port:            0,
		Scheme:          "http",
		PactVersion:     pact.V3,
		PactDir:         "./target/pacts",
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		ControlPort:     0,
	}
}

// Address returns host:port for listening.
func (c *MockProviderConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns the base URL for a server listening on addr.
func (c *MockProviderConfig) URL(addr net.Addr) string {
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return fmt.Sprintf("%s://%s", c.Scheme, addr)
	}
	return fmt.Sprintf("%s://%s", c.Scheme, net.JoinHostPort(c.Host, port))
}

// BrokerSecrets reads broker credentials from PACT_BROKER_PASSWORD and PACT_BROKER_TOKEN.
func BrokerSecrets() (password, token string) {
	return strings.TrimSpace(os.Getenv("PACT_BROKER_PASSWORD")), strings.TrimSpace(os.Getenv("PACT_BROKER_TOKEN"))
}

// Source returns the broker pact source for provider.
func (b BrokerConfig) Source(provider string) pact.BrokerSource {
	return pact.BrokerSource{
		URL:      b.URL,
		Provider: provider,
		Tags:     b.Tags,
		Username: b.Username,
		Password: b.Password,
		Token:    b.Token,
	}
}

// Package config centralises runtime configuration for the brokerlink client.
package config

import (
	"os"
	"strings"
	"time"
)

// Network identifies the broker network a client session targets.
type Network string

const (
	// NetworkMainnet targets the production broker deployment.
	NetworkMainnet Network = "mainnet"
	// NetworkTestnet targets the test broker deployment.
	NetworkTestnet Network = "testnet"
)

// NetworkFromFlag maps the persisted boolean network toggle onto a Network.
func NetworkFromFlag(testnet bool) Network {
	if testnet {
		return NetworkTestnet
	}
	return NetworkMainnet
}

// Endpoints groups the transport endpoints of a single network.
type Endpoints struct {
	RESTBaseURL  string
	WebsocketURL string
}

// Settings contains the client configuration tree loaded from defaults and overrides.
type Settings struct {
	Network     Network
	Networks    map[Network]Endpoints
	HTTPTimeout time.Duration
	Telemetry   TelemetryConfig
}

// TelemetryConfig configures the OTLP metric exporter.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	ServiceName  string `yaml:"serviceName"`
}

// Default returns the default client configuration.
func Default() Settings {
	return Settings{
		Network: NetworkMainnet,
		Networks: map[Network]Endpoints{
			NetworkMainnet: {
				RESTBaseURL:  "https://api.brokerlink.exchange/v1",
				WebsocketURL: "wss://ws.brokerlink.exchange/v1/account",
			},
			NetworkTestnet: {
				RESTBaseURL:  "https://api.testnet.brokerlink.exchange/v1",
				WebsocketURL: "wss://ws.testnet.brokerlink.exchange/v1/account",
			},
		},
		HTTPTimeout: 10 * time.Second,
		Telemetry:   TelemetryConfig{OTLPEndpoint: "", ServiceName: ""},
	}
}

// FromEnv loads configuration values from environment variables, overriding defaults.
func FromEnv() Settings {
	cfg := Default()
	if v := strings.TrimSpace(os.Getenv("BROKERLINK_NETWORK")); v != "" {
		cfg.Network = Network(strings.ToLower(v))
	}

	applyEndpointEnv(&cfg, NetworkMainnet, "BROKERLINK_MAINNET_REST_URL", "BROKERLINK_MAINNET_WS_URL")
	applyEndpointEnv(&cfg, NetworkTestnet, "BROKERLINK_TESTNET_REST_URL", "BROKERLINK_TESTNET_WS_URL")

	if v := strings.TrimSpace(os.Getenv("BROKERLINK_HTTP_TIMEOUT")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.HTTPTimeout = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("BROKERLINK_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	return cfg
}

func applyEndpointEnv(cfg *Settings, network Network, restKey, wsKey string) {
	endpoints := cfg.Networks[network]
	if v := strings.TrimSpace(os.Getenv(restKey)); v != "" {
		endpoints.RESTBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(wsKey)); v != "" {
		endpoints.WebsocketURL = v
	}
	cfg.Networks[network] = endpoints
}

// RESTBaseURL resolves the REST base endpoint of the selected network.
// The second return value reports whether an endpoint is configured; callers
// treat an absent endpoint the same as a connectivity failure.
func (s Settings) RESTBaseURL() (string, bool) {
	endpoints, ok := s.Networks[s.Network]
	if !ok {
		return "", false
	}
	base := strings.TrimRight(strings.TrimSpace(endpoints.RESTBaseURL), "/")
	if base == "" {
		return "", false
	}
	return base, true
}

// WebsocketURL resolves the account event stream endpoint of the selected network.
func (s Settings) WebsocketURL() (string, bool) {
	endpoints, ok := s.Networks[s.Network]
	if !ok {
		return "", false
	}
	u := strings.TrimSpace(endpoints.WebsocketURL)
	if u == "" {
		return "", false
	}
	return u, true
}

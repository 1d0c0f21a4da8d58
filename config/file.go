package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML document layout accepted by LoadFile.
type fileConfig struct {
	Network   string                  `yaml:"network"`
	Networks  map[string]fileEndpoint `yaml:"networks"`
	HTTP      fileHTTP                `yaml:"http"`
	Telemetry TelemetryConfig         `yaml:"telemetry"`
}

type fileEndpoint struct {
	RESTBaseURL  string `yaml:"restBaseUrl"`
	WebsocketURL string `yaml:"websocketUrl"`
}

type fileHTTP struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LoadFile loads a configuration YAML document from disk, layering it over
// the defaults. Unset fields keep their default values.
func LoadFile(path string) (Settings, error) {
	cfg := Default()

	safePath := filepath.Clean(strings.TrimSpace(path))
	data, err := os.ReadFile(safePath) // #nosec G304 -- configuration paths are controlled by operators.
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}

	var doc fileConfig
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if v := strings.ToLower(strings.TrimSpace(doc.Network)); v != "" {
		cfg.Network = Network(v)
	}
	for name, endpoint := range doc.Networks {
		network := Network(strings.ToLower(strings.TrimSpace(name)))
		current := cfg.Networks[network]
		if v := strings.TrimSpace(endpoint.RESTBaseURL); v != "" {
			current.RESTBaseURL = v
		}
		if v := strings.TrimSpace(endpoint.WebsocketURL); v != "" {
			current.WebsocketURL = v
		}
		cfg.Networks[network] = current
	}
	if doc.HTTP.Timeout > 0 {
		cfg.HTTPTimeout = doc.HTTP.Timeout
	}
	if v := strings.TrimSpace(doc.Telemetry.OTLPEndpoint); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := strings.TrimSpace(doc.Telemetry.ServiceName); v != "" {
		cfg.Telemetry.ServiceName = v
	}

	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// Validate performs semantic validation on the configuration.
func (s Settings) Validate() error {
	switch s.Network {
	case NetworkMainnet, NetworkTestnet:
	default:
		return fmt.Errorf("unknown network %q", s.Network)
	}
	if s.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be >0")
	}
	return nil
}

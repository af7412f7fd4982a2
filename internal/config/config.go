package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/wirelink/internal/endpoint"
)

// ClientProfile is the wirelinkctl connection profile file.
type ClientProfile struct {
	Addr           string `toml:"addr"`
	Debug          bool   `toml:"debug"`
	ConnectTimeout string `toml:"connect_timeout"`
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
}

func DefaultClientProfile() ClientProfile {
	return ClientProfile{
		Addr: "127.0.0.1:9300",
	}
}

func LoadClientProfile(path string) (ClientProfile, error) {
	cfg := DefaultClientProfile()
	if err := loadToml(path, &cfg); err != nil {
		return ClientProfile{}, err
	}
	if err := ValidateClientProfile(cfg); err != nil {
		return ClientProfile{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateClientProfile(cfg ClientProfile) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("client profile missing addr")
	}
	for _, raw := range []string{cfg.ConnectTimeout, cfg.ReadTimeout, cfg.WriteTimeout} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("client profile invalid duration %q: %w", raw, err)
		}
	}
	return nil
}

// EndpointConfig converts the profile into transport configuration.
// Absent durations stay zero and keep block-forever semantics.
func (cfg ClientProfile) EndpointConfig() (endpoint.Config, error) {
	out := endpoint.DefaultConfig()
	out.Debug = cfg.Debug

	var err error
	if out.ConnectTimeout, err = parseOptionalDuration(cfg.ConnectTimeout); err != nil {
		return endpoint.Config{}, err
	}
	if out.ReadTimeout, err = parseOptionalDuration(cfg.ReadTimeout); err != nil {
		return endpoint.Config{}, err
	}
	if out.WriteTimeout, err = parseOptionalDuration(cfg.WriteTimeout); err != nil {
		return endpoint.Config{}, err
	}
	return out, nil
}

func parseOptionalDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	return d, nil
}

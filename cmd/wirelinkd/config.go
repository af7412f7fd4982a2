package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/wirelink/internal/endpoint"
)

type fileConfig struct {
	ListenPort     int    `toml:"listen_port"`
	Debug          bool   `toml:"debug"`
	AdminAddr      string `toml:"admin_addr"`
	AcceptTimeout  string `toml:"accept_timeout"`
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	MaxVectorBytes uint64 `toml:"max_vector_bytes"`
}

type daemonConfig struct {
	Endpoint  endpoint.Config
	AdminAddr string
}

func defaultDaemonConfig() daemonConfig {
	return daemonConfig{
		Endpoint:  endpoint.DefaultConfig(),
		AdminAddr: "127.0.0.1:9301",
	}
}

func loadDaemonConfig(path string) (daemonConfig, error) {
	cfg := defaultDaemonConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return daemonConfig{}, fmt.Errorf("load daemon config: %w", err)
	}

	if meta.IsDefined("listen_port") {
		if raw.ListenPort < 0 || raw.ListenPort > 65535 {
			return daemonConfig{}, fmt.Errorf("invalid listen_port: %d", raw.ListenPort)
		}
		cfg.Endpoint.Port = raw.ListenPort
	}

	if meta.IsDefined("debug") {
		cfg.Endpoint.Debug = raw.Debug
	}

	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}

	if meta.IsDefined("accept_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.AcceptTimeout))
		if err != nil {
			return daemonConfig{}, fmt.Errorf("parse accept_timeout: %w", err)
		}
		cfg.Endpoint.AcceptTimeout = d
	}

	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return daemonConfig{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.Endpoint.ReadTimeout = d
	}

	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return daemonConfig{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.Endpoint.WriteTimeout = d
	}

	if meta.IsDefined("max_vector_bytes") {
		if raw.MaxVectorBytes == 0 {
			return daemonConfig{}, fmt.Errorf("max_vector_bytes must be positive")
		}
		cfg.Endpoint.Limits.MaxSequenceBytes = raw.MaxVectorBytes
	}

	return cfg, nil
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"go_tftp/constants"
)

// serverConfig holds the resolved daemon settings. Values start from the
// built-in defaults, then the config file, then command line overrides.
type serverConfig struct {
	Listen    string
	Port      int
	Root      string
	ReadOnly  bool
	WriteOnly bool
	Timeout   time.Duration
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		Listen:  "0.0.0.0",
		Port:    constants.DEFAULT_PORT,
		Timeout: constants.RECEIVE_TIMEOUT,
	}
}

// rawConfig is the file schema. Timeout is a duration string such as "10s".
type rawConfig struct {
	Listen    string `toml:"listen"`
	Port      int    `toml:"port"`
	Root      string `toml:"root"`
	ReadOnly  bool   `toml:"read_only"`
	WriteOnly bool   `toml:"write_only"`
	Timeout   string `toml:"timeout"`
}

func loadServerConfig(path string) (serverConfig, error) {
	cfg := defaultServerConfig()

	var raw rawConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serverConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("root") {
		cfg.Root = strings.TrimSpace(raw.Root)
	}
	if meta.IsDefined("read_only") {
		cfg.ReadOnly = raw.ReadOnly
	}
	if meta.IsDefined("write_only") {
		cfg.WriteOnly = raw.WriteOnly
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return serverConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

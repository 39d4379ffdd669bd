package main

import (
	"os"

	"github.com/BurntSushi/toml"
)

// demoConfig mirrors httpclient's fetch options table, loaded from an
// optional loomctl.toml.
type demoConfig struct {
	Fetch fetchConfig `toml:"fetch"`
}

type fetchConfig struct {
	Method         string            `toml:"method"`
	Headers        map[string]string `toml:"headers"`
	Body           string            `toml:"body"`
	Verify         bool              `toml:"verify"`
	ConnectTimeout float64           `toml:"connect_timeout"`
	MaxBytes       int               `toml:"max_bytes"`
}

func defaultDemoConfig() demoConfig {
	return demoConfig{
		Fetch: fetchConfig{
			Method:         "GET",
			Verify:         true,
			ConnectTimeout: 30,
			MaxBytes:       8_000_000,
		},
	}
}

// loadDemoConfig reads path if non-empty, overlaying it on the
// defaults; a missing path is not an error, since every subcommand
// runs fine from its own flags and defaults alone.
func loadDemoConfig(path string) (demoConfig, error) {
	cfg := defaultDemoConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

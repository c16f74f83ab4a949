// Package config exposes strongly typed tool configuration loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file consulted when no --accounts flag is given.
const DefaultPath = "accounts.yaml"

// ErrNoAccounts is returned when the accounts list is missing or empty.
var ErrNoAccounts = errors.New("no accounts configured")

// Config captures the contents of accounts.yaml. The first account in
// Accounts is the authority whose active key signs every operation;
// the remaining accounts are acted on under delegated authority.
type Config struct {
	Accounts    []string `yaml:"accounts"`
	ActiveKey   string   `yaml:"active_key"`
	Whitelist   []string `yaml:"whitelist"`
	Node        string   `yaml:"node"`
	EngineNode  string   `yaml:"engine_node"`
	MetricsAddr string   `yaml:"metrics_addr"`
}

// Load reads a YAML file from disk and hydrates a Config struct. An empty
// accounts list is a configuration error: nothing downstream can run
// without at least the authority account.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(config.Accounts) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoAccounts)
	}
	return &config, nil
}

// Authority returns the account whose active key signs all operations.
func (c *Config) Authority() string { return c.Accounts[0] }

// WhitelistSet returns the whitelist as a set for sweep-mode lookups.
func (c *Config) WhitelistSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Whitelist))
	for _, symbol := range c.Whitelist {
		set[symbol] = struct{}{}
	}
	return set
}

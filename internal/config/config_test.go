package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "accounts.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(cfg.Accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(cfg.Accounts))
	}
	if cfg.Authority() != "mainauthority" {
		t.Fatalf("unexpected authority: %s", cfg.Authority())
	}
	if cfg.ActiveKey != "5JTestKeyFromYamlDoNotUse" {
		t.Fatalf("unexpected active key: %s", cfg.ActiveKey)
	}
	set := cfg.WhitelistSet()
	if _, ok := set["BEE"]; !ok {
		t.Fatalf("expected BEE in whitelist set, got %+v", set)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 whitelist entries, got %d", len(set))
	}
	if cfg.Node != "https://api.hive.blog" {
		t.Fatalf("unexpected node: %s", cfg.Node)
	}
	if cfg.EngineNode != "https://api.hive-engine.com/rpc" {
		t.Fatalf("unexpected engine node: %s", cfg.EngineNode)
	}
	if cfg.MetricsAddr != ":9184" {
		t.Fatalf("unexpected metrics addr: %s", cfg.MetricsAddr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadEmptyAccounts(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "empty.yaml"))
	if !errors.Is(err, ErrNoAccounts) {
		t.Fatalf("expected ErrNoAccounts, got %v", err)
	}
}

func TestLoadUnparsableYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("accounts: [unclosed"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unparsable yaml")
	}
}

func TestResolveActiveKeyPrecedence(t *testing.T) {
	log := zerolog.Nop()
	t.Setenv(EnvActiveKey, "from-env")

	key, err := ResolveActiveKey("from-flag", "from-yaml", log)
	if err != nil {
		t.Fatalf("resolve with flag: %v", err)
	}
	if key != "from-flag" {
		t.Fatalf("flag should win, got %s", key)
	}

	key, err = ResolveActiveKey("", "from-yaml", log)
	if err != nil {
		t.Fatalf("resolve with env: %v", err)
	}
	if key != "from-env" {
		t.Fatalf("env should beat yaml, got %s", key)
	}

	t.Setenv(EnvActiveKey, "")
	key, err = ResolveActiveKey("", "from-yaml", log)
	if err != nil {
		t.Fatalf("resolve with yaml: %v", err)
	}
	if key != "from-yaml" {
		t.Fatalf("yaml should be last resort, got %s", key)
	}
}

func TestResolveActiveKeyMissing(t *testing.T) {
	t.Setenv(EnvActiveKey, "")
	_, err := ResolveActiveKey("", "", zerolog.Nop())
	if !errors.Is(err, ErrNoActiveKey) {
		t.Fatalf("expected ErrNoActiveKey, got %v", err)
	}
}

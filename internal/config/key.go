package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// EnvActiveKey is the environment variable consulted for the signing key.
const EnvActiveKey = "ACTIVE_WIF"

// ErrNoActiveKey is returned when no signing key could be resolved.
var ErrNoActiveKey = errors.New("active key must be provided via --active-key, the ACTIVE_WIF environment variable, or the config file")

// ResolveActiveKey picks the signing key with strict precedence:
// explicit CLI flag, then the ACTIVE_WIF environment variable, then the
// YAML config field. Only the source the key came from is logged, never
// the key itself.
func ResolveActiveKey(cliKey, yamlKey string, log zerolog.Logger) (string, error) {
	_ = godotenv.Load() // best-effort

	if cliKey != "" {
		log.Debug().Str("source", "flag").Msg("active key resolved")
		return cliKey, nil
	}
	if envKey := os.Getenv(EnvActiveKey); envKey != "" {
		log.Debug().Str("source", "env").Msg("active key resolved")
		return envKey, nil
	}
	if yamlKey != "" {
		log.Debug().Str("source", "config").Msg("active key resolved")
		return yamlKey, nil
	}
	return "", ErrNoActiveKey
}

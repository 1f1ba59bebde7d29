package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyEnv overlays SIFTIN_* variables onto cfg. getenv is os.Getenv outside tests.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("SIFTIN_HOST")); v != "" {
		cfg.App.Host = v
	}
	if v := strings.TrimSpace(getenv("SIFTIN_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIFTIN_PORT: %w", err)
		}
		cfg.App.Port = port
	}
	if v := strings.TrimSpace(getenv("SIFTIN_DATA_DIR")); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(getenv("SIFTIN_STORE_BACKEND")); v != "" {
		cfg.Store.Backend = v
	}
	return nil
}

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"siftin-engine/internal/config"
	"siftin-engine/internal/domain"
	"siftin-engine/internal/rank"
	"siftin-engine/internal/store"
)

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// userConfigPath bootstraps <dir>/config.yml from config/config.yml, or
// from the bundled default when that file is absent.
func userConfigPath(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return config.EnsureUserConfig(dir, filepath.Join("config", "config.yml"))
}

// loadConfig reads path, overlays SIFTIN_* variables and validates.
func loadConfig(path string, getenv func(string) string) (config.Config, config.Validation, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, config.Validation{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := config.ApplyEnv(&cfg, getenv); err != nil {
		return config.Config{}, config.Validation{}, err
	}
	cfg, res := config.NormalizeAndValidate(cfg)
	return cfg, res, nil
}

func latencyFrom(l config.LatencyMS) store.Latency {
	return store.Latency{
		GetAll:       config.MS(l.GetAll),
		GetByID:      config.MS(l.GetByID),
		Create:       config.MS(l.Create),
		Update:       config.MS(l.Update),
		Delete:       config.MS(l.Delete),
		BulkUpdate:   config.MS(l.BulkUpdate),
		Duplicate:    config.MS(l.Duplicate),
		Retry:        config.MS(l.Retry),
		Search:       config.MS(l.Search),
		ExportCreate: config.MS(l.ExportCreate),
		Preview:      config.MS(l.Preview),
	}
}

// liveScorer rebuilds the scorer from the current config on every call, so
// scoring rule edits apply without a restart.
type liveScorer struct {
	live *config.Live
}

func (s liveScorer) Score(l domain.Lead, criteria string) rank.Result {
	return rank.NewCriteriaScorer(s.live.Get()).Score(l, criteria)
}

func logWarnings(log *zap.Logger, res config.Validation) {
	for _, w := range res.Warnings {
		log.Warn("config warning", zap.String("warning", w))
	}
}

package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveAtomic validates cfg, then writes it via a temp file, keeping the
// previous file as path.bak.
func SaveAtomic(path string, cfg Config) (Config, Validation, error) {
	cfg, res := NormalizeAndValidate(cfg)
	if err := res.Err(); err != nil {
		return cfg, res, err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return cfg, res, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cfg, res, err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return cfg, res, err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return cfg, res, os.Rename(tmp, path)
}

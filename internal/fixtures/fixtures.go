// Package fixtures holds the bundled seed data the engine starts from.
// Every restart begins again from these records.
package fixtures

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"siftin-engine/internal/domain"
)

//go:embed data/*.yml
var files embed.FS

type Set struct {
	Leads   []domain.Lead
	Runs    []domain.Run
	Exports []domain.Export
}

// Load decodes the embedded seed files. Each call returns fresh copies.
func Load() (Set, error) {
	var s Set
	if err := decode("data/leads.yml", &s.Leads); err != nil {
		return Set{}, err
	}
	if err := decode("data/runs.yml", &s.Runs); err != nil {
		return Set{}, err
	}
	if err := decode("data/exports.yml", &s.Exports); err != nil {
		return Set{}, err
	}
	for i := range s.Leads {
		s.Leads[i] = s.Leads[i].Clone()
	}
	return s, nil
}

func MustLoad() Set {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

func decode(name string, out any) error {
	b, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("fixtures: read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("fixtures: decode %s: %w", name, err)
	}
	return nil
}

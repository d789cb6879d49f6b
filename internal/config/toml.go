// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/gradepoint/internal/grading"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Store   StoreConfig   `toml:"store"`
	Grading GradingConfig `toml:"grading"`
	Report  ReportConfig  `toml:"report"`
}

// StoreConfig maps result-source settings.
type StoreConfig struct {
	DB    *string `toml:"db"`
	PGURL *string `toml:"pg-url"`
}

// GradingConfig selects a scale and optionally overrides parts of it.
type GradingConfig struct {
	Scale    *string            `toml:"scale"`
	Points   map[string]float64 `toml:"points"`
	Bands    []BandConfig       `toml:"bands"`
	MaxPoint *float64           `toml:"max-point"`
}

// BandConfig is one classification band, highest first.
type BandConfig struct {
	Min   float64 `toml:"min"`
	Label string  `toml:"label"`
}

// ReportConfig maps report defaults.
type ReportConfig struct {
	Student *string `toml:"student"`
	Last    *int    `toml:"last"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// BuildScale resolves the named scale (overridden by name when non-empty)
// and applies file overrides. The result is validated.
func (g GradingConfig) BuildScale(name string) (grading.Scale, error) {
	if name == "" && g.Scale != nil {
		name = *g.Scale
	}
	scale, err := grading.ScaleByName(name)
	if err != nil {
		return grading.Scale{}, err
	}
	seen := make(map[string]string, len(g.Points))
	for grade, point := range g.Points {
		key := strings.ToUpper(strings.TrimSpace(grade))
		if prev, ok := seen[key]; ok {
			return grading.Scale{}, fmt.Errorf("%w: grades %q and %q name the same grade", grading.ErrInvalidScale, prev, grade)
		}
		seen[key] = grade
		scale.Points[key] = point
	}
	if len(g.Bands) > 0 {
		scale.Bands = make([]grading.Band, len(g.Bands))
		for i, b := range g.Bands {
			scale.Bands[i] = grading.Band{Min: b.Min, Label: grading.Classification(b.Label)}
		}
	}
	if g.MaxPoint != nil {
		scale.MaxPoint = *g.MaxPoint
	}
	if err := scale.Validate(); err != nil {
		return grading.Scale{}, err
	}
	return scale, nil
}

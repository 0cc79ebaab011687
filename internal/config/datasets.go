package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/skater-value/internal/domain/dataset"
	"github.com/riskibarqy/skater-value/internal/platform/cache"
	"gopkg.in/yaml.v3"
)

// DatasetsFile overrides per-dataset source URLs and staleness, e.g.
//
//	datasets:
//	  all_strengths:
//	    url: https://www.naturalstattrick.com/playerteams.php?...
//	    staleness: 30m
//	  fantrax_roster:
//	    staleness: midnight
type DatasetsFile struct {
	Datasets map[string]DatasetOverride `yaml:"datasets" validate:"dive,keys,oneof=all_strengths even_strength fantrax_roster,endkeys"`
}

type DatasetOverride struct {
	URL       string `yaml:"url" validate:"omitempty,url"`
	Staleness string `yaml:"staleness"`
}

func LoadDatasetsFile(path string) (DatasetsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DatasetsFile{}, fmt.Errorf("read DATASETS_FILE: %w", err)
	}
	return ParseDatasetsFile(raw)
}

func ParseDatasetsFile(raw []byte) (DatasetsFile, error) {
	var out DatasetsFile
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return DatasetsFile{}, fmt.Errorf("parse DATASETS_FILE: %w", err)
	}
	if err := validator.New().Struct(out); err != nil {
		return DatasetsFile{}, fmt.Errorf("validate DATASETS_FILE: %w", err)
	}
	return out, nil
}

// Apply layers the overrides on top of the environment defaults in cfg.
func (f DatasetsFile) Apply(cfg *Config) error {
	if cfg.Policies == nil {
		cfg.Policies = make(map[string]cache.Policy)
	}
	if cfg.SourceURLs == nil {
		cfg.SourceURLs = make(map[string]string)
	}

	for name, override := range f.Datasets {
		if url := strings.TrimSpace(override.URL); url != "" {
			cfg.SourceURLs[name] = url
		}
		if strings.TrimSpace(override.Staleness) == "" {
			continue
		}
		loc := cfg.RosterLocation
		if name != dataset.NameRoster && cfg.StatsStaleness.Location != nil {
			loc = cfg.StatsStaleness.Location
		}
		policy, err := cache.ParsePolicy(override.Staleness, loc)
		if err != nil {
			return fmt.Errorf("dataset %s: %w", name, err)
		}
		cfg.Policies[name] = policy
	}
	return nil
}

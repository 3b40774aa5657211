// Package config loads and validates the server's YAML configuration: the
// index table name, the indexable fields per entity level, and the STOW
// overwrite policy. Configuration is loaded once at process start and
// treated as immutable thereafter.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Indexing names the columns maintained for each DICOMweb entity level.
type Indexing struct {
	Fields struct {
		Studies   []string `yaml:"studies" validate:"required,min=1"`
		Series    []string `yaml:"series" validate:"required,min=1"`
		Instances []string `yaml:"instances" validate:"required,min=1"`
	} `yaml:"fields" validate:"required"`
}

// Config is the top-level YAML document shape.
type Config struct {
	TableName      string   `yaml:"table_name" validate:"required"`
	Indexing       Indexing `yaml:"indexing" validate:"required"`
	StoreOverwrite bool     `yaml:"store_overwrite"`
}

var validate = validator.New()

// Load reads and validates the YAML configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

// AllColumns returns the deduplicated union of every configured field
// across all three entity levels, plus "filepath" last. This is the single
// index table's schema: studies, series and instances share one table,
// distinguished at query time by which column result rows are grouped on.
func (c *Config) AllColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, group := range [][]string{
		c.Indexing.Fields.Studies,
		c.Indexing.Fields.Series,
		c.Indexing.Fields.Instances,
	} {
		for _, f := range group {
			if !seen[f] {
				seen[f] = true
				cols = append(cols, f)
			}
		}
	}
	return append(cols, "filepath")
}

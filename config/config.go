// Package config loads the Pavilion config file (spec §6, "External
// interfaces"): the YAML document that names the shared-storage working
// directory, the directories searched for test source, the default
// scheduler plugin, and optional per-plugin and catalog/export settings.
// Parsing with gopkg.in/yaml.v2 and a Validate step mirror the teacher's
// config.Defaults/config.Defaults.Validate pattern (config/defaults.go),
// generalized from a fixed Kubernetes-pod-defaults struct into Pavilion's
// own top-level settings.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// PluginConfig is an opaque per-plugin settings block (scheduler or result
// sink), passed through to the plugin's constructor unparsed: only the
// plugin itself knows its own keys.
type PluginConfig map[string]string

// Catalog holds the optional Series Catalog settings (spec §4.8).
type Catalog struct {
	// PostgresDSN, if set, enables the Postgres mirror described in spec
	// §4.8. Empty disables it; the shared-storage journal remains the
	// source of truth either way.
	PostgresDSN string `yaml:"postgres_dsn"`

	// Table names the table the mirror writes rows to.
	Table string `yaml:"table"`
}

// Results holds the optional result-export defaults (spec §4.6, "Result
// export"), mirroring the teacher's LoadTestSpec.Results.BigQueryTable.
type Results struct {
	// BigQueryTable, if set, is "project.dataset.table" for the default
	// BigQuery sink a run's result is shipped to when its own resolved
	// config does not name one.
	BigQueryTable string `yaml:"bigquery_table"`
}

// Config is the top-level shape of the Pavilion config file.
type Config struct {
	// WorkDir is the root of the shared-storage working directory: builds/,
	// test_runs/, series/ all live under it (spec §6).
	WorkDir string `yaml:"work_dir"`

	// TestSrcDirs is searched, in order, for a suite-referenced test's
	// source when a build section names a relative path.
	TestSrcDirs []string `yaml:"test_src_dirs"`

	// DefaultScheduler names the scheduler plugin used when a suite test
	// does not declare its own.
	DefaultScheduler string `yaml:"default_scheduler"`

	// Schedulers maps a scheduler plugin name to its config block.
	Schedulers map[string]PluginConfig `yaml:"schedulers"`

	// Catalog configures the optional Series Catalog mirror (spec §4.8).
	Catalog Catalog `yaml:"catalog"`

	// Results configures the optional default result-export sink.
	Results Results `yaml:"results"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures the required fields are present. It mirrors the
// teacher's config.Defaults.Validate shape: one error per missing
// required field, returned as soon as the first is found.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return errors.New("config: work_dir is required")
	}
	if c.DefaultScheduler == "" {
		c.DefaultScheduler = "local"
	}
	return nil
}

package main

import (
	"io"
	"os"

	"github.com/2x3systems/gomesh/gomesh"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RunConfig holds the settings of one run.  It can be read from a YAML file; flags given on the command line
// take precedence over the file.
type RunConfig struct {
	Workers    int    `yaml:"workers"`
	Format     string `yaml:"format"`
	Catalog    string `yaml:"catalog"`
	MetricsOut string `yaml:"metrics_out"`
	Verify     bool   `yaml:"verify"`
	Print      bool   `yaml:"print"`
	ExitCount  bool   `yaml:"exit_count"`
}

// LoadRunConfig reads a YAML run file.  Unknown keys are an error.
func LoadRunConfig(pathname string) (RunConfig, error) {
	var cfg RunConfig

	file, err := os.Open(pathname)
	if err != nil {
		return cfg, errors.Wrap(err, "open run config")
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrapf(err, "parse run config %s", pathname)
	}
	return cfg, nil
}

func (cfg *RunConfig) applyDefaults() {
	if cfg.Format == "" {
		cfg.Format = "auto"
	}
}

// validate checks the settings and returns the selected graph format.
func (cfg *RunConfig) validate() (gomesh.GraphFormat, error) {
	if cfg.Workers < 0 {
		return gomesh.FormatAuto, errors.Wrapf(gomesh.ErrBadWorkerCount, "-workers %d", cfg.Workers)
	}
	return gomesh.ParseGraphFormat(cfg.Format)
}

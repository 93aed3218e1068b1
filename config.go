package tgc

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v2"
)

// DefaultStepBudget is the work-unit budget used by Step when none is
// configured. Collect always takes its budget from the caller.
const DefaultStepBudget = 256

// Config tunes a collector. The zero value of any field selects its
// default.
type Config struct {
	// StepBudget is the per-Step work-unit budget.
	StepBudget int `yaml:"step_budget"`

	// PtrCapacity and GrayCapacity pre-size the handle vector and the
	// gray worklist.
	PtrCapacity  int `yaml:"ptr_capacity"`
	GrayCapacity int `yaml:"gray_capacity"`

	// Debug traces phase transitions and sweeps to the trace writer.
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		StepBudget:   DefaultStepBudget,
		PtrCapacity:  5 * 1024,
		GrayCapacity: 2 * 1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StepBudget <= 0 {
		c.StepBudget = d.StepBudget
	}
	if c.PtrCapacity <= 0 {
		c.PtrCapacity = d.PtrCapacity
	}
	if c.GrayCapacity <= 0 {
		c.GrayCapacity = d.GrayCapacity
	}
	return c
}

// LoadConfig reads a YAML collector configuration from r. Missing fields
// keep their defaults.
func LoadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("tgc: read config: %w", err)
	}
	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("tgc: parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}

// Package config provides configuration loading and management for cabgcompare.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Unit is the length unit of the input geometry.
type Unit string

const (
	Millimetre Unit = "mm"
	Centimetre Unit = "cm"
)

// ParseUnit validates a unit string.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case Millimetre, Centimetre:
		return Unit(s), nil
	}
	return "", fmt.Errorf("unknown unit %q (want mm or cm)", s)
}

// PhysicalConstants are the factors used to turn MBF densities into flow.
type PhysicalConstants struct {
	// Unit is the length unit of the mesh coordinates
	Unit Unit `yaml:"unit"`

	// TissueDensity is the myocardial density in g/mL
	TissueDensity float64 `yaml:"tissueDensity"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	Physical PhysicalConstants `yaml:"physical"`

	// Input artifact names, relative to each timepoint folder
	Inputs struct {
		MBF            string `yaml:"mbf"`
		Labels         string `yaml:"labels"`
		MorphologyDir  string `yaml:"morphologyDir"`
		CavityCapped   string `yaml:"cavityCapped"`
		Endocardium    string `yaml:"endocardium"`
		Epicardium     string `yaml:"epicardium"`
		TerritoryField string `yaml:"territoryField"`
		MBFField       string `yaml:"mbfField"`
	} `yaml:"inputs"`

	// Territories are the group names, matched against label names in order
	Territories []string `yaml:"territories"`

	Processing struct {
		// Parallel runs the pre and post pipelines concurrently
		Parallel bool `yaml:"parallel"`

		// Morphology enables cavity volume, surface area and wall thickness
		Morphology bool `yaml:"morphology"`

		// CleanSurfaces triangulates and welds surfaces before distance computation
		CleanSurfaces bool `yaml:"cleanSurfaces"`

		// WeldEpsilon is the distance under which surface vertices are merged
		WeldEpsilon float64 `yaml:"weldEpsilon"`

		// LabelTolerance widens label ranges to absorb float storage of integer ids
		LabelTolerance float64 `yaml:"labelTolerance"`
	} `yaml:"processing"`

	Output struct {
		// Report is the statistics CSV path; relative paths resolve against the pre folder
		Report string `yaml:"report"`

		// Plot is an optional PNG box plot path
		Plot string `yaml:"plot"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultTerritories are the coronary branches reported when none are configured.
var DefaultTerritories = []string{"LAD", "LCx", "Intermedius", "Diag1", "Diag2", "PDA", "PL"}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Physical.Unit = Millimetre
	cfg.Physical.TissueDensity = 1.05

	cfg.Inputs.MBF = "MBF_Territories.vtu"
	cfg.Inputs.Labels = "MBF_Territories_Labels.dat"
	cfg.Inputs.MorphologyDir = "Morphology"
	cfg.Inputs.CavityCapped = "CavityCapped.vtp"
	cfg.Inputs.Endocardium = "Endocardium.vtp"
	cfg.Inputs.Epicardium = "Epicardium.vtp"
	cfg.Inputs.TerritoryField = "TerritoryMaps"
	cfg.Inputs.MBFField = "ImageScalars"

	cfg.Territories = append([]string(nil), DefaultTerritories...)

	cfg.Processing.Parallel = true
	cfg.Processing.Morphology = true
	cfg.Processing.CleanSurfaces = true
	cfg.Processing.WeldEpsilon = 1e-8
	cfg.Processing.LabelTolerance = 1e-6

	cfg.Output.Report = "PrePostComparison.csv"
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks the values that would otherwise fail deep in the pipeline.
func (c *Config) Validate() error {
	if _, err := ParseUnit(string(c.Physical.Unit)); err != nil {
		return err
	}
	if c.Physical.TissueDensity <= 0 {
		return fmt.Errorf("tissue density must be positive, got %v", c.Physical.TissueDensity)
	}
	if len(c.Territories) == 0 {
		return fmt.Errorf("at least one territory group is required")
	}
	if c.Processing.LabelTolerance < 0 || c.Processing.LabelTolerance >= 0.5 {
		return fmt.Errorf("label tolerance must be in [0, 0.5), got %v", c.Processing.LabelTolerance)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

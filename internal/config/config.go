// Package config loads and saves simulation definitions as YAML.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.01
	DefaultDamping     = 0.1
	DefaultKT          = 0.1
	DefaultMagnitude   = 1.0
	DefaultExtent      = 8
	DefaultThermalize  = 2000
	DefaultDecorrelate = 100
	DefaultSamples     = 200
)

type Config struct {
	Lattice      LatticeConfig      `yaml:"lattice"`
	Spin         SpinConfig         `yaml:"spin"`
	Dynamics     DynamicsConfig     `yaml:"dynamics"`
	Sampling     SamplingConfig     `yaml:"sampling"`
	Symmetry     SymmetryConfig     `yaml:"symmetry"`
	Exchanges    []ExchangeConfig   `yaml:"exchanges"`
	Anisotropies []AnisotropyConfig `yaml:"anisotropies"`
}

type LatticeConfig struct {
	Sublattices int    `yaml:"sublattices"`
	Extents     [3]int `yaml:"extents"`
}

type SpinConfig struct {
	Mode      string  `yaml:"mode"`   // dipole or sun
	Levels    int     `yaml:"levels"` // N for sun mode
	Magnitude float64 `yaml:"magnitude"`
}

type DynamicsConfig struct {
	Dt      float64 `yaml:"dt"`
	Damping float64 `yaml:"damping"`
	KT      float64 `yaml:"kt"`
	Seed    int64   `yaml:"seed"`
}

type SamplingConfig struct {
	ThermalizeSteps    int `yaml:"thermalize_steps"`
	DecorrelationSteps int `yaml:"decorrelation_steps"`
	Samples            int `yaml:"samples"`
	Replicas           int `yaml:"replicas"`
}

type SymmetryConfig struct {
	// Generators name the symmetry operations spanning the group:
	// c4z, inversion, mirror_x. Empty means the identity group.
	Generators []string `yaml:"generators"`
	// AnisotropyTimeReversal selects the validation sign convention for
	// on-site terms: even (default) or odd.
	AnisotropyTimeReversal string `yaml:"anisotropy_time_reversal"`
}

type ExchangeConfig struct {
	I     int     `yaml:"i"`
	J     int     `yaml:"j"`
	Delta [3]int  `yaml:"delta"`
	// Coupling is an isotropic (Heisenberg) scalar; Matrix, when present,
	// overrides it with a full tensor.
	Coupling float64     `yaml:"coupling"`
	Matrix   [][]float64 `yaml:"matrix,omitempty"`
}

type AnisotropyConfig struct {
	Sublattice int         `yaml:"sublattice"`
	Matrix     [][]float64 `yaml:"matrix"`
}

func DefaultConfig() *Config {
	return &Config{
		Lattice: LatticeConfig{
			Sublattices: 1,
			Extents:     [3]int{DefaultExtent, DefaultExtent, DefaultExtent},
		},
		Spin: SpinConfig{
			Mode:      "dipole",
			Magnitude: DefaultMagnitude,
		},
		Dynamics: DynamicsConfig{
			Dt:      DefaultDt,
			Damping: DefaultDamping,
			KT:      DefaultKT,
		},
		Sampling: SamplingConfig{
			ThermalizeSteps:    DefaultThermalize,
			DecorrelationSteps: DefaultDecorrelate,
			Samples:            DefaultSamples,
			Replicas:           1,
		},
		Exchanges: []ExchangeConfig{
			{I: 0, J: 0, Delta: [3]int{1, 0, 0}, Coupling: -1},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

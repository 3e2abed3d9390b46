package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/meisenbach/spindyn/internal/spin"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dynamics.KT = 0.42
	cfg.Symmetry.Generators = []string{"c4z"}

	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Dynamics.KT != 0.42 {
		t.Errorf("kt = %f, want 0.42", loaded.Dynamics.KT)
	}
	if len(loaded.Symmetry.Generators) != 1 || loaded.Symmetry.Generators[0] != "c4z" {
		t.Errorf("generators = %v", loaded.Symmetry.Generators)
	}
}

func TestBuildDefaultConfig(t *testing.T) {
	model, err := DefaultConfig().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if model.Lattice.NumSites() != 8*8*8 {
		t.Errorf("sites = %d, want 512", model.Lattice.NumSites())
	}
	if got := len(model.Hamiltonian.Exchanges()); got != 1 {
		t.Errorf("exchanges = %d, want 1", got)
	}
	if model.Configuration.Dim() != 3 {
		t.Errorf("dim = %d, want 3", model.Configuration.Dim())
	}
}

func TestBuildSUNMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Spin.Mode = "sun"
	cfg.Spin.Levels = 3
	cfg.Exchanges = nil

	model, err := cfg.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if model.Configuration.Dim() != 8 {
		t.Errorf("dim = %d, want 8 for SU(3)", model.Configuration.Dim())
	}
	if model.Configuration.Mode != spin.SUN {
		t.Error("mode not propagated")
	}
}

func TestBuildRejectsUnknowns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Spin.Mode = "quaternion"
	if _, err := cfg.Build(); err == nil {
		t.Error("expected error for unknown mode")
	}

	cfg = DefaultConfig()
	cfg.Symmetry.Generators = []string{"c7z"}
	if _, err := cfg.Build(); err == nil {
		t.Error("expected error for unknown generator")
	}

	cfg = DefaultConfig()
	cfg.Symmetry.AnisotropyTimeReversal = "sideways"
	if _, err := cfg.Build(); err == nil {
		t.Error("expected error for unknown time-reversal policy")
	}
}

func TestBuildSurfacesValidationErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exchanges = []ExchangeConfig{
		{I: 0, J: 0, Delta: [3]int{8, 0, 0}, Coupling: -1},
	}
	_, err := cfg.Build()
	if !errors.Is(err, spin.ErrSelfWrap) {
		t.Errorf("err = %v, want ErrSelfWrap", err)
	}
}

func TestBuildMatrixCoupling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exchanges = []ExchangeConfig{
		{I: 0, J: 0, Delta: [3]int{1, 0, 0}, Matrix: [][]float64{
			{-1, 0, 0},
			{0, -1, 0},
			{0, 0, -0.5},
		}},
	}
	model, err := cfg.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ex := model.Hamiltonian.Exchanges()
	if len(ex) != 1 || ex[0].J.At(2, 2) != -0.5 {
		t.Errorf("unexpected exchanges %v", ex)
	}

	cfg.Exchanges[0].Matrix = [][]float64{{1, 2}, {3, 4}}
	if _, err := cfg.Build(); err == nil {
		t.Error("expected error for wrong matrix shape")
	}
}

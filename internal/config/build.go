package config

import (
	"fmt"

	"github.com/meisenbach/spindyn/internal/hamiltonian"
	"github.com/meisenbach/spindyn/internal/lattice"
	"github.com/meisenbach/spindyn/internal/spin"
	"github.com/meisenbach/spindyn/internal/symmetry"
)

// Model is the assembled simulation: lattice, validated Hamiltonian, and an
// initial configuration.
type Model struct {
	Lattice       *lattice.Lattice
	Group         symmetry.Group
	Hamiltonian   *hamiltonian.Hamiltonian
	Configuration *spin.Configuration
}

// Build assembles and validates the model described by the config. Coupling
// validation failures surface unchanged, carrying the allowed-basis detail.
func (c *Config) Build() (*Model, error) {
	lat, err := lattice.New(c.Lattice.Sublattices, c.Lattice.Extents)
	if err != nil {
		return nil, err
	}

	mode, dim, err := c.Spin.modeDim()
	if err != nil {
		return nil, err
	}

	group, err := c.Symmetry.build(dim, lat.Sublattices)
	if err != nil {
		return nil, err
	}

	policy := hamiltonian.AnisotropyEven
	switch c.Symmetry.AnisotropyTimeReversal {
	case "", "even":
	case "odd":
		policy = hamiltonian.AnisotropyOdd
	default:
		return nil, fmt.Errorf("config: unknown anisotropy_time_reversal %q", c.Symmetry.AnisotropyTimeReversal)
	}

	h, err := hamiltonian.New(lat, group, dim, policy)
	if err != nil {
		return nil, err
	}

	for _, ex := range c.Exchanges {
		j, err := couplingMatrix(ex.Matrix, ex.Coupling, dim)
		if err != nil {
			return nil, err
		}
		b := lattice.Bond{I: ex.I, J: ex.J, Delta: ex.Delta}
		if err := h.AddExchange(b, j); err != nil {
			return nil, err
		}
	}
	for _, an := range c.Anisotropies {
		k, err := couplingMatrix(an.Matrix, 0, dim)
		if err != nil {
			return nil, err
		}
		if err := h.AddAnisotropy(an.Sublattice, k); err != nil {
			return nil, err
		}
	}

	cfg := spin.NewConfiguration(mode, lat.NumSites(), dim, c.Spin.Magnitude)
	return &Model{Lattice: lat, Group: group, Hamiltonian: h, Configuration: cfg}, nil
}

func (s SpinConfig) modeDim() (spin.Mode, int, error) {
	switch s.Mode {
	case "", "dipole":
		return spin.Dipole, 3, nil
	case "sun":
		if s.Levels < 2 {
			return 0, 0, fmt.Errorf("config: sun mode needs levels >= 2, got %d", s.Levels)
		}
		return spin.SUN, spin.SUN.Channels(s.Levels), nil
	default:
		return 0, 0, fmt.Errorf("config: unknown spin mode %q", s.Mode)
	}
}

func (s SymmetryConfig) build(dim, sublattices int) (symmetry.Group, error) {
	if len(s.Generators) == 0 {
		return symmetry.Identity(dim), nil
	}
	if dim != 3 {
		return nil, fmt.Errorf("config: named symmetry generators act on dipole components; sun mode needs the identity group")
	}
	gens := make([]symmetry.Op, 0, len(s.Generators))
	for _, name := range s.Generators {
		switch name {
		case "c4z":
			gens = append(gens, symmetry.RotationZ4(sublattices))
		case "inversion":
			gens = append(gens, symmetry.Inversion(sublattices))
		case "mirror_x":
			gens = append(gens, symmetry.MirrorX(sublattices))
		default:
			return nil, fmt.Errorf("config: unknown symmetry generator %q", name)
		}
	}
	return symmetry.FromGenerators(dim, sublattices, gens)
}

func couplingMatrix(rows [][]float64, scalar float64, dim int) (*spin.Matrix, error) {
	if len(rows) == 0 {
		return spin.Identity(dim, scalar), nil
	}
	if len(rows) != dim {
		return nil, fmt.Errorf("config: coupling matrix has %d rows, model has %d channels", len(rows), dim)
	}
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("config: coupling matrix row %d has %d columns, model has %d channels", i, len(r), dim)
		}
	}
	return spin.FromRows(rows), nil
}

package metrics

import (
	"math"
	"testing"

	"github.com/meisenbach/spindyn/internal/hamiltonian"
	"github.com/meisenbach/spindyn/internal/lattice"
	"github.com/meisenbach/spindyn/internal/spin"
	"github.com/meisenbach/spindyn/internal/symmetry"
)

func pairModel(t *testing.T) *hamiltonian.Hamiltonian {
	t.Helper()
	lat, err := lattice.New(1, [3]int{2, 1, 1})
	if err != nil {
		t.Fatalf("lattice: %v", err)
	}
	h, err := hamiltonian.New(lat, symmetry.Identity(3), 3, hamiltonian.AnisotropyEven)
	if err != nil {
		t.Fatalf("hamiltonian: %v", err)
	}
	if err := h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{1, 0, 0}}, spin.Identity(3, -1)); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	return h
}

func TestEnergyMetricAverages(t *testing.T) {
	h := pairModel(t)
	c := spin.NewConfiguration(spin.Dipole, 2, 3, 1)
	c.Polarize(spin.Vec{0, 0, 1})

	m := NewEnergy(h)
	m.Observe(c)
	m.Observe(c)

	// On the periodic 2-cell ring the bond template yields two directed
	// instances of the pair, so two aligned unit spins with J=-I have
	// energy -2.
	if got := m.Value(); math.Abs(got-(-2)) > 1e-12 {
		t.Errorf("mean energy = %f, want -2", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("reset did not clear the metric")
	}
}

func TestMagnetizationMetric(t *testing.T) {
	c := spin.NewConfiguration(spin.Dipole, 4, 3, 2)
	c.Polarize(spin.Vec{1, 0, 0})

	m := NewMagnetization()
	m.Observe(c)
	if got := m.Value(); math.Abs(got-2) > 1e-12 {
		t.Errorf("magnetization = %f, want 2", got)
	}
}

func TestEnergyVariance(t *testing.T) {
	h := pairModel(t)
	v := NewEnergyVariance(h)

	up := spin.NewConfiguration(spin.Dipole, 2, 3, 1)
	up.Polarize(spin.Vec{0, 0, 1})
	anti := up.Clone()
	for k := range anti.Sites[1] {
		anti.Sites[1][k] = -anti.Sites[1][k]
	}

	v.Observe(up)   // energy -2
	v.Observe(anti) // energy +2

	if got := v.Value(); math.Abs(got-4) > 1e-12 {
		t.Errorf("variance = %f, want 4", got)
	}
}

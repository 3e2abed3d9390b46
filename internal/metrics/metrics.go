// Package metrics provides scalar observables accumulated over sampled
// configurations.
package metrics

import (
	"math"

	"github.com/meisenbach/spindyn/internal/hamiltonian"
	"github.com/meisenbach/spindyn/internal/spin"
)

// Energy accumulates the mean total energy across observed samples.
type Energy struct {
	h       *hamiltonian.Hamiltonian
	samples int
	total   float64
}

func NewEnergy(h *hamiltonian.Hamiltonian) *Energy {
	return &Energy{h: h}
}

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(c *spin.Configuration) {
	e.total += e.h.Energy(c)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// Magnetization accumulates the mean length of the per-site average spin.
type Magnetization struct {
	samples int
	total   float64
}

func NewMagnetization() *Magnetization {
	return &Magnetization{}
}

func (m *Magnetization) Name() string { return "magnetization" }

func (m *Magnetization) Observe(c *spin.Configuration) {
	m.total += c.Magnetization().Norm()
	m.samples++
}

func (m *Magnetization) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *Magnetization) Reset() {
	m.total = 0
	m.samples = 0
}

// EnergyVariance accumulates the variance of the energy across samples,
// proportional to the specific heat at fixed temperature.
type EnergyVariance struct {
	h       *hamiltonian.Hamiltonian
	samples int
	sum     float64
	sumSq   float64
}

func NewEnergyVariance(h *hamiltonian.Hamiltonian) *EnergyVariance {
	return &EnergyVariance{h: h}
}

func (v *EnergyVariance) Name() string { return "energy_variance" }

func (v *EnergyVariance) Observe(c *spin.Configuration) {
	e := v.h.Energy(c)
	v.sum += e
	v.sumSq += e * e
	v.samples++
}

func (v *EnergyVariance) Value() float64 {
	if v.samples < 2 {
		return 0
	}
	n := float64(v.samples)
	mean := v.sum / n
	return math.Max(0, v.sumSq/n-mean*mean)
}

func (v *EnergyVariance) Reset() {
	v.sum = 0
	v.sumSq = 0
	v.samples = 0
}

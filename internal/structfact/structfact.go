// Package structfact estimates the dynamical structure factor S(q,w) from
// spin configurations sampled along a stochastic trajectory.
//
// A Collector receives decorrelated snapshots as a sampler observer. The
// spatial Fourier transform runs over unit cells at the requested momenta;
// the temporal transform over snapshots uses the go-dsp FFT. Channel pairs
// are stored Hermitian-reduced (alpha <= beta only), producing exactly the
// index map the contraction package consumes.
package structfact

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/meisenbach/spindyn/internal/contraction"
	"github.com/meisenbach/spindyn/internal/lattice"
	"github.com/meisenbach/spindyn/internal/spin"
)

// Collector accumulates spin snapshots. It implements [spin.Observer].
type Collector struct {
	lat       *lattice.Lattice
	dim       int
	snapshots [][]spin.Vec
}

func NewCollector(lat *lattice.Lattice, dim int) *Collector {
	return &Collector{lat: lat, dim: dim}
}

// OnSample copies the configuration; the sampler keeps mutating it.
func (c *Collector) OnSample(cfg *spin.Configuration, _ int) {
	snap := make([]spin.Vec, cfg.NumSites())
	for i, s := range cfg.Sites {
		snap[i] = s.Clone()
	}
	c.snapshots = append(c.snapshots, snap)
}

func (c *Collector) NumSnapshots() int { return len(c.snapshots) }

// Spectrum is the computed structure-factor tensor: one Row per momentum
// and energy-transfer bin, with channel pairs resolved through Pairs.
type Spectrum struct {
	Qs          [][3]float64
	NumEnergies int
	Pairs       contraction.IndexMap
	Data        [][]contraction.Row
}

// Compute evaluates S(q,w) at the given momenta, in reciprocal lattice
// units. Snapshot count fixes the number of energy bins.
func (c *Collector) Compute(qs [][3]float64) (*Spectrum, error) {
	t := len(c.snapshots)
	if t == 0 {
		return nil, fmt.Errorf("structfact: no snapshots collected")
	}

	pairs := make(contraction.IndexMap)
	slot := 0
	for a := 0; a < c.dim; a++ {
		for b := a; b < c.dim; b++ {
			pairs[contraction.ChannelPair{Alpha: a, Beta: b}] = slot
			slot++
		}
	}

	spec := &Spectrum{
		Qs:          qs,
		NumEnergies: t,
		Pairs:       pairs,
		Data:        make([][]contraction.Row, len(qs)),
	}

	amps := make([][]complex128, c.dim)
	for qi, q := range qs {
		for a := 0; a < c.dim; a++ {
			series := make([]complex128, t)
			for ti, snap := range c.snapshots {
				series[ti] = c.fourierAmplitude(snap, q, a)
			}
			amps[a] = fft.FFT(series)
		}

		rows := make([]contraction.Row, t)
		norm := 1.0 / float64(t)
		for w := 0; w < t; w++ {
			row := make(contraction.Row, slot)
			for p, s := range pairs {
				row[s] = amps[p.Alpha][w] * cmplx.Conj(amps[p.Beta][w]) * complex(norm, 0)
			}
			rows[w] = row
		}
		spec.Data[qi] = rows
	}
	return spec, nil
}

// fourierAmplitude sums channel a over all sites with phase factors for
// momentum q, normalized by the square root of the site count.
func (c *Collector) fourierAmplitude(snap []spin.Vec, q [3]float64, a int) complex128 {
	sum := complex(0, 0)
	for sub := 0; sub < c.lat.Sublattices; sub++ {
		for cell := range c.lat.Cells() {
			phase := -2 * math.Pi * (q[0]*float64(cell[0]) + q[1]*float64(cell[1]) + q[2]*float64(cell[2]))
			s := snap[c.lat.SiteIndex(sub, cell)]
			sum += cmplx.Rect(s[a], phase)
		}
	}
	return sum / complex(math.Sqrt(float64(len(snap))), 0)
}

// Reduce applies a contraction uniformly over every momentum/energy point.
func (s *Spectrum) Reduce(c *contraction.Contraction) [][]float64 {
	out := make([][]float64, len(s.Qs))
	for qi, rows := range s.Data {
		vals := make([]float64, len(rows))
		for w, row := range rows {
			vals[w] = c.Contract(row, s.Qs[qi])
		}
		out[qi] = vals
	}
	return out
}

// Package langevin implements the stochastic integrator that evolves spin
// configurations: Landau-Lifshitz precession plus damping, with thermal
// noise satisfying fluctuation-dissipation balance, advanced by a Heun
// predictor-corrector step.
package langevin

import (
	"math"
	"math/rand"

	"github.com/meisenbach/spindyn/internal/hamiltonian"
	"github.com/meisenbach/spindyn/internal/spin"
)

// Integrator advances one configuration at a time. It reuses scratch
// buffers between steps, so an Integrator must not be shared across
// concurrently evolving configurations; the Hamiltonian it reads is
// read-only and may be shared.
type Integrator struct {
	h       *hamiltonian.Hamiltonian
	Damping float64
	KT      float64
	Dt      float64

	rng *rand.Rand

	field     []spin.Vec
	drift0    []spin.Vec
	noise     []spin.Vec
	predicted *spin.Configuration
}

// New creates an integrator with damping lambda, temperature kT and
// timestep dt, drawing noise from a source seeded with seed. Noise is drawn
// in fixed site order from the single source, so runs are reproducible for
// a given seed.
func New(h *hamiltonian.Hamiltonian, lambda, kT, dt float64, seed int64) *Integrator {
	return &Integrator{
		h:       h,
		Damping: lambda,
		KT:      kT,
		Dt:      dt,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (g *Integrator) ensureScratch(c *spin.Configuration) {
	n := c.NumSites()
	if len(g.field) == n {
		return
	}
	g.field = makeVecs(n, c.Dim())
	g.drift0 = makeVecs(n, c.Dim())
	g.noise = makeVecs(n, c.Dim())
	g.predicted = c.Clone()
}

func makeVecs(n, dim int) []spin.Vec {
	vs := make([]spin.Vec, n)
	for i := range vs {
		vs[i] = make(spin.Vec, dim)
	}
	return vs
}

// Step advances the configuration by one Heun predictor-corrector step.
//
// The predictor advances from the current state using drift and noise
// evaluated there; the corrector re-evaluates both at the predicted state
// and advances from the ORIGINAL state by the stage average. The same
// Gaussian draw feeds both stages; redrawing in the corrector would break
// the strong convergence order of the scheme. The linearized update does
// not preserve the spherical constraint exactly, so every site is rescaled
// back to its fixed magnitude at the end of the step.
func (g *Integrator) Step(c *spin.Configuration) {
	g.ensureScratch(c)

	n := c.NumSites()
	dim := c.Dim()
	// Fluctuation-dissipation: noise variance 2*lambda*kT per unit time.
	amp := math.Sqrt(2 * g.Damping * g.KT * g.Dt)

	for i := 0; i < n; i++ {
		for k := 0; k < dim; k++ {
			g.noise[i][k] = amp * g.rng.NormFloat64()
		}
	}

	// Predictor stage.
	g.h.FieldInto(c, g.field)
	for i := 0; i < n; i++ {
		s := c.Sites[i]
		drift(g.drift0[i], s, g.field[i], g.Damping)
		p := g.predicted.Sites[i]
		for k := 0; k < dim; k++ {
			p[k] = s[k] + g.Dt*g.drift0[i][k]
		}
		addTransverse(p, s, g.noise[i], 1)
	}

	// Corrector stage: average the two drift evaluations, advance from the
	// original state.
	g.h.FieldInto(g.predicted, g.field)
	tmp := make(spin.Vec, dim)
	inc := make(spin.Vec, dim)
	for i := 0; i < n; i++ {
		s := c.Sites[i]
		p := g.predicted.Sites[i]
		drift(tmp, p, g.field[i], g.Damping)
		for k := 0; k < dim; k++ {
			inc[k] = 0.5 * g.Dt * (g.drift0[i][k] + tmp[k])
		}
		addTransverse(inc, s, g.noise[i], 0.5)
		addTransverse(inc, p, g.noise[i], 0.5)
		for k := 0; k < dim; k++ {
			s[k] += inc[k]
		}
		s.Rescale(c.Magnitude)
	}
}

// drift writes the deterministic torque for state s in local field b:
// precession s x b (3-component dipole states only) plus damping
// lambda * P(b), with P projecting transverse to s. Both pieces are
// transverse, preserving the state length to first order.
func drift(out, s, b spin.Vec, lambda float64) {
	if len(s) == 3 {
		c := s.Cross(b)
		out[0], out[1], out[2] = c[0], c[1], c[2]
	} else {
		for k := range out {
			out[k] = 0
		}
	}
	n2 := s.Dot(s)
	if n2 == 0 {
		return
	}
	proj := s.Dot(b) / n2
	for k := range out {
		out[k] += lambda * (b[k] - proj*s[k])
	}
}

// addTransverse accumulates weight * the component of v transverse to ref
// into dst.
func addTransverse(dst, ref, v spin.Vec, weight float64) {
	n2 := ref.Dot(ref)
	if n2 == 0 {
		for k := range dst {
			dst[k] += weight * v[k]
		}
		return
	}
	proj := ref.Dot(v) / n2
	for k := range dst {
		dst[k] += weight * (v[k] - proj*ref[k])
	}
}

// Hamiltonian exposes the bound Hamiltonian for downstream observers.
func (g *Integrator) Hamiltonian() *hamiltonian.Hamiltonian { return g.h }

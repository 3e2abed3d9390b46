// Package sampler drives the stochastic integrator to produce decorrelated
// thermal samples and collect scalar observables from them.
package sampler

import (
	"context"
	"fmt"

	"github.com/meisenbach/spindyn/internal/langevin"
	"github.com/meisenbach/spindyn/internal/spin"
)

// Sampler advances a configuration a fixed number of integrator steps per
// sample. It keeps no state across runs beyond its registered metrics.
type Sampler struct {
	integ     *langevin.Integrator
	decorr    int
	metrics   []spin.Metric
	observers []spin.Observer
}

// New wraps an integrator with the number of steps taken between
// consecutive samples. decorr must be large enough relative to the model's
// autocorrelation time for samples to be statistically independent; that is
// an empirical property of the model, not a structural guarantee.
func New(integ *langevin.Integrator, decorr int) *Sampler {
	return &Sampler{integ: integ, decorr: decorr}
}

func (s *Sampler) AddMetric(m spin.Metric) { s.metrics = append(s.metrics, m) }
func (s *Sampler) AddObserver(o spin.Observer) { s.observers = append(s.observers, o) }

// Result holds the observables of one sampling run.
type Result struct {
	Samples  int
	Energies []float64
	Metrics  map[string]float64
}

// Thermalize advances the configuration without recording samples, checking
// for cancellation between steps.
func (s *Sampler) Thermalize(ctx context.Context, c *spin.Configuration, steps int) error {
	if !c.IsValid() {
		return spin.ErrInvalidState
	}
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.integ.Step(c)
	}
	return nil
}

// Run produces numSamples decorrelated configurations, recording the energy
// trace and feeding every registered metric and observer.
func (s *Sampler) Run(ctx context.Context, c *spin.Configuration, numSamples int) (*Result, error) {
	if s.decorr <= 0 {
		return nil, fmt.Errorf("sampler: decorrelation steps must be positive, got %d", s.decorr)
	}
	if numSamples <= 0 {
		return nil, fmt.Errorf("sampler: sample count must be positive, got %d", numSamples)
	}
	if !c.IsValid() {
		return nil, spin.ErrInvalidState
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{
		Energies: make([]float64, 0, numSamples),
		Metrics:  make(map[string]float64),
	}

	h := s.integ.Hamiltonian()
	for n := 0; n < numSamples; n++ {
		for i := 0; i < s.decorr; i++ {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			default:
			}
			s.integ.Step(c)
		}

		result.Samples++
		result.Energies = append(result.Energies, h.Energy(c))
		for _, m := range s.metrics {
			m.Observe(c)
		}
		for _, obs := range s.observers {
			obs.OnSample(c, n)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

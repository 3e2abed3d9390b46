package sampler

import (
	"context"
	"math/rand"
	"sync"

	"github.com/meisenbach/spindyn/internal/hamiltonian"
	"github.com/meisenbach/spindyn/internal/langevin"
	"github.com/meisenbach/spindyn/internal/spin"
)

// Ensemble runs independent sampling replicas in parallel, one goroutine
// per replica. Each replica owns its configuration and integrator; the
// Hamiltonian is shared read-only. Replica seeds are consecutive from
// seedStart, keeping the whole ensemble reproducible.
type Ensemble struct {
	h         *hamiltonian.Hamiltonian
	damping   float64
	kT        float64
	dt        float64
	decorr    int
	numRuns   int
	seedStart int64
}

func NewEnsemble(h *hamiltonian.Hamiltonian, damping, kT, dt float64, decorr, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		h:         h,
		damping:   damping,
		kT:        kT,
		dt:        dt,
		decorr:    decorr,
		numRuns:   numRuns,
		seedStart: seedStart,
	}
}

// Run samples every replica from an independently randomized copy of base,
// thermalizing each before sampling. The first error encountered aborts the
// whole ensemble result.
func (e *Ensemble) Run(ctx context.Context, base *spin.Configuration, thermalize, numSamples int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			c := base.Clone()
			c.Randomize(rand.New(rand.NewSource(seed)))

			s := New(langevin.New(e.h, e.damping, e.kT, e.dt, seed), e.decorr)
			if err := s.Thermalize(ctx, c, thermalize); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, c, numSamples)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

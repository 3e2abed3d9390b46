// Package contraction reduces precomputed dynamical structure-factor
// tensors to scalar intensities comparable to scattering experiments.
//
// The three reduction strategies form a closed set, so they are one tagged
// type dispatched through a single Contract method rather than an open
// interface. A Contraction is built once from a tensor's channel-pair index
// map and reused across all momentum/energy points; it never mutates the
// tensor.
package contraction

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/meisenbach/spindyn/internal/spin"
)

// qEpsilon regularizes the momentum-transfer norm so the depolarization
// projector stays finite at q = 0.
const qEpsilon = 1e-12

// ChannelPair identifies one ordered pair of polarization channels.
type ChannelPair struct {
	Alpha, Beta int
}

// IndexMap maps the channel pairs actually stored in a structure-factor
// tensor to their storage slots. By Hermitian symmetry only one of
// (alpha,beta) and (beta,alpha) need be present.
type IndexMap map[ChannelPair]int

// Row holds the stored complex values of one momentum/energy sample point,
// indexed by the slots of an IndexMap.
type Row []complex128

type kind int

const (
	kindTrace kind = iota
	kindDepolarize
	kindElement
)

type storedPair struct {
	alpha, beta int
	slot        int
	factor      float64
}

// Contraction is one reduction strategy with its index bookkeeping
// resolved. All variants expose the same Contract operation and are
// interchangeable over a batch of sample points.
type Contraction struct {
	kind  kind
	diag  []int
	pairs []storedPair
	slot  int
}

// NewTrace sums the absolute values of all diagonal channel slots. channels
// is the expected diagonal count (3 for dipole mode, N*N-1 for an N-level
// coherent-state mode); a tensor missing any diagonal channel was not
// computed with the full diagonal set and fails construction.
func NewTrace(im IndexMap, channels int) (*Contraction, error) {
	diag := make([]int, 0, channels)
	for a := 0; a < channels; a++ {
		slot, ok := im[ChannelPair{a, a}]
		if !ok {
			return nil, &spin.ValidationError{
				Detail:  fmt.Sprintf("channel (%d,%d) not stored; trace needs all %d diagonal channels", a, a, channels),
				Wrapped: spin.ErrIncompleteDiagonal,
			}
		}
		diag = append(diag, slot)
	}
	return &Contraction{kind: kindTrace, diag: diag}, nil
}

// NewDepolarize projects out the longitudinal (along-q) component with the
// dipole projector 1 - qq^T. The projector acts on the three dipole
// channels, so every stored pair must lie within them.
func NewDepolarize(im IndexMap) (*Contraction, error) {
	pairs := make([]storedPair, 0, len(im))
	for p, slot := range im {
		if p.Alpha < 0 || p.Alpha > 2 || p.Beta < 0 || p.Beta > 2 {
			return nil, &spin.ValidationError{
				Detail:  fmt.Sprintf("channel pair (%d,%d) outside the dipole sector", p.Alpha, p.Beta),
				Wrapped: spin.ErrDimensionMismatch,
			}
		}
		factor := 1.0
		if p.Alpha != p.Beta {
			// Only one of each Hermitian-conjugate pair is stored.
			factor = 2.0
		}
		pairs = append(pairs, storedPair{alpha: p.Alpha, beta: p.Beta, slot: slot, factor: factor})
	}
	return &Contraction{kind: kindDepolarize, pairs: pairs}, nil
}

// NewElement selects a single channel pair's slot, falling back to the
// Hermitian-conjugate pair when only that one is stored.
func NewElement(im IndexMap, alpha, beta int) (*Contraction, error) {
	if slot, ok := im[ChannelPair{alpha, beta}]; ok {
		return &Contraction{kind: kindElement, slot: slot}, nil
	}
	if slot, ok := im[ChannelPair{beta, alpha}]; ok {
		return &Contraction{kind: kindElement, slot: slot}, nil
	}
	return nil, &spin.ValidationError{
		Detail:  fmt.Sprintf("channel pair (%d,%d) not stored", alpha, beta),
		Wrapped: spin.ErrSiteOutOfRange,
	}
}

// Contract reduces one sample point's stored values to a scalar intensity.
// q is the momentum transfer; only Depolarize reads it.
func (c *Contraction) Contract(row Row, q [3]float64) float64 {
	switch c.kind {
	case kindTrace:
		sum := 0.0
		for _, slot := range c.diag {
			sum += cmplx.Abs(row[slot])
		}
		return sum

	case kindDepolarize:
		norm := math.Sqrt(q[0]*q[0]+q[1]*q[1]+q[2]*q[2]) + qEpsilon
		var u [3]float64
		for k := range q {
			u[k] = q[k] / norm
		}
		sum := 0.0
		for _, p := range c.pairs {
			proj := -u[p.alpha] * u[p.beta]
			if p.alpha == p.beta {
				proj += 1
			}
			sum += p.factor * proj * real(row[p.slot])
		}
		return math.Abs(sum)

	default:
		return cmplx.Abs(row[c.slot])
	}
}

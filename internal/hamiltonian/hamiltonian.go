package hamiltonian

import (
	"fmt"

	"github.com/meisenbach/spindyn/internal/lattice"
	"github.com/meisenbach/spindyn/internal/spin"
	"github.com/meisenbach/spindyn/internal/symmetry"
)

// couplingTol bounds the elementwise disagreement tolerated between a
// symmetry-transformed tensor and a previously installed one.
const couplingTol = 1e-8

// TimeReversalPolicy selects the sign a time-reversal-marked symmetry
// operation applies to on-site anisotropy tensors. Exchange couplings are
// always even.
type TimeReversalPolicy int

const (
	// AnisotropyEven validates anisotropy with the same convention as
	// exchange (quadratic forms are even under time reversal).
	AnisotropyEven TimeReversalPolicy = iota
	// AnisotropyOdd flips the tensor sign under time-reversal operations.
	AnisotropyOdd
)

func (p TimeReversalPolicy) sign() float64 {
	if p == AnisotropyOdd {
		return -1
	}
	return 1
}

// Exchange is one installed pairwise quadratic interaction on a canonical
// directed bond.
type Exchange struct {
	Bond lattice.Bond
	J    *spin.Matrix
}

// Anisotropy is one installed on-site quadratic operator for a sublattice.
type Anisotropy struct {
	Sublattice int
	K          *spin.Matrix
}

// Hamiltonian is an ordered collection of symmetry-validated interactions
// bound to one lattice. The Add methods are the only mutation path; after
// model construction the Hamiltonian is treated as read-only and may be
// shared across concurrently evolving configurations.
type Hamiltonian struct {
	lat    *lattice.Lattice
	sym    symmetry.Group
	dim    int
	policy TimeReversalPolicy

	exchanges    []Exchange
	anisotropies []Anisotropy
	exchangeIdx  map[lattice.Bond]int
	anisoIdx     map[int]int
}

// New binds an empty Hamiltonian to a lattice and its symmetry group. dim is
// the spin channel dimension (3 for dipole mode, N*N-1 for SU(N) mode).
func New(lat *lattice.Lattice, sym symmetry.Group, dim int, policy TimeReversalPolicy) (*Hamiltonian, error) {
	if sym.Dim() != dim {
		return nil, fmt.Errorf("hamiltonian: symmetry group acts on %d channels, model has %d: %w",
			sym.Dim(), dim, spin.ErrDimensionMismatch)
	}
	return &Hamiltonian{
		lat:         lat,
		sym:         sym,
		dim:         dim,
		policy:      policy,
		exchangeIdx: make(map[lattice.Bond]int),
		anisoIdx:    make(map[int]int),
	}, nil
}

func (h *Hamiltonian) Lattice() *lattice.Lattice { return h.lat }
func (h *Hamiltonian) Dim() int { return h.dim }
func (h *Hamiltonian) Exchanges() []Exchange { return h.exchanges }
func (h *Hamiltonian) Anisotropies() []Anisotropy { return h.anisotropies }

// AddExchange expands the representative bond over the full symmetry orbit,
// validates tensor consistency across the orbit, and installs every
// equivalent coupling. An inconsistent tensor fails with the basis of
// couplings the bond symmetry actually allows.
func (h *Hamiltonian) AddExchange(b lattice.Bond, j *spin.Matrix) error {
	if j.Dim != h.dim {
		return &spin.ValidationError{
			Detail:  fmt.Sprintf("%v coupling is %dx%d, model has %d channels", b, j.Dim, j.Dim, h.dim),
			Wrapped: spin.ErrDimensionMismatch,
		}
	}
	if b.I < 0 || b.I >= h.lat.Sublattices || b.J < 0 || b.J >= h.lat.Sublattices {
		return &spin.ValidationError{Detail: b.String(), Wrapped: spin.ErrSiteOutOfRange}
	}
	if b.IsOnSite() {
		return &spin.ValidationError{
			Detail:  fmt.Sprintf("%v couples a site to itself; use AddAnisotropy", b),
			Wrapped: spin.ErrSelfWrap,
		}
	}

	staged := make(map[lattice.Bond]*spin.Matrix)
	order := make([]lattice.Bond, 0)
	for _, img := range h.sym.Orbit(b) {
		if h.lat.WrapsSystem(img.Bond) {
			return &spin.ValidationError{
				Detail:  fmt.Sprintf("%v reaches around extents %v", img.Bond, h.lat.Extents),
				Wrapped: spin.ErrSelfWrap,
			}
		}
		t := j.Conjugate(img.Rotation)
		cb, flipped := img.Bond.Canonical()
		if flipped {
			t = t.Transpose()
		}
		if err := h.checkConsistent(b, cb, t, staged, 1); err != nil {
			return err
		}
		if _, ok := staged[cb]; !ok {
			staged[cb] = t
			order = append(order, cb)
		}
	}

	for _, cb := range order {
		if _, exists := h.exchangeIdx[cb]; exists {
			continue
		}
		h.exchangeIdx[cb] = len(h.exchanges)
		h.exchanges = append(h.exchanges, Exchange{Bond: cb, J: staged[cb]})
	}
	return nil
}

// AddAnisotropy installs an on-site quadratic operator for a sublattice and
// its symmetry images. The time-reversal sign convention follows the
// Hamiltonian's policy.
func (h *Hamiltonian) AddAnisotropy(sublattice int, k *spin.Matrix) error {
	if k.Dim != h.dim {
		return &spin.ValidationError{
			Detail:  fmt.Sprintf("sublattice %d operator is %dx%d, model has %d channels", sublattice, k.Dim, k.Dim, h.dim),
			Wrapped: spin.ErrDimensionMismatch,
		}
	}
	if sublattice < 0 || sublattice >= h.lat.Sublattices {
		return &spin.ValidationError{
			Detail:  fmt.Sprintf("sublattice %d of %d", sublattice, h.lat.Sublattices),
			Wrapped: spin.ErrSiteOutOfRange,
		}
	}

	site := lattice.Bond{I: sublattice, J: sublattice}
	sign := h.policy.sign()
	staged := make(map[int]*spin.Matrix)
	order := make([]int, 0)
	for _, img := range h.sym.Orbit(site) {
		t := k.Conjugate(img.Rotation)
		if img.TimeReversal && sign != 1 {
			t = t.Scale(sign)
		}
		sub := img.Bond.I
		if prev, ok := staged[sub]; ok {
			if prev.MaxDiff(t) > couplingTol {
				return h.anisotropyViolation(site, sub)
			}
			continue
		}
		if idx, ok := h.anisoIdx[sub]; ok {
			if h.anisotropies[idx].K.MaxDiff(t) > couplingTol {
				return h.anisotropyViolation(site, sub)
			}
			continue
		}
		staged[sub] = t
		order = append(order, sub)
	}

	for _, sub := range order {
		h.anisoIdx[sub] = len(h.anisotropies)
		h.anisotropies = append(h.anisotropies, Anisotropy{Sublattice: sub, K: staged[sub]})
	}
	return nil
}

// checkConsistent compares a transformed tensor against any tensor already
// staged or installed at the canonical image bond.
func (h *Hamiltonian) checkConsistent(rep, cb lattice.Bond, t *spin.Matrix, staged map[lattice.Bond]*spin.Matrix, trSign float64) error {
	if prev, ok := staged[cb]; ok && prev.MaxDiff(t) > couplingTol {
		return h.exchangeViolation(rep, cb, trSign)
	}
	if idx, ok := h.exchangeIdx[cb]; ok && h.exchanges[idx].J.MaxDiff(t) > couplingTol {
		return h.exchangeViolation(rep, cb, trSign)
	}
	return nil
}

func (h *Hamiltonian) exchangeViolation(rep, img lattice.Bond, trSign float64) error {
	basis := symmetry.AllowedBasis(h.sym, rep, trSign)
	return &spin.ValidationError{
		Detail: fmt.Sprintf("tensor at image %v disagrees with its symmetry partner; allowed couplings on %v: %s",
			img, rep, symmetry.FormatBasis(basis)),
		Wrapped: spin.ErrSymmetryViolation,
	}
}

func (h *Hamiltonian) anisotropyViolation(site lattice.Bond, sub int) error {
	basis := symmetry.AllowedBasis(h.sym, site, h.policy.sign())
	return &spin.ValidationError{
		Detail: fmt.Sprintf("operator at sublattice %d disagrees with its symmetry partner; allowed operators on sublattice %d: %s",
			sub, site.I, symmetry.FormatBasis(basis)),
		Wrapped: spin.ErrSymmetryViolation,
	}
}

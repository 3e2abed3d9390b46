package hamiltonian

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meisenbach/spindyn/internal/lattice"
	"github.com/meisenbach/spindyn/internal/spin"
	"github.com/meisenbach/spindyn/internal/symmetry"
)

func newChain(t *testing.T, extents [3]int) *Hamiltonian {
	t.Helper()
	lat, err := lattice.New(1, extents)
	require.NoError(t, err)
	h, err := New(lat, symmetry.Identity(3), 3, AnisotropyEven)
	require.NoError(t, err)
	return h
}

func TestAddExchangeInstallsCanonicalBond(t *testing.T) {
	h := newChain(t, [3]int{4, 4, 4})

	err := h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{-1, 0, 0}}, spin.Identity(3, -1))
	require.NoError(t, err)
	require.Len(t, h.Exchanges(), 1)
	// The reversed representative canonicalizes to the +x bond.
	assert.Equal(t, lattice.Bond{I: 0, J: 0, Delta: [3]int{1, 0, 0}}, h.Exchanges()[0].Bond)
}

func TestAddExchangeRejectsWrappingBond(t *testing.T) {
	h := newChain(t, [3]int{4, 4, 4})

	for _, delta := range [][3]int{{4, 0, 0}, {5, 0, 0}, {0, -4, 0}} {
		err := h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: delta}, spin.Identity(3, 1))
		assert.ErrorIs(t, err, spin.ErrSelfWrap, "delta %v", delta)
	}
}

func TestAddExchangeTrivialGroupMultiSublattice(t *testing.T) {
	lat, err := lattice.New(2, [3]int{4, 4, 4})
	require.NoError(t, err)
	h, err := New(lat, symmetry.Identity(3), 3, AnisotropyEven)
	require.NoError(t, err)

	b := lattice.Bond{I: 0, J: 1, Delta: [3]int{0, 0, 0}}
	require.NoError(t, h.AddExchange(b, spin.Identity(3, -1)))
	require.Len(t, h.Exchanges(), 1)
	assert.Equal(t, b, h.Exchanges()[0].Bond)

	require.NoError(t, h.AddAnisotropy(1, spin.Identity(3, 0.2)))
	require.Len(t, h.Anisotropies(), 1)
	assert.Equal(t, 1, h.Anisotropies()[0].Sublattice)
}

func TestAddExchangeRejectsOnSiteBond(t *testing.T) {
	h := newChain(t, [3]int{4, 4, 4})
	err := h.AddExchange(lattice.Bond{I: 0, J: 0}, spin.Identity(3, 1))
	assert.ErrorIs(t, err, spin.ErrSelfWrap)
}

func TestAddExchangeRejectsWrongDimension(t *testing.T) {
	h := newChain(t, [3]int{4, 4, 4})
	err := h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{1, 0, 0}}, spin.Identity(8, 1))
	assert.ErrorIs(t, err, spin.ErrDimensionMismatch)
}

func TestSymmetryClosureInstallsOrbit(t *testing.T) {
	lat, err := lattice.New(1, [3]int{4, 4, 4})
	require.NoError(t, err)
	group, err := symmetry.FromGenerators(3, 1, []symmetry.Op{symmetry.RotationZ4(1)})
	require.NoError(t, err)
	h, err := New(lat, group, 3, AnisotropyEven)
	require.NoError(t, err)

	j := spin.FromRows([][]float64{
		{1, 0, 0},
		{0, 2, 0},
		{0, 0, 3},
	})
	require.NoError(t, h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{1, 0, 0}}, j))

	// +x and +y bonds installed; -x and -y canonicalize onto them.
	require.Len(t, h.Exchanges(), 2)
	byDelta := make(map[[3]int]*spin.Matrix)
	for _, ex := range h.Exchanges() {
		byDelta[ex.Bond.Delta] = ex.J
	}
	require.Contains(t, byDelta, [3]int{1, 0, 0})
	require.Contains(t, byDelta, [3]int{0, 1, 0})

	// The +y bond carries the rotated tensor: x and y couplings swap.
	want := spin.FromRows([][]float64{
		{2, 0, 0},
		{0, 1, 0},
		{0, 0, 3},
	})
	assert.InDelta(t, 0, byDelta[[3]int{0, 1, 0}].MaxDiff(want), 1e-12)
}

func TestInconsistentCouplingFailsWithAllowedBasis(t *testing.T) {
	lat, err := lattice.New(1, [3]int{4, 4, 4})
	require.NoError(t, err)
	group, err := symmetry.FromGenerators(3, 1, []symmetry.Op{symmetry.RotationZ4(1)})
	require.NoError(t, err)
	h, err := New(lat, group, 3, AnisotropyEven)
	require.NoError(t, err)

	j := spin.FromRows([][]float64{
		{1, 0, 0},
		{0, 2, 0},
		{0, 0, 3},
	})
	require.NoError(t, h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{1, 0, 0}}, j))

	// The +y bond is already pinned by the orbit of +x; an unrelated tensor
	// must be rejected, and the error must spell out what is allowed.
	err = h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{0, 1, 0}}, spin.Identity(3, 9))
	require.ErrorIs(t, err, spin.ErrSymmetryViolation)
	var verr *spin.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Detail, "basis[0]")

	// Re-adding the correctly transformed tensor is accepted and idempotent.
	rotated := spin.FromRows([][]float64{
		{2, 0, 0},
		{0, 1, 0},
		{0, 0, 3},
	})
	require.NoError(t, h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{0, 1, 0}}, rotated))
	assert.Len(t, h.Exchanges(), 2)
}

func TestAddAnisotropyExpandsSublattices(t *testing.T) {
	lat, err := lattice.New(2, [3]int{2, 2, 2})
	require.NoError(t, err)

	swap := symmetry.MirrorX(2)
	swap.Perm = []int{1, 0}
	group, err := symmetry.FromGenerators(3, 2, []symmetry.Op{swap})
	require.NoError(t, err)

	h, err := New(lat, group, 3, AnisotropyEven)
	require.NoError(t, err)

	k := spin.FromRows([][]float64{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, -1},
	})
	require.NoError(t, h.AddAnisotropy(0, k))
	assert.Len(t, h.Anisotropies(), 2)
}

func TestEnergyTranslationInvariance(t *testing.T) {
	h := newChain(t, [3]int{4, 3, 2})
	require.NoError(t, h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{1, 0, 0}}, spin.Identity(3, -1)))
	require.NoError(t, h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{0, 1, 1}}, spin.FromRows([][]float64{
		{0.5, 0.1, 0},
		{-0.1, 0.5, 0},
		{0, 0, 0.2},
	})))
	require.NoError(t, h.AddAnisotropy(0, spin.FromRows([][]float64{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, -0.3},
	})))

	lat := h.Lattice()
	c := spin.NewConfiguration(spin.Dipole, lat.NumSites(), 3, 1)
	c.Randomize(rand.New(rand.NewSource(3)))

	shifted := c.Clone()
	for cell := range lat.Cells() {
		src := lat.SiteIndex(0, cell)
		dst := lat.SiteIndex(0, [3]int{cell[0] + 1, cell[1], cell[2]})
		copy(shifted.Sites[dst], c.Sites[src])
	}

	assert.InDelta(t, h.Energy(c), h.Energy(shifted), 1e-9)
}

func TestFieldMatchesNumericalGradient(t *testing.T) {
	h := newChain(t, [3]int{3, 3, 2})
	require.NoError(t, h.AddExchange(lattice.Bond{I: 0, J: 0, Delta: [3]int{1, 0, 0}}, spin.FromRows([][]float64{
		{-1, 0.2, 0},
		{0.1, -0.8, 0.3},
		{0, -0.3, -1.2},
	})))
	require.NoError(t, h.AddAnisotropy(0, spin.FromRows([][]float64{
		{0.1, 0, 0},
		{0, 0.1, 0},
		{0, 0, -0.4},
	})))

	c := spin.NewConfiguration(spin.Dipole, h.Lattice().NumSites(), 3, 1)
	c.Randomize(rand.New(rand.NewSource(11)))

	field := h.Field(c)

	const eps = 1e-6
	for i := 0; i < c.NumSites(); i++ {
		for k := 0; k < 3; k++ {
			orig := c.Sites[i][k]
			c.Sites[i][k] = orig + eps
			ePlus := h.Energy(c)
			c.Sites[i][k] = orig - eps
			eMinus := h.Energy(c)
			c.Sites[i][k] = orig

			grad := (ePlus - eMinus) / (2 * eps)
			assert.InDelta(t, -grad, field[i][k], 1e-5, "site %d component %d", i, k)
		}
	}
}

func TestEnergyPanicsOnSizeMismatch(t *testing.T) {
	h := newChain(t, [3]int{2, 2, 2})
	c := spin.NewConfiguration(spin.Dipole, 3, 3, 1)
	assert.Panics(t, func() { h.Energy(c) })
}

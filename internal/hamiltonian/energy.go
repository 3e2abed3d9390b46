package hamiltonian

import (
	"fmt"

	"github.com/meisenbach/spindyn/internal/spin"
)

// checkConfiguration panics on a size mismatch; a wrongly sized
// configuration is a caller contract violation, not a recoverable state.
func (h *Hamiltonian) checkConfiguration(c *spin.Configuration) {
	if c.NumSites() != h.lat.NumSites() {
		panic(fmt.Sprintf("hamiltonian: configuration has %d sites, lattice has %d", c.NumSites(), h.lat.NumSites()))
	}
	if c.Dim() != h.dim {
		panic(fmt.Sprintf("hamiltonian: configuration has %d channels, model has %d", c.Dim(), h.dim))
	}
}

// Energy sums every installed interaction over the periodic lattice: the
// bilinear form s_i . J . s_j per exchange bond and cell, plus the on-site
// quadratic s . K . s per anisotropy and cell. Each undirected pair
// contributes exactly once because only canonical bonds are installed.
func (h *Hamiltonian) Energy(c *spin.Configuration) float64 {
	h.checkConfiguration(c)

	e := 0.0
	for _, ex := range h.exchanges {
		for cell := range h.lat.Cells() {
			i := h.lat.SiteIndex(ex.Bond.I, cell)
			j := h.lat.SiteIndex(ex.Bond.J, addCell(cell, ex.Bond.Delta))
			e += ex.J.Bilinear(c.Sites[i], c.Sites[j])
		}
	}
	for _, an := range h.anisotropies {
		for cell := range h.lat.Cells() {
			s := c.Sites[h.lat.SiteIndex(an.Sublattice, cell)]
			e += an.K.Bilinear(s, s)
		}
	}
	return e
}

// Field computes the local field at every site, the negative gradient of
// Energy with respect to that site's state with all others fixed. Each bond
// contributes to both of its endpoints.
func (h *Hamiltonian) Field(c *spin.Configuration) []spin.Vec {
	out := make([]spin.Vec, c.NumSites())
	for i := range out {
		out[i] = make(spin.Vec, h.dim)
	}
	h.FieldInto(c, out)
	return out
}

// FieldInto is Field writing into a caller-owned buffer, for callers on the
// integration hot path.
func (h *Hamiltonian) FieldInto(c *spin.Configuration, out []spin.Vec) {
	h.checkConfiguration(c)
	if len(out) != c.NumSites() {
		panic(fmt.Sprintf("hamiltonian: field buffer has %d sites, lattice has %d", len(out), h.lat.NumSites()))
	}

	for i := range out {
		for k := range out[i] {
			out[i][k] = 0
		}
	}

	tmp := make(spin.Vec, h.dim)
	for _, ex := range h.exchanges {
		for cell := range h.lat.Cells() {
			i := h.lat.SiteIndex(ex.Bond.I, cell)
			j := h.lat.SiteIndex(ex.Bond.J, addCell(cell, ex.Bond.Delta))

			ex.J.MulVec(c.Sites[j], tmp)
			for k := range tmp {
				out[i][k] -= tmp[k]
			}
			ex.J.TMulVec(c.Sites[i], tmp)
			for k := range tmp {
				out[j][k] -= tmp[k]
			}
		}
	}
	for _, an := range h.anisotropies {
		for cell := range h.lat.Cells() {
			i := h.lat.SiteIndex(an.Sublattice, cell)
			s := c.Sites[i]
			an.K.MulVec(s, tmp)
			for k := range tmp {
				out[i][k] -= tmp[k]
			}
			an.K.TMulVec(s, tmp)
			for k := range tmp {
				out[i][k] -= tmp[k]
			}
		}
	}
}

func addCell(cell, delta [3]int) [3]int {
	return [3]int{cell[0] + delta[0], cell[1] + delta[1], cell[2] + delta[2]}
}

package lattice

import (
	"fmt"
	"iter"
)

// Lattice is a periodic 3-dimensional crystal lattice with a fixed number of
// sublattice (basis) sites per unit cell. Immutable once constructed and
// shared read-only by every model built over it.
type Lattice struct {
	Sublattices int
	Extents     [3]int
}

// New validates the sublattice count and extents and returns the lattice.
func New(sublattices int, extents [3]int) (*Lattice, error) {
	if sublattices <= 0 {
		return nil, fmt.Errorf("lattice: sublattice count must be positive, got %d", sublattices)
	}
	for k, l := range extents {
		if l <= 0 {
			return nil, fmt.Errorf("lattice: extent along axis %d must be positive, got %d", k, l)
		}
	}
	return &Lattice{Sublattices: sublattices, Extents: extents}, nil
}

// NumCells returns the number of unit cells.
func (l *Lattice) NumCells() int {
	return l.Extents[0] * l.Extents[1] * l.Extents[2]
}

// NumSites returns the total number of sites.
func (l *Lattice) NumSites() int {
	return l.Sublattices * l.NumCells()
}

// WrapCell reduces cell coordinates into the periodic box.
func (l *Lattice) WrapCell(cell [3]int) [3]int {
	for k := range cell {
		cell[k] %= l.Extents[k]
		if cell[k] < 0 {
			cell[k] += l.Extents[k]
		}
	}
	return cell
}

// SiteIndex maps (sublattice, cell) to the unique linear site index. The
// cell is wrapped periodically; a sublattice out of range panics, since the
// caller has violated the lattice contract.
func (l *Lattice) SiteIndex(sub int, cell [3]int) int {
	if sub < 0 || sub >= l.Sublattices {
		panic(fmt.Sprintf("lattice: sublattice %d out of range [0,%d)", sub, l.Sublattices))
	}
	cell = l.WrapCell(cell)
	return ((cell[2]*l.Extents[1]+cell[1])*l.Extents[0]+cell[0])*l.Sublattices + sub
}

// SiteAt is the inverse of SiteIndex.
func (l *Lattice) SiteAt(idx int) (sub int, cell [3]int) {
	if idx < 0 || idx >= l.NumSites() {
		panic(fmt.Sprintf("lattice: site index %d out of range [0,%d)", idx, l.NumSites()))
	}
	sub = idx % l.Sublattices
	idx /= l.Sublattices
	cell[0] = idx % l.Extents[0]
	idx /= l.Extents[0]
	cell[1] = idx % l.Extents[1]
	cell[2] = idx / l.Extents[1]
	return sub, cell
}

// Cells yields every distinct cell coordinate once. The sequence is
// restartable: each range starts over from the origin cell.
func (l *Lattice) Cells() iter.Seq[[3]int] {
	return func(yield func([3]int) bool) {
		for c2 := 0; c2 < l.Extents[2]; c2++ {
			for c1 := 0; c1 < l.Extents[1]; c1++ {
				for c0 := 0; c0 < l.Extents[0]; c0++ {
					if !yield([3]int{c0, c1, c2}) {
						return
					}
				}
			}
		}
	}
}

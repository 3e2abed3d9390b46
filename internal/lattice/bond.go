package lattice

import "fmt"

// Bond is a template coupling between a site in sublattice I and a site in
// sublattice J displaced by Delta unit cells. It stands for every coupling
// in its symmetry-equivalence class once expanded.
type Bond struct {
	I, J  int
	Delta [3]int
}

// Reversed returns the same undirected coupling traversed the other way.
func (b Bond) Reversed() Bond {
	return Bond{I: b.J, J: b.I, Delta: [3]int{-b.Delta[0], -b.Delta[1], -b.Delta[2]}}
}

// IsOnSite reports whether the bond couples a site to itself.
func (b Bond) IsOnSite() bool {
	return b.I == b.J && b.Delta == [3]int{}
}

// Canonical returns the preferred direction of the undirected coupling (low
// sublattice first, then positive leading displacement) and whether the
// bond was flipped. Installing only canonical bonds keeps each undirected
// pair counted once.
func (b Bond) Canonical() (Bond, bool) {
	r := b.Reversed()
	if b == r || b.preferredOver(r) {
		return b, false
	}
	return r, true
}

func (b Bond) preferredOver(o Bond) bool {
	if b.I != o.I {
		return b.I < o.I
	}
	if b.J != o.J {
		return b.J < o.J
	}
	for k := 0; k < 3; k++ {
		if b.Delta[k] != o.Delta[k] {
			return b.Delta[k] > o.Delta[k]
		}
	}
	return false
}

func (b Bond) String() string {
	return fmt.Sprintf("Bond(%d -> %d, %v)", b.I, b.J, b.Delta)
}

// WrapsSystem reports whether the bond's displacement reaches around the
// periodic box, coupling a site to a partner through two different lattice
// translations at once. Such a bond cannot carry a well-defined single
// coupling and must be rejected at model construction.
func (l *Lattice) WrapsSystem(b Bond) bool {
	for k := 0; k < 3; k++ {
		d := b.Delta[k]
		if d < 0 {
			d = -d
		}
		if d >= l.Extents[k] {
			return true
		}
	}
	return false
}

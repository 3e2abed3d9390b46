// Package symmetry supplies the crystal-symmetry collaborator consumed by
// model construction: the orbit of a representative bond under the symmetry
// group, and the tensor transformation attached to each orbit member.
//
// Groups are built once from externally supplied generators; the closure is
// computed at construction so that orbit expansion never repeats group
// arithmetic at evaluation time.
package symmetry

import (
	"fmt"

	"github.com/meisenbach/spindyn/internal/lattice"
	"github.com/meisenbach/spindyn/internal/spin"
)

const opTol = 1e-9

// Op is one symmetry operation: an integer action on cell displacements, an
// orthogonal action on spin channels, a sublattice permutation, and an
// optional time-reversal flag.
type Op struct {
	Cell         [3][3]int
	Spin         *spin.Matrix
	Perm         []int
	TimeReversal bool
}

// Image is one member of a bond's symmetry orbit together with the
// transformation that carries the representative coupling tensor onto it.
type Image struct {
	Bond         lattice.Bond
	Rotation     *spin.Matrix
	TimeReversal bool
}

// Group enumerates symmetry orbits. Implementations must be safe for
// concurrent read-only use.
type Group interface {
	// Orbit returns the distinct images of b under the group, including b
	// itself under the identity. Multiple group elements mapping b to the
	// same image are all reported, so that tensor-consistency checks see
	// every constraint.
	Orbit(b lattice.Bond) []Image
	// Dim is the spin channel dimension the group's rotations act on.
	Dim() int
}

type group struct {
	dim int
	ops []Op
}

// Identity returns the trivial group over dim spin channels. Its single
// operation carries an empty permutation, which acts as the identity on any
// sublattice count.
func Identity(dim int) Group {
	return &group{dim: dim, ops: []Op{identityOp(dim, 0)}}
}

// FromGenerators closes the supplied generators into a full group. The
// closure is capped at maxOrder elements; exceeding the cap means the
// generators do not generate a finite group and is reported as an error.
func FromGenerators(dim int, sublattices int, gens []Op) (Group, error) {
	const maxOrder = 1024

	for gi, g := range gens {
		if g.Spin == nil || g.Spin.Dim != dim {
			return nil, fmt.Errorf("symmetry: generator %d has wrong spin dimension", gi)
		}
		if len(g.Perm) != sublattices {
			return nil, fmt.Errorf("symmetry: generator %d permutation has length %d, want %d", gi, len(g.Perm), sublattices)
		}
		seen := make([]bool, sublattices)
		for _, p := range g.Perm {
			if p < 0 || p >= sublattices || seen[p] {
				return nil, fmt.Errorf("symmetry: generator %d has invalid sublattice permutation %v", gi, g.Perm)
			}
			seen[p] = true
		}
	}

	ops := []Op{identityOp(dim, sublattices)}
	frontier := append([]Op(nil), ops...)
	for len(frontier) > 0 {
		var next []Op
		for _, a := range frontier {
			for _, g := range gens {
				c := compose(g, a)
				if !containsOp(ops, c) {
					ops = append(ops, c)
					next = append(next, c)
					if len(ops) > maxOrder {
						return nil, fmt.Errorf("symmetry: generators do not close within %d elements", maxOrder)
					}
				}
			}
		}
		frontier = next
	}
	return &group{dim: dim, ops: ops}, nil
}

func (g *group) Dim() int { return g.dim }

func (g *group) Orbit(b lattice.Bond) []Image {
	images := make([]Image, 0, len(g.ops))
	for _, op := range g.ops {
		images = append(images, Image{
			Bond:         applyToBond(op, b),
			Rotation:     op.Spin,
			TimeReversal: op.TimeReversal,
		})
	}
	return images
}

func identityOp(dim, sublattices int) Op {
	perm := make([]int, sublattices)
	for i := range perm {
		perm[i] = i
	}
	return Op{
		Cell: [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Spin: spin.Identity(dim, 1),
		Perm: perm,
	}
}

func compose(a, b Op) Op {
	var cell [3][3]int
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				cell[i][j] += a.Cell[i][k] * b.Cell[k][j]
			}
		}
	}
	perm := make([]int, len(b.Perm))
	for i := range perm {
		perm[i] = a.Perm[b.Perm[i]]
	}
	return Op{
		Cell:         cell,
		Spin:         a.Spin.Mul(b.Spin),
		Perm:         perm,
		TimeReversal: a.TimeReversal != b.TimeReversal,
	}
}

func containsOp(ops []Op, c Op) bool {
	for _, o := range ops {
		if o.Cell != c.Cell || o.TimeReversal != c.TimeReversal {
			continue
		}
		if !permEqual(o.Perm, c.Perm) {
			continue
		}
		if o.Spin.MaxDiff(c.Spin) < opTol {
			return true
		}
	}
	return false
}

func permEqual(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func applyToBond(op Op, b lattice.Bond) lattice.Bond {
	var d [3]int
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d[i] += op.Cell[i][j] * b.Delta[j]
		}
	}
	// An empty permutation is the identity over any sublattice count.
	i, j := b.I, b.J
	if len(op.Perm) > 0 {
		i, j = op.Perm[b.I], op.Perm[b.J]
	}
	return lattice.Bond{I: i, J: j, Delta: d}
}

// RotationZ4 is a fourfold rotation about the z axis acting identically on
// cells and dipole components. Only valid for 3-channel (dipole) groups.
func RotationZ4(sublattices int) Op {
	op := identityOp(3, sublattices)
	op.Cell = [3][3]int{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	op.Spin = spin.FromRows([][]float64{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}})
	return op
}

// Inversion maps every displacement to its negative. Spins are axial
// vectors, so the dipole components are left unchanged.
func Inversion(sublattices int) Op {
	op := identityOp(3, sublattices)
	op.Cell = [3][3]int{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
	return op
}

// MirrorX reflects across the yz plane; dipole components transform as an
// axial vector (x fixed, y and z negated).
func MirrorX(sublattices int) Op {
	op := identityOp(3, sublattices)
	op.Cell = [3][3]int{{-1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	op.Spin = spin.FromRows([][]float64{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}})
	return op
}

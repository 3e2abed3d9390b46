package symmetry

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/meisenbach/spindyn/internal/lattice"
	"github.com/meisenbach/spindyn/internal/spin"
)

// AllowedBasis computes an orthonormal basis for the space of coupling
// tensors on bond b that are consistent with the group's local site
// symmetry. trSign is the sign a time-reversal-marked operation applies to
// the tensor (+1 for exchange; policy-dependent for anisotropy).
//
// Every stabilizer element g of b imposes the linear constraint
// J = T_g(J) with T_g(J) = sign * R J R^T, transposed additionally when g
// carries b onto its reverse. The averaged operator P = mean(T_g) projects
// onto the invariant subspace; its fixed vectors are recovered from the
// null space of P - I via SVD.
func AllowedBasis(g Group, b lattice.Bond, trSign float64) []*spin.Matrix {
	d := g.Dim()
	n := d * d

	stabilizer := stabilizerImages(g, b)

	p := mat.NewDense(n, n, nil)
	basisMat := spin.NewMatrix(d)
	for col := 0; col < n; col++ {
		for i := range basisMat.Data {
			basisMat.Data[i] = 0
		}
		basisMat.Data[col] = 1
		acc := spin.NewMatrix(d)
		for _, img := range stabilizer {
			t := TransformCoupling(img, b, basisMat, trSign)
			for i := range acc.Data {
				acc.Data[i] += t.Data[i]
			}
		}
		inv := 1.0 / float64(len(stabilizer))
		for row := 0; row < n; row++ {
			p.Set(row, col, acc.Data[row]*inv)
		}
	}

	for i := 0; i < n; i++ {
		p.Set(i, i, p.At(i, i)-1)
	}

	var svd mat.SVD
	if !svd.Factorize(p, mat.SVDFullV) {
		return nil
	}
	var v mat.Dense
	svd.VTo(&v)
	values := svd.Values(nil)

	const tol = 1e-9
	var basis []*spin.Matrix
	for col := 0; col < n; col++ {
		if values[col] > tol {
			continue
		}
		m := spin.NewMatrix(d)
		for row := 0; row < n; row++ {
			m.Data[row] = v.At(row, col)
		}
		basis = append(basis, m)
	}
	return basis
}

// stabilizerImages returns the orbit members that carry b onto itself or
// onto its reverse. The identity is always among them.
func stabilizerImages(g Group, b lattice.Bond) []Image {
	var stab []Image
	for _, img := range g.Orbit(b) {
		if img.Bond == b || img.Bond == b.Reversed() {
			stab = append(stab, img)
		}
	}
	return stab
}

// TransformCoupling applies an orbit image's tensor transformation to j:
// rotation conjugation, a transpose when the image traverses the bond
// backwards, and the time-reversal sign when the operation is marked.
func TransformCoupling(img Image, b lattice.Bond, j *spin.Matrix, trSign float64) *spin.Matrix {
	t := j.Conjugate(img.Rotation)
	if img.Bond == b.Reversed() && img.Bond != b {
		t = t.Transpose()
	}
	if img.TimeReversal && trSign != 1 {
		t = t.Scale(trSign)
	}
	return t
}

// FormatBasis renders a tensor basis for inclusion in validation errors.
func FormatBasis(basis []*spin.Matrix) string {
	if len(basis) == 0 {
		return "no coupling is allowed on this bond"
	}
	var sb strings.Builder
	for k, m := range basis {
		fmt.Fprintf(&sb, "basis[%d] =", k)
		for i := 0; i < m.Dim; i++ {
			sb.WriteString(" [")
			for j := 0; j < m.Dim; j++ {
				if j > 0 {
					sb.WriteByte(' ')
				}
				fmt.Fprintf(&sb, "%+.3f", clean(m.At(i, j)))
			}
			sb.WriteByte(']')
		}
		if k < len(basis)-1 {
			sb.WriteString("; ")
		}
	}
	return sb.String()
}

func clean(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 0
	}
	return x
}

package spin

import "math"

// Matrix is a dense square coupling tensor stored row-major. Dimension 3 for
// dipole couplings, N*N-1 for SU(N) channel couplings.
type Matrix struct {
	Dim  int
	Data []float64
}

func NewMatrix(dim int) *Matrix {
	return &Matrix{Dim: dim, Data: make([]float64, dim*dim)}
}

// Identity returns s times the identity matrix, the isotropic (Heisenberg)
// coupling.
func Identity(dim int, s float64) *Matrix {
	m := NewMatrix(dim)
	for i := 0; i < dim; i++ {
		m.Data[i*dim+i] = s
	}
	return m
}

// FromRows builds a matrix from row slices. All rows must have equal length.
func FromRows(rows [][]float64) *Matrix {
	dim := len(rows)
	m := NewMatrix(dim)
	for i, r := range rows {
		copy(m.Data[i*dim:(i+1)*dim], r)
	}
	return m
}

func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.Dim+j] }
func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.Dim+j] = v }

func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.Dim)
	copy(c.Data, m.Data)
	return c
}

// MulVec computes m*v into out. out must not alias v.
func (m *Matrix) MulVec(v Vec, out Vec) {
	d := m.Dim
	for i := 0; i < d; i++ {
		sum := 0.0
		row := m.Data[i*d : (i+1)*d]
		for j := 0; j < d; j++ {
			sum += row[j] * v[j]
		}
		out[i] = sum
	}
}

// TMulVec computes transpose(m)*v into out. out must not alias v.
func (m *Matrix) TMulVec(v Vec, out Vec) {
	d := m.Dim
	for i := range out {
		out[i] = 0
	}
	for i := 0; i < d; i++ {
		row := m.Data[i*d : (i+1)*d]
		for j := 0; j < d; j++ {
			out[j] += row[j] * v[i]
		}
	}
}

// Bilinear computes a . m . b.
func (m *Matrix) Bilinear(a, b Vec) float64 {
	d := m.Dim
	sum := 0.0
	for i := 0; i < d; i++ {
		row := m.Data[i*d : (i+1)*d]
		ai := a[i]
		for j := 0; j < d; j++ {
			sum += ai * row[j] * b[j]
		}
	}
	return sum
}

// Mul returns the matrix product m*other.
func (m *Matrix) Mul(other *Matrix) *Matrix {
	d := m.Dim
	out := NewMatrix(d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			sum := 0.0
			for k := 0; k < d; k++ {
				sum += m.At(i, k) * other.At(k, j)
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

// Transpose returns a new transposed matrix.
func (m *Matrix) Transpose() *Matrix {
	t := NewMatrix(m.Dim)
	for i := 0; i < m.Dim; i++ {
		for j := 0; j < m.Dim; j++ {
			t.Set(j, i, m.At(i, j))
		}
	}
	return t
}

// Conjugate computes r * m * transpose(r), the transform of a coupling
// tensor under the physical-component rotation r.
func (m *Matrix) Conjugate(r *Matrix) *Matrix {
	d := m.Dim
	tmp := NewMatrix(d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			sum := 0.0
			for k := 0; k < d; k++ {
				sum += r.At(i, k) * m.At(k, j)
			}
			tmp.Set(i, j, sum)
		}
	}
	out := NewMatrix(d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			sum := 0.0
			for k := 0; k < d; k++ {
				sum += tmp.At(i, k) * r.At(j, k)
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

func (m *Matrix) Scale(f float64) *Matrix {
	out := m.Clone()
	for i := range out.Data {
		out.Data[i] *= f
	}
	return out
}

// MaxDiff returns the largest absolute elementwise difference to other.
func (m *Matrix) MaxDiff(other *Matrix) float64 {
	max := 0.0
	for i := range m.Data {
		d := math.Abs(m.Data[i] - other.Data[i])
		if d > max {
			max = d
		}
	}
	return max
}

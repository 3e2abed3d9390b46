package spin

import (
	"math"
	"math/rand"
	"testing"
)

func TestVecOps(t *testing.T) {
	a := Vec{1, 0, 0}
	b := Vec{0, 1, 0}

	if got := a.Dot(b); got != 0 {
		t.Errorf("dot = %f, want 0", got)
	}
	c := a.Cross(b)
	if c[0] != 0 || c[1] != 0 || c[2] != 1 {
		t.Errorf("cross = %v, want (0,0,1)", c)
	}

	v := Vec{3, 4, 0}
	v.Rescale(1)
	if math.Abs(v.Norm()-1) > 1e-12 {
		t.Errorf("rescaled norm = %f, want 1", v.Norm())
	}
}

func TestRandomizePreservesMagnitude(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := NewConfiguration(Dipole, 64, 3, 1.5)
	c.Randomize(rng)

	for i, s := range c.Sites {
		if math.Abs(s.Norm()-1.5) > 1e-12 {
			t.Fatalf("site %d norm = %f, want 1.5", i, s.Norm())
		}
	}

	m := c.Magnetization().Norm()
	if m > 0.5 {
		t.Errorf("random configuration too ordered: |m| = %f", m)
	}
}

func TestModeChannels(t *testing.T) {
	if got := Dipole.Channels(2); got != 3 {
		t.Errorf("dipole channels = %d, want 3", got)
	}
	if got := SUN.Channels(3); got != 8 {
		t.Errorf("SU(3) channels = %d, want 8", got)
	}
}

func TestMatrixBilinear(t *testing.T) {
	m := FromRows([][]float64{
		{1, 2, 0},
		{0, 1, 0},
		{0, 0, 3},
	})
	a := Vec{1, 1, 1}
	b := Vec{1, 0, 2}

	// a . m . b = a . (1, 0, 6) + cross terms: m*b = (1, 0, 6)
	out := make(Vec, 3)
	m.MulVec(b, out)
	if out[0] != 1 || out[1] != 0 || out[2] != 6 {
		t.Fatalf("m*b = %v, want (1,0,6)", out)
	}
	if got := m.Bilinear(a, b); got != 7 {
		t.Errorf("bilinear = %f, want 7", got)
	}

	m.TMulVec(a, out)
	if got := out[0]*b[0] + out[1]*b[1] + out[2]*b[2]; got != 7 {
		t.Errorf("transpose contraction = %f, want 7", got)
	}
}

func TestMatrixConjugateOrthogonal(t *testing.T) {
	// 90 degree rotation about z.
	r := FromRows([][]float64{
		{0, -1, 0},
		{1, 0, 0},
		{0, 0, 1},
	})
	j := FromRows([][]float64{
		{1, 0, 0},
		{0, 2, 0},
		{0, 0, 3},
	})

	got := j.Conjugate(r)
	want := FromRows([][]float64{
		{2, 0, 0},
		{0, 1, 0},
		{0, 0, 3},
	})
	if got.MaxDiff(want) > 1e-12 {
		t.Errorf("conjugated tensor = %v, want %v", got.Data, want.Data)
	}
}

func TestConfigurationClone(t *testing.T) {
	c := NewConfiguration(Dipole, 4, 3, 1)
	clone := c.Clone()
	clone.Sites[0][0] = 42
	if c.Sites[0][0] == 42 {
		t.Error("clone shares storage with original")
	}
}

package spin

import (
	"math"
	"math/rand"
)

// Vec is a spin state vector. Length 3 in dipole mode, N*N-1 in SU(N)
// coherent-state mode.
type Vec []float64

func (v Vec) Clone() Vec {
	c := make(Vec, len(v))
	copy(c, v)
	return c
}

func (v Vec) Dot(other Vec) float64 {
	sum := 0.0
	for i := range v {
		sum += v[i] * other[i]
	}
	return sum
}

func (v Vec) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vec) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Cross computes v x other. Only defined for 3-component vectors.
func (v Vec) Cross(other Vec) Vec {
	return Vec{
		v[1]*other[2] - v[2]*other[1],
		v[2]*other[0] - v[0]*other[2],
		v[0]*other[1] - v[1]*other[0],
	}
}

// Rescale sets the vector length to mag in place. A zero vector is left
// untouched.
func (v Vec) Rescale(mag float64) {
	n := v.Norm()
	if n == 0 {
		return
	}
	f := mag / n
	for i := range v {
		v[i] *= f
	}
}

// Mode selects the spin representation.
type Mode int

const (
	// Dipole treats each site as a classical 3-vector of fixed length.
	Dipole Mode = iota
	// SUN treats each site as an SU(N) coherent state with N*N-1
	// expectation-value channels.
	SUN
)

func (m Mode) String() string {
	if m == SUN {
		return "sun"
	}
	return "dipole"
}

// Channels returns the number of independent spin channels for the mode:
// 3 for dipole, N*N-1 for an N-level coherent state.
func (m Mode) Channels(levels int) int {
	if m == SUN {
		return levels*levels - 1
	}
	return 3
}

// Configuration holds one state vector per lattice site. Mutated in place by
// randomization and by the Langevin integrator; never resized after
// construction.
type Configuration struct {
	Mode      Mode
	Magnitude float64
	Sites     []Vec
}

// NewConfiguration allocates numSites state vectors of dim components, each
// polarized along the last axis with length mag.
func NewConfiguration(mode Mode, numSites, dim int, mag float64) *Configuration {
	sites := make([]Vec, numSites)
	for i := range sites {
		sites[i] = make(Vec, dim)
		sites[i][dim-1] = mag
	}
	return &Configuration{Mode: mode, Magnitude: mag, Sites: sites}
}

func (c *Configuration) NumSites() int { return len(c.Sites) }

func (c *Configuration) Dim() int {
	if len(c.Sites) == 0 {
		return 0
	}
	return len(c.Sites[0])
}

func (c *Configuration) Clone() *Configuration {
	sites := make([]Vec, len(c.Sites))
	for i, s := range c.Sites {
		sites[i] = s.Clone()
	}
	return &Configuration{Mode: c.Mode, Magnitude: c.Magnitude, Sites: sites}
}

func (c *Configuration) IsValid() bool {
	for _, s := range c.Sites {
		if !s.IsValid() {
			return false
		}
	}
	return true
}

// Randomize draws an independent uniformly distributed direction for every
// site, preserving the fixed magnitude. Directions come from normalized
// Gaussian draws, which are uniform on the sphere in any dimension.
func (c *Configuration) Randomize(rng *rand.Rand) {
	for _, s := range c.Sites {
		for i := range s {
			s[i] = rng.NormFloat64()
		}
		if s.Norm() == 0 {
			s[len(s)-1] = 1
		}
		s.Rescale(c.Magnitude)
	}
}

// Polarize points every site along dir, rescaled to the fixed magnitude.
func (c *Configuration) Polarize(dir Vec) {
	for _, s := range c.Sites {
		copy(s, dir)
		s.Rescale(c.Magnitude)
	}
}

// Magnetization returns the per-site average of the state vectors.
func (c *Configuration) Magnetization() Vec {
	m := make(Vec, c.Dim())
	for _, s := range c.Sites {
		for i := range m {
			m[i] += s[i]
		}
	}
	n := float64(len(c.Sites))
	for i := range m {
		m[i] /= n
	}
	return m
}

// Metric observes sampled configurations and reduces them to a scalar.
type Metric interface {
	Name() string
	Observe(c *Configuration)
	Value() float64
	Reset()
}

// Observer receives every decorrelated configuration produced by a sampler.
type Observer interface {
	OnSample(c *Configuration, idx int)
}

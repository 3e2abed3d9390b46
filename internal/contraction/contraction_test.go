package contraction_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/meisenbach/spindyn/internal/contraction"
	"github.com/meisenbach/spindyn/internal/spin"
)

// dipoleMap stores the six Hermitian-reduced channel pairs of dipole mode.
func dipoleMap() contraction.IndexMap {
	im := make(contraction.IndexMap)
	slot := 0
	for a := 0; a < 3; a++ {
		for b := a; b < 3; b++ {
			im[contraction.ChannelPair{Alpha: a, Beta: b}] = slot
			slot++
		}
	}
	return im
}

var _ = Describe("Trace", func() {
	It("sums the absolute values of all diagonal slots", func() {
		im := dipoleMap()
		c, err := contraction.NewTrace(im, 3)
		Expect(err).NotTo(HaveOccurred())

		row := make(contraction.Row, len(im))
		row[im[contraction.ChannelPair{Alpha: 0, Beta: 0}]] = complex(3, 4) // abs 5
		row[im[contraction.ChannelPair{Alpha: 1, Beta: 1}]] = complex(-2, 0)
		row[im[contraction.ChannelPair{Alpha: 2, Beta: 2}]] = complex(0, 1)
		// Off-diagonal values must not contribute.
		row[im[contraction.ChannelPair{Alpha: 0, Beta: 1}]] = complex(100, 100)

		Expect(c.Contract(row, [3]float64{0, 0, 1})).To(BeNumerically("~", 8, 1e-12))
	})

	It("handles the SU(3) channel count", func() {
		im := make(contraction.IndexMap)
		for a := 0; a < 8; a++ {
			im[contraction.ChannelPair{Alpha: a, Beta: a}] = a
		}
		c, err := contraction.NewTrace(im, 8)
		Expect(err).NotTo(HaveOccurred())

		row := make(contraction.Row, 8)
		for a := range row {
			row[a] = complex(1, 0)
		}
		Expect(c.Contract(row, [3]float64{})).To(BeNumerically("~", 8, 1e-12))
	})

	It("rejects an incomplete diagonal set", func() {
		im := dipoleMap()
		delete(im, contraction.ChannelPair{Alpha: 1, Beta: 1})

		_, err := contraction.NewTrace(im, 3)
		Expect(err).To(MatchError(spin.ErrIncompleteDiagonal))
	})
})

var _ = Describe("Depolarize", func() {
	It("is invariant across axes for an isotropic tensor", func() {
		im := dipoleMap()
		c, err := contraction.NewDepolarize(im)
		Expect(err).NotTo(HaveOccurred())

		row := make(contraction.Row, len(im))
		for a := 0; a < 3; a++ {
			row[im[contraction.ChannelPair{Alpha: a, Beta: a}]] = complex(1.5, 0.3)
		}

		axes := [][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
		var vals []float64
		for _, q := range axes {
			vals = append(vals, c.Contract(row, q))
		}
		// The projector removes the channel along q: trace drops from 3 to 2.
		Expect(vals[0]).To(BeNumerically("~", 2*1.5, 1e-9))
		Expect(vals[1]).To(BeNumerically("~", vals[0], 1e-9))
		Expect(vals[2]).To(BeNumerically("~", vals[0], 1e-9))
	})

	It("stays finite at zero momentum transfer", func() {
		c, err := contraction.NewDepolarize(dipoleMap())
		Expect(err).NotTo(HaveOccurred())

		row := make(contraction.Row, 6)
		for i := range row {
			row[i] = complex(1, 0)
		}
		v := c.Contract(row, [3]float64{0, 0, 0})
		Expect(math.IsNaN(v)).To(BeFalse())
		Expect(math.IsInf(v, 0)).To(BeFalse())
	})

	It("doubles stored off-diagonal pairs", func() {
		im := contraction.IndexMap{
			{Alpha: 0, Beta: 0}: 0,
			{Alpha: 0, Beta: 1}: 1,
		}
		c, err := contraction.NewDepolarize(im)
		Expect(err).NotTo(HaveOccurred())

		row := contraction.Row{0, complex(1, 0)}
		// q along z: projector is identity on the xy block, so the stored
		// (0,1) pair contributes 2 * proj(0,1) * 1 = 0; tilt q to mix axes.
		q := [3]float64{1, 1, 0}
		// projector(0,1) = -qx*qy/|q|^2 = -0.5
		Expect(c.Contract(row, q)).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("rejects channel pairs outside the dipole sector", func() {
		im := contraction.IndexMap{{Alpha: 3, Beta: 3}: 0}
		_, err := contraction.NewDepolarize(im)
		Expect(err).To(MatchError(spin.ErrDimensionMismatch))
	})
})

var _ = Describe("Element", func() {
	It("returns the absolute value of the selected slot", func() {
		im := dipoleMap()
		c, err := contraction.NewElement(im, 0, 1)
		Expect(err).NotTo(HaveOccurred())

		row := make(contraction.Row, len(im))
		row[im[contraction.ChannelPair{Alpha: 0, Beta: 1}]] = complex(3, -4)
		Expect(c.Contract(row, [3]float64{0, 0, 1})).To(BeNumerically("~", 5, 1e-12))
	})

	It("falls back to the Hermitian-conjugate pair", func() {
		im := dipoleMap()
		c, err := contraction.NewElement(im, 1, 0)
		Expect(err).NotTo(HaveOccurred())

		row := make(contraction.Row, len(im))
		row[im[contraction.ChannelPair{Alpha: 0, Beta: 1}]] = complex(0, 2)
		Expect(c.Contract(row, [3]float64{})).To(BeNumerically("~", 2, 1e-12))
	})

	It("rejects a pair that is not stored", func() {
		im := contraction.IndexMap{{Alpha: 0, Beta: 0}: 0}
		_, err := contraction.NewElement(im, 1, 2)
		Expect(err).To(HaveOccurred())
	})
})

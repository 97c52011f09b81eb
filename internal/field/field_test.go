package field_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/expr"
	"github.com/san-kum/popdyn/internal/field"
)

var _ = Describe("Evaluator", func() {
	var eval *field.Evaluator

	BeforeEach(func() {
		eval = field.NewEvaluator(field.DefaultMaxResolution)
	})

	spec := func(dx, dy string, n int) field.Spec {
		return field.Spec{DX: dx, DY: dy, RangeX: 5, RangeY: 5, Resolution: n}
	}

	Describe("grid layout", func() {
		It("puts X along columns and Y along rows", func() {
			s, err := eval.Evaluate(field.Spec{DX: "1", DY: "0", RangeX: 2, RangeY: 4, Resolution: 3})
			Expect(err).NotTo(HaveOccurred())

			Expect(s.X).To(HaveLen(3))
			Expect(s.X[0]).To(Equal([]float64{-2, 0, 2}))
			Expect(s.X[2]).To(Equal([]float64{-2, 0, 2}))
			Expect(s.Y[0]).To(Equal([]float64{-4, -4, -4}))
			Expect(s.Y[2]).To(Equal([]float64{4, 4, 4}))
		})

		It("computes the arrow scale from the smaller range", func() {
			s, err := eval.Evaluate(field.Spec{DX: "Y", DY: "-X", RangeX: 3, RangeY: 6, Resolution: 20})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Scale).To(BeNumerically("~", 3.0/(20*1.5), 1e-15))
		})
	})

	Describe("rotation dx=Y, dy=-X", func() {
		It("is perpendicular to the position vector everywhere", func() {
			s, err := eval.Evaluate(spec("Y", "-X", 21))
			Expect(err).NotTo(HaveOccurred())

			for i := range s.X {
				for j := range s.X[i] {
					dot := s.X[i][j]*s.UnitDX[i][j] + s.Y[i][j]*s.UnitDY[i][j]
					Expect(dot).To(BeNumerically("~", 0, 1e-12))
				}
			}
		})

		It("yields a zero vector at the origin", func() {
			s, err := eval.Evaluate(spec("Y", "-X", 21))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.X[10][10]).To(Equal(0.0))
			Expect(s.Y[10][10]).To(Equal(0.0))
			Expect(s.UnitDX[10][10]).To(Equal(0.0))
			Expect(s.UnitDY[10][10]).To(Equal(0.0))
			Expect(s.Magnitude[10][10]).To(Equal(0.0))
		})
	})

	Describe("source dx=X, dy=Y", func() {
		It("points radially outward with unit length", func() {
			s, err := eval.Evaluate(spec("X", "Y", 10))
			Expect(err).NotTo(HaveOccurred())

			for i := range s.X {
				for j := range s.X[i] {
					r := math.Hypot(s.X[i][j], s.Y[i][j])
					Expect(s.UnitDX[i][j]).To(BeNumerically("~", s.X[i][j]/r, 1e-12))
					Expect(s.UnitDY[i][j]).To(BeNumerically("~", s.Y[i][j]/r, 1e-12))
					Expect(math.Hypot(s.UnitDX[i][j], s.UnitDY[i][j])).To(BeNumerically("~", 1, 1e-12))
					Expect(s.ArrowDX[i][j]).To(BeNumerically("~", s.UnitDX[i][j]*s.Scale, 1e-15))
				}
			}
		})
	})

	Describe("non-finite values", func() {
		It("replaces them by zero instead of propagating NaN", func() {
			s, err := eval.Evaluate(spec("1/X", "log(Y)", 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.NonFinite).To(BeNumerically(">", 0))

			for i := range s.UnitDX {
				for j := range s.UnitDX[i] {
					Expect(math.IsNaN(s.UnitDX[i][j])).To(BeFalse())
					Expect(math.IsNaN(s.UnitDY[i][j])).To(BeFalse())
				}
			}
			// X = 0 column: 1/X is Inf and dropped, log(Y) at Y = 5 is kept.
			Expect(s.UnitDX[2][1]).To(Equal(0.0))
			Expect(s.UnitDY[2][1]).To(Equal(1.0))
		})

		It("samples a single point at the lower corner", func() {
			s, err := eval.Evaluate(spec("Y", "-X", 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.X).To(Equal([][]float64{{-5}}))
			Expect(s.Y).To(Equal([][]float64{{-5}}))
			Expect(s.Scale).To(BeNumerically("~", 5/1.5, 1e-12))
			Expect(s.UnitDX[0][0]).To(BeNumerically("~", -math.Sqrt2/2, 1e-12))
			Expect(s.UnitDY[0][0]).To(BeNumerically("~", math.Sqrt2/2, 1e-12))
		})

		It("turns a constant NaN field into zero vectors", func() {
			s, err := eval.Evaluate(spec("sqrt(-1)", "0", 4))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.NonFinite).To(Equal(16))
			Expect(s.UnitDX[1][1]).To(Equal(0.0))
		})
	})

	Describe("validation", func() {
		DescribeTable("rejects bad grid parameters",
			func(s field.Spec, name string) {
				_, err := eval.Evaluate(s)
				Expect(errors.Is(err, dynamo.ErrInvalidParameters)).To(BeTrue())

				var perr *dynamo.ParameterError
				Expect(errors.As(err, &perr)).To(BeTrue())
				Expect(perr.Name).To(Equal(name))
			},
			Entry("zero range_x", field.Spec{DX: "Y", DY: "-X", RangeX: 0, RangeY: 5, Resolution: 20}, "range_x"),
			Entry("negative range_y", field.Spec{DX: "Y", DY: "-X", RangeX: 5, RangeY: -1, Resolution: 20}, "range_y"),
			Entry("NaN range", field.Spec{DX: "Y", DY: "-X", RangeX: math.NaN(), RangeY: 5, Resolution: 20}, "range_x"),
			Entry("zero resolution", field.Spec{DX: "Y", DY: "-X", RangeX: 5, RangeY: 5, Resolution: 0}, "resolution"),
			Entry("negative resolution", field.Spec{DX: "Y", DY: "-X", RangeX: 5, RangeY: 5, Resolution: -3}, "resolution"),
			Entry("resolution too large", field.Spec{DX: "Y", DY: "-X", RangeX: 5, RangeY: 5, Resolution: 51}, "resolution"),
		)

		It("honors a configured maximum resolution", func() {
			small := field.NewEvaluator(10)
			_, err := small.Evaluate(spec("Y", "-X", 11))
			Expect(errors.Is(err, dynamo.ErrInvalidParameters)).To(BeTrue())

			_, err = small.Evaluate(spec("Y", "-X", 10))
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports which expression failed to parse", func() {
			_, err := eval.Evaluate(spec("Y", "-X + Z", 5))
			Expect(errors.Is(err, dynamo.ErrExpression)).To(BeTrue())
			Expect(err.Error()).To(HavePrefix("expr_dy: "))

			var perr *expr.Error
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Pos).To(Equal(5))
		})

		It("rejects names outside the whitelist", func() {
			_, err := eval.Evaluate(spec("__import__", "0", 5))
			Expect(errors.Is(err, dynamo.ErrExpression)).To(BeTrue())
		})
	})

	It("is deterministic", func() {
		a, err := eval.Evaluate(spec("Y*(X**2 + Y**2)", "-X*(X**2 + Y**2)", 20))
		Expect(err).NotTo(HaveOccurred())
		b, err := eval.Evaluate(spec("Y*(X**2 + Y**2)", "-X*(X**2 + Y**2)", 20))
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})
})

var _ = Describe("Linspace", func() {
	It("includes both ends", func() {
		v := field.Linspace(-5, 5, 11)
		Expect(v[0]).To(Equal(-5.0))
		Expect(v[10]).To(Equal(5.0))
		Expect(v[5]).To(BeNumerically("~", 0, 1e-15))
	})
})

package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestClamp(t *testing.T) {
	test.That(t, ClampInt(-3, 0, 10), test.ShouldEqual, 0)
	test.That(t, ClampInt(12, 0, 10), test.ShouldEqual, 10)
	test.That(t, ClampInt(4, 0, 10), test.ShouldEqual, 4)
	test.That(t, ClampF64(1.5, 0, 1), test.ShouldEqual, 1.0)
	test.That(t, ClampF64(-0.5, 0, 1), test.ShouldEqual, 0.0)
}

func TestModAngRad(t *testing.T) {
	test.That(t, ModAngRad(-math.Pi/2), test.ShouldAlmostEqual, 3*math.Pi/2)
	test.That(t, ModAngRad(5*math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, ModAngRad(0), test.ShouldEqual, 0.0)
}

func TestGaussian(t *testing.T) {
	test.That(t, Gaussian(0, 0, 2), test.ShouldEqual, 1.0)
	test.That(t, Gaussian(2, 0, 2), test.ShouldAlmostEqual, math.Exp(-0.5))
	test.That(t, RoundInt(2.5), test.ShouldEqual, 3)
	test.That(t, RoundInt(-2.5), test.ShouldEqual, -3)
}

package rimage

import (
	"image"
	"image/color"
	"testing"

	"gonum.org/v1/gonum/mat"
	"go.viam.com/test"
)

func TestGrayToFloat64(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 3))
	img.SetGray(1, 2, color.Gray{255})
	img.SetGray(3, 0, color.Gray{51})
	m := GrayToFloat64(img)
	r, c := m.Dims()
	test.That(t, r, test.ShouldEqual, 3)
	test.That(t, c, test.ShouldEqual, 4)
	test.That(t, m.At(2, 1), test.ShouldEqual, 1.0)
	test.That(t, m.At(0, 3), test.ShouldAlmostEqual, 0.2)
	test.That(t, m.At(0, 0), test.ShouldEqual, 0.0)
}

func TestHalfSample(t *testing.T) {
	m := mat.NewDense(4, 5, []float64{
		1, 3, 0, 0, 9,
		1, 3, 0, 4, 9,
		2, 2, 8, 8, 9,
		2, 2, 8, 8, 9,
	})
	half := HalfSample(m)
	r, c := half.Dims()
	test.That(t, r, test.ShouldEqual, 2)
	test.That(t, c, test.ShouldEqual, 2)
	test.That(t, half.At(0, 0), test.ShouldEqual, 2.0)
	test.That(t, half.At(0, 1), test.ShouldEqual, 1.0)
	test.That(t, half.At(1, 1), test.ShouldEqual, 8.0)
}

func TestBilinearAt(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0, 1, 2, 3})
	test.That(t, BilinearAt(m, 0, 0), test.ShouldEqual, 0.0)
	test.That(t, BilinearAt(m, 0.5, 0.5), test.ShouldAlmostEqual, 1.5)
	test.That(t, BilinearAt(m, 1, 0.5), test.ShouldAlmostEqual, 2.0)
	// clamped outside
	test.That(t, BilinearAt(m, 10, 10), test.ShouldEqual, 3.0)
	test.That(t, BilinearAt(m, -4, 0), test.ShouldEqual, 0.0)
}

func TestSameImgSize(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 10, 5))
	b := image.NewGray(image.Rect(2, 2, 12, 7))
	c := image.NewGray(image.Rect(0, 0, 5, 10))
	test.That(t, SameImgSize(a, b), test.ShouldBeTrue)
	test.That(t, SameImgSize(a, c), test.ShouldBeFalse)
	test.That(t, GrayAtClamped(a, -1, 100), test.ShouldEqual, uint8(0))
}

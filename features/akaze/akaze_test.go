package akaze

import (
	"image"
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"go.viam.com/test"

	"go.viam.com/describer/features"
)

// createBlobImage draws a bright gaussian blob of the given sigma centered on (cx, cy).
func createBlobImage(w, h int, cx, cy, sigma float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			v := 255 * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			img.SetGray(x, y, color.Gray{uint8(math.Round(v))})
		}
	}
	return img
}

func newTestEvolution(w, h int, lt, lx, ly func(x, y float64) float64) *Evolution {
	fill := func(f func(x, y float64) float64) *mat.Dense {
		m := mat.NewDense(h, w, nil)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m.Set(y, x, f(float64(x), float64(y)))
			}
		}
		return m
	}
	return &Evolution{
		Lt:        fill(lt),
		Lx:        fill(lx),
		Ly:        fill(ly),
		Ldet:      mat.NewDense(h, w, nil),
		Esigma:    1.6,
		Etime:     1.28,
		SigmaSize: 2,
	}
}

func constant(v float64) func(x, y float64) float64 {
	return func(x, y float64) float64 { return v }
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate("path"), test.ShouldBeNil)
	test.That(t, cfg.Threshold, test.ShouldEqual, 0.0008)

	cfg.NumOctaves = 0
	cfg.ContrastPercentile = 1.5
	err := cfg.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "num_octaves")
	test.That(t, err.Error(), test.ShouldContainSubstring, "contrast_percentile")
}

func TestComputeScaleSpace(t *testing.T) {
	img := createBlobImage(64, 64, 32, 32, 4)
	evolutions, err := ComputeScaleSpace(img, DefaultConfig())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(evolutions), test.ShouldEqual, 16)
	for i, ev := range evolutions {
		test.That(t, ev.Octave, test.ShouldEqual, i/4)
		test.That(t, ev.Sublevel, test.ShouldEqual, i%4)
		r, c := ev.Lt.Dims()
		test.That(t, r, test.ShouldEqual, 64>>ev.Octave)
		test.That(t, c, test.ShouldEqual, 64>>ev.Octave)
		test.That(t, ev.SigmaSize, test.ShouldBeGreaterThanOrEqualTo, 1)
		if i > 0 {
			test.That(t, ev.Esigma, test.ShouldBeGreaterThan, evolutions[i-1].Esigma)
		}
	}

	// octaves stop once the image gets too small
	evolutions, err = ComputeScaleSpace(createBlobImage(20, 20, 10, 10, 2), DefaultConfig())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(evolutions), test.ShouldEqual, 8)

	_, err = ComputeScaleSpace(image.NewGray(image.Rect(0, 0, 4, 4)), DefaultConfig())
	test.That(t, err, test.ShouldNotBeNil)

	bad := DefaultConfig()
	bad.Sigma0 = 0
	_, err = ComputeScaleSpace(img, bad)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestContrastFactor(t *testing.T) {
	k, err := ContrastFactor(mat.NewDense(10, 10, nil), 0.7)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, k, test.ShouldEqual, defaultContrastFactor)

	m := mat.NewDense(10, 10, nil)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			m.Set(y, x, 0.01*float64(x))
		}
	}
	k, err = ContrastFactor(m, 0.7)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, k, test.ShouldBeGreaterThan, 0)
	test.That(t, k, test.ShouldBeLessThanOrEqualTo, 0.01+1e-9)
}

func TestDetectFlatImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	kps, evolutions, err := Detector{}.Detect(img, DefaultConfig(), 10*math.Sqrt2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kps, test.ShouldBeEmpty)
	test.That(t, evolutions, test.ShouldNotBeEmpty)
}

func TestDetectBlob(t *testing.T) {
	img := createBlobImage(96, 96, 48, 48, 4)
	det := Detector{}
	factor := 10 * math.Sqrt2
	kps, evolutions, err := det.Detect(img, DefaultConfig(), factor)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kps, test.ShouldNotBeEmpty)

	near := 0
	for _, kp := range kps {
		ev := evolutions[kp.ClassID]
		test.That(t, kp.Octave, test.ShouldEqual, ev.Octave)
		test.That(t, kp.Size, test.ShouldAlmostEqual, factor*ev.Esigma)
		test.That(t, kp.Response, test.ShouldBeGreaterThan, DefaultConfig().Threshold)
		if math.Hypot(kp.X-48, kp.Y-48) <= 3 {
			near++
		}
	}
	test.That(t, near, test.ShouldBeGreaterThan, 0)

	refined := det.RefineSubpixel(kps, evolutions)
	test.That(t, len(refined), test.ShouldBeLessThanOrEqualTo, len(kps))
	for _, kp := range refined {
		test.That(t, kp.X, test.ShouldBeBetween, 0.0, 96.0)
		test.That(t, kp.Y, test.ShouldBeBetween, 0.0, 96.0)
	}
	// the input is left untouched
	again, _, err := det.Detect(img, DefaultConfig(), factor)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldResemble, kps)

	// a higher threshold never finds more keypoints
	strict := DefaultConfig()
	strict.Threshold *= 100
	fewer, _, err := det.Detect(img, strict, factor)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(fewer), test.ShouldBeLessThanOrEqualTo, len(kps))
}

func TestRefineSubpixelDropsBorder(t *testing.T) {
	ev := newTestEvolution(10, 10, constant(0), constant(0), constant(0))
	kps := []Keypoint{{X: 0, Y: 5, ClassID: 0}, {X: 9, Y: 9, ClassID: 0}}
	refined := Detector{}.RefineSubpixel(kps, []*Evolution{ev})
	test.That(t, refined, test.ShouldBeEmpty)
}

func TestRefineSubpixelQuadratic(t *testing.T) {
	// Ldet is a paraboloid with its maximum at (5.3, 4.8)
	ev := newTestEvolution(12, 12, constant(0), constant(0), constant(0))
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			dx, dy := float64(x)-5.3, float64(y)-4.8
			ev.Ldet.Set(y, x, 1-dx*dx-dy*dy)
		}
	}
	kps := []Keypoint{{X: 5, Y: 5, ClassID: 0}}
	refined := Detector{}.RefineSubpixel(kps, []*Evolution{ev})
	test.That(t, len(refined), test.ShouldEqual, 1)
	test.That(t, refined[0].X, test.ShouldAlmostEqual, 5.3)
	test.That(t, refined[0].Y, test.ShouldAlmostEqual, 4.8)
	test.That(t, kps[0].X, test.ShouldEqual, 5.0)
}

func TestMainOrientation(t *testing.T) {
	det := Detector{}
	kp := Keypoint{X: 20, Y: 20}

	ev := newTestEvolution(40, 40, constant(0), constant(1), constant(0))
	test.That(t, det.MainOrientation(kp, ev), test.ShouldAlmostEqual, 0)

	ev = newTestEvolution(40, 40, constant(0), constant(0), constant(1))
	test.That(t, det.MainOrientation(kp, ev), test.ShouldAlmostEqual, math.Pi/2)

	ev = newTestEvolution(40, 40, constant(0), constant(-1), constant(-1))
	test.That(t, det.MainOrientation(kp, ev), test.ShouldAlmostEqual, 5*math.Pi/4)

	ev = newTestEvolution(40, 40, constant(0), constant(0), constant(0))
	test.That(t, det.MainOrientation(kp, ev), test.ShouldEqual, 0.0)
}

func TestMSURFDescriptor(t *testing.T) {
	f := features.NewPointFeature(20, 20, 1.6*10*math.Sqrt2, 0)

	flat := newTestEvolution(40, 40, constant(0), constant(0), constant(0))
	desc := ComputeMSURFDescriptor(flat, 0, f)
	test.That(t, desc, test.ShouldResemble, features.FloatDescriptor{})

	ramp := newTestEvolution(40, 40, func(x, y float64) float64 { return x / 40 }, constant(0.5), constant(0))
	desc = ComputeMSURFDescriptor(ramp, 0, f)
	vals := make([]float64, len(desc))
	for i, v := range desc {
		vals[i] = float64(v)
	}
	test.That(t, floats.Norm(vals, 2), test.ShouldAlmostEqual, 1.0, 1e-5)
	// with orientation 0 an x gradient only feeds the dy and |dy| entries
	for i := 0; i < 64; i += 4 {
		test.That(t, desc[i], test.ShouldAlmostEqual, 0, 1e-6)
		test.That(t, desc[i+1], test.ShouldBeGreaterThan, 0)
		test.That(t, desc[i+1], test.ShouldAlmostEqual, desc[i+3], 1e-6)
	}
	test.That(t, ComputeMSURFDescriptor(ramp, 0, f), test.ShouldResemble, desc)
}

func TestMLDBDescriptor(t *testing.T) {
	f := features.NewPointFeature(30, 30, 1.6*11*math.Sqrt2, 0)

	flat := newTestEvolution(60, 60, constant(0), constant(0), constant(0))
	bits := ComputeMLDBDescriptor(flat, 0, f)
	for _, b := range bits {
		test.That(t, b, test.ShouldBeFalse)
	}

	ramp := newTestEvolution(60, 60, func(x, y float64) float64 { return x / 60 }, constant(0), constant(0))
	bits = ComputeMLDBDescriptor(ramp, 0, f)
	// 2x2 grid, pair (0,1): left cell against right cell
	test.That(t, bits[0], test.ShouldBeFalse)
	// 2x2 grid, pair (1,2): top right cell against bottom left cell
	test.That(t, bits[9], test.ShouldBeTrue)
	test.That(t, ComputeMLDBDescriptor(ramp, 0, f), test.ShouldResemble, bits)
}

package rimage

import (
	"image"
	// register decoders used by feature benchmark datasets.
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "github.com/lmittmann/ppm" // register ppm/pgm
	"github.com/pkg/errors"
	_ "github.com/xfmoulet/qoi" // register qoi
	"go.viam.com/utils"
	_ "golang.org/x/image/bmp"  // register bmp
	_ "golang.org/x/image/tiff" // register tiff
)

// ToGray converts any image to an 8-bit gray image whose bounds start at the origin.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+4*b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[4*x]
		}
	}
	return out
}

// DecodeGray decodes an image in any registered format and converts it to gray.
func DecodeGray(r io.Reader) (*image.Gray, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode image")
	}
	return ToGray(img), nil
}

// ReadGrayFromFile reads an image file and converts it to gray.
func ReadGrayFromFile(fn string) (*image.Gray, error) {
	//nolint:gosec
	f, err := os.Open(filepath.Clean(fn))
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	img, err := DecodeGray(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", fn)
	}
	return img, nil
}

// ReadMaskFromFile reads a mask image. Nonzero pixels mark excluded regions.
func ReadMaskFromFile(fn string) (*image.Gray, error) {
	return ReadGrayFromFile(fn)
}

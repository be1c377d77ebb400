package main

import (
	"image"

	"github.com/nfnt/resize"

	"go.viam.com/describer/features"
	"go.viam.com/describer/rimage"
)

// downscale shrinks img and mask so their largest side is maxDim. It returns the factor
// mapping the new coordinates back to the input ones.
func downscale(img, mask *image.Gray, maxDim int) (*image.Gray, *image.Gray, float64) {
	b := img.Bounds()
	longest := b.Dx()
	if b.Dy() > longest {
		longest = b.Dy()
	}
	if maxDim <= 0 || longest <= maxDim {
		return img, mask, 1
	}
	scale := float64(longest) / float64(maxDim)
	w := uint(float64(b.Dx())/scale + 0.5)
	h := uint(float64(b.Dy())/scale + 0.5)
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	small := rimage.ToGray(resize.Resize(w, h, img, resize.Bilinear))
	if mask != nil {
		mask = rimage.ToGray(resize.Resize(w, h, mask, resize.NearestNeighbor))
	}
	return small, mask, scale
}

// rescaleFeatures maps features found on a downscaled image back to the input image.
func rescaleFeatures(feats []features.PointFeature, scale float64) {
	if scale == 1 {
		return
	}
	s := float32(scale)
	for i := range feats {
		if feats[i].IsZero() {
			continue
		}
		feats[i].X *= s
		feats[i].Y *= s
		feats[i].Scale *= s
	}
}

// Package similarity estimates whether two photos show the same vehicle.
//
// Both images are stretched to Size×Size, converted to luma, and reduced to a
// normalized 256-bucket histogram. The score is the histogram intersection:
// 1 for identical distributions, 0 for disjoint ones. It ignores geometry and
// color hue entirely, so it is an advisory signal and never proof of identity.
package similarity

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/imageutil"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
)

const (
	// Size is the side length both images are resampled to.
	Size = 64

	// Buckets is the number of histogram bins, one per gray level.
	Buckets = 256

	pixelCount = Size * Size
)

// Score is a similarity in [0, 1].
type Score float64

// Histogram holds the fraction of pixels at each gray level. Entries sum to 1.
type Histogram [Buckets]float64

// Compare scores two encoded images. If either cannot be decoded the score
// is 0, which is indistinguishable from "very different"; use CompareStrict
// when the caller needs to tell the two apart.
func Compare(a, b []byte) Score {
	score, err := CompareStrict(a, b)
	if err != nil {
		logger.Global().Module("similarity").Warn("Similarity check unavailable, scoring 0",
			logger.Error(err))
		return 0
	}
	return score
}

// CompareStrict scores two encoded images and returns an *imageutil.DecodeError
// when either image cannot be decoded.
func CompareStrict(a, b []byte) (Score, error) {
	imgA, _, err := imageutil.Decode(a)
	if err != nil {
		return 0, err
	}
	imgB, _, err := imageutil.Decode(b)
	if err != nil {
		return 0, err
	}
	return CompareImages(imgA, imgB), nil
}

// CompareImages scores two decoded images.
func CompareImages(a, b image.Image) Score {
	ha := HistogramOf(a)
	hb := HistogramOf(b)
	return Intersection(&ha, &hb)
}

// HistogramOf stretches img to Size×Size, ignoring aspect ratio, and returns
// its normalized gray-level histogram.
func HistogramOf(img image.Image) Histogram {
	var counts [Buckets]int

	// NRGBA keeps color channels unpremultiplied, matching what a canvas reports
	small := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	draw.BiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	pix := small.Pix
	for i := 0; i < len(pix); i += 4 {
		counts[Gray(pix[i], pix[i+1], pix[i+2])]++
	}

	var h Histogram
	for i, c := range counts {
		h[i] = float64(c) / pixelCount
	}
	return h
}

// Gray returns round(0.299R + 0.587G + 0.114B), clamped to [0, 255].
func Gray(r, g, b uint8) uint8 {
	v := math.Round(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Intersection returns the sum over buckets of min(a[i], b[i]).
func Intersection(a, b *Histogram) Score {
	var sum float64
	for i := range a {
		sum += math.Min(a[i], b[i])
	}
	return Score(sum)
}

package motion

import (
	"image"

	"gocv.io/x/gocv"
)

const (
	medianKernel     = 5
	dilateIterations = 2
)

// Refine drops salt and pepper specks from a raw mask, then grows what
// survives so moving edges are covered rather than eaten by the median.
// The caller owns the returned mat.
func Refine(raw gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.MedianBlur(raw, &out, medianKernel)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	for i := 0; i < dilateIterations; i++ {
		gocv.Dilate(out, &out, kernel)
	}
	return out
}

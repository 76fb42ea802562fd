package motion

import (
	"image"

	"gocv.io/x/gocv"
)

type Params struct {
	History      int
	VarThreshold float64
	// BlurKernel is the side of the Gaussian applied before modelling,
	// wide enough that lighting flicker and fine texture never register.
	BlurKernel int
}

func DefaultParams() Params {
	return Params{History: 300, VarThreshold: 60, BlurKernel: 15}
}

// Model is an adaptive per pixel Gaussian mixture of the background.
// One model belongs to one run; frames must be observed in order.
type Model struct {
	params  Params
	mog     gocv.BackgroundSubtractorMOG2
	blurred gocv.Mat
}

func NewModel(p Params) *Model {
	if p.BlurKernel%2 == 0 {
		p.BlurKernel++
	}
	return &Model{
		params:  p,
		mog:     gocv.NewBackgroundSubtractorMOG2WithParams(p.History, p.VarThreshold, false),
		blurred: gocv.NewMat(),
	}
}

// Observe folds frame into the model and returns its raw foreground
// mask (0 or 255 per pixel). The caller owns the returned mat.
func (m *Model) Observe(frame gocv.Mat) gocv.Mat {
	k := m.params.BlurKernel
	gocv.GaussianBlur(frame, &m.blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	mask := gocv.NewMat()
	m.mog.Apply(m.blurred, &mask)
	return mask
}

func (m *Model) Close() error {
	m.blurred.Close()
	return m.mog.Close()
}

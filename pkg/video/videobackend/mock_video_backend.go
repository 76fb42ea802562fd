package videobackend

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/tauraamui/noicevoid/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	mockFPS        = 30
	mockFrameCount = 150
	mockWidth      = 600
	mockHeight     = 400
)

// mockVideoBackend decodes nothing. Every source it opens is a fixed
// canvas with a frame counter drawn on it, so only the counter moves.
type mockVideoBackend struct{}

func (b *mockVideoBackend) Open(cancel context.Context, path string) (Source, error) {
	select {
	case <-cancel.Done():
		return nil, xerror.New("open cancelled")
	default:
	}
	return &mockVideoSource{title: path}, nil
}

func (b *mockVideoBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

func (b *mockVideoBackend) NewWriter(path string, fps float64, dims videoframe.Dimensions) (Sink, error) {
	if dims.IsZero() {
		return nil, xerror.Errorf("cannot write video of dimensions %s", dims)
	}
	return &mockVideoSink{}, nil
}

type mockVideoSink struct {
	mu      sync.Mutex
	written int
}

func (s *mockVideoSink) Write(frame videoframe.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written++
	return nil
}

func (s *mockVideoSink) Close() error { return nil }

type mockVideoSource struct {
	title  string
	read   int
	closed bool
	canvas image.Image
}

func (s *mockVideoSource) Props() Props {
	return Props{
		FPS:        mockFPS,
		Dimensions: videoframe.Dimensions{W: mockWidth, H: mockHeight},
		FrameCount: mockFrameCount,
	}
}

func (s *mockVideoSource) Read(frame videoframe.Frame) error {
	frameMatRef, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to mock source read")
	}
	if s.closed || s.read >= mockFrameCount {
		return xerror.New("mock source exhausted")
	}

	if s.canvas == nil {
		s.canvas = renderBaseCanvas(mockWidth, mockHeight)
	}

	img, err := drawLabels(s.canvas, "NOICE_MOCK_SOURCE", s.title, fmt.Sprintf("%04d", s.read))
	if err != nil {
		return err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return xerror.Errorf("unable to convert Go image into OpenCV mat: %w", err)
	}
	defer mat.Close()

	mat.CopyTo(frameMatRef)
	s.read++
	return nil
}

func (s *mockVideoSource) Close() error {
	s.closed = true
	s.canvas = nil
	return nil
}

func drawLabels(base image.Image, lines ...string) (image.Image, error) {
	b := base.Bounds()
	canvas := image.NewRGBA(b)
	draw.Draw(canvas, b, base, b.Min, draw.Src)
	for i, line := range lines {
		if err := drawText(canvas, 5, 60+i*120, line); err != nil {
			return nil, xerror.Errorf("unable to draw text onto mock frame: %w", err)
		}
	}
	return canvas, nil
}

// renderBaseCanvas draws three overlapping discs, one per colour channel.
func renderBaseCanvas(w, h int) image.Image {
	hw, hh := float64(w/2), float64(h/2)
	r := 200.0
	θ := 2 * math.Pi / 3
	discs := [3]disc{
		{hw, hh - r, 300},
		{hw - r*math.Sin(θ), hh - r*math.Cos(θ), 300},
		{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), 300},
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			fx, fy := float64(x), float64(y)
			img.Set(x, y, color.RGBA{
				discs[0].brightness(fx, fy),
				discs[1].brightness(fx, fy),
				discs[2].brightness(fx, fy),
				255,
			})
		}
	}
	return img
}

func drawText(canvas *image.RGBA, x, y int, text string) error {
	fontFace, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return err
	}
	drawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(fontFace, &truetype.Options{
			Size:    48,
			Hinting: font.HintingFull,
		}),
	}
	drawer.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	drawer.DrawString(text)
	return nil
}

type disc struct {
	x, y, r float64
}

func (d disc) brightness(x, y float64) uint8 {
	dx, dy := d.x-x, d.y-y
	if math.Sqrt(dx*dx+dy*dy)/d.r > 1 {
		return 0
	}
	return 255
}

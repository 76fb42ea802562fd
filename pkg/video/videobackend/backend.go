package videobackend

import (
	"context"

	"github.com/spf13/afero"
	"github.com/tauraamui/noicevoid/pkg/video/videoframe"
	"gocv.io/x/gocv"
)

var fs = afero.NewOsFs()

// Props describes a decoded source as reported by its container.
type Props struct {
	FPS        float64
	Dimensions videoframe.Dimensions
	FrameCount int
}

type Source interface {
	Props() Props
	// Read decodes the next frame into the given frame. Any error means
	// the source has nothing more to give, end of stream or not.
	Read(videoframe.Frame) error
	Close() error
}

type Sink interface {
	Write(videoframe.Frame) error
	Close() error
}

type Backend interface {
	Open(context.Context, string) (Source, error)
	NewFrame() videoframe.Frame
	NewWriter(path string, fps float64, dims videoframe.Dimensions) (Sink, error)
}

// Wrap hands ownership of the mat to the returned frame.
func Wrap(mat gocv.Mat) videoframe.Frame {
	return &openCVFrame{mat: mat}
}

func Default() Backend {
	return OpenCV()
}

func OpenCV() Backend {
	return &openCVBackend{}
}

func Mock() Backend {
	return &mockVideoBackend{}
}

func Resolve(t string) Backend {
	switch t {
	case "mock":
		return Mock()
	default:
		return Default()
	}
}

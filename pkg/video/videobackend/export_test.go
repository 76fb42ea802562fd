package videobackend

import (
	"github.com/spf13/afero"
	"gocv.io/x/gocv"
)

func OverloadOpenVideoCapture(overload func(string) (*gocv.VideoCapture, error)) func() {
	openVideoCaptureRef := openVideoCapture
	openVideoCapture = overload
	return func() { openVideoCapture = openVideoCaptureRef }
}

func OverloadOpenVideoWriter(overload func(string, string, float64, int, int, bool) (*gocv.VideoWriter, error)) func() {
	openVideoWriterRef := openVideoWriter
	openVideoWriter = overload
	return func() { openVideoWriter = openVideoWriterRef }
}

func OverloadFS(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}

const MockFrameCount = mockFrameCount

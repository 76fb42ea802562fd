package videobackend

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/tauraamui/noicevoid/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type openCVFrame struct {
	isClosed bool
	mat      gocv.Mat
}

func (frame *openCVFrame) DataRef() interface{} {
	return &frame.mat
}

func (frame *openCVFrame) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: frame.mat.Cols(), H: frame.mat.Rows()}
}

func (frame *openCVFrame) Close() {
	if !frame.isClosed {
		frame.mat.Close()
		frame.isClosed = true
	}
}

type openCVBackend struct{}

func (b *openCVBackend) Open(cancel context.Context, path string) (Source, error) {
	src := openCVSource{}
	if err := src.open(cancel, path); err != nil {
		return nil, err
	}
	return &src, nil
}

func (b *openCVBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

// mp4v is what the container-side backend can always write; the final
// H.264 profile is applied by the muxer.
const codec = "mp4v"

func (b *openCVBackend) NewWriter(path string, fps float64, dims videoframe.Dimensions) (Sink, error) {
	if dims.IsZero() {
		return nil, xerror.Errorf("cannot write video of dimensions %s", dims)
	}
	if err := ensureDirectoryPathExists(filepath.Dir(path)); err != nil {
		return nil, err
	}

	vw, err := openVideoWriter(path, codec, fps, dims.W, dims.H, true)
	if err != nil {
		return nil, xerror.Errorf("unable to open video writer for %s: %w", path, err)
	}
	return &openCVSink{vw: vw}, nil
}

var openVideoWriter = func(filename, codec string, fps float64, width, height int, isColor bool) (*gocv.VideoWriter, error) {
	return gocv.VideoWriterFile(filename, codec, fps, width, height, isColor)
}

func ensureDirectoryPathExists(path string) error {
	err := fs.MkdirAll(path, os.ModePerm|os.ModeDir)
	if err == nil || os.IsExist(err) {
		return nil
	}
	return err
}

type openCVSink struct {
	vw *gocv.VideoWriter
}

func (s *openCVSink) Write(frame videoframe.Frame) error {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to OpenCV writer")
	}
	return s.vw.Write(*mat)
}

func (s *openCVSink) Close() error {
	return s.vw.Close()
}

type openCVSource struct {
	mu     sync.Mutex
	closed bool
	props  Props
	vc     *gocv.VideoCapture
}

func (s *openCVSource) open(cancel context.Context, path string) error {
	result := make(chan openVideoStreamResult, 1)
	go openVideoStream(path, result)
	select {
	case r := <-result:
		if r.err != nil {
			return r.err
		}
		s.vc = r.vc
		s.props = readProps(r.vc)
		return nil
	case <-cancel.Done():
		go func() {
			if r := <-result; r.vc != nil {
				r.vc.Close()
			}
		}()
		return xerror.New("open cancelled")
	}
}

type openVideoStreamResult struct {
	vc  *gocv.VideoCapture
	err error
}

func openVideoStream(path string, d chan openVideoStreamResult) {
	vc, err := openVideoCapture(path)
	d <- openVideoStreamResult{vc: vc, err: err}
}

var openVideoCapture = func(path string) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCapture(path)
}

var readFromVideoCapture = func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

func readProps(vc *gocv.VideoCapture) Props {
	return Props{
		FPS: vc.Get(gocv.VideoCaptureFPS),
		Dimensions: videoframe.Dimensions{
			W: int(vc.Get(gocv.VideoCaptureFrameWidth)),
			H: int(vc.Get(gocv.VideoCaptureFrameHeight)),
		},
		FrameCount: int(vc.Get(gocv.VideoCaptureFrameCount)),
	}
}

func (s *openCVSource) Props() Props {
	return s.props
}

func (s *openCVSource) Read(frame videoframe.Frame) error {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to OpenCV source read")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return xerror.New("video source is closed")
	}
	if !readFromVideoCapture(s.vc, mat) || mat.Empty() {
		return xerror.New("unable to read from video source")
	}
	return nil
}

func (s *openCVSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.vc.Close()
}

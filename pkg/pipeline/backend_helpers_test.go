package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tauraamui/noicevoid/pkg/audio"
	"github.com/tauraamui/noicevoid/pkg/video/videobackend"
	"github.com/tauraamui/noicevoid/pkg/video/videoframe"
	"gocv.io/x/gocv"
)

// memBackend decodes from and encodes to memory.
type memBackend struct {
	mu      sync.Mutex
	frames  []gocv.Mat
	fps     float64
	openErr error
	// readPanic, when set, makes every read of an opened source panic.
	readPanic string
	opened    []string
	writers []memWriter
	written [][]byte
}

type memWriter struct {
	path string
	fps  float64
	dims videoframe.Dimensions
}

func (b *memBackend) Open(_ context.Context, path string) (videobackend.Source, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, path)
	if b.openErr != nil {
		return nil, b.openErr
	}
	src := memSource{frames: b.frames, fps: b.fps, readPanic: b.readPanic}
	return &src, nil
}

func (b *memBackend) NewFrame() videoframe.Frame {
	return videobackend.Wrap(gocv.NewMat())
}

func (b *memBackend) NewWriter(path string, fps float64, dims videoframe.Dimensions) (videobackend.Sink, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writers = append(b.writers, memWriter{path: path, fps: fps, dims: dims})
	return &memSink{b: b}, nil
}

func (b *memBackend) close() {
	for _, f := range b.frames {
		f.Close()
	}
}

type memSource struct {
	frames    []gocv.Mat
	fps       float64
	next      int
	readPanic string
}

func (s *memSource) Props() videobackend.Props {
	p := videobackend.Props{FPS: s.fps, FrameCount: len(s.frames)}
	if len(s.frames) > 0 {
		p.Dimensions = videoframe.Dimensions{W: s.frames[0].Cols(), H: s.frames[0].Rows()}
	}
	return p
}

func (s *memSource) Read(frame videoframe.Frame) error {
	if s.readPanic != "" {
		panic(s.readPanic)
	}
	if s.next >= len(s.frames) {
		return errors.New("end of stream")
	}
	mat := frame.DataRef().(*gocv.Mat)
	s.frames[s.next].CopyTo(mat)
	s.next++
	return nil
}

func (s *memSource) Close() error { return nil }

type memSink struct {
	b *memBackend
}

func (s *memSink) Write(frame videoframe.Frame) error {
	mat := frame.DataRef().(*gocv.Mat)
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.written = append(s.b.written, mat.ToBytes())
	return nil
}

func (s *memSink) Close() error { return nil }

type fakeMuxer struct {
	inputs []audio.Input
	result audio.MuxResult
	// passthrough reports success at the requested output path.
	passthrough bool
}

func (m *fakeMuxer) Mux(_ context.Context, in audio.Input) audio.MuxResult {
	m.inputs = append(m.inputs, in)
	if m.passthrough {
		return audio.MuxResult{Success: true, Path: in.OutputPath}
	}
	return m.result
}

func solid(t *testing.T, rows, cols int, v byte) gocv.Mat {
	t.Helper()
	return withRect(t, rows, cols, 0, 0, 0, 0, v, v)
}

// withRect is a solid bg frame with the half open rect [x0,x1)x[y0,y1) set to fg.
func withRect(t *testing.T, rows, cols, x0, y0, x1, y1 int, bg, fg byte) gocv.Mat {
	t.Helper()
	buf := bytes.Repeat([]byte{bg}, rows*cols*3)
	for row := y0; row < y1; row++ {
		for col := x0; col < x1; col++ {
			i := (row*cols + col) * 3
			buf[i], buf[i+1], buf[i+2] = fg, fg, fg
		}
	}
	m, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, buf)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	return m.Clone()
}

func pixel(data []byte, cols, row, col int) []byte {
	i := (row*cols + col) * 3
	return data[i : i+3]
}

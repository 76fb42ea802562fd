package motion_test

import (
	"bytes"
	"testing"

	"gocv.io/x/gocv"
)

func filled(t *testing.T, rows, cols int, mt gocv.MatType, channels int, v byte) gocv.Mat {
	t.Helper()
	m, err := gocv.NewMatFromBytes(rows, cols, mt, bytes.Repeat([]byte{v}, rows*cols*channels))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()
	return m.Clone()
}

// bgrWithRect is a solid bg frame with the half open rect [x0,x1)x[y0,y1) set to fg.
func bgrWithRect(t *testing.T, rows, cols, x0, y0, x1, y1 int, bg, fg byte) gocv.Mat {
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

func mask(t *testing.T, rows, cols int) gocv.Mat {
	return filled(t, rows, cols, gocv.MatTypeCV8U, 1, 0)
}

func fillRect(m gocv.Mat, x0, y0, x1, y1 int, v uint8) {
	for row := y0; row < y1; row++ {
		for col := x0; col < x1; col++ {
			m.SetUCharAt(row, col, v)
		}
	}
}

// constPool is a pool of solid frames, frame i filled with value i*10+5.
type constPool struct {
	frames []gocv.Mat
}

func newConstPool(t *testing.T, n, rows, cols int) *constPool {
	p := constPool{}
	for i := 0; i < n; i++ {
		p.frames = append(p.frames, filled(t, rows, cols, gocv.MatTypeCV8UC3, 3, byte(i*10+5)))
	}
	return &p
}

func (p *constPool) Len() int          { return len(p.frames) }
func (p *constPool) At(i int) gocv.Mat { return p.frames[i] }
func (p *constPool) Close() {
	for _, f := range p.frames {
		f.Close()
	}
}

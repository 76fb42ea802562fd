package pipeline

import (
	"io"
	"mime/multipart"
	"net/textproto"
)

const (
	Boundary          = "frame"
	StreamContentType = "multipart/x-mixed-replace; boundary=" + Boundary
)

type flusher interface {
	Flush()
}

// MJPEGWriter frames JPEGs as parts of a multipart/x-mixed-replace body.
type MJPEGWriter struct {
	w     io.Writer
	parts *multipart.Writer
}

func NewMJPEGWriter(w io.Writer) *MJPEGWriter {
	parts := multipart.NewWriter(w)
	parts.SetBoundary(Boundary) //nolint
	return &MJPEGWriter{w: w, parts: parts}
}

func (m *MJPEGWriter) WriteFrame(jpeg []byte) error {
	part, err := m.parts.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
	if err != nil {
		return err
	}
	if _, err := part.Write(jpeg); err != nil {
		return err
	}
	if f, ok := m.w.(flusher); ok {
		f.Flush()
	}
	return nil
}

func (m *MJPEGWriter) Close() error {
	return m.parts.Close()
}

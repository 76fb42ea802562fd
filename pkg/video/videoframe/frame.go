package videoframe

import "fmt"

type Dimensions struct {
	W, H int
}

// Scale multiplies both sides by f and truncates towards zero,
// so a 640x480 source at 0.5 is processed at exactly 320x240.
func (d Dimensions) Scale(f float64) Dimensions {
	return Dimensions{W: int(float64(d.W) * f), H: int(float64(d.H) * f)}
}

func (d Dimensions) IsZero() bool {
	return d.W <= 0 || d.H <= 0
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.W, d.H)
}

type Frame interface {
	DataRef() interface{}
	Dimensions() Dimensions
	Close()
}

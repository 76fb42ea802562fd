package motion

import "gocv.io/x/gocv"

// Textures is the read side of a noise pool.
type Textures interface {
	Len() int
	At(int) gocv.Mat
}

// Composite starts from the frozen texture at index 0 and paints the
// texture at cycle mod Len wherever mask is nonzero. The caller owns
// the returned mat.
func Composite(pool Textures, mask gocv.Mat, cycle int) gocv.Mat {
	out := pool.At(0).Clone()
	moving := pool.At(Index(cycle, pool.Len()))
	moving.CopyToWithMask(&out, mask)
	return out
}

// Index maps a cycle count onto the pool. It wraps through 0 like every other
// slot, so a moving region shows the frozen texture once per pool length.
func Index(cycle, n int) int {
	i := cycle % n
	if i < 0 {
		i += n
	}
	return i
}

// Cycle counts processed frames. It only ever moves forward.
type Cycle struct {
	n int
}

func (c *Cycle) Next() int {
	i := c.n
	c.n++
	return i
}

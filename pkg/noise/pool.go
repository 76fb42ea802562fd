// Package noise builds the texture frames that replace every pixel of the
// source. Element 0 is the frozen background, the rest cycle under motion.
package noise

import (
	"image"
	"math/rand"
	"time"

	"github.com/tauraamui/noicevoid/pkg/log"
	"github.com/tauraamui/noicevoid/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

const DefaultSize = 500

const channels = 3

type Pool struct {
	frames []gocv.Mat
}

func DefaultSeed() int64 {
	return time.Now().UnixNano()
}

// EstimateBytes is the resident size of a pool, which dominates a job's memory.
func EstimateBytes(dims videoframe.Dimensions, size int) uint64 {
	if dims.IsZero() || size <= 0 {
		return 0
	}
	return uint64(dims.W) * uint64(dims.H) * channels * uint64(size)
}

// NewPool generates size independent frames. Colour noise gets a 3x3
// Gaussian blur for some spatial texture; grayscale noise is left raw.
func NewPool(dims videoframe.Dimensions, size int, color bool, seed int64) (*Pool, error) {
	if size < 1 {
		return nil, xerror.Errorf("noise pool size must be at least 1, got %d", size)
	}
	if dims.IsZero() {
		return nil, xerror.Errorf("noise pool dimensions must be positive, got %s", dims)
	}

	log.Info("Generating noise pool of %d %s frames...", size, dims)
	rng := rand.New(rand.NewSource(seed))
	p := Pool{frames: make([]gocv.Mat, 0, size)}
	for i := 0; i < size; i++ {
		frame, err := generate(rng, dims, color)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.frames = append(p.frames, frame)
		if i%100 == 0 {
			log.Debug("Pool generation: %d/%d", i, size)
		}
	}
	return &p, nil
}

func generate(rng *rand.Rand, dims videoframe.Dimensions, color bool) (gocv.Mat, error) {
	if color {
		return generateColor(rng, dims)
	}
	return generateGray(rng, dims)
}

func generateColor(rng *rand.Rand, dims videoframe.Dimensions) (gocv.Mat, error) {
	buf := make([]byte, dims.W*dims.H*channels)
	rng.Read(buf) //nolint

	raw, err := gocv.NewMatFromBytes(dims.H, dims.W, gocv.MatTypeCV8UC3, buf)
	if err != nil {
		return gocv.Mat{}, xerror.Errorf("unable to create noise frame: %w", err)
	}
	defer raw.Close()

	blurred := gocv.NewMat()
	gocv.GaussianBlur(raw, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
	return blurred, nil
}

func generateGray(rng *rand.Rand, dims videoframe.Dimensions) (gocv.Mat, error) {
	buf := make([]byte, dims.W*dims.H)
	rng.Read(buf) //nolint

	raw, err := gocv.NewMatFromBytes(dims.H, dims.W, gocv.MatTypeCV8U, buf)
	if err != nil {
		return gocv.Mat{}, xerror.Errorf("unable to create noise frame: %w", err)
	}
	defer raw.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(raw, &bgr, gocv.ColorGrayToBGR)
	return bgr, nil
}

func (p *Pool) Len() int { return len(p.frames) }

// At returns the i-th texture. The pool keeps ownership.
func (p *Pool) At(i int) gocv.Mat { return p.frames[i] }

func (p *Pool) Static() gocv.Mat { return p.frames[0] }

func (p *Pool) Close() {
	for _, f := range p.frames {
		f.Close()
	}
	p.frames = nil
}

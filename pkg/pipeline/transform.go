package pipeline

import (
	"context"
	"image"
	"math"

	"github.com/tauraamui/noicevoid/pkg/job"
	"github.com/tauraamui/noicevoid/pkg/motion"
	"github.com/tauraamui/noicevoid/pkg/noise"
	"github.com/tauraamui/noicevoid/pkg/video/videobackend"
	"github.com/tauraamui/noicevoid/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

var ErrSourceUnreadable = xerror.New("source unreadable")

// transformer owns everything one run accumulates: the background model,
// the noise pool and the cycle counter. It is never shared between runs.
type transformer struct {
	dims    videoframe.Dimensions
	model   *motion.Model
	pool    *noise.Pool
	cycle   motion.Cycle
	resized gocv.Mat
}

func newTransformer(dims videoframe.Dimensions, color bool, s Settings) (*transformer, error) {
	pool, err := noise.NewPool(dims, s.PoolSize, color, s.seed())
	if err != nil {
		return nil, err
	}
	return &transformer{
		dims:    dims,
		model:   motion.NewModel(s.Model),
		pool:    pool,
		resized: gocv.NewMat(),
	}, nil
}

// step turns one decoded frame into its noise rendition. The caller owns
// the returned mat.
func (t *transformer) step(frame gocv.Mat) gocv.Mat {
	gocv.Resize(frame, &t.resized, image.Pt(t.dims.W, t.dims.H), 0, 0, gocv.InterpolationLinear)
	raw := t.model.Observe(t.resized)
	defer raw.Close()
	refined := motion.Refine(raw)
	defer refined.Close()
	return motion.Composite(t.pool, refined, t.cycle.Next())
}

func (t *transformer) close() {
	t.resized.Close()
	t.model.Close() //nolint
	t.pool.Close()
}

// session is an opened source plus the transformer sized for it.
type session struct {
	src   videobackend.Source
	frame videoframe.Frame
	props videobackend.Props
	fps   float64
	dims  videoframe.Dimensions
	tr    *transformer
}

func open(ctx context.Context, backend videobackend.Backend, j job.Job, s Settings) (*session, error) {
	src, err := backend.Open(ctx, j.SourcePath)
	if err != nil {
		return nil, xerror.Errorf("%w: %s: %v", ErrSourceUnreadable, j.SourcePath, err)
	}

	props := src.Props()
	fps := props.FPS
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		fps = fallbackFPS
	}
	dims := props.Dimensions.Scale(j.Scale)
	if dims.IsZero() {
		src.Close() //nolint
		return nil, xerror.Errorf("%w: %s scales to %s", ErrSourceUnreadable, props.Dimensions, dims)
	}

	if err := admit(j.Log(), dims, s); err != nil {
		src.Close() //nolint
		return nil, err
	}

	tr, err := newTransformer(dims, j.Color, s)
	if err != nil {
		src.Close() //nolint
		return nil, err
	}

	j.Log().Info("Opened %s: %s at %.2f fps, processing at %s", j.SourcePath, props.Dimensions, fps, dims)
	return &session{src: src, frame: backend.NewFrame(), props: props, fps: fps, dims: dims, tr: tr}, nil
}

// next decodes and transforms the next frame. ok is false once the source
// has nothing more to give.
func (s *session) next() (out gocv.Mat, ok bool) {
	if err := s.src.Read(s.frame); err != nil {
		return gocv.Mat{}, false
	}
	mat, isMat := s.frame.DataRef().(*gocv.Mat)
	if !isMat {
		return gocv.Mat{}, false
	}
	return s.tr.step(*mat), true
}

func (s *session) close() {
	s.src.Close() //nolint
	s.frame.Close()
	s.tr.close()
}

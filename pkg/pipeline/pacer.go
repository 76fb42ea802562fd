package pipeline

import (
	"context"
	"time"
)

var now = time.Now

// Pacer holds a stream to a target frame rate. It only ever sleeps off
// what is left of a frame's budget; a slow frame is never made up for
// by skipping or rushing later ones.
type Pacer struct {
	budget time.Duration
}

func NewPacer(fps, speed float64) Pacer {
	if fps <= 0 || speed <= 0 {
		return Pacer{}
	}
	return Pacer{budget: time.Duration(float64(time.Second) / (fps * speed))}
}

func (p Pacer) Budget() time.Duration { return p.budget }

func (p Pacer) Remaining(elapsed time.Duration) time.Duration {
	if d := p.budget - elapsed; d > 0 {
		return d
	}
	return 0
}

// Wait blocks for the rest of the budget of a frame that began at started.
func (p Pacer) Wait(ctx context.Context, started time.Time) error {
	d := p.Remaining(now().Sub(started))
	if d == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

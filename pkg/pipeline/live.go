package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/tauraamui/noicevoid/pkg/job"
	"github.com/tauraamui/noicevoid/pkg/video/videobackend"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

var fs = afero.NewOsFs()

type State int

const (
	Opened State = iota
	Streaming
	Drained
)

func (s State) String() string {
	switch s {
	case Opened:
		return "OPENED"
	case Streaming:
		return "STREAMING"
	case Drained:
		return "DRAINED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Live turns a source into a paced sequence of JPEG frames.
type Live struct {
	backend  videobackend.Backend
	settings Settings
	// OnState, when set, observes each transition of a run.
	OnState func(job.Job, State)
}

func NewLive(backend videobackend.Backend, settings Settings) *Live {
	return &Live{backend: backend, settings: settings}
}

// Stream runs one job until its source is exhausted, emit fails or ctx is
// done; all three are a normal end. Errors are returned for an invalid job,
// a source that cannot be opened or yields no frames, a frame that fails to
// encode and a panic inside the run. Once the job is valid its source file
// is removed on return, unless opening failed for lack of memory.
func (l *Live) Stream(ctx context.Context, j job.Job, emit func([]byte) error) (err error) {
	logger := j.Log()
	defer l.transition(j, Drained)

	if err := j.RunValidate(); err != nil {
		return err
	}

	defer activeSources.hold(j.SourcePath)()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Stream panicked: %v", r)
			err = xerror.Errorf("stream panicked: %v", r)
		}
	}()

	sess, err := open(ctx, l.backend, j, l.settings)
	if err != nil {
		logger.Error("Unable to stream: %v", err)
		if !errors.Is(err, ErrInsufficientMemory) {
			removeSource(j)
		}
		return err
	}
	defer removeSource(j)
	defer sess.close()
	l.transition(j, Opened)

	pacer := NewPacer(sess.fps, j.Speed)
	l.transition(j, Streaming)
	for frames := 0; ; frames++ {
		if ctx.Err() != nil {
			logger.Info("Stream consumer gone after %d frames", frames)
			return nil
		}

		started := now()
		out, ok := sess.next()
		if !ok {
			if frames == 0 {
				err := xerror.Errorf("%w: %s has no frames", ErrSourceUnreadable, j.SourcePath)
				logger.Error("Unable to stream: %v", err)
				return err
			}
			logger.Info("Stream drained after %d frames", frames)
			return nil
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, out)
		out.Close()
		if err != nil {
			return xerror.Errorf("unable to encode frame %d: %w", frames, err)
		}

		if err := emit(buf); err != nil {
			logger.Info("Stream consumer gone after %d frames: %v", frames, err)
			return nil
		}

		if err := pacer.Wait(ctx, started); err != nil {
			logger.Info("Stream consumer gone after %d frames", frames+1)
			return nil
		}
	}
}

func (l *Live) transition(j job.Job, s State) {
	j.Log().Debug("Stream %s", s)
	if l.OnState != nil {
		l.OnState(j, s)
	}
}

func removeSource(j job.Job) {
	removeIfExists(j, j.SourcePath)
}

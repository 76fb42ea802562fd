package pipeline

import (
	"context"

	"github.com/spf13/afero"
	"github.com/tauraamui/noicevoid/pkg/audio"
	"github.com/tauraamui/noicevoid/pkg/job"
	"github.com/tauraamui/noicevoid/pkg/video/videobackend"
	"github.com/tauraamui/xerror"
)

const progressEvery = 50

// SilentSuffix names the intermediate video written before audio is muxed in.
const SilentSuffix = ".silent.mp4"

type Muxer interface {
	Mux(context.Context, audio.Input) audio.MuxResult
}

// Render writes a job's noise rendition to a file as fast as frames
// decode, then hands the silent video to the muxer for its audio.
type Render struct {
	backend  videobackend.Backend
	muxer    Muxer
	settings Settings
}

func NewRender(backend videobackend.Backend, muxer Muxer, settings Settings) *Render {
	return &Render{backend: backend, muxer: muxer, settings: settings}
}

func (r *Render) Run(ctx context.Context, j job.Job) job.Result {
	return job.Guard(j, func(j job.Job) job.Result {
		res := r.run(ctx, j)
		if res.Status == job.Failed {
			j.Log().Error("Rendering failed: %s", res.Message)
		}
		return res
	})
}

func (r *Render) run(ctx context.Context, j job.Job) job.Result {
	defer activeSources.hold(j.SourcePath)()

	sess, err := open(ctx, r.backend, j, r.settings)
	if err != nil {
		return job.Fail(j, err)
	}

	silent := j.OutputPath + SilentSuffix
	j.Log().Info("Rendering started: %s", j.OutputPath)
	written, err := r.renderSilent(ctx, j, sess, silent)
	sess.close()
	if err != nil {
		removeIfExists(j, silent)
		return job.Fail(j, err)
	}
	if written == 0 {
		removeIfExists(j, silent)
		return job.Fail(j, xerror.Errorf("%w: %s has no frames", ErrSourceUnreadable, j.SourcePath))
	}

	res := r.muxer.Mux(ctx, audio.Input{
		SilentPath: silent,
		SourcePath: j.SourcePath,
		OutputPath: j.OutputPath,
		Duration:   float64(written) / sess.fps,
		Mode:       j.AudioMode,
		Log:        j.Log(),
	})
	if !res.Success {
		return job.Result{JobID: j.ID, Status: job.Failed, Message: res.Warning}
	}

	j.Log().Info("Rendering complete: %d frames to %s", written, res.Path)
	return job.Result{JobID: j.ID, Status: job.Completed, Path: res.Path, Warning: res.Warning}
}

// renderSilent returns how many frames reached the sink. The sink is only
// created once the first frame decodes, so an empty source leaves no file.
func (r *Render) renderSilent(ctx context.Context, j job.Job, sess *session, path string) (int, error) {
	var sink videobackend.Sink
	defer func() {
		if sink != nil {
			sink.Close() //nolint
		}
	}()

	written := 0
	for {
		if err := ctx.Err(); err != nil {
			return written, xerror.Errorf("render cancelled after %d frames: %w", written, err)
		}

		out, ok := sess.next()
		if !ok {
			return written, nil
		}

		frame := videobackend.Wrap(out)
		if sink == nil {
			s, err := r.backend.NewWriter(path, sess.fps, sess.dims)
			if err != nil {
				frame.Close()
				return written, err
			}
			sink = s
		}

		err := sink.Write(frame)
		frame.Close()
		if err != nil {
			return written, xerror.Errorf("unable to write frame %d: %w", written, err)
		}

		written++
		if written%progressEvery == 0 {
			j.Log().Info("Rendering... %d/%d", written, sess.props.FrameCount)
		}
	}
}

func removeIfExists(j job.Job, path string) {
	if ok, _ := afero.Exists(fs, path); !ok {
		return
	}
	if err := fs.Remove(path); err != nil {
		j.Log().Warn("Unable to remove %s: %v", path, err)
	}
}

// Package job carries the parameters of one pipeline run and the shape
// of the result reported back to whoever started it.
package job

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tauraamui/noicevoid/pkg/audio"
	"github.com/tauraamui/noicevoid/pkg/log"
	"github.com/tauraamui/xerror"
	"gopkg.in/dealancer/validate.v2"
)

type Job struct {
	ID         string     `json:"id"`
	SourcePath string     `json:"source_path" validate:"empty=false"`
	OutputPath string     `json:"output_path"`
	Scale      float64    `json:"scale" validate:"gt=0"`
	Color      bool       `json:"is_color"`
	AudioMode  audio.Mode `json:"audio_mode" validate:"one_of=mute,original,white,brown"`
	// Speed only paces live streams; renders run flat out.
	Speed float64 `json:"speed" validate:"gt=0"`
}

func New(sourcePath, outputPath string) Job {
	return Job{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		OutputPath: outputPath,
		Scale:      1,
		Color:      true,
		AudioMode:  audio.Mute,
		Speed:      1,
	}
}

// RunValidate checks the job's field tags. It is not named Validate since
// validate.v2 calls a Validate method on the value it checks.
func (j Job) RunValidate() error {
	if err := validate.Validate(&j); err != nil {
		return xerror.Errorf("invalid job parameters: %w", err)
	}
	return nil
}

func (j Job) Log() log.Job {
	return log.Job(j.ID)
}

type Status string

const (
	Completed Status = "completed"
	Failed    Status = "error"
)

type Result struct {
	JobID   string `json:"job_id"`
	Status  Status `json:"status"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func Fail(j Job, err error) Result {
	return Result{JobID: j.ID, Status: Failed, Message: err.Error()}
}

// Guard runs fn as the job boundary: a panic inside becomes a failed
// result instead of taking the caller down with it.
func Guard(j Job, fn func(Job) Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			j.Log().Error("Job panicked: %v", r)
			res = Fail(j, fmt.Errorf("%v", r))
		}
	}()
	if err := j.RunValidate(); err != nil {
		return Fail(j, err)
	}
	return fn(j)
}

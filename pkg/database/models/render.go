package models

import (
	"github.com/google/uuid"
	"github.com/tauraamui/noicevoid/pkg/job"
	"gorm.io/gorm"
)

func init() {
	registerForAutomigration(&RenderRecord{})
}

// RenderRecord is the stored outcome of one render job.
type RenderRecord struct {
	gorm.Model
	UUID       string `gorm:"uniqueIndex"`
	SourcePath string
	OutputPath string
	Scale      float64
	Color      bool
	AudioMode  string
	Status     string
	Message    string
	Warning    string
}

func (r *RenderRecord) BeforeCreate(tx *gorm.DB) error {
	if len(r.UUID) == 0 {
		r.UUID = uuid.NewString()
	}
	return nil
}

func NewRenderRecord(j job.Job, res job.Result) RenderRecord {
	return RenderRecord{
		UUID:       j.ID,
		SourcePath: j.SourcePath,
		OutputPath: j.OutputPath,
		Scale:      j.Scale,
		Color:      j.Color,
		AudioMode:  string(j.AudioMode),
		Status:     string(res.Status),
		Message:    res.Message,
		Warning:    res.Warning,
	}
}

func (r RenderRecord) Result() job.Result {
	res := job.Result{
		JobID:   r.UUID,
		Status:  job.Status(r.Status),
		Message: r.Message,
		Warning: r.Warning,
	}
	if res.Status == job.Completed {
		res.Path = r.OutputPath
	}
	return res
}

package configdef

import (
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/dealancer/validate.v2"
)

type Values struct {
	Debug              bool    `json:"debug"`
	UploadDir          string  `json:"upload_dir" validate:"empty=false"`
	OutputDir          string  `json:"output_dir" validate:"empty=false"`
	ListenAddress      string  `json:"listen_address" validate:"empty=false"`
	PoolSize           int     `json:"pool_size" validate:"gte=1"`
	History            int     `json:"history" validate:"gte=1"`
	VarThreshold       float64 `json:"var_threshold" validate:"gt=0"`
	FFmpegBin          string  `json:"ffmpeg_bin"`
	FFprobeBin         string  `json:"ffprobe_bin"`
	VideoBackend       string  `json:"video_backend" validate:"one_of=opencv,mock"`
	DatabasePath       string  `json:"database_path"`
	DefaultScale       float64 `json:"default_scale" validate:"gt=0"`
	DefaultRenderScale float64 `json:"default_render_scale" validate:"gt=0"`
	MaxMemoryFraction  float64 `json:"max_memory_fraction" validate:"gte=0 & lte=1"`
	MaxUploadAgeHours  int     `json:"max_upload_age_hours" validate:"gte=0"`
}

func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if sameDir(v.UploadDir, v.OutputDir) {
		return fmt.Errorf(validationErrorHeader, errors.New("upload and output directories must differ"))
	}
	return nil
}

// sameDir guards outputs against the cleanup that streams do in the upload dir.
// Empty paths are left to the field tags to report.
func sameDir(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

package audio

import (
	"context"
	"io"
	"math/rand"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/tauraamui/noicevoid/pkg/log"
	"github.com/tauraamui/xerror"
)

var fs = afero.NewOsFs()

var ErrMuxFailed = xerror.New("audio mux failed")

// Input describes one render's audio step. Duration is the silent
// video's length in seconds and sizes synthesized tracks.
type Input struct {
	SilentPath string
	SourcePath string
	OutputPath string
	Duration   float64
	Mode       Mode
	Log        log.Job
}

// MuxResult is the outcome at the file level. A failed mux whose silent
// video was promoted to OutputPath is still a success, with a warning.
type MuxResult struct {
	Success bool
	Path    string
	Warning string
}

type Muxer struct {
	FFmpegBin  string
	FFprobeBin string
	Rand       *rand.Rand
}

func NewMuxer(ffmpegBin, ffprobeBin string) *Muxer {
	return &Muxer{FFmpegBin: ffmpegBin, FFprobeBin: ffprobeBin}
}

func (m *Muxer) Mux(ctx context.Context, in Input) MuxResult {
	defer removeIfExists(in.SilentPath)

	warning, err := m.attach(ctx, in)
	if err == nil {
		return MuxResult{Success: true, Path: in.OutputPath, Warning: warning}
	}

	in.Log.Error("Audio mixing failed: %v", err)
	if perr := promote(in.SilentPath, in.OutputPath); perr != nil {
		in.Log.Error("Unable to keep silent render: %v", perr)
		return MuxResult{Warning: xerror.Errorf("%w: %v, silent video lost: %v", ErrMuxFailed, err, perr).Error()}
	}
	return MuxResult{
		Success: true,
		Path:    in.OutputPath,
		Warning: xerror.Errorf("%w, output has no audio: %v", ErrMuxFailed, err).Error(),
	}
}

func (m *Muxer) attach(ctx context.Context, in Input) (string, error) {
	switch in.Mode {
	case Original:
		hasAudio, err := m.hasAudioStream(ctx, in.SourcePath)
		if err != nil {
			return "", err
		}
		if !hasAudio {
			in.Log.Warn("Source %s has no audio track, rendering silent", in.SourcePath)
			return "source has no audio track", m.encode(ctx, nil, in, nil)
		}
		return "", m.encode(ctx, []string{"-i", in.SourcePath}, in, nil)
	case WhiteNoise, BrownNoise:
		kind, _ := in.Mode.Noise()
		track, ok := Synthesize(in.Duration, kind, m.Rand)
		if !ok {
			return "", m.encode(ctx, nil, in, nil)
		}
		pr, pw := io.Pipe()
		go func() { pw.CloseWithError(track.WriteF32LE(pw)) }()
		defer pr.Close()
		input := []string{"-f", "f32le", "-ar", strconv.Itoa(track.SampleRate), "-ac", "2", "-i", "pipe:0"}
		return "", m.encode(ctx, input, in, pr)
	default:
		return "", m.encode(ctx, nil, in, nil)
	}
}

// encode re-encodes the silent video to H.264, adding the second input's
// first audio stream as AAC when one is given.
func (m *Muxer) encode(ctx context.Context, audioInput []string, in Input, stdin io.Reader) error {
	args := []string{"-y", "-v", "error", "-i", in.SilentPath}
	args = append(args, audioInput...)
	args = append(args, "-map", "0:v:0")
	if len(audioInput) > 0 {
		args = append(args, "-map", "1:a:0", "-c:a", "aac")
	} else {
		args = append(args, "-an")
	}
	args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p")
	if in.Duration > 0 {
		args = append(args, "-t", strconv.FormatFloat(in.Duration, 'f', 3, 64))
	}
	args = append(args, in.OutputPath)

	out, err := runCommand(ctx, stdin, m.ffmpeg(), args...)
	if err != nil {
		return xerror.Errorf("running ffmpeg: %w: %s", err, strings.TrimSpace(out))
	}
	return nil
}

func (m *Muxer) hasAudioStream(ctx context.Context, path string) (bool, error) {
	out, err := runCommand(ctx, nil, m.ffprobe(),
		"-v", "error", "-select_streams", "a",
		"-show_entries", "stream=codec_type", "-of", "csv=p=0", path,
	)
	if err != nil {
		return false, xerror.Errorf("probing %s for audio: %w: %s", path, err, strings.TrimSpace(out))
	}
	return strings.Contains(out, "audio"), nil
}

func (m *Muxer) ffmpeg() string {
	if m.FFmpegBin == "" {
		return "ffmpeg"
	}
	return m.FFmpegBin
}

func (m *Muxer) ffprobe() string {
	if m.FFprobeBin == "" {
		return "ffprobe"
	}
	return m.FFprobeBin
}

// promote moves the silent render into place, replacing any partial output.
func promote(silent, out string) error {
	if ok, _ := afero.Exists(fs, silent); !ok {
		return xerror.Errorf("silent render %s is missing", silent)
	}
	removeIfExists(out)
	return fs.Rename(silent, out)
}

func removeIfExists(path string) {
	if ok, _ := afero.Exists(fs, path); ok {
		if err := fs.Remove(path); err != nil {
			log.Warn("Unable to remove %s: %v", path, err)
		}
	}
}

var runCommand = func(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var output strings.Builder
	cmd.Stdin = stdin
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := cmd.Run()
	return output.String(), err
}

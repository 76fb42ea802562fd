package audio

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"math/rand"
	"time"
)

const (
	SampleRate = 44100
	Amplitude  = 0.1
)

type Kind string

const (
	White Kind = "white"
	Brown Kind = "brown"
)

// Track is a stereo waveform. Synthesized tracks carry bit identical channels.
type Track struct {
	SampleRate  int
	Left, Right []float64
}

func (t *Track) Samples() int { return len(t.Left) }

// WriteF32LE writes the track as interleaved little endian float32 PCM,
// the layout ffmpeg reads with -f f32le -ac 2.
func (t *Track) WriteF32LE(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var frame [8]byte
	for i := range t.Left {
		binary.LittleEndian.PutUint32(frame[:4], math.Float32bits(float32(t.Left[i])))
		binary.LittleEndian.PutUint32(frame[4:], math.Float32bits(float32(t.Right[i])))
		if _, err := bw.Write(frame[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Synthesize returns duration seconds of white or brown noise at 44.1kHz.
// Any other kind yields no track. A nil rng is seeded from the clock.
func Synthesize(duration float64, kind Kind, rng *rand.Rand) (*Track, bool) {
	if kind != White && kind != Brown {
		return nil, false
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	n := int(duration * SampleRate)
	if n < 0 {
		n = 0
	}

	samples := make([]float64, n)
	for i := range samples {
		samples[i] = (rng.Float64()*2 - 1) * Amplitude
	}
	if kind == Brown {
		integrate(samples)
	}

	right := make([]float64, n)
	copy(right, samples)
	return &Track{SampleRate: SampleRate, Left: samples, Right: right}, true
}

// integrate replaces white samples with their running sum, rescaled so the
// loudest sample sits at exactly Amplitude.
func integrate(samples []float64) {
	var sum, peak float64
	for i, s := range samples {
		sum += s
		samples[i] = sum
		if a := math.Abs(sum); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	for i := range samples {
		samples[i] = samples[i] / peak * Amplitude
	}
}

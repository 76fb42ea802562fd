package pipeline

import (
	"github.com/tauraamui/noicevoid/pkg/motion"
	"github.com/tauraamui/noicevoid/pkg/noise"
)

// fallbackFPS stands in when a container reports no frame rate.
const fallbackFPS = 30.0

type Settings struct {
	PoolSize int
	// Seed fixes the noise pool. Zero draws a fresh seed for every run.
	Seed  int64
	Model motion.Params
	// MaxMemoryFraction refuses runs whose pool would take more than this
	// share of available memory. Zero only warns.
	MaxMemoryFraction float64
}

func DefaultSettings() Settings {
	return Settings{
		PoolSize: noise.DefaultSize,
		Model:    motion.DefaultParams(),
	}
}

func (s Settings) seed() int64 {
	if s.Seed == 0 {
		return noise.DefaultSeed()
	}
	return s.Seed
}

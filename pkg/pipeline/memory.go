package pipeline

import (
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/tauraamui/noicevoid/pkg/log"
	"github.com/tauraamui/noicevoid/pkg/noise"
	"github.com/tauraamui/noicevoid/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

var ErrInsufficientMemory = xerror.New("insufficient memory for noise pool")

// warnFraction of available memory is where a single pool gets flagged.
const warnFraction = 0.5

var virtualMemory = func() (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemory()
}

// admit checks the pool a run is about to allocate against available
// memory. Pools are held for a whole run and concurrent runs multiply.
func admit(l log.Job, dims videoframe.Dimensions, s Settings) error {
	need := noise.EstimateBytes(dims, s.PoolSize)
	vm, err := virtualMemory()
	if err != nil {
		l.Debug("Unable to read memory stats, admitting pool of %d bytes: %v", need, err)
		return nil
	}

	available := float64(vm.Available)
	if s.MaxMemoryFraction > 0 && float64(need) > available*s.MaxMemoryFraction {
		return xerror.Errorf("%w: need %d bytes, %d available", ErrInsufficientMemory, need, vm.Available)
	}
	if float64(need) > available*warnFraction {
		l.Warn("Noise pool needs %d bytes of %d available, consider a smaller scale", need, vm.Available)
	}
	return nil
}

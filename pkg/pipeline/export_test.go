package pipeline

import (
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/afero"
	"github.com/tauraamui/noicevoid/pkg/job"
	"github.com/tauraamui/noicevoid/pkg/video/videoframe"
)

func OverloadFS(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}

func OverloadNow(overload func() time.Time) func() {
	nowRef := now
	now = overload
	return func() { now = nowRef }
}

func OverloadVirtualMemory(overload func() (*mem.VirtualMemoryStat, error)) func() {
	virtualMemoryRef := virtualMemory
	virtualMemory = overload
	return func() { virtualMemory = virtualMemoryRef }
}

func Admit(j job.Job, dims videoframe.Dimensions, s Settings) error {
	return admit(j.Log(), dims, s)
}

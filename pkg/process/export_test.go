package process

import (
	"time"

	"github.com/spf13/afero"
)

func OverloadFS(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}

func Sweep(dir string, maxAge time.Duration, inUse func(string) bool) int {
	return sweep(dir, maxAge, inUse)
}

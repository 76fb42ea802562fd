package audio

import (
	"context"
	"io"

	"github.com/spf13/afero"
)

func OverloadFS(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}

func OverloadRunCommand(overload func(context.Context, io.Reader, string, ...string) (string, error)) func() {
	runCommandRef := runCommand
	runCommand = overload
	return func() { runCommand = runCommandRef }
}

package log

import (
	"fmt"

	"github.com/tacusci/logging/v2"
)

var Debug = func(format string, a ...interface{}) {
	logging.Debug(format, a...) //nolint
}

var Info = func(format string, a ...interface{}) {
	logging.Info(format, a...) //nolint
}

var Warn = func(format string, a ...interface{}) {
	logging.Warn(format, a...) //nolint
}

var Error = func(format string, a ...interface{}) {
	logging.Error(format, a...) //nolint
}

var Fatal = func(format string, a ...interface{}) {
	logging.Fatal(format, a...) //nolint
}

// Job prefixes every line with the job's id so interleaved output from
// concurrent runs can be told apart. It resolves the package level funcs
// at call time, so overloads made by tests still capture its output.
type Job string

func (j Job) prefix(format string) string {
	if len(j) == 0 {
		return format
	}
	return fmt.Sprintf("[%s] %s", string(j), format)
}

func (j Job) Debug(format string, a ...interface{}) { Debug(j.prefix(format), a...) }
func (j Job) Info(format string, a ...interface{})  { Info(j.prefix(format), a...) }
func (j Job) Warn(format string, a ...interface{})  { Warn(j.prefix(format), a...) }
func (j Job) Error(format string, a ...interface{}) { Error(j.prefix(format), a...) }

package process

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/tauraamui/noicevoid/pkg/log"
)

var fs = afero.NewOsFs()
var TimeNow = time.Now

// SweepStaleFiles removes files directly under dir once they are older
// than maxAge, checking every interval until cancelled. Files for which
// inUse reports true are left for a later pass.
func SweepStaleFiles(dir string, maxAge, interval time.Duration, inUse func(string) bool) func(cancel context.Context) []chan interface{} {
	return func(cancel context.Context) []chan interface{} {
		log.Info("Sweeping files older than %s from %s", maxAge, dir)
		stopping := make(chan interface{})
		go func(cancel context.Context, stopping chan interface{}) {
			defer close(stopping)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				sweep(dir, maxAge, inUse)
				select {
				case <-cancel.Done():
					return
				case <-ticker.C:
				}
			}
		}(cancel, stopping)
		return []chan interface{}{stopping}
	}
}

func sweep(dir string, maxAge time.Duration, inUse func(string) bool) int {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		log.Debug("Unable to read %s for sweeping: %v", dir, err)
		return 0
	}

	cutoff := TimeNow().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !entry.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if inUse != nil && inUse(path) {
			log.Debug("Skipping stale file %s, still in use", path)
			continue
		}
		if err := fs.Remove(path); err != nil {
			log.Warn("Unable to remove stale file %s: %v", path, err)
			continue
		}
		log.Info("Removed stale file %s", path)
		removed++
	}
	return removed
}

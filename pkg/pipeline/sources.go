package pipeline

import (
	"path/filepath"
	"sync"
)

// sourceSet counts the runs currently reading each source path.
type sourceSet struct {
	mu    sync.Mutex
	count map[string]int
}

var activeSources = &sourceSet{count: map[string]int{}}

// hold marks path as read by one more run until the returned func is called.
func (s *sourceSet) hold(path string) func() {
	path = filepath.Clean(path)
	s.mu.Lock()
	s.count[path]++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.count[path]--; s.count[path] <= 0 {
				delete(s.count, path)
			}
		})
	}
}

func (s *sourceSet) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count[filepath.Clean(path)] > 0
}

// InUse reports whether a live stream or render is reading path.
func InUse(path string) bool {
	return activeSources.has(path)
}

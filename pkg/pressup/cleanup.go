package pressup

import (
	"sync"

	"github.com/pressup/pressup/pkg/util"
)

type cleanupEntry struct {
	desc string
	fn   func() error
}

// CleanupStack records every artifact created as a side effect of a run so a
// failing exit path can remove them in reverse order of creation. Removal is
// best-effort: failures are logged and never mask the original error.
type CleanupStack struct {
	mu      sync.Mutex
	entries []cleanupEntry
}

func NewCleanupStack() *CleanupStack {
	return &CleanupStack{}
}

func (s *CleanupStack) Register(desc string, fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, cleanupEntry{desc: desc, fn: fn})
}

func (s *CleanupStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run executes the registered cleanups in reverse order of registration and
// resets the stack.
func (s *CleanupStack) Run(logger util.Logger) {
	s.mu.Lock()
	entries := s.entries
	s.entries = nil
	s.mu.Unlock()
	for i := len(entries) - 1; i >= 0; i-- {
		logger.Debugf("cleaning up: %s", entries[i].desc)
		if err := entries[i].fn(); err != nil {
			logger.Errf("failed to clean up %s: %s", entries[i].desc, err.Error())
		}
	}
}

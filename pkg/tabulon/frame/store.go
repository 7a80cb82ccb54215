package frame

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store owns exactly one live frame plus at most one snapshot of the
// state before the last mutation. The snapshot backs single-step undo
// and is mirrored to a private scratch file so a crash mid-session never
// corrupts the live frame.
type Store struct {
	mu       sync.Mutex
	live     *Frame
	snapshot *Frame
	scratch  string
}

// NewStore creates a store around a frame; nil starts empty.
func NewStore(f *Frame) *Store {
	if f == nil {
		f = Empty()
	}
	return &Store{
		live:    f,
		scratch: filepath.Join(os.TempDir(), "tabulon-undo-"+uuid.NewString()+".json"),
	}
}

// Frame returns the live frame. Callers treat it as a read-only
// snapshot; mutations go through Mutate.
func (s *Store) Frame() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Replace installs a new live frame atomically, discarding any snapshot.
func (s *Store) Replace(f *Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = f
	s.snapshot = nil
}

// Mutate snapshots the live frame, applies fn and installs the result.
// On failure the snapshot is discarded and the live frame is unchanged.
// Mutate is non-reentrant: transforms on one store are serialised.
func (s *Store) Mutate(fn func(*Frame) (*Frame, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.live.Copy()
	next, err := fn(s.live)
	if err != nil {
		return err
	}
	s.snapshot = snap
	s.live = next
	s.writeScratch(snap)
	return nil
}

// Undo swaps the snapshot back in and discards it. Without a snapshot
// it is a no-op and reports false.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return false
	}
	s.live = s.snapshot
	s.snapshot = nil
	if err := os.Remove(s.scratch); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Debug("undo scratch cleanup")
	}
	return true
}

// CanUndo reports whether a snapshot is available.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot != nil
}

// MemoryBytes estimates the deep in-memory size of the live frame.
func (s *Store) MemoryBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live.MemoryBytes()
}

// Release removes the scratch file. The store is still usable but no
// longer crash-safe; call on sheet teardown.
func (s *Store) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.scratch); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Debug("store scratch cleanup")
	}
}

func (s *Store) writeScratch(f *Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		logrus.WithError(err).Warn("undo scratch encode")
		return
	}
	if err := os.WriteFile(s.scratch, b, 0o600); err != nil {
		logrus.WithError(err).Warn("undo scratch write")
	}
}

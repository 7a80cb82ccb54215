package book

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
)

// Pool runs long tasks, project saves mostly, off the caller's
// goroutine. Close waits for outstanding work so a save in progress
// finishes before teardown.
type Pool struct {
	jobs chan func() error
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts the given number of workers; at least one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{jobs: make(chan func() error, workers*2)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range p.jobs {
				if err := job(); err != nil {
					logrus.WithError(err).Error("background task failed")
				}
				p.wg.Done()
			}
		}()
	}
	return p
}

// Submit queues a task; done, when non-nil, receives the task's error
// and is how the caller learns the save completed.
func (p *Pool) Submit(task func() error, done chan<- error) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.wg.Add(1)
	p.mu.Unlock()

	p.jobs <- func() error {
		err := task()
		if done != nil {
			done <- err
		}
		return err
	}
	return true
}

// SaveAsync writes the workbook in the background. The archive
// document is snapshotted on the caller's goroutine before this
// returns, so the workbook may keep mutating while the worker writes.
// The returned channel delivers the save error, nil on success.
func (p *Pool) SaveAsync(w *Workbook, path string) <-chan error {
	done := make(chan error, 1)
	if !strings.EqualFold(filepath.Ext(path), Ext) {
		done <- tabulon.Errorf("pool.save", tabulon.ErrFormat, "project files use the %s extension, got %q", Ext, filepath.Ext(path))
		return done
	}
	doc := w.snapshot()
	if !p.Submit(func() error { return writeDoc(doc, path) }, done) {
		done <- tabulon.Errorf("pool.save", tabulon.ErrComputation, "worker pool is closed")
	}
	return done
}

// Close stops accepting work and blocks until everything queued has
// run.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	close(p.jobs)
}

package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nhle/persistdo/internal/model"
)

// Persister loads and saves the whole application state.
// Load returns nil, nil when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (*model.AppState, error)
	Save(ctx context.Context, state model.AppState) error
}

// saveTimeout bounds a single background save.
const saveTimeout = 10 * time.Second

// autoSaver writes state snapshots on its own goroutine so that callers
// never wait for disk. Only the newest pending snapshot is kept; a failed
// save is logged and not retried.
type autoSaver struct {
	p Persister

	mu      sync.Mutex
	pending *model.AppState
	lastErr error

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newAutoSaver(p Persister) *autoSaver {
	s := &autoSaver{
		p:    p,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

// schedule replaces the pending snapshot and nudges the worker.
func (s *autoSaver) schedule(state model.AppState) {
	s.mu.Lock()
	s.pending = &state
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
		// Worker already has a wake-up queued; it will pick up the newest snapshot.
	}
}

func (s *autoSaver) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.stop:
			s.flush()
			return
		}
	}
}

func (s *autoSaver) flush() {
	s.mu.Lock()
	state := s.pending
	s.pending = nil
	s.mu.Unlock()

	if state == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	err := s.p.Save(ctx, *state)
	if err != nil {
		log.Printf("[store] save failed: %v", err)
	}

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// err returns the result of the most recent save attempt.
func (s *autoSaver) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// close writes any pending snapshot and stops the worker.
func (s *autoSaver) close() {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

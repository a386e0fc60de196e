package feedback

import (
	"sync"
	"time"
)

// Stopper cancels a pending call; *time.Timer satisfies it
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules fn after d
type AfterFunc func(d time.Duration, fn func()) Stopper

func realAfterFunc(d time.Duration, fn func()) Stopper {
	return time.AfterFunc(d, fn)
}

// scheduler tracks delayed calls so they can be dropped together
type scheduler struct {
	afterFunc AfterFunc

	mu      sync.Mutex
	pending map[uint64]Stopper
	// firing counts calls that left pending but have not returned yet
	firing  int
	nextID  uint64
	closed  bool
}

func newScheduler(afterFunc AfterFunc) *scheduler {
	if afterFunc == nil {
		afterFunc = realAfterFunc
	}
	return &scheduler{afterFunc: afterFunc, pending: make(map[uint64]Stopper)}
}

func (s *scheduler) after(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.nextID++
	id := s.nextID
	s.pending[id] = s.afterFunc(d, func() {
		s.mu.Lock()
		_, live := s.pending[id]
		delete(s.pending, id)
		if live {
			s.firing++
		}
		s.mu.Unlock()
		if !live {
			return
		}
		defer func() {
			s.mu.Lock()
			s.firing--
			s.mu.Unlock()
		}()
		fn()
	})
}

// cancelAll drops every call that has not fired yet
func (s *scheduler) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}

func (s *scheduler) close() {
	s.cancelAll()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *scheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// idle reports whether no call is waiting or running
func (s *scheduler) idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) == 0 && s.firing == 0
}

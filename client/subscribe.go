package client

import "sync"

// FrameSender writes one realtime control frame. Implemented by the
// websocket wiring; tests use an in-memory fake.
type FrameSender interface {
	Send(op, table string) error
}

// Subscriptions reference-counts table subscriptions across views.
// A view acquires its tables on mount and releases them on unmount;
// the subscribe frame goes out only for the first acquirer and the
// unsubscribe frame only when the last one leaves.
type Subscriptions struct {
	sender FrameSender

	mu   sync.Mutex
	refs map[string]int
}

func NewSubscriptions(sender FrameSender) *Subscriptions {
	return &Subscriptions{sender: sender, refs: make(map[string]int)}
}

// Acquire subscribes to a table and returns the matching release
// function. Release is idempotent.
func (s *Subscriptions) Acquire(table string) (func(), error) {
	s.mu.Lock()
	s.refs[table]++
	first := s.refs[table] == 1
	s.mu.Unlock()

	if first {
		if err := s.sender.Send("subscribe", table); err != nil {
			s.mu.Lock()
			s.refs[table]--
			s.mu.Unlock()
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { s.release(table) })
	}, nil
}

func (s *Subscriptions) release(table string) {
	s.mu.Lock()
	if s.refs[table] == 0 {
		s.mu.Unlock()
		return
	}
	s.refs[table]--
	last := s.refs[table] == 0
	if last {
		delete(s.refs, table)
	}
	s.mu.Unlock()

	if last {
		_ = s.sender.Send("unsubscribe", table)
	}
}

// Active reports whether the table currently has subscribers.
func (s *Subscriptions) Active(table string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs[table] > 0
}

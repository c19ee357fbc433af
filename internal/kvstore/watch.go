package kvstore

import "sync"

// watchRegistry tracks one broadcast channel per watched key. Arming a
// watch subscribes a channel that is closed the next time the key is
// touched by a committed transaction; the caller re-arms to keep
// watching, which is what gives watches their "something changed since
// last arm" semantics (events may coalesce, never queue per-update).
type watchRegistry struct {
	mu   sync.Mutex
	subs map[string][]chan struct{}
}

func newWatchRegistry() *watchRegistry {
	return &watchRegistry{subs: make(map[string][]chan struct{})}
}

// arm returns a channel that closes the next time key is touched.
func (r *watchRegistry) arm(key []byte) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	k := string(key)
	r.subs[k] = append(r.subs[k], ch)
	return ch
}

// fire closes and clears every channel armed on key.
func (r *watchRegistry) fire(key []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := string(key)
	for _, ch := range r.subs[k] {
		close(ch)
	}
	delete(r.subs, k)
}

// Watch arms a watch on key and returns a channel that closes the next
// time a committed transaction touches key. Callers wanting a continuous
// stream must call Watch again after each fire.
func (s *Store) Watch(key []byte) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watches.arm(key)
}

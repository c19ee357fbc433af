package admin

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
)

// WatchSession is one outstanding `watch <type> <id>` CLI invocation:
// a cancellation token plus the channel the session is blocked on.
type WatchSession struct {
	Token      uuid.UUID
	EntityType entity.TypeName
	IDTuple    []byte

	changed <-chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

// Wait blocks until either the watched record's key is next touched by
// a committed transaction, the caller's ctx is done, or the session was
// released via Cancel/Release. It returns true if the record changed,
// false otherwise.
func (s *WatchSession) Wait(ctx context.Context) (changed bool, err error) {
	select {
	case <-s.changed:
		return true, nil
	case <-s.ctx.Done():
		return false, s.ctx.Err()
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Cancel releases the session early; a cancelled session's Wait returns
// with ctx.Err() the next time it is polled.
func (s *WatchSession) Cancel() {
	s.cancel()
}

// WatchRegistry hands out WatchSessions keyed by a uuid token, so a
// second CLI invocation (or an admin RPC, if one is ever added) can look
// up and cancel an in-flight watch by token rather than by process.
type WatchRegistry struct {
	kv *kvstore.Store

	mu       sync.Mutex
	sessions map[uuid.UUID]*WatchSession
}

// NewWatchRegistry builds an empty WatchRegistry over kv.
func NewWatchRegistry(kv *kvstore.Store) *WatchRegistry {
	return &WatchRegistry{kv: kv, sessions: make(map[uuid.UUID]*WatchSession)}
}

// Start arms a watch on (typeName, idTuple)'s record key and registers
// the resulting session under a fresh token.
func (r *WatchRegistry) Start(typeName entity.TypeName, idTuple []byte) *WatchSession {
	sessionCtx, cancel := context.WithCancel(context.Background())
	session := &WatchSession{
		Token:      uuid.New(),
		EntityType: typeName,
		IDTuple:    idTuple,
		changed:    r.kv.Watch(kvstore.RecordsKey(string(typeName), idTuple)),
		ctx:        sessionCtx,
		cancel:     cancel,
	}

	r.mu.Lock()
	r.sessions[session.Token] = session
	r.mu.Unlock()
	return session
}

// Lookup returns the session registered under token, if any.
func (r *WatchRegistry) Lookup(token uuid.UUID) (*WatchSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	return s, ok
}

// Release cancels and forgets the session registered under token.
func (r *WatchRegistry) Release(token uuid.UUID) {
	r.mu.Lock()
	session, ok := r.sessions[token]
	delete(r.sessions, token)
	r.mu.Unlock()
	if ok {
		session.cancel()
	}
}

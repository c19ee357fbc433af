// Package kvstore wraps an embedded ordered key-value engine (bbolt)
// behind a small transactional interface, the way the rest of the record
// layer expects to see "the store": read-write and read-only
// transactions, ordered range scans, an estimated-size hint for the
// planner, and a commit-sequenced watch registry.
package kvstore

import (
	"context"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
)

var rootBucket = []byte("fdblayer")

// KeyValue is one entry returned from a range scan.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Txn is the transaction handle passed to callers inside Transact/View.
// It exposes only ordered byte-key operations; all higher-level codecs
// (tuple packing, envelopes) live above this layer.
type Txn struct {
	bt       *bbolt.Tx
	readOnly bool
	touched  [][]byte
}

// Get reads a single key. A missing key returns (nil, nil), matching
// bbolt's "no error on miss" convention.
func (t *Txn) Get(key []byte) ([]byte, error) {
	b := t.bt.Bucket(rootBucket)
	if b == nil {
		return nil, nil
	}
	v := b.Get(key)
	if v == nil {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set writes key/value. It fails on a read-only transaction.
func (t *Txn) Set(key, value []byte) error {
	if t.readOnly {
		return fdberr.New(fdberr.CodeStoreUnavailable, "write attempted on read-only transaction", nil)
	}
	b, err := t.bt.CreateBucketIfNotExists(rootBucket)
	if err != nil {
		return fdberr.Wrap(fdberr.CodeStoreUnavailable, err)
	}
	t.touched = append(t.touched, key)
	return b.Put(key, value)
}

// Clear deletes key if present; deleting an absent key is a no-op,
// matching the record store's idempotent delete semantics.
func (t *Txn) Clear(key []byte) error {
	if t.readOnly {
		return fdberr.New(fdberr.CodeStoreUnavailable, "write attempted on read-only transaction", nil)
	}
	b := t.bt.Bucket(rootBucket)
	if b == nil {
		return nil
	}
	t.touched = append(t.touched, key)
	return b.Delete(key)
}

// RangeScan iterates [begin, end) in key order, in snapshot mode (bbolt
// cursors always observe a consistent view of the transaction's read
// version). end == nil scans to the end of the bucket. fn stops the scan
// by returning false.
func (t *Txn) RangeScan(begin, end []byte, fn func(KeyValue) (bool, error)) error {
	b := t.bt.Bucket(rootBucket)
	if b == nil {
		return nil
	}
	c := b.Cursor()
	for k, v := c.Seek(begin); k != nil; k, v = c.Next() {
		if end != nil && string(k) >= string(end) {
			break
		}
		kv := KeyValue{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)}
		cont, err := fn(kv)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return nil
}

// EstimatedRangeSize returns a cheap approximation of the number of keys
// in [begin, end), for the planner's cost model. bbolt has no native
// range-count statistic, so this walks the range counting keys; callers
// needing a true estimate on large ranges should cap how far they scan.
func (t *Txn) EstimatedRangeSize(begin, end []byte) (int64, error) {
	var n int64
	err := t.RangeScan(begin, end, func(KeyValue) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

// Store is the top-level handle applications open once at startup and
// share read-only across goroutines after that (the record layer's
// Container).
type Store struct {
	db *bbolt.DB

	mu      sync.Mutex
	watches *watchRegistry
}

// Open opens (creating if necessary) the bbolt-backed store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fdberr.Wrap(fdberr.CodeStoreUnavailable, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fdberr.Wrap(fdberr.CodeStoreUnavailable, err)
	}
	return &Store{db: db, watches: newWatchRegistry()}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Transact runs fn inside a single read-write transaction, retrying
// transient conflicts per cfg. On success, registered watches on any key
// touched via fn's Txn fire; bbolt transactions are already
// serialized by its writer lock, so "conflict" here means fn itself
// returned a retryable *fdberr.Error.
func (s *Store) Transact(ctx context.Context, cfg fdberr.RetryConfig, fn func(*Txn) error) error {
	return fdberr.Retry(ctx, cfg, func() error {
		txn := &Txn{bt: nil}
		err := s.db.Update(func(bt *bbolt.Tx) error {
			txn.bt = bt
			return fn(txn)
		})
		if err != nil {
			return err
		}
		for _, key := range txn.touched {
			s.touch(key)
		}
		return nil
	})
}

// View runs fn inside a read-only, snapshot-isolated transaction.
func (s *Store) View(ctx context.Context, fn func(*Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(bt *bbolt.Tx) error {
		return fn(&Txn{bt: bt, readOnly: true})
	})
}

// CommitVersion returns the store's current transaction sequence number,
// used as the "KV store read version" that index builds and watches
// reason about.
func (s *Store) CommitVersion() uint64 {
	return uint64(s.db.Stats().TxN)
}

func (s *Store) touch(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watches.fire(key)
}

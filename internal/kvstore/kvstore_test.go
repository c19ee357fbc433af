package kvstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/tuple"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTransact_SetThenViewGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Transact(ctx, fdberr.DefaultRetryConfig(), func(txn *Txn) error {
		return txn.Set([]byte("/R/widget/1"), []byte("payload"))
	})
	require.NoError(t, err)

	var got []byte
	err = s.View(ctx, func(txn *Txn) error {
		v, err := txn.Get([]byte("/R/widget/1"))
		got = v
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestTxn_GetMissingKeyReturnsNilNoError(t *testing.T) {
	s := openTestStore(t)
	var got []byte
	err := s.View(context.Background(), func(txn *Txn) error {
		v, err := txn.Get([]byte("/R/missing"))
		got = v
		return err
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTxn_ClearIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Transact(ctx, fdberr.DefaultRetryConfig(), func(txn *Txn) error {
		return txn.Clear([]byte("/R/never-existed"))
	})
	assert.NoError(t, err)
}

func TestTxn_SetOnReadOnlyFails(t *testing.T) {
	s := openTestStore(t)
	err := s.View(context.Background(), func(txn *Txn) error {
		return txn.Set([]byte("/R/x"), []byte("y"))
	})
	assert.Error(t, err)
}

func TestRangeScan_IteratesInKeyOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	keys := [][]byte{
		[]byte("/I/idx/a"),
		[]byte("/I/idx/b"),
		[]byte("/I/idx/c"),
	}
	err := s.Transact(ctx, fdberr.DefaultRetryConfig(), func(txn *Txn) error {
		for _, k := range keys {
			if err := txn.Set(k, []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var seen [][]byte
	err = s.View(ctx, func(txn *Txn) error {
		return txn.RangeScan([]byte("/I/idx/"), tuple.Increment([]byte("/I/idx/")), func(kv KeyValue) (bool, error) {
			seen = append(seen, kv.Key)
			return true, nil
		})
	})
	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.Equal(t, keys, seen)
}

func TestWatch_FiresOnCommittedWrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := []byte("/R/widget/1")

	armed := s.Watch(key)

	err := s.Transact(ctx, fdberr.DefaultRetryConfig(), func(txn *Txn) error {
		return txn.Set(key, []byte("v1"))
	})
	require.NoError(t, err)

	select {
	case <-armed:
	case <-time.After(time.Second):
		t.Fatal("watch did not fire within timeout")
	}
}

func TestWatch_DoesNotFireForUnrelatedKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	armed := s.Watch([]byte("/R/widget/1"))

	err := s.Transact(ctx, fdberr.DefaultRetryConfig(), func(txn *Txn) error {
		return txn.Set([]byte("/R/widget/2"), []byte("v1"))
	})
	require.NoError(t, err)

	select {
	case <-armed:
		t.Fatal("watch fired for unrelated key")
	case <-time.After(50 * time.Millisecond):
	}
}

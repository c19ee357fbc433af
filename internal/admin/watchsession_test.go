package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
	"github.com/aman-cerp/fdblayer/internal/tuple"
)

func TestWatchSession_WaitReturnsWhenRecordKeyIsTouched(t *testing.T) {
	kv := openTestKV(t)
	reg := NewWatchRegistry(kv)
	idTuple := tuple.Pack(tuple.Tuple{int64(1)})

	session := reg.Start("widget", idTuple)

	done := make(chan bool, 1)
	go func() {
		changed, err := session.Wait(context.Background())
		require.NoError(t, err)
		done <- changed
	}()

	require.NoError(t, kv.Transact(context.Background(), fdberr.DefaultRetryConfig(), func(txn *kvstore.Txn) error {
		return txn.Set(kvstore.RecordsKey("widget", idTuple), []byte("v1"))
	}))

	select {
	case changed := <-done:
		assert.True(t, changed)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch session to fire")
	}
}

func TestWatchRegistry_ReleaseCancelsWait(t *testing.T) {
	kv := openTestKV(t)
	reg := NewWatchRegistry(kv)
	idTuple := tuple.Pack(tuple.Tuple{int64(1)})

	session := reg.Start("widget", idTuple)
	reg.Release(session.Token)

	changed, err := session.Wait(context.Background())
	assert.False(t, changed)
	assert.Error(t, err)
}

func TestWatchRegistry_LookupFindsRegisteredSession(t *testing.T) {
	kv := openTestKV(t)
	reg := NewWatchRegistry(kv)
	session := reg.Start("widget", tuple.Pack(tuple.Tuple{int64(1)}))

	found, ok := reg.Lookup(session.Token)
	require.True(t, ok)
	assert.Equal(t, session, found)

	reg.Release(session.Token)
	_, ok = reg.Lookup(session.Token)
	assert.False(t, ok)
}

package scalarindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
	"github.com/aman-cerp/fdblayer/internal/tuple"
)

func openTestKV(t *testing.T) *kvstore.Store {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func idTuple(n int64) []byte { return tuple.Pack(tuple.Tuple{n}) }

func seedWidgets(t *testing.T, kv *kvstore.Store, idx entity.IndexDescriptor, rows map[int64]map[string]fieldvalue.Value) {
	t.Helper()
	ctx := context.Background()
	for id, fields := range rows {
		err := kv.Transact(ctx, fdberr.DefaultRetryConfig(), func(txn *kvstore.Txn) error {
			return Maintainer{}.Maintain(txn, idx, idTuple(id), nil, fields)
		})
		require.NoError(t, err)
	}
}

func TestStage_EqualityScan(t *testing.T) {
	kv := openTestKV(t)
	idx := entity.IndexDescriptor{Name: "by_category", Kind: entity.IndexKindScalar, Fields: []string{"category"}}

	seedWidgets(t, kv, idx, map[int64]map[string]fieldvalue.Value{
		1: {"category": fieldvalue.String("tools")},
		2: {"category": fieldvalue.String("parts")},
		3: {"category": fieldvalue.String("tools")},
	})

	stage := Stage{KV: kv, Index: idx, Pred: Predicate{Equalities: []fieldvalue.Value{fieldvalue.String("tools")}}}
	out, err := stage.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestStage_InScan_UnionsAndDedupes(t *testing.T) {
	kv := openTestKV(t)
	idx := entity.IndexDescriptor{Name: "by_category", Kind: entity.IndexKindScalar, Fields: []string{"category"}}

	seedWidgets(t, kv, idx, map[int64]map[string]fieldvalue.Value{
		1: {"category": fieldvalue.String("tools")},
		2: {"category": fieldvalue.String("parts")},
		3: {"category": fieldvalue.String("hardware")},
	})

	stage := Stage{KV: kv, Index: idx, Pred: Predicate{In: []fieldvalue.Value{fieldvalue.String("tools"), fieldvalue.String("parts")}}}
	out, err := stage.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestStage_RangeScan_InclusiveExclusiveBounds(t *testing.T) {
	kv := openTestKV(t)
	idx := entity.IndexDescriptor{Name: "by_price", Kind: entity.IndexKindScalar, Fields: []string{"price"}}

	seedWidgets(t, kv, idx, map[int64]map[string]fieldvalue.Value{
		1: {"price": fieldvalue.Int64(10)},
		2: {"price": fieldvalue.Int64(20)},
		3: {"price": fieldvalue.Int64(30)},
	})

	stage := Stage{KV: kv, Index: idx, Pred: Predicate{Range: &RangeBound{
		Min: fieldvalue.Int64(10), HasMin: true, MinInclusive: false,
		Max: fieldvalue.Int64(30), HasMax: true, MaxInclusive: true,
	}}}
	out, err := stage.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, out, 2) // excludes 10, includes 20 and 30
}

func TestStage_NullKeyedFieldNeverIndexed(t *testing.T) {
	kv := openTestKV(t)
	idx := entity.IndexDescriptor{Name: "by_category", Kind: entity.IndexKindScalar, Fields: []string{"category"}}

	seedWidgets(t, kv, idx, map[int64]map[string]fieldvalue.Value{
		1: {"category": fieldvalue.Null()},
	})

	stage := Stage{KV: kv, Index: idx, Pred: Predicate{Equalities: []fieldvalue.Value{fieldvalue.String("tools")}}}
	out, err := stage.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMaintainer_UpdateMovesIndexEntry(t *testing.T) {
	kv := openTestKV(t)
	ctx := context.Background()
	idx := entity.IndexDescriptor{Name: "by_category", Kind: entity.IndexKindScalar, Fields: []string{"category"}}

	err := kv.Transact(ctx, fdberr.DefaultRetryConfig(), func(txn *kvstore.Txn) error {
		return Maintainer{}.Maintain(txn, idx, idTuple(1), nil, map[string]fieldvalue.Value{"category": fieldvalue.String("tools")})
	})
	require.NoError(t, err)

	err = kv.Transact(ctx, fdberr.DefaultRetryConfig(), func(txn *kvstore.Txn) error {
		return Maintainer{}.Maintain(txn, idx,
			idTuple(1),
			map[string]fieldvalue.Value{"category": fieldvalue.String("tools")},
			map[string]fieldvalue.Value{"category": fieldvalue.String("parts")},
		)
	})
	require.NoError(t, err)

	oldStage := Stage{KV: kv, Index: idx, Pred: Predicate{Equalities: []fieldvalue.Value{fieldvalue.String("tools")}}}
	out, err := oldStage.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	newStage := Stage{KV: kv, Index: idx, Pred: Predicate{Equalities: []fieldvalue.Value{fieldvalue.String("parts")}}}
	out, err = newStage.Execute(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

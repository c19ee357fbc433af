package admin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/index"
	"github.com/aman-cerp/fdblayer/internal/recordstore"
	"github.com/aman-cerp/fdblayer/internal/scalarindex"
)

type rebuildWidget struct {
	IDValue  int64
	Category string
}

func (w rebuildWidget) TypeName() entity.TypeName { return "widget" }
func (w rebuildWidget) ID() []any                 { return []any{w.IDValue} }
func (w rebuildWidget) Fields() map[string]fieldvalue.Value {
	return map[string]fieldvalue.Value{"category": fieldvalue.String(w.Category)}
}
func (w rebuildWidget) Field(name string) (fieldvalue.Value, bool) {
	v, ok := w.Fields()[name]
	return v, ok
}

type rebuildJSONCodec struct{}

func (rebuildJSONCodec) Encode(e entity.Entity) ([]byte, error) { return json.Marshal(e.(rebuildWidget)) }
func (rebuildJSONCodec) Decode(typeName entity.TypeName, payload []byte) (entity.Entity, error) {
	var w rebuildWidget
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, err
	}
	return w, nil
}

func TestRebuildIndex_RecordsBuildHistoryOnSuccess(t *testing.T) {
	kv := openTestKV(t)
	ctx := context.Background()
	schema := entity.NewSchema(entity.EntityDescriptor{Name: "widget", Indexes: []entity.IndexDescriptor{byCategory}})
	rs := recordstore.New(kv, schema, rebuildJSONCodec{}, nil, recordstore.DefaultOptions())
	require.NoError(t, rs.Insert(ctx, rebuildWidget{IDValue: 1, Category: "tools"}))

	coord := index.NewCoordinator(index.CoordinatorConfig{
		KV:          kv,
		Store:       rs,
		Schema:      schema,
		Maintainers: map[entity.IndexKind]recordstore.IndexMaintainer{entity.IndexKindScalar: scalarindex.Maintainer{}},
		RetryConfig: fdberr.DefaultRetryConfig(),
	})
	history := openTestHistory(t)

	err := RebuildIndex(ctx, coord, history, "widget", "by_category")
	require.NoError(t, err)

	recs, err := history.RecentBuilds(ctx, "by_category", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, entity.IndexStatusReady, recs[0].Status)
	assert.Empty(t, recs[0].Err)
}

func TestRebuildIndex_RecordsBuildHistoryOnFailure(t *testing.T) {
	kv := openTestKV(t)
	ctx := context.Background()
	schema := entity.NewSchema(entity.EntityDescriptor{Name: "widget"}) // no indexes declared
	rs := recordstore.New(kv, schema, rebuildJSONCodec{}, nil, recordstore.DefaultOptions())

	coord := index.NewCoordinator(index.CoordinatorConfig{
		KV:          kv,
		Store:       rs,
		Schema:      schema,
		Maintainers: map[entity.IndexKind]recordstore.IndexMaintainer{entity.IndexKindScalar: scalarindex.Maintainer{}},
		RetryConfig: fdberr.DefaultRetryConfig(),
	})
	history := openTestHistory(t)

	err := RebuildIndex(ctx, coord, history, "widget", "by_category")
	require.Error(t, err)
	assert.Equal(t, fdberr.CodeIndexNotFound, fdberr.Code(err))

	recs, err := history.RecentBuilds(ctx, "by_category", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].Err)
}

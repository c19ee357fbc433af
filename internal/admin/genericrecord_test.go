package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
)

func TestGenericCodec_RoundTripsFields(t *testing.T) {
	rec := NewGenericRecord("widget", []any{int64(7)}, map[string]fieldvalue.Value{
		"category": fieldvalue.String("tools"),
		"price":    fieldvalue.Double(9.5),
	})

	payload, err := GenericCodec{}.Encode(rec)
	require.NoError(t, err)

	decoded, err := GenericCodec{}.Decode("widget", payload)
	require.NoError(t, err)

	assert.Equal(t, fieldvalue.String("tools"), mustField(t, decoded, "category"))
	assert.Equal(t, fieldvalue.Double(9.5), mustField(t, decoded, "price"))
}

func mustField(t *testing.T, e interface {
	Field(string) (fieldvalue.Value, bool)
}, name string) fieldvalue.Value {
	t.Helper()
	v, ok := e.Field(name)
	require.True(t, ok, "field %q missing", name)
	return v
}

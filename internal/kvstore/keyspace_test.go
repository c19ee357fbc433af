package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/tuple"
)

func TestIndexEntryKey_SuffixUnpacksToKeyFieldsThenID(t *testing.T) {
	keyFields := tuple.Pack(tuple.Tuple{"tools"})
	id := tuple.Pack(tuple.Tuple{int64(42)})

	key := IndexEntryKey("by_category", keyFields, id)
	prefix := IndexSubspaceKey("by_category", nil)

	require.True(t, len(key) > len(prefix))
	elements, err := tuple.Unpack(key[len(prefix):])
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, "tools", elements[0])
	assert.Equal(t, int64(42), elements[1])
}

func TestRecordsKey_TypeNameIsNeverAByteLevelPrefixOfAnother(t *testing.T) {
	shortPrefix := RecordsPrefix("A")
	longKey := RecordsKey("Ax", tuple.Pack(tuple.Tuple{int64(1)}))

	assert.False(t, hasPrefix(longKey, shortPrefix),
		"RecordsPrefix(%q) must not byte-prefix RecordsKey(%q, ...)", "A", "Ax")
}

func hasPrefix(key, prefix []byte) bool {
	return len(key) >= len(prefix) && string(key[:len(prefix)]) == string(prefix)
}

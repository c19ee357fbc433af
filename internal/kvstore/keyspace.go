package kvstore

import "github.com/aman-cerp/fdblayer/internal/tuple"

// Subspace byte prefixes. Each region of the key space gets a single
// leading byte so range scans over a region stay cheap and contiguous.
const (
	subspaceRecords       byte = 'R'
	subspaceIndexes       byte = 'I'
	subspaceStoreMeta     byte = 'S'
	subspaceIndexState    byte = 'T'
	subspaceMisc          byte = 'M'
	subspaceBlobChunks    byte = 'B'
	subspaceFormerIndexes byte = 'F' // nested under subspaceStoreMeta: S/F/<indexName>
)

// RecordsKey builds the primary key for typeName/idTuple: R/<typeName
// tuple-packed><id-tuple>. The type name is tuple-packed rather than
// concatenated raw so that one type name can never be a byte-prefix of
// another's (the tuple codec's null-terminator on string elements makes
// the encoded segment self-delimiting, unlike "A" vs "Ax" concatenated
// verbatim).
func RecordsKey(typeName string, idTuple []byte) []byte {
	return append(RecordsPrefix(typeName), idTuple...)
}

// RecordsPrefix returns the prefix covering every record of typeName.
func RecordsPrefix(typeName string) []byte {
	return append([]byte{subspaceRecords}, tuple.Pack(tuple.Tuple{typeName})...)
}

// IndexEntryKey builds a scalar/rank/vector index entry key:
// I/<indexName>/<keyFields-tuple><id-tuple>, with keyFieldsTuple and
// idTuple packed back to back as one continuous tuple stream (no
// separator between them) so a reader can Unpack the suffix as a single
// tuple and slice off the id elements by count.
func IndexEntryKey(indexName string, keyFieldsTuple, idTuple []byte) []byte {
	return append(IndexSubspaceKey(indexName, keyFieldsTuple), idTuple...)
}

// IndexPrefix returns the prefix covering every entry of indexName.
func IndexPrefix(indexName string) []byte {
	return concat([]byte{subspaceIndexes}, []byte(indexName))
}

// IndexSubspaceKey returns the prefix for one key-fields value within
// indexName: I/<indexName>/<keyFields-tuple>.
func IndexSubspaceKey(indexName string, keyFieldsTuple []byte) []byte {
	return concat([]byte{subspaceIndexes}, []byte(indexName), keyFieldsTuple)
}

// IndexStateKey builds the T/<indexName> key holding (state, builtThroughVersion).
func IndexStateKey(indexName string) []byte {
	return concat([]byte{subspaceIndexState}, []byte(indexName))
}

// StoreMetaKey builds a S/<key> entry.
func StoreMetaKey(key string) []byte {
	return concat([]byte{subspaceStoreMeta}, []byte(key))
}

// CodebookKey builds the S/<indexName>/codebooks key for a PQ codebook blob.
func CodebookKey(indexName string) []byte {
	return concat([]byte{subspaceStoreMeta}, []byte(indexName), []byte("/codebooks"))
}

// FormerIndexTombstoneKey builds the S/F/<indexName> tombstone key for an
// index subspace awaiting cleanup.
func FormerIndexTombstoneKey(indexName string) []byte {
	return concat([]byte{subspaceStoreMeta, subspaceFormerIndexes}, []byte(indexName))
}

// MiscKey builds a M/<key> entry.
func MiscKey(key string) []byte {
	return concat([]byte{subspaceMisc}, []byte(key))
}

// BlobChunkKey builds the B/<itemKeyBytes>/<chunkIndex> key.
func BlobChunkKey(itemKeyBytes []byte, chunkIndex uint32) []byte {
	idx := []byte{byte(chunkIndex >> 24), byte(chunkIndex >> 16), byte(chunkIndex >> 8), byte(chunkIndex)}
	return concat([]byte{subspaceBlobChunks}, itemKeyBytes, idx)
}

// BlobChunkPrefix returns the prefix covering every chunk of itemKeyBytes.
func BlobChunkPrefix(itemKeyBytes []byte) []byte {
	return concat([]byte{subspaceBlobChunks}, itemKeyBytes)
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, '/')
		out = append(out, p...)
	}
	return out
}

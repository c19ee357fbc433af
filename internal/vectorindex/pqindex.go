package vectorindex

import (
	"context"
	"encoding/binary"
	"math"
	"sync"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/fusion"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
	"github.com/aman-cerp/fdblayer/internal/pq"
	"github.com/aman-cerp/fdblayer/internal/tuple"
)

// codebookMagic identifies the PQ codebook blob format.
const codebookMagic = "PQ01"

// PQIndex is the mandated exact vector index backend: it trains a
// product quantizer, persists its codebooks as a single blob, stores
// one m-byte code per record, and answers Search with a brute-force
// asymmetric distance scan over the index subspace.
type PQIndex struct {
	kv        *kvstore.Store
	indexName string
	retry     fdberr.RetryConfig

	mu    sync.RWMutex
	codec *pq.Codec
}

// NewPQIndex builds a PQIndex for a vector field of the given dimension,
// split into subquantizers subspaces. Call Train (or LoadCodebook) before
// Add/Search.
func NewPQIndex(kv *kvstore.Store, indexName string, dimension, subquantizers int, retry fdberr.RetryConfig) (*PQIndex, error) {
	codec, err := pq.NewCodec(subquantizers, dimension, 0)
	if err != nil {
		return nil, err
	}
	return &PQIndex{kv: kv, indexName: indexName, retry: retry, codec: codec}, nil
}

// Train fits the codebooks from sample and persists them as a PQ01 blob
// under S/<indexName>/codebooks.
func (p *PQIndex) Train(ctx context.Context, sample [][]float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.codec.Train(sample); err != nil {
		return err
	}
	blob := encodeCodebook(p.codec)
	return p.kv.Transact(ctx, p.retry, func(txn *kvstore.Txn) error {
		return txn.Set(kvstore.CodebookKey(p.indexName), blob)
	})
}

// LoadCodebook restores previously trained codebooks from storage,
// letting a process resume Search/Add without retraining.
func (p *PQIndex) LoadCodebook(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var blob []byte
	err := p.kv.View(ctx, func(txn *kvstore.Txn) error {
		v, err := txn.Get(kvstore.CodebookKey(p.indexName))
		if err != nil {
			return err
		}
		blob = v
		return nil
	})
	if err != nil {
		return err
	}
	if blob == nil {
		return fdberr.New(fdberr.CodeNotTrained, "no codebook persisted for index "+p.indexName, nil)
	}

	codec, err := decodeCodebook(blob)
	if err != nil {
		return err
	}
	p.codec = codec
	return nil
}

// Add encodes each vector against the trained codebooks and writes the
// resulting code under I/<indexName>/<idTuple>.
func (p *PQIndex) Add(ctx context.Context, ids []fusion.ID, vectors [][]float32) error {
	p.mu.RLock()
	codec := p.codec
	p.mu.RUnlock()

	codes := make([][]byte, len(vectors))
	for i, v := range vectors {
		code, err := codec.Encode(v)
		if err != nil {
			return err
		}
		codes[i] = code
	}

	return p.kv.Transact(ctx, p.retry, func(txn *kvstore.Txn) error {
		for i, id := range ids {
			if err := txn.Set(p.recordKey(id), codes[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the persisted codes for ids.
func (p *PQIndex) Delete(ctx context.Context, ids []fusion.ID) error {
	return p.kv.Transact(ctx, p.retry, func(txn *kvstore.Txn) error {
		for _, id := range ids {
			if err := txn.Clear(p.recordKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Search scans every persisted code in the index subspace and returns
// the k closest by approximate squared-L2 distance.
func (p *PQIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	p.mu.RLock()
	codec := p.codec
	p.mu.RUnlock()

	table, err := codec.BuildDistanceTable(query)
	if err != nil {
		return nil, err
	}

	var ids []fusion.ID
	var codes [][]byte
	err = p.kv.View(ctx, func(txn *kvstore.Txn) error {
		prefix := kvstore.IndexSubspaceKey(p.indexName, nil)
		end := tuple.Increment(prefix)
		return txn.RangeScan(prefix, end, func(row kvstore.KeyValue) (bool, error) {
			id, err := idFromRecordKey(p.indexName, row.Key)
			if err != nil {
				return true, nil
			}
			ids = append(ids, id)
			codes = append(codes, row.Value)
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}

	top := pq.TopK(table, ids, codes, k)
	out := make([]Result, len(top))
	for i, c := range top {
		out[i] = Result{ID: c.Item, Distance: c.Distance}
	}
	return out, nil
}

func (p *PQIndex) recordKey(id fusion.ID) []byte {
	idTuple := tuple.Pack(tuple.Tuple{string(id)})
	return kvstore.IndexSubspaceKey(p.indexName, idTuple)
}

// idFromRecordKey recovers the fusion.ID packed into a record key built
// by recordKey, stripping the I/<indexName>/ prefix before unpacking.
func idFromRecordKey(indexName string, key []byte) (fusion.ID, error) {
	prefix := kvstore.IndexSubspaceKey(indexName, nil)
	if len(key) <= len(prefix) {
		return "", fdberr.New(fdberr.CodeSchemaMismatch, "index key shorter than its own prefix", nil)
	}
	suffix := key[len(prefix):]
	values, err := tuple.Unpack(suffix)
	if err != nil {
		return "", err
	}
	if len(values) != 1 {
		return "", fdberr.New(fdberr.CodeSchemaMismatch, "vector index key does not decode to a single id element", nil)
	}
	s, ok := values[0].(string)
	if !ok {
		return "", fdberr.New(fdberr.CodeSchemaMismatch, "vector index key id element is not a string", nil)
	}
	return fusion.ID(s), nil
}

func encodeCodebook(c *pq.Codec) []byte {
	m := c.M
	dsub := c.Dsub
	buf := make([]byte, 0, 4+12+m*pq.Ksub*dsub*4)
	buf = append(buf, codebookMagic...)
	buf = appendU32(buf, uint32(m))
	buf = appendU32(buf, uint32(pq.Ksub))
	buf = appendU32(buf, uint32(dsub))
	for s := 0; s < m; s++ {
		for k := 0; k < pq.Ksub; k++ {
			centroid := c.Centroid(s, k)
			for _, x := range centroid {
				buf = appendF32(buf, x)
			}
		}
	}
	return buf
}

func decodeCodebook(blob []byte) (*pq.Codec, error) {
	if len(blob) < 16 || string(blob[:4]) != codebookMagic {
		return nil, fdberr.New(fdberr.CodeSchemaMismatch, "codebook blob has an invalid magic header", nil)
	}
	m := int(binary.LittleEndian.Uint32(blob[4:8]))
	ksub := int(binary.LittleEndian.Uint32(blob[8:12]))
	dsub := int(binary.LittleEndian.Uint32(blob[12:16]))
	if ksub != pq.Ksub {
		return nil, fdberr.New(fdberr.CodeSchemaMismatch, "codebook blob ksub does not match this build's fixed Ksub", nil)
	}

	want := 16 + m*ksub*dsub*4
	if len(blob) != want {
		return nil, fdberr.New(fdberr.CodeSchemaMismatch, "codebook blob length does not match its declared dimensions", nil)
	}

	centroids := make([][][]float32, m)
	off := 16
	for s := 0; s < m; s++ {
		centroids[s] = make([][]float32, ksub)
		for k := 0; k < ksub; k++ {
			row := make([]float32, dsub)
			for d := 0; d < dsub; d++ {
				row[d] = readF32(blob[off : off+4])
				off += 4
			}
			centroids[s][k] = row
		}
	}

	codec, err := pq.NewCodec(m, m*dsub, 0)
	if err != nil {
		return nil, err
	}
	codec.SetCentroids(centroids)
	return codec, nil
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendF32(buf []byte, v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return append(buf, b[:]...)
}

func readF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

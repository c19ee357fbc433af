package textindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/fusion"
)

// bleveDocument is the document shape bleve indexes; only Content is
// analyzed, the identifier lives in bleve's own document ID.
type bleveDocument struct {
	Content string `json:"content"`
}

// BleveIndex implements TextIndex over a bleve full-text index, either
// in-memory (path == "") or persisted to disk.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

var _ TextIndex = (*BleveIndex)(nil)

// NewBleveIndex opens (or creates) a bleve index at path. path == ""
// creates an in-memory index, useful for tests and ephemeral stages.
func NewBleveIndex(path string) (*BleveIndex, error) {
	mapping := bleve.NewIndexMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("create text index directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, mapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open text index: %w", err)
	}

	return &BleveIndex{index: idx, path: path}, nil
}

// Index adds or replaces documents in the index, batched in one call.
func (b *BleveIndex) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fdberr.New(fdberr.CodeStoreUnavailable, "text index is closed", nil)
	}

	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(string(doc.ID), bleveDocument{Content: doc.Content}); err != nil {
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
	}
	return b.index.Batch(batch)
}

// Search runs a match query over the content field and returns results
// ranked by bleve's BM25-derived score.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]fusion.ScoredResult[fusion.ID], error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fdberr.New(fdberr.CodeStoreUnavailable, "text index is closed", nil)
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}

	out := make([]fusion.ScoredResult[fusion.ID], 0, len(result.Hits))
	for _, hit := range result.Hits {
		id := fusion.ID(hit.ID)
		out = append(out, fusion.ScoredResult[fusion.ID]{ID: id, Item: id, Score: hit.Score})
	}
	return out, nil
}

// Delete removes documents by id.
func (b *BleveIndex) Delete(ctx context.Context, ids []fusion.ID) error {
	if len(ids) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fdberr.New(fdberr.CodeStoreUnavailable, "text index is closed", nil)
	}

	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(string(id))
	}
	return b.index.Batch(batch)
}

// Stats reports the current document count.
func (b *BleveIndex) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return Stats{}
	}
	count, _ := b.index.DocCount()
	return Stats{DocumentCount: int(count)}
}

// Close releases the underlying bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

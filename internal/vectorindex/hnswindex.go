package vectorindex

import (
	"context"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/fusion"
)

// HNSWMetric selects the graph's distance function.
type HNSWMetric string

const (
	HNSWMetricCosine    HNSWMetric = "cos"
	HNSWMetricEuclidean HNSWMetric = "l2"
)

// HNSWConfig configures an HNSWIndex.
type HNSWConfig struct {
	Dimension int
	Metric    HNSWMetric
	M         int
	EfSearch  int
}

// HNSWIndex is the optional in-memory approximate backend, built
// directly by callers (no index descriptor field selects it). It adapts
// a lazy-deletion scheme: removing an id
// only drops its id<->key mapping, leaving the underlying graph node as
// an orphan, because deleting the graph's last remaining node corrupts
// it. Orphans never surface in Search since lookups go through keyMap.
type HNSWIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config HNSWConfig

	idMap   map[fusion.ID]uint64
	keyMap  map[uint64]fusion.ID
	nextKey uint64
}

// NewHNSWIndex builds an HNSW-backed index. Train is a no-op: HNSW needs
// no up-front fitting.
func NewHNSWIndex(cfg HNSWConfig) *HNSWIndex {
	if cfg.Metric == "" {
		cfg.Metric = HNSWMetricCosine
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	switch cfg.Metric {
	case HNSWMetricEuclidean:
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWIndex{
		graph:   graph,
		config:  cfg,
		idMap:   make(map[fusion.ID]uint64),
		keyMap:  make(map[uint64]fusion.ID),
		nextKey: 0,
	}
}

func (h *HNSWIndex) Train(ctx context.Context, sample [][]float32) error { return nil }

// Add inserts or replaces vectors for ids, normalizing for cosine metric.
// Replacing an existing id orphans its old graph node rather than
// deleting it.
func (h *HNSWIndex) Add(ctx context.Context, ids []fusion.ID, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fdberr.New(fdberr.CodeDimensionMismatch, "ids and vectors length mismatch", nil)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for i, id := range ids {
		if len(vectors[i]) != h.config.Dimension {
			return fdberr.New(fdberr.CodeDimensionMismatch, "vector dimension mismatch", nil)
		}

		if existingKey, exists := h.idMap[id]; exists {
			delete(h.keyMap, existingKey)
			delete(h.idMap, id)
		}

		key := h.nextKey
		h.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		if h.config.Metric == HNSWMetricCosine {
			normalizeInPlace(vec)
		}

		h.graph.Add(hnsw.MakeNode(key, vec))
		h.idMap[id] = key
		h.keyMap[key] = id
	}
	return nil
}

// Delete orphans ids' graph nodes by dropping their id<->key mappings.
func (h *HNSWIndex) Delete(ctx context.Context, ids []fusion.ID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range ids {
		if key, exists := h.idMap[id]; exists {
			delete(h.keyMap, key)
			delete(h.idMap, id)
		}
	}
	return nil
}

// Search finds up to k approximate nearest neighbors of query.
func (h *HNSWIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(query) != h.config.Dimension {
		return nil, fdberr.New(fdberr.CodeDimensionMismatch, "query vector dimension mismatch", nil)
	}
	if h.graph.Len() == 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	if h.config.Metric == HNSWMetricCosine {
		normalizeInPlace(q)
	}

	nodes := h.graph.Search(q, k)
	out := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		id, ok := h.keyMap[node.Key]
		if !ok {
			continue // orphaned by a prior lazy delete/replace
		}
		out = append(out, Result{ID: id, Distance: float64(h.graph.Distance(q, node.Value))})
	}
	return out, nil
}

// Stats reports live vs. orphaned graph nodes, for deciding when a
// background rebuild is worth the cost of reconstructing the graph.
type HNSWStats struct {
	Live    int
	Orphans int
}

func (h *HNSWIndex) Stats() HNSWStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	live := len(h.idMap)
	return HNSWStats{Live: live, Orphans: h.graph.Len() - live}
}

func normalizeInPlace(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i, x := range v {
		v[i] = float32(float64(x) / norm)
	}
}

package pq

import (
	"sort"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
)

// DistanceTable holds, for one query vector, the squared-L2 distance
// from each subspace's slice of the query to each of that subspace's
// Ksub centroids: table[s][k] = ||query_s - centroid[s][k]||^2.
type DistanceTable struct {
	codec *Codec
	table [][]float32 // [M][Ksub]
}

// BuildDistanceTable precomputes the asymmetric distance table for a
// query vector against the trained codec's centroids.
func (c *Codec) BuildDistanceTable(query []float32) (*DistanceTable, error) {
	if !c.trained {
		return nil, fdberr.New(fdberr.CodeNotTrained, "codec is not trained", nil)
	}
	if len(query) != c.Dimension() {
		return nil, fdberr.New(fdberr.CodeDimensionMismatch, "query vector dimension mismatch", nil)
	}

	table := make([][]float32, c.M)
	for s := 0; s < c.M; s++ {
		sub := query[s*c.Dsub : (s+1)*c.Dsub]
		row := make([]float32, Ksub)
		for k, centroid := range c.centroids[s] {
			row[k] = float32(squaredL2(sub, centroid))
		}
		table[s] = row
	}
	return &DistanceTable{codec: c, table: table}, nil
}

// Score sums the precomputed per-subspace distances for code, giving
// the approximate squared-L2 distance between the original query and
// the quantized vector code represents. Lower is closer.
func (t *DistanceTable) Score(code []byte) float64 {
	var sum float64
	for s, idx := range code {
		sum += float64(t.table[s][idx])
	}
	return sum
}

// Candidate pairs an identifier with its ADC-approximated distance.
type Candidate[T any] struct {
	Item     T
	Distance float64
}

// TopK scores every (item, code) pair against t and returns the k
// closest, ascending by distance. Ties are stable in input order.
func TopK[T any](t *DistanceTable, items []T, codes [][]byte, k int) []Candidate[T] {
	out := make([]Candidate[T], len(items))
	for i := range items {
		out[i] = Candidate[T]{Item: items[i], Distance: t.Score(codes[i])}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if k >= 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

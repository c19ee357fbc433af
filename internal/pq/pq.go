// Package pq implements Product Quantization: per-subspace k-means
// training, lossy encode/decode, and the codec type consumed by
// internal/vectorindex for brute-force asymmetric distance scans.
package pq

import (
	"math"
	"math/rand"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
)

// Ksub is the fixed number of centroids per subspace.
const Ksub = 256

// defaultMaxIterations is the default Lloyd-iteration cap.
const defaultMaxIterations = 25

// convergenceThreshold is the RMS centroid-drift convergence bound.
const convergenceThreshold = 1e-4

// Codec is a trained (or untrained) product quantizer over vectors of
// dimension D = M * Dsub.
type Codec struct {
	M             int
	Dsub          int
	MaxIterations int
	centroids     [][][]float32 // [M][Ksub][Dsub]
	trained       bool
}

// NewCodec builds an untrained codec. d must be divisible by m. niter<=0
// selects the default of 25 Lloyd iterations.
func NewCodec(m, d, niter int) (*Codec, error) {
	if m <= 0 || d <= 0 || d%m != 0 {
		return nil, fdberr.New(fdberr.CodeDimensionMismatch, "subquantizer count must divide vector dimension", nil)
	}
	if niter <= 0 {
		niter = defaultMaxIterations
	}
	return &Codec{M: m, Dsub: d / m, MaxIterations: niter}, nil
}

// IsTrained reports whether every subspace has Ksub centroids.
func (c *Codec) IsTrained() bool { return c.trained }

// Centroid returns subspace s's centroid k, for callers that need to
// serialize the trained codebooks (see vectorindex's PQ01 blob format).
func (c *Codec) Centroid(s, k int) []float32 { return c.centroids[s][k] }

// SetCentroids installs externally-decoded centroids (one [Ksub][Dsub]
// slice per subspace) and marks the codec trained, for callers
// restoring a codebook blob without rerunning k-means.
func (c *Codec) SetCentroids(centroids [][][]float32) {
	c.centroids = centroids
	c.trained = true
}

// Dimension returns the full vector dimension D = M * Dsub.
func (c *Codec) Dimension() int { return c.M * c.Dsub }

// Train runs k-means++ independently per subspace over vectors, each of
// length Dimension(). Subspaces with fewer than Ksub training vectors
// duplicate random ones to fill; clusters that end up empty after a
// Lloyd pass reseed from a random training vector.
func (c *Codec) Train(vectors [][]float32) error {
	if len(vectors) == 0 {
		return fdberr.New(fdberr.CodeDimensionMismatch, "no training vectors supplied", nil)
	}
	for _, v := range vectors {
		if len(v) != c.Dimension() {
			return fdberr.New(fdberr.CodeDimensionMismatch, "training vector dimension mismatch", nil)
		}
	}

	centroids := make([][][]float32, c.M)
	for s := 0; s < c.M; s++ {
		sub := extractSubspace(vectors, s, c.Dsub)
		centroids[s] = trainSubspace(sub, c.Dsub, c.MaxIterations)
	}

	c.centroids = centroids
	c.trained = true
	return nil
}

// Encode assigns each subspace's subvector to its nearest centroid
// (squared L2) and returns the resulting M-byte code.
func (c *Codec) Encode(vector []float32) ([]byte, error) {
	if !c.trained {
		return nil, fdberr.New(fdberr.CodeNotTrained, "codec is not trained", nil)
	}
	if len(vector) != c.Dimension() {
		return nil, fdberr.New(fdberr.CodeDimensionMismatch, "vector dimension mismatch", nil)
	}

	code := make([]byte, c.M)
	for s := 0; s < c.M; s++ {
		sub := vector[s*c.Dsub : (s+1)*c.Dsub]
		code[s] = byte(nearestCentroid(sub, c.centroids[s]))
	}
	return code, nil
}

// Decode reconstructs a lossy approximation of the original vector by
// concatenating the looked-up centroids.
func (c *Codec) Decode(code []byte) ([]float32, error) {
	if !c.trained {
		return nil, fdberr.New(fdberr.CodeNotTrained, "codec is not trained", nil)
	}
	if len(code) != c.M {
		return nil, fdberr.New(fdberr.CodeCodeSizeMismatch, "code length does not match subquantizer count", nil)
	}

	out := make([]float32, 0, c.Dimension())
	for s, idx := range code {
		out = append(out, c.centroids[s][idx]...)
	}
	return out, nil
}

func extractSubspace(vectors [][]float32, s, dsub int) [][]float32 {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		sub := make([]float32, dsub)
		copy(sub, v[s*dsub:(s+1)*dsub])
		out[i] = sub
	}
	return out
}

// trainSubspace runs k-means++ init and Lloyd iterations for one
// subspace's training vectors, returning exactly Ksub centroids.
func trainSubspace(vectors [][]float32, dsub, maxIterations int) [][]float32 {
	vectors = ensureEnoughVectors(vectors, Ksub)
	centroids := kmeansPlusPlusInit(vectors, Ksub)

	for iter := 0; iter < maxIterations; iter++ {
		assignments := make([]int, len(vectors))
		for i, v := range vectors {
			assignments[i] = nearestCentroid(v, centroids)
		}

		sums := make([][]float64, Ksub)
		counts := make([]int, Ksub)
		for k := range sums {
			sums[k] = make([]float64, dsub)
		}
		for i, v := range vectors {
			k := assignments[i]
			counts[k]++
			for d, x := range v {
				sums[k][d] += float64(x)
			}
		}

		newCentroids := make([][]float32, Ksub)
		maxDrift := 0.0
		for k := 0; k < Ksub; k++ {
			if counts[k] == 0 {
				// Empty cluster: reseed from a random training vector.
				reseed := vectors[rand.Intn(len(vectors))]
				newCentroids[k] = append([]float32(nil), reseed...)
				maxDrift = math.Max(maxDrift, centroidDistance(centroids[k], newCentroids[k]))
				continue
			}
			nc := make([]float32, dsub)
			for d := 0; d < dsub; d++ {
				nc[d] = float32(sums[k][d] / float64(counts[k]))
			}
			newCentroids[k] = nc
			maxDrift = math.Max(maxDrift, centroidDistance(centroids[k], nc))
		}

		centroids = newCentroids
		if math.Sqrt(maxDrift) < convergenceThreshold {
			break
		}
	}
	return centroids
}

// ensureEnoughVectors duplicates random vectors until there are at least
// n, so k-means has enough points to seed n centroids.
func ensureEnoughVectors(vectors [][]float32, n int) [][]float32 {
	if len(vectors) >= n {
		return vectors
	}
	out := append([][]float32(nil), vectors...)
	for len(out) < n {
		out = append(out, vectors[rand.Intn(len(vectors))])
	}
	return out
}

// kmeansPlusPlusInit picks k initial centroids using the k-means++
// weighted-distance seeding rule.
func kmeansPlusPlusInit(vectors [][]float32, k int) [][]float32 {
	centroids := make([][]float32, 0, k)
	first := vectors[rand.Intn(len(vectors))]
	centroids = append(centroids, append([]float32(nil), first...))

	distSq := make([]float64, len(vectors))
	for len(centroids) < k {
		total := 0.0
		for i, v := range vectors {
			d := nearestCentroidDistance(v, centroids)
			distSq[i] = d
			total += d
		}
		if total == 0 {
			// All remaining points coincide with existing centroids;
			// pick uniformly at random to keep progressing.
			centroids = append(centroids, append([]float32(nil), vectors[rand.Intn(len(vectors))]...))
			continue
		}
		target := rand.Float64() * total
		cum := 0.0
		chosen := vectors[len(vectors)-1]
		for i, v := range vectors {
			cum += distSq[i]
			if cum >= target {
				chosen = v
				break
			}
		}
		centroids = append(centroids, append([]float32(nil), chosen...))
	}
	return centroids
}

func nearestCentroidDistance(v []float32, centroids [][]float32) float64 {
	best := math.Inf(1)
	for _, c := range centroids {
		d := squaredL2(v, c)
		if d < best {
			best = d
		}
	}
	return best
}

func nearestCentroid(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		d := squaredL2(v, c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func centroidDistance(a, b []float32) float64 {
	return squaredL2(a, b)
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return sum
}

package pq

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodec_RejectsDimensionNotDivisibleByM(t *testing.T) {
	_, err := NewCodec(3, 10, 0)
	assert.Error(t, err)
}

func TestCodec_EncodeBeforeTrainFails(t *testing.T) {
	c, err := NewCodec(2, 8, 0)
	require.NoError(t, err)
	_, err = c.Encode(make([]float32, 8))
	assert.Error(t, err)
}

func TestCodec_EncodeWrongDimensionFails(t *testing.T) {
	c := trainedCodec(t, 2, 8, 64)
	_, err := c.Encode(make([]float32, 4))
	assert.Error(t, err)
}

func TestCodec_TrainThenEncodeDecode_ApproximatesOriginal(t *testing.T) {
	c := trainedCodec(t, 4, 16, 128)

	vec := randomVector(16)
	code, err := c.Encode(vec)
	require.NoError(t, err)
	require.Len(t, code, 4)

	reconstructed, err := c.Decode(code)
	require.NoError(t, err)
	require.Len(t, reconstructed, 16)

	// Reconstruction error should be small relative to the vector's own
	// scale since it was drawn from the same distribution as training data.
	dist := squaredL2(vec, reconstructed)
	assert.Less(t, dist, 16.0)
}

func TestCodec_DecodeWrongCodeLengthFails(t *testing.T) {
	c := trainedCodec(t, 2, 8, 64)
	_, err := c.Decode([]byte{0})
	assert.Error(t, err)
}

func TestCodec_TrainWithFewerVectorsThanKsub_StillProducesKsubCentroids(t *testing.T) {
	c, err := NewCodec(2, 4, 5)
	require.NoError(t, err)
	vectors := make([][]float32, 10)
	for i := range vectors {
		vectors[i] = randomVector(4)
	}
	require.NoError(t, c.Train(vectors))
	assert.True(t, c.IsTrained())

	code, err := c.Encode(vectors[0])
	require.NoError(t, err)
	assert.Len(t, code, 2)
}

func trainedCodec(t *testing.T, m, d, n int) *Codec {
	t.Helper()
	c, err := NewCodec(m, d, 10)
	require.NoError(t, err)
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = randomVector(d)
	}
	require.NoError(t, c.Train(vectors))
	return c
}

func randomVector(d int) []float32 {
	v := make([]float32, d)
	for i := range v {
		v[i] = rand.Float32()
	}
	return v
}

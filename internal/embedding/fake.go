package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
)

// Deterministic is an in-process Embedder with no external dependency: it
// derives a unit vector from a hash of the input text. Two equal strings
// always embed to the same vector; unrelated strings embed to (with high
// probability) low-similarity vectors. It exists so indexcore/search/updater
// tests can exercise the real mutation and ranking algorithms without a
// model server, exactly as the spec calls for ("tests substitute fakes").
type Deterministic struct {
	dim int
}

// NewDeterministic returns a Deterministic embedder producing Dimension-wide
// vectors.
func NewDeterministic() *Deterministic {
	return &Deterministic{dim: Dimension}
}

func (d *Deterministic) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = unitVectorFor(t, d.dim)
	}
	return out, nil
}

func unitVectorFor(text string, dim int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	src := rand.New(rand.NewSource(int64(h.Sum64())))

	v := make([]float32, dim)
	var norm float64
	for i := range v {
		x := src.NormFloat64()
		v[i] = float32(x)
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		// Degenerate case (astronomically unlikely): fall back to a basis
		// vector so callers never receive a zero vector.
		v[0] = 1
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

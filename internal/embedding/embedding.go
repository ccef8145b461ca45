// Package embedding defines the Embedder interface the index core and
// search service depend on, and the implementations that satisfy it.
package embedding

import "context"

// Dimension is the embedding width this system is built around (the spec's
// 768-dimensional unit-norm vector).
const Dimension = 768

// Embedder maps text to unit-norm vectors. A single call embeds a batch so
// that rebuild (internal/indexcore) can embed its whole corpus in one round
// trip to the model, matching the teacher's batch-oriented external calls
// (e.g. redis pipelines in redis/channel_repo.go).
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

package embed

import "context"

// Embedder converts a 16 kHz mono WAV file into a sequence of
// fixed-dimension vectors, one per second of audio, per spec.md §1.
// A real implementation proxies to the out-of-core AST model
// (original_source/pipeline/embedder.py); this package only fixes the
// contract.
type Embedder interface {
	// Embed returns one vector per second of audioPath, and the
	// timestamp of each vector in absolute seconds (offsetSeconds +
	// the vector's position within audioPath). All returned vectors
	// share the same dimension.
	Embed(ctx context.Context, audioPath string, offsetSeconds float64) (vectors [][]float32, timestamps []float64, err error)
}

package embed

import (
	"context"
	"math"
	"os"
)

// FakeEmbedder is a deterministic Embedder for tests: it derives one
// vector per second of the file's byte size (standing in for actual
// audio duration) from a fixed seed pattern, so ingest/search tests
// can exercise alignment behavior without the real AST model.
type FakeEmbedder struct {
	Dim            int
	SecondsPerFile func(audioPath string) (int, error)
	// VectorAt, if set, overrides the default deterministic vector
	// generator for second n of audioPath.
	VectorAt func(audioPath string, n int) []float32
}

// NewFakeEmbedder returns a FakeEmbedder producing dim-dimensional
// vectors, one per second of file size in bytes (minimum 1 second).
func NewFakeEmbedder(dim int) *FakeEmbedder {
	if dim <= 0 {
		dim = 8
	}
	return &FakeEmbedder{Dim: dim}
}

func (f *FakeEmbedder) Embed(_ context.Context, audioPath string, offsetSeconds float64) ([][]float32, []float64, error) {
	seconds, err := f.seconds(audioPath)
	if err != nil {
		return nil, nil, err
	}

	vectors := make([][]float32, seconds)
	timestamps := make([]float64, seconds)
	for n := 0; n < seconds; n++ {
		vectors[n] = f.vectorAt(audioPath, n)
		timestamps[n] = offsetSeconds + float64(n)
	}
	return vectors, timestamps, nil
}

func (f *FakeEmbedder) seconds(audioPath string) (int, error) {
	if f.SecondsPerFile != nil {
		return f.SecondsPerFile(audioPath)
	}
	info, err := os.Stat(audioPath)
	if err != nil {
		return 0, err
	}
	seconds := int(info.Size() / 32000)
	if seconds < 1 {
		seconds = 1
	}
	return seconds, nil
}

func (f *FakeEmbedder) vectorAt(audioPath string, n int) []float32 {
	if f.VectorAt != nil {
		return f.VectorAt(audioPath, n)
	}
	v := make([]float32, f.Dim)
	for d := range v {
		v[d] = float32(math.Sin(float64(n + d)))
	}
	return v
}

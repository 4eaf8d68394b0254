package source

// AudioChunk is a lag-safe window of archive audio ready for
// embedding, per spec.md §4.3.
type AudioChunk struct {
	AudioPath      string
	OffsetSeconds  float64
	DurationSeconds float64
}

package search

import (
	"context"

	"github.com/manofshad/vodhunter-go/internal/align"
	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/embed"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/vectormatch"
)

// Result is the assembled search outcome, per spec.md §4.7's
// SearchResult{found, streamer?, video_id?, video_url?, title?,
// timestamp_seconds?, score?, reason}.
type Result struct {
	Found            bool
	Streamer         string
	VideoID          int64
	VideoURL         string
	Title            string
	TimestampSeconds int
	Score            float64
	Reason           string
}

// VectorSource is the subset of vectorstore.Store the service needs
// to load the current fingerprint index.
type VectorSource interface {
	Load() ([][]float32, []int64, error)
}

// Gate reports whether a search may run right now. Supervisor
// implements it; the service refuses to search while it does not
// hold, per spec.md §4.7's SearchBusy policy.
type Gate interface {
	CanSearch() bool
}

// Preprocessor converts an uploaded clip into a 16 kHz mono WAV
// suitable for embedding, and cleans up the result afterward.
// *FFmpegPreprocessor is the production implementation.
type Preprocessor interface {
	Prepare(ctx context.Context, clipPath string) (string, error)
	Cleanup(path string)
}

// Service wires clip preprocessing, embedding, vector matching, and
// alignment into a single search, translated directly from
// original_source/search/search_service.py's SearchService.search_file.
type Service struct {
	preprocessor Preprocessor
	embedder     embed.Embedder
	vectors      VectorSource
	matcher      *vectormatch.Matcher
	aligner      *align.Engine
	meta         *metadata.Store
	gate         Gate
}

// New returns a Service. gate may be nil, in which case the service
// never refuses a search (used by tests and offline tooling that run
// without a monitor supervisor).
func New(preprocessor Preprocessor, embedder embed.Embedder, vectors VectorSource, matcher *vectormatch.Matcher, aligner *align.Engine, meta *metadata.Store, gate Gate) *Service {
	return &Service{
		preprocessor: preprocessor,
		embedder:     embedder,
		vectors:      vectors,
		matcher:      matcher,
		aligner:      aligner,
		meta:         meta,
		gate:         gate,
	}
}

// SearchFile identifies the Twitch broadcast a clip was recorded from.
func (s *Service) SearchFile(ctx context.Context, clipPath string) (Result, error) {
	if s.gate != nil && !s.gate.CanSearch() {
		return Result{}, apperr.Conflictf("a monitor is currently ingesting; try again once it returns to idle")
	}

	preparedWAV, err := s.preprocessor.Prepare(ctx, clipPath)
	if err != nil {
		return Result{}, err
	}
	defer s.preprocessor.Cleanup(preparedWAV)

	queryVectors, queryTimestamps, err := s.embedder.Embed(ctx, preparedWAV, 0)
	if err != nil {
		return Result{}, err
	}
	if len(queryVectors) == 0 {
		return Result{Found: false, Reason: "query clip produced no embeddings"}, nil
	}

	dbVectors, dbIDs, err := s.vectors.Load()
	if err != nil {
		return Result{}, err
	}
	if len(dbVectors) == 0 {
		return Result{Found: false, Reason: "the fingerprint index is empty"}, nil
	}

	_, neighborIDs, err := s.matcher.Match(queryVectors, dbVectors, dbIDs)
	if err != nil {
		return Result{}, err
	}

	alignment, err := s.aligner.Align(ctx, neighborIDs, queryTimestamps)
	if err != nil {
		return Result{}, err
	}
	if !alignment.Found {
		return Result{Found: false, Reason: alignment.Reason}, nil
	}

	video, err := s.meta.GetVideoWithCreator(ctx, alignment.VideoID)
	if err != nil {
		return Result{}, err
	}
	if video == nil {
		return Result{}, apperr.Transientf("search: aligned video %d has no metadata row", alignment.VideoID)
	}

	return Result{
		Found:            true,
		Streamer:         video.CreatorName,
		VideoID:          video.VideoID,
		VideoURL:         video.URL,
		Title:            video.Title,
		TimestampSeconds: alignment.TimestampSeconds,
		Score:            alignment.Score,
	}, nil
}

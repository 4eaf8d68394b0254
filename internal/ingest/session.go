package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/manofshad/vodhunter-go/internal/embed"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/source"
	"github.com/manofshad/vodhunter-go/internal/vectorstore"
)

// Source is the subset of source.ArchiveFollower an IngestSession
// drives.
type Source interface {
	Start(ctx context.Context) error
	NextChunk(ctx context.Context) (*source.AudioChunk, error)
	IsFinished() bool
	Stop()
	VideoID() int64
}

// Session cooperatively drives a Source to completion, embedding each
// chunk it yields and persisting fingerprints+vectors before asking
// for the next one, per spec.md §4.4.
type Session struct {
	src      Source
	embedder embed.Embedder
	meta     *metadata.Store
	vectors  *vectorstore.Store
	logger   zerolog.Logger

	pollInterval time.Duration

	running atomic.Bool
	mu      sync.Mutex
}

// New returns a Session, not yet running.
func New(src Source, embedder embed.Embedder, meta *metadata.Store, vectors *vectorstore.Store, pollInterval time.Duration, logger zerolog.Logger) *Session {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	return &Session{
		src:          src,
		embedder:     embedder,
		meta:         meta,
		vectors:      vectors,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Run executes the main ingest loop until the source finishes, Stop
// is called, or ctx is canceled. source.Stop always runs on exit, per
// spec.md §4.4.
func (s *Session) Run(ctx context.Context) error {
	s.running.Store(true)

	if err := s.src.Start(ctx); err != nil {
		s.src.Stop()
		return err
	}
	defer s.src.Stop()

	for s.running.Load() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		chunk, err := s.src.NextChunk(ctx)
		if err != nil {
			return err
		}

		if chunk == nil {
			if s.src.IsFinished() {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pollInterval):
			}
			continue
		}

		if err := s.ingestChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) ingestChunk(ctx context.Context, chunk *source.AudioChunk) error {
	vectors, timestamps, err := s.embedder.Embed(ctx, chunk.AudioPath, chunk.OffsetSeconds)
	if err != nil {
		return err
	}
	if len(timestamps) == 0 {
		s.logger.Debug().Str("path", chunk.AudioPath).Msg("embedder produced no timestamps, skipping chunk")
		return nil
	}

	ids, err := s.meta.StoreFingerprints(ctx, s.src.VideoID(), timestamps)
	if err != nil {
		return err
	}

	if err := s.vectors.Append(vectors, ids); err != nil {
		return err
	}

	s.logger.Debug().
		Int64("video_id", s.src.VideoID()).
		Int("count", len(ids)).
		Float64("offset_seconds", chunk.OffsetSeconds).
		Msg("ingested chunk")
	return nil
}

// Stop requests a clean stop; the current chunk (if any) still
// finishes persisting before the loop exits.
func (s *Session) Stop() {
	s.running.Store(false)
}

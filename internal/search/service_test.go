package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manofshad/vodhunter-go/internal/align"
	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/embed"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/vectormatch"
)

// fakeVectorSource serves a fixed index without touching disk.
type fakeVectorSource struct {
	vectors [][]float32
	ids     []int64
}

func (f *fakeVectorSource) Load() ([][]float32, []int64, error) {
	return f.vectors, f.ids, nil
}

type fixedGate struct{ canSearch bool }

func (g fixedGate) CanSearch() bool { return g.canSearch }

// passthroughPreprocessor bypasses ffmpeg: Prepare returns clipPath
// unchanged, so service-level tests do not depend on an ffmpeg binary
// being present. The real ffmpeg invocation is exercised only by
// FFmpegPreprocessor's own validation-level tests.
type passthroughPreprocessor struct {
	prepareErr error
	cleaned    []string
}

func (p *passthroughPreprocessor) Prepare(_ context.Context, clipPath string) (string, error) {
	if p.prepareErr != nil {
		return "", p.prepareErr
	}
	return clipPath, nil
}

func (p *passthroughPreprocessor) Cleanup(path string) {
	p.cleaned = append(p.cleaned, path)
}

func newStubService(t *testing.T, store *metadata.Store, vectors VectorSource, gate Gate) (*Service, *passthroughPreprocessor, string) {
	t.Helper()
	pre := &passthroughPreprocessor{}

	clipPath := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(clipPath, []byte("not-really-audio"), 0o600))

	matcher := vectormatch.New(5)
	aligner := align.New(store, align.Config{MinVoteCount: 1, MinVoteRatio: 0.0})
	svc := New(pre, embed.NewFakeEmbedder(4), vectors, matcher, aligner, store, gate)
	return svc, pre, clipPath
}

func newTestStoreWithVideo(t *testing.T) (*metadata.Store, int64) {
	t.Helper()
	store, err := metadata.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Init(t.Context()))
	t.Cleanup(func() { store.Close() })

	creatorID, err := store.CreateOrGetCreator(t.Context(), "somestreamer", "https://www.twitch.tv/somestreamer")
	require.NoError(t, err)
	videoID, err := store.CreateVideo(t.Context(), creatorID, "https://www.twitch.tv/videos/99", "a vod", false)
	require.NoError(t, err)
	return store, videoID
}

func TestSearchFile_RejectsWhenGateClosed(t *testing.T) {
	store, _ := newTestStoreWithVideo(t)
	svc, pre, clipPath := newStubService(t, store, &fakeVectorSource{}, fixedGate{canSearch: false})

	_, err := svc.SearchFile(context.Background(), clipPath)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindConflict))
	require.Empty(t, pre.cleaned, "preprocessing must not run once the gate is closed")
}

func TestSearchFile_EmptyIndexIsNotFound(t *testing.T) {
	store, _ := newTestStoreWithVideo(t)
	svc, pre, clipPath := newStubService(t, store, &fakeVectorSource{}, fixedGate{canSearch: true})

	result, err := svc.SearchFile(context.Background(), clipPath)
	require.NoError(t, err)
	require.False(t, result.Found)
	require.Contains(t, result.Reason, "empty")
	require.Equal(t, []string{clipPath}, pre.cleaned, "the prepared clip must always be cleaned up")
}

func TestSearchFile_PropagatesPreprocessorError(t *testing.T) {
	store, _ := newTestStoreWithVideo(t)
	svc, _, clipPath := newStubService(t, store, &fakeVectorSource{}, fixedGate{canSearch: true})
	svc.preprocessor.(*passthroughPreprocessor).prepareErr = os.ErrNotExist

	_, err := svc.SearchFile(context.Background(), clipPath)
	require.Error(t, err)
}

func TestSearchFile_NilGateNeverBlocks(t *testing.T) {
	store, _ := newTestStoreWithVideo(t)
	svc, _, clipPath := newStubService(t, store, &fakeVectorSource{}, nil)

	result, err := svc.SearchFile(context.Background(), clipPath)
	require.NoError(t, err)
	require.False(t, result.Found)
	require.Contains(t, result.Reason, "empty")
}

func TestSearchFile_ResolvesMatchToVideoMetadata(t *testing.T) {
	store, videoID := newTestStoreWithVideo(t)
	ids, err := store.StoreFingerprints(t.Context(), videoID, []float64{0, 1, 2})
	require.NoError(t, err)

	vecs := &fakeVectorSource{ids: ids}
	for range ids {
		vecs.vectors = append(vecs.vectors, []float32{1, 0, 0, 0})
	}

	svc, _, clipPath := newStubService(t, store, vecs, fixedGate{canSearch: true})
	// Force every query vector to match the stored ones exactly so the
	// vote count clears align.Config{MinVoteCount: 1} regardless of
	// FakeEmbedder's deterministic-but-arbitrary vector values.
	svc.embedder = constantEmbedder{vector: []float32{1, 0, 0, 0}, seconds: len(ids)}

	result, err := svc.SearchFile(context.Background(), clipPath)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, videoID, result.VideoID)
	require.Equal(t, "somestreamer", result.Streamer)
	require.Equal(t, "a vod", result.Title)
}

// constantEmbedder returns the same vector for every second, letting
// matcher/align tests pin the alignment outcome deterministically.
type constantEmbedder struct {
	vector  []float32
	seconds int
}

func (c constantEmbedder) Embed(context.Context, string, float64) ([][]float32, []float64, error) {
	vectors := make([][]float32, c.seconds)
	timestamps := make([]float64, c.seconds)
	for i := range vectors {
		vectors[i] = c.vector
		timestamps[i] = float64(i)
	}
	return vectors, timestamps, nil
}

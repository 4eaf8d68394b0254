package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/twitch"
)

// fakeClient is a scriptable twitch.Client test double.
type fakeClient struct {
	live    bool
	userID  string
	archive *twitch.Archive
}

func (f *fakeClient) IsLive(context.Context, string) (bool, error)          { return f.live, nil }
func (f *fakeClient) GetUserID(context.Context, string) (string, error)    { return f.userID, nil }
func (f *fakeClient) GetLatestArchive(context.Context, string) (*twitch.Archive, error) {
	return f.archive, nil
}

// fakeExtractor returns a deterministic, unique path per extraction
// without touching the filesystem.
type fakeExtractor struct {
	calls atomic.Int32
}

func (f *fakeExtractor) ExtractChunk(_ context.Context, vodPlatformID, _ string, start, duration int) (string, error) {
	n := f.calls.Add(1)
	return filepath.Join("chunks", fmt.Sprintf("%s_%d_%d_%d.wav", vodPlatformID, start, duration, n)), nil
}

func newTestFollower(t *testing.T, client *fakeClient, extract *fakeExtractor) (*ArchiveFollower, *metadata.Store) {
	t.Helper()
	store, err := metadata.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Init(t.Context()))
	t.Cleanup(func() { store.Close() })

	cfg := DefaultConfig(t.TempDir())
	cfg.PollInterval = 0
	f := New("somestreamer", store, client, extract, cfg)
	return f, store
}

func TestArchiveFollower_StartSwitchesToLatestArchive(t *testing.T) {
	client := &fakeClient{
		live:   true,
		userID: "u1",
		archive: &twitch.Archive{
			PlatformID:      "v1",
			URL:             "https://www.twitch.tv/videos/v1",
			Title:           "stream title",
			DurationSeconds: 0,
		},
	}
	f, store := newTestFollower(t, client, &fakeExtractor{})

	require.NoError(t, f.Start(t.Context()))
	require.False(t, f.IsFinished())

	video, err := store.GetVideoByURL(t.Context(), client.archive.URL)
	require.NoError(t, err)
	require.NotNil(t, video)
	require.False(t, video.Processed)
}

func TestArchiveFollower_NextChunk_RespectsLagWhileLive(t *testing.T) {
	client := &fakeClient{
		live:   true,
		userID: "u1",
		archive: &twitch.Archive{
			PlatformID:      "v1",
			URL:             "https://www.twitch.tv/videos/v1",
			DurationSeconds: 100,
		},
	}
	extract := &fakeExtractor{}
	f, _ := newTestFollower(t, client, extract)
	f.cfg.LagSeconds = 120

	require.NoError(t, f.Start(t.Context()))

	chunk, err := f.NextChunk(t.Context())
	require.NoError(t, err)
	require.Nil(t, chunk, "100s duration minus 120s lag is negative, nothing is safe to extract yet")
	require.Equal(t, int32(0), extract.calls.Load())
}

func TestArchiveFollower_NextChunk_ExtractsWhenSafeWindowAvailable(t *testing.T) {
	client := &fakeClient{
		live:   true,
		userID: "u1",
		archive: &twitch.Archive{
			PlatformID:      "v1",
			URL:             "https://www.twitch.tv/videos/v1",
			DurationSeconds: 300,
		},
	}
	extract := &fakeExtractor{}
	f, _ := newTestFollower(t, client, extract)
	f.cfg.LagSeconds = 120
	f.cfg.ChunkSeconds = 60

	require.NoError(t, f.Start(t.Context()))

	chunk, err := f.NextChunk(t.Context())
	require.NoError(t, err)
	require.NotNil(t, chunk)
	require.Equal(t, 0.0, chunk.OffsetSeconds)
	require.Equal(t, 60.0, chunk.DurationSeconds)
	require.Equal(t, int32(1), extract.calls.Load())
}

func TestArchiveFollower_NextChunk_CommitsPendingBeforeNextExtraction(t *testing.T) {
	client := &fakeClient{
		live:   true,
		userID: "u1",
		archive: &twitch.Archive{
			PlatformID:      "v1",
			URL:             "https://www.twitch.tv/videos/v1",
			DurationSeconds: 300,
		},
	}
	extract := &fakeExtractor{}
	f, store := newTestFollower(t, client, extract)
	f.cfg.LagSeconds = 120
	f.cfg.ChunkSeconds = 60

	require.NoError(t, f.Start(t.Context()))

	first, err := f.NextChunk(t.Context())
	require.NoError(t, err)
	require.NotNil(t, first)

	// Cursor not advanced yet: the pending window only commits on the
	// *next* NextChunk call, after the caller has drained `first`.
	state, err := store.GetLiveIngestState(t.Context(), "v1")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, 0, state.LastIngestedSeconds)

	second, err := f.NextChunk(t.Context())
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, 60.0, second.OffsetSeconds)

	state, err = store.GetLiveIngestState(t.Context(), "v1")
	require.NoError(t, err)
	require.Equal(t, 60, state.LastIngestedSeconds)
}

func TestArchiveFollower_FinalizesAfterOfflineWithNoGrowth(t *testing.T) {
	client := &fakeClient{
		live:   false,
		userID: "u1",
		archive: &twitch.Archive{
			PlatformID:      "v1",
			URL:             "https://www.twitch.tv/videos/v1",
			DurationSeconds: 60,
		},
	}
	extract := &fakeExtractor{}
	f, store := newTestFollower(t, client, extract)
	f.cfg.LagSeconds = 0
	f.cfg.ChunkSeconds = 60
	f.cfg.FinalizeChecks = 2

	require.NoError(t, f.Start(t.Context()))

	// First call drains the only available window (0..60); the
	// refresh inside this same call already counts as one no-growth
	// poll, since the archive stopped growing the moment it went
	// offline.
	chunk, err := f.NextChunk(t.Context())
	require.NoError(t, err)
	require.NotNil(t, chunk)
	require.False(t, f.IsFinished())

	// Second call commits the pending window, polls again (second
	// consecutive no-growth check, reaching FinalizeChecks), and
	// finalizes since there is no new safe window to extract.
	chunk, err = f.NextChunk(t.Context())
	require.NoError(t, err)
	require.Nil(t, chunk)
	require.True(t, f.IsFinished())

	video, err := store.GetVideoByURL(t.Context(), client.archive.URL)
	require.NoError(t, err)
	require.True(t, video.Processed)
}

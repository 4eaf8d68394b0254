package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/manofshad/vodhunter-go/internal/embed"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/twitch"
	"github.com/manofshad/vodhunter-go/internal/vectorstore"
)

type scriptedClient struct {
	live atomic.Bool
}

func (c *scriptedClient) IsLive(context.Context, string) (bool, error) { return c.live.Load(), nil }
func (c *scriptedClient) GetUserID(context.Context, string) (string, error) {
	return "u1", nil
}
func (c *scriptedClient) GetLatestArchive(context.Context, string) (*twitch.Archive, error) {
	return nil, nil
}

type noopExtractor struct{}

func (noopExtractor) ExtractChunk(context.Context, string, string, int, int) (string, error) {
	return "", nil
}

func newTestSupervisor(t *testing.T, client twitch.Client) *Supervisor {
	t.Helper()
	meta, err := metadata.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, meta.Init(t.Context()))
	t.Cleanup(func() { meta.Close() })

	dir := t.TempDir()
	vectors := vectorstore.New(dir+"/vectors.f32", dir+"/ids.i64")

	cfg := Config{
		ChunkSeconds:         60,
		LagSeconds:           120,
		FinalizeChecks:       3,
		FollowerPollInterval: 0,
		SessionPollInterval:  time.Millisecond,
		MonitorPollInterval:  10 * time.Millisecond,
		MonitorRetryBackoff:  10 * time.Millisecond,
		TempDir:              dir,
	}
	return New(client, embed.NewFakeEmbedder(4), noopExtractor{}, meta, vectors, cfg, zerolog.Nop())
}

func TestSupervisor_StartIsIdempotentForSameStreamer(t *testing.T) {
	client := &scriptedClient{}
	s := newTestSupervisor(t, client)

	st1, err := s.Start("somestreamer")
	require.NoError(t, err)
	require.Equal(t, StatePolling, st1.State)

	st2, err := s.Start("somestreamer")
	require.NoError(t, err)
	require.Equal(t, "somestreamer", st2.Streamer)

	s.Stop()
}

func TestSupervisor_StartConflictsForDifferentStreamer(t *testing.T) {
	client := &scriptedClient{}
	s := newTestSupervisor(t, client)

	_, err := s.Start("streamer-a")
	require.NoError(t, err)

	_, err = s.Start("streamer-b")
	require.Error(t, err)

	s.Stop()
}

func TestSupervisor_CanSearch_OnlyIdle(t *testing.T) {
	client := &scriptedClient{}
	s := newTestSupervisor(t, client)
	require.True(t, s.CanSearch())

	_, err := s.Start("somestreamer")
	require.NoError(t, err)
	require.False(t, s.CanSearch())

	s.Stop()
	require.True(t, s.CanSearch())
}

func TestSupervisor_StopReturnsFalseWhenIdle(t *testing.T) {
	client := &scriptedClient{}
	s := newTestSupervisor(t, client)
	require.False(t, s.Stop())
}

func TestSupervisor_PollsWhileOffline(t *testing.T) {
	client := &scriptedClient{}
	s := newTestSupervisor(t, client)

	_, err := s.Start("somestreamer")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st := s.Status()
		return st.IsLive != nil && !*st.IsLive
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, StatePolling, s.Status().State)
	s.Stop()
}

func TestSupervisor_Serve_StopsOnContextCancel(t *testing.T) {
	client := &scriptedClient{}
	s := newTestSupervisor(t, client)

	_, err := s.Start("somestreamer")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancel")
	}
	require.True(t, s.CanSearch())
}

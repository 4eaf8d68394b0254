package source

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/twitch"
)

// Extractor is the subset of media.Extractor the follower needs.
type Extractor interface {
	ExtractChunk(ctx context.Context, vodPlatformID, vodURL string, startSeconds, durationSeconds int) (string, error)
}

// Config tunes an ArchiveFollower, mirroring
// LiveArchiveVODSource.__init__'s keyword arguments.
type Config struct {
	ChunkSeconds   int
	LagSeconds     int
	PollInterval   time.Duration
	FinalizeChecks int
	TempDir        string
}

// DefaultConfig matches original_source's defaults.
func DefaultConfig(tempDir string) Config {
	return Config{
		ChunkSeconds:   60,
		LagSeconds:     120,
		PollInterval:   15 * time.Second,
		FinalizeChecks: 3,
		TempDir:        tempDir,
	}
}

// ArchiveFollower produces an ordered stream of lag-safe AudioChunks
// from a growing Twitch archive, per spec.md §4.3. It is not
// goroutine-safe for concurrent Start/NextChunk/Stop calls — the
// monitor supervisor's single-slot discipline is what guarantees only
// one caller drives a given follower at a time.
type ArchiveFollower struct {
	streamer string
	store    *metadata.Store
	platform twitch.Client
	extract  Extractor
	cfg      Config

	mu sync.Mutex

	started  bool
	finished bool

	userID          string
	vodPlatformID   string
	currentVODURL   string
	title           string
	videoID         int64
	ingestCursor    int
	lastSeenDur     int
	lastIsLive      *bool
	noGrowthChecks  int
	lastRefreshAt   time.Time

	pendingCommitEnd *int
	pendingChunkPath string
}

// New returns an ArchiveFollower for streamer, not yet started.
func New(streamer string, store *metadata.Store, platform twitch.Client, extract Extractor, cfg Config) *ArchiveFollower {
	return &ArchiveFollower{
		streamer: streamer,
		store:    store,
		platform: platform,
		extract:  extract,
		cfg:      cfg,
	}
}

// Start enters INIT -> FOLLOWING: creates the temp directory and
// forces one platform refresh.
func (f *ArchiveFollower) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.cfg.TempDir, 0o750); err != nil {
		return apperr.Transientf("source: create temp dir: %w", err)
	}
	f.started = true
	return f.refreshState(ctx, true)
}

// IsFinished reports whether the follower has reached FINISHED.
func (f *ArchiveFollower) IsFinished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finished
}

// VideoID returns the metadata video row currently being ingested, or
// 0 before the first VOD switch has happened.
func (f *ArchiveFollower) VideoID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.videoID
}

// Stop marks the follower FINISHED immediately and removes its temp
// directory. Safe to call at any state.
func (f *ArchiveFollower) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = true
	os.RemoveAll(f.cfg.TempDir)
}

// NextChunk advances the state machine one step, per spec.md §4.3's
// FOLLOWING transition. It returns (nil, nil) when the caller should
// sleep and poll again, and (nil, nil) permanently once finished.
func (f *ArchiveFollower) NextChunk(ctx context.Context) (*AudioChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.finished {
		return nil, nil
	}

	if err := f.commitPendingProgress(ctx); err != nil {
		return nil, err
	}
	if err := f.refreshState(ctx, false); err != nil {
		return nil, err
	}

	if f.vodPlatformID == "" || f.videoID == 0 {
		if f.lastIsLive != nil && !*f.lastIsLive {
			f.finished = true
		}
		return nil, nil
	}

	cursor := f.ingestCursor
	safeEnd := f.lastSeenDur
	if f.lastIsLive != nil && *f.lastIsLive {
		safeEnd -= f.cfg.LagSeconds
	}

	if safeEnd > cursor {
		chunkLen := f.cfg.ChunkSeconds
		if remaining := safeEnd - cursor; remaining < chunkLen {
			chunkLen = remaining
		}

		chunkPath, err := f.extract.ExtractChunk(ctx, f.vodPlatformID, f.currentVODURL, cursor, chunkLen)
		if err != nil {
			return nil, err
		}

		end := cursor + chunkLen
		f.pendingCommitEnd = &end
		f.pendingChunkPath = chunkPath

		return &AudioChunk{
			AudioPath:       chunkPath,
			OffsetSeconds:   float64(cursor),
			DurationSeconds: float64(chunkLen),
		}, nil
	}

	if f.lastIsLive != nil && !*f.lastIsLive && f.noGrowthChecks >= f.cfg.FinalizeChecks {
		if err := f.finalize(ctx); err != nil {
			return nil, err
		}
	}

	return nil, nil
}

func (f *ArchiveFollower) refreshState(ctx context.Context, force bool) error {
	if !f.started {
		return nil
	}

	now := time.Now()
	if !force && now.Sub(f.lastRefreshAt) < f.cfg.PollInterval {
		return nil
	}
	f.lastRefreshAt = now

	isLive, err := f.platform.IsLive(ctx, f.streamer)
	if err != nil {
		return err
	}
	f.lastIsLive = &isLive

	if f.userID == "" {
		userID, err := f.platform.GetUserID(ctx, f.streamer)
		if err != nil {
			return err
		}
		f.userID = userID
	}

	latest, err := f.platform.GetLatestArchive(ctx, f.userID)
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}

	if f.vodPlatformID != latest.PlatformID {
		if err := f.switchToVOD(ctx, latest); err != nil {
			return err
		}
	}

	if latest.DurationSeconds > f.lastSeenDur {
		f.lastSeenDur = latest.DurationSeconds
		f.noGrowthChecks = 0
	} else if f.lastIsLive != nil && !*f.lastIsLive {
		f.noGrowthChecks++
	}

	return f.saveIngestState(ctx)
}

func (f *ArchiveFollower) switchToVOD(ctx context.Context, vod *twitch.Archive) error {
	f.vodPlatformID = vod.PlatformID
	f.currentVODURL = vod.URL
	f.title = vod.Title
	if f.title == "" {
		f.title = fmt.Sprintf("Live stream by %s", f.streamer)
	}

	creatorURL := fmt.Sprintf("https://twitch.tv/%s", f.streamer)
	creatorID, err := f.store.CreateOrGetCreator(ctx, f.streamer, creatorURL)
	if err != nil {
		return err
	}

	existing, err := f.store.GetVideoByURL(ctx, f.currentVODURL)
	if err != nil {
		return err
	}
	if existing == nil {
		videoID, err := f.store.CreateVideo(ctx, creatorID, f.currentVODURL, f.title, false)
		if err != nil {
			return err
		}
		f.videoID = videoID
	} else {
		f.videoID = existing.ID
		if err := f.store.MarkVideoProcessed(ctx, f.videoID, false); err != nil {
			return err
		}
	}

	state, err := f.store.GetLiveIngestState(ctx, f.vodPlatformID)
	if err != nil {
		return err
	}
	if state == nil {
		f.ingestCursor = 0
		f.lastSeenDur = 0
	} else {
		f.ingestCursor = state.LastIngestedSeconds
		f.lastSeenDur = state.LastSeenDurationSeconds
	}

	f.pendingCommitEnd = nil
	f.pendingChunkPath = ""
	f.noGrowthChecks = 0
	return nil
}

func (f *ArchiveFollower) commitPendingProgress(ctx context.Context) error {
	if f.pendingCommitEnd == nil {
		return nil
	}
	if f.vodPlatformID == "" || f.videoID == 0 {
		return nil
	}

	f.ingestCursor = *f.pendingCommitEnd
	f.pendingCommitEnd = nil

	if err := f.saveIngestState(ctx); err != nil {
		return err
	}

	if f.pendingChunkPath != "" {
		os.Remove(f.pendingChunkPath)
	}
	f.pendingChunkPath = ""
	return nil
}

func (f *ArchiveFollower) saveIngestState(ctx context.Context) error {
	if f.vodPlatformID == "" || f.videoID == 0 {
		return nil
	}
	return f.store.UpsertLiveIngestState(ctx, metadata.LiveIngestState{
		VodPlatformID:           f.vodPlatformID,
		VideoID:                 f.videoID,
		Streamer:                f.streamer,
		LastIngestedSeconds:     f.ingestCursor,
		LastSeenDurationSeconds: f.lastSeenDur,
	})
}

func (f *ArchiveFollower) finalize(ctx context.Context) error {
	if err := f.commitPendingProgress(ctx); err != nil {
		return err
	}
	if f.videoID != 0 {
		if err := f.store.MarkVideoProcessed(ctx, f.videoID, true); err != nil {
			return err
		}
	}
	f.finished = true
	return nil
}

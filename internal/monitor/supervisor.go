package monitor

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/embed"
	"github.com/manofshad/vodhunter-go/internal/ingest"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/source"
	"github.com/manofshad/vodhunter-go/internal/twitch"
	"github.com/manofshad/vodhunter-go/internal/vectorstore"
)

// State is one of the four monitor supervisor states, per spec.md §4.6.
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateIngesting State = "ingesting"
	StateError     State = "error"
)

// Status is a point-in-time snapshot of the supervisor's single slot.
type Status struct {
	State          State
	Streamer       string
	IsLive         *bool
	StartedAt      *time.Time
	LastCheckAt    *time.Time
	LastError      string
	CurrentVideoID int64
}

// Config tunes the supervisor's polling/retry cadence and the
// archive-follower/session it builds per ingest run.
type Config struct {
	ChunkSeconds        int
	LagSeconds          int
	FinalizeChecks      int
	FollowerPollInterval time.Duration
	SessionPollInterval  time.Duration
	MonitorPollInterval  time.Duration
	MonitorRetryBackoff  time.Duration
	TempDir              string
}

// Extractor is the subset of media.Extractor a follower needs.
type Extractor interface {
	ExtractChunk(ctx context.Context, vodPlatformID, vodURL string, startSeconds, durationSeconds int) (string, error)
}

// Supervisor is the single-slot monitor FSM. Exactly one worker
// goroutine runs at a time; Start is idempotent for the currently
// running streamer and returns apperr.Conflict for any other.
type Supervisor struct {
	client   twitch.Client
	embedder embed.Embedder
	extract  Extractor
	meta     *metadata.Store
	vectors  *vectorstore.Store
	cfg      Config
	logger   zerolog.Logger

	mu            sync.Mutex
	status        Status
	running       bool
	stopCh        chan struct{}
	activeSession *ingest.Session
	wg            sync.WaitGroup
}

// New returns an idle Supervisor.
func New(client twitch.Client, embedder embed.Embedder, extract Extractor, meta *metadata.Store, vectors *vectorstore.Store, cfg Config, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		client:   client,
		embedder: embedder,
		extract:  extract,
		meta:     meta,
		vectors:  vectors,
		cfg:      cfg,
		logger:   logger,
		status:   Status{State: StateIdle},
	}
}

// Status returns a copy of the current status.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CanSearch reports whether the supervisor is idle, per spec.md §4.6.
func (s *Supervisor) CanSearch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.State == StateIdle
}

// Start begins monitoring streamer. If already running for the same
// streamer, it is idempotent and returns the current status. If
// running for a different streamer, it fails with an apperr.Conflict
// (MonitorConflict).
func (s *Supervisor) Start(streamer string) (Status, error) {
	streamer = strings.ToLower(strings.TrimSpace(streamer))
	if streamer == "" {
		return Status{}, apperr.Inputf("monitor: streamer is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		if s.status.Streamer == streamer {
			return s.status, nil
		}
		return Status{}, apperr.Conflictf("monitor already running for %s, stop first to switch", s.status.Streamer)
	}

	now := time.Now().UTC()
	s.stopCh = make(chan struct{})
	s.status = Status{State: StatePolling, Streamer: streamer, StartedAt: &now}
	s.running = true

	s.wg.Add(1)
	go s.runLoop(streamer, s.stopCh)

	return s.status, nil
}

// Stop signals the worker to stop, halts any active session, and
// waits for the worker to exit, returning to idle. Returns false if
// nothing was running.
func (s *Supervisor) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	close(s.stopCh)
	session := s.activeSession
	s.mu.Unlock()

	if session != nil {
		session.Stop()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.activeSession = nil
	s.running = false
	s.status = Status{State: StateIdle}
	s.mu.Unlock()
	return true
}

// Serve implements suture.Service: it holds the supervised goroutine
// slot open for the process's lifetime and stops any active monitor
// worker when ctx is canceled.
func (s *Supervisor) Serve(ctx context.Context) error {
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Supervisor) runLoop(streamer string, stopCh chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		isLive, err := s.client.IsLive(context.Background(), streamer)
		now := time.Now().UTC()
		if err != nil {
			s.setStatus(func(st *Status) {
				st.State = StateError
				st.LastError = err.Error()
				st.LastCheckAt = &now
				st.IsLive = nil
			})
			if s.sleepOrStop(s.cfg.MonitorRetryBackoff, stopCh) {
				return
			}
			continue
		}

		s.setStatus(func(st *Status) {
			st.State = StatePolling
			st.IsLive = &isLive
			st.LastCheckAt = &now
			st.LastError = ""
		})

		if !isLive {
			if s.sleepOrStop(s.cfg.MonitorPollInterval, stopCh) {
				return
			}
			continue
		}

		videoID, runErr := s.runIngestSession(streamer)
		now = time.Now().UTC()
		if runErr != nil {
			s.setStatus(func(st *Status) {
				st.State = StateError
				st.LastError = runErr.Error()
				st.LastCheckAt = &now
			})
		} else {
			live := false
			s.setStatus(func(st *Status) {
				st.State = StatePolling
				st.IsLive = &live
				st.CurrentVideoID = videoID
				st.LastError = ""
				st.LastCheckAt = &now
			})
		}

		select {
		case <-stopCh:
			return
		default:
		}
		if s.sleepOrStop(s.cfg.MonitorRetryBackoff, stopCh) {
			return
		}
	}
}

// runIngestSession builds an archive-follower and ingest session for
// streamer and runs it to completion (blocking).
func (s *Supervisor) runIngestSession(streamer string) (int64, error) {
	tempDir := filepath.Join(s.cfg.TempDir, streamer)

	followerCfg := source.Config{
		ChunkSeconds:   s.cfg.ChunkSeconds,
		LagSeconds:     s.cfg.LagSeconds,
		PollInterval:   s.cfg.FollowerPollInterval,
		FinalizeChecks: s.cfg.FinalizeChecks,
		TempDir:        tempDir,
	}
	follower := source.New(streamer, s.meta, s.client, s.extract, followerCfg)
	session := ingest.New(follower, s.embedder, s.meta, s.vectors, s.cfg.SessionPollInterval, s.logger)

	s.mu.Lock()
	s.activeSession = session
	s.status.State = StateIngesting
	s.mu.Unlock()

	err := session.Run(context.Background())

	s.mu.Lock()
	s.activeSession = nil
	s.mu.Unlock()

	return follower.VideoID(), err
}

func (s *Supervisor) setStatus(mutate func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.status)
}

// sleepOrStop sleeps d, returning true early if stopCh closes first.
func (s *Supervisor) sleepOrStop(d time.Duration, stopCh chan struct{}) bool {
	if d <= 0 {
		d = time.Millisecond
	}
	select {
	case <-stopCh:
		return true
	case <-time.After(d):
		return false
	}
}

package api

import (
	"context"

	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/monitor"
	"github.com/manofshad/vodhunter-go/internal/search"
)

// fakeMonitor is a stub Monitor, letting handler tests pin the supervisor's
// behavior without running the real FSM.
type fakeMonitor struct {
	status      monitor.Status
	startErr    error
	stopped     bool
	startCalled bool
}

func (f *fakeMonitor) Status() monitor.Status { return f.status }

func (f *fakeMonitor) Start(streamer string) (monitor.Status, error) {
	f.startCalled = true
	if f.startErr != nil {
		return monitor.Status{}, f.startErr
	}
	f.status.Streamer = streamer
	return f.status, nil
}

func (f *fakeMonitor) Stop() bool { return f.stopped }

// fakeSearcher is a stub Searcher.
type fakeSearcher struct {
	result search.Result
	err    error
}

func (f *fakeSearcher) SearchFile(context.Context, string) (search.Result, error) {
	return f.result, f.err
}

// fakeSessions is a stub Sessions.
type fakeSessions struct {
	sessions []metadata.SessionSummary
	err      error
}

func (f *fakeSessions) ListLiveSessions(_ context.Context, limit, offset int) ([]metadata.SessionSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	end := offset + limit
	if end > len(f.sessions) {
		end = len(f.sessions)
	}
	if offset > len(f.sessions) {
		return nil, nil
	}
	return f.sessions[offset:end], nil
}

var errSearchBlocked = apperr.Conflictf("a monitor is currently ingesting; try again once it returns to idle")

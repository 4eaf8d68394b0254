package api

import (
	"context"

	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/monitor"
	"github.com/manofshad/vodhunter-go/internal/search"
)

// Monitor is the subset of monitor.Supervisor the API needs.
type Monitor interface {
	Status() monitor.Status
	Start(streamer string) (monitor.Status, error)
	Stop() bool
}

// Searcher is the subset of search.Service the API needs.
type Searcher interface {
	SearchFile(ctx context.Context, clipPath string) (search.Result, error)
}

// Sessions is the subset of metadata.Store the sessions listing needs.
type Sessions interface {
	ListLiveSessions(ctx context.Context, limit, offset int) ([]metadata.SessionSummary, error)
}

// Handler holds the dependencies spec.md §6's six endpoints are built
// from. It carries no state of its own; each handler method is a thin
// translation from HTTP request to a call on monitor/search/metadata.
type Handler struct {
	monitor   Monitor
	searcher  Searcher
	sessions  Sessions
	uploadDir string
}

// NewHandler returns a Handler wired to the given monitor supervisor,
// search service, and session store. uploadDir is where incoming
// multipart clip uploads are staged before being handed to searcher.
func NewHandler(mon Monitor, searcher Searcher, sessions Sessions, uploadDir string) *Handler {
	return &Handler{monitor: mon, searcher: searcher, sessions: sessions, uploadDir: uploadDir}
}

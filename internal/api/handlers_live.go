package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/monitor"
)

// liveStatusView is spec.md §6's LiveStatus wire shape.
type liveStatusView struct {
	State          string     `json:"state"`
	Streamer       string     `json:"streamer,omitempty"`
	IsLive         *bool      `json:"is_live,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	LastCheckAt    *time.Time `json:"last_check_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	CurrentVideoID int64      `json:"current_video_id,omitempty"`
}

func newLiveStatusView(st monitor.Status) liveStatusView {
	return liveStatusView{
		State:          string(st.State),
		Streamer:       st.Streamer,
		IsLive:         st.IsLive,
		StartedAt:      st.StartedAt,
		LastCheckAt:    st.LastCheckAt,
		LastError:      st.LastError,
		CurrentVideoID: st.CurrentVideoID,
	}
}

// LiveStatus handles GET /api/live/status.
//
// @Summary Current monitor status
// @Produce json
// @Success 200 {object} liveStatusView
// @Router /api/live/status [get]
func (h *Handler) LiveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, newLiveStatusView(h.monitor.Status()))
}

type startLiveRequest struct {
	Streamer string `json:"streamer" validate:"required,min=4,max=25"`
}

type startLiveResponse struct {
	Status liveStatusView `json:"status"`
}

// LiveStart handles POST /api/live/start.
//
// @Summary Start monitoring a streamer
// @Accept json
// @Produce json
// @Param request body startLiveRequest true "Streamer to monitor"
// @Success 200 {object} startLiveResponse
// @Failure 400 {object} errorBody "INVALID_STREAMER"
// @Failure 409 {object} errorBody "MONITOR_RUNNING"
// @Router /api/live/start [post]
func (h *Handler) LiveStart(w http.ResponseWriter, r *http.Request) {
	var req startLiveRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeAPIError(w, "INVALID_STREAMER", apperr.Inputf("malformed request body"))
		return
	}
	if err := validateStruct(req); err != nil {
		writeAPIError(w, "INVALID_STREAMER", err)
		return
	}

	status, err := h.monitor.Start(req.Streamer)
	if err != nil {
		code := "INVALID_STREAMER"
		if apperr.Is(err, apperr.KindConflict) {
			code = "MONITOR_RUNNING"
		}
		writeAPIError(w, code, err)
		return
	}
	writeJSON(w, startLiveResponse{Status: newLiveStatusView(status)})
}

type stopLiveResponse struct {
	Stopped bool           `json:"stopped"`
	Status  liveStatusView `json:"status"`
}

// LiveStop handles POST /api/live/stop.
//
// @Summary Stop the running monitor, if any
// @Produce json
// @Success 200 {object} stopLiveResponse
// @Router /api/live/stop [post]
func (h *Handler) LiveStop(w http.ResponseWriter, r *http.Request) {
	stopped := h.monitor.Stop()
	writeJSON(w, stopLiveResponse{Stopped: stopped, Status: newLiveStatusView(h.monitor.Status())})
}

// liveSessionView is one row of spec.md §6's sessions listing.
type liveSessionView struct {
	VideoID     int64  `json:"video_id"`
	CreatorName string `json:"creator_name"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Processed   bool   `json:"processed"`
}

func newLiveSessionView(s metadata.SessionSummary) liveSessionView {
	return liveSessionView{
		VideoID:     s.VideoID,
		CreatorName: s.CreatorName,
		URL:         s.URL,
		Title:       s.Title,
		Processed:   s.Processed,
	}
}

const (
	defaultSessionsLimit = 50
	maxSessionsLimit     = 200
)

// LiveSessions handles GET /api/live/sessions.
//
// @Summary List ingested live sessions
// @Produce json
// @Param limit query int false "1-200, default 50"
// @Param offset query int false "default 0"
// @Success 200 {array} liveSessionView
// @Router /api/live/sessions [get]
func (h *Handler) LiveSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSessionsLimit {
			writeAPIError(w, "INVALID_STREAMER", apperr.Inputf("limit must be between 1 and %d", maxSessionsLimit))
			return
		}
		limit = n
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeAPIError(w, "INVALID_STREAMER", apperr.Inputf("offset must be non-negative"))
			return
		}
		offset = n
	}

	sessions, err := h.sessions.ListLiveSessions(r.Context(), limit, offset)
	if err != nil {
		writeAPIError(w, "PROCESSING_ERROR", err)
		return
	}

	views := make([]liveSessionView, len(sessions))
	for i, s := range sessions {
		views[i] = newLiveSessionView(s)
	}
	writeJSON(w, views)
}

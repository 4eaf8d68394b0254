package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/metadata"
	"github.com/manofshad/vodhunter-go/internal/monitor"
)

func TestLiveStatus_ReflectsMonitorState(t *testing.T) {
	t.Parallel()

	mon := &fakeMonitor{status: monitor.Status{State: monitor.StateIdle}}
	h := NewHandler(mon, nil, nil, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/live/status", nil)
	w := httptest.NewRecorder()
	h.LiveStatus(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body liveStatusView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "idle", body.State)
}

func TestLiveStart_Success(t *testing.T) {
	t.Parallel()

	mon := &fakeMonitor{status: monitor.Status{State: monitor.StatePolling}}
	h := NewHandler(mon, nil, nil, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/live/start", strings.NewReader(`{"streamer":"somestreamer"}`))
	w := httptest.NewRecorder()
	h.LiveStart(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body startLiveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "somestreamer", body.Status.Streamer)
}

func TestLiveStart_ConflictMapsToMonitorRunning(t *testing.T) {
	t.Parallel()

	mon := &fakeMonitor{startErr: apperr.Conflictf("a different streamer is already being monitored")}
	h := NewHandler(mon, nil, nil, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/live/start", strings.NewReader(`{"streamer":"other"}`))
	w := httptest.NewRecorder()
	h.LiveStart(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "MONITOR_RUNNING", body.Code)
}

func TestLiveStart_InputErrorMapsToInvalidStreamer(t *testing.T) {
	t.Parallel()

	mon := &fakeMonitor{startErr: apperr.Inputf("streamer must not be empty")}
	h := NewHandler(mon, nil, nil, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/live/start", strings.NewReader(`{"streamer":""}`))
	w := httptest.NewRecorder()
	h.LiveStart(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "INVALID_STREAMER", body.Code)
}

func TestLiveStart_MalformedBodyRejected(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeMonitor{}, nil, nil, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/live/start", strings.NewReader(`not json`))
	w := httptest.NewRecorder()
	h.LiveStart(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLiveStart_TooShortStreamerRejectedBeforeMonitorCalled(t *testing.T) {
	t.Parallel()

	mon := &fakeMonitor{}
	h := NewHandler(mon, nil, nil, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/live/start", strings.NewReader(`{"streamer":"ab"}`))
	w := httptest.NewRecorder()
	h.LiveStart(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "INVALID_STREAMER", body.Code)
	require.False(t, mon.startCalled)
}

func TestLiveStop_ReportsStoppedFlag(t *testing.T) {
	t.Parallel()

	mon := &fakeMonitor{stopped: true, status: monitor.Status{State: monitor.StateIdle}}
	h := NewHandler(mon, nil, nil, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/live/stop", nil)
	w := httptest.NewRecorder()
	h.LiveStop(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body stopLiveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Stopped)
}

func TestLiveSessions_DefaultLimitAndOffset(t *testing.T) {
	t.Parallel()

	sessions := &fakeSessions{sessions: []metadata.SessionSummary{
		{VideoID: 1, CreatorName: "a", URL: "https://www.twitch.tv/videos/1", Title: "one", Processed: true},
	}}
	h := NewHandler(nil, nil, sessions, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/live/sessions", nil)
	w := httptest.NewRecorder()
	h.LiveSessions(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body []liveSessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	require.Equal(t, int64(1), body[0].VideoID)
}

func TestLiveSessions_RejectsOutOfRangeLimit(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, nil, &fakeSessions{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/live/sessions?limit=500", nil)
	w := httptest.NewRecorder()
	h.LiveSessions(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLiveSessions_RejectsNegativeOffset(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, nil, &fakeSessions{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/live/sessions?offset=-1", nil)
	w := httptest.NewRecorder()
	h.LiveSessions(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/search"
)

func newMultipartUpload(t *testing.T, field, filename string, content []byte) (*http.Request, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/search/clip", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, w.FormDataContentType()
}

func TestSearchClip_Found(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{result: search.Result{
		Found: true, Streamer: "somestreamer", VideoID: 7, Title: "a vod",
		TimestampSeconds: 42, Score: 0.9,
	}}
	h := NewHandler(nil, searcher, nil, t.TempDir())

	req, _ := newMultipartUpload(t, "file", "clip.wav", []byte("not-really-audio"))
	w := httptest.NewRecorder()
	h.SearchClip(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body searchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Found)
	require.Equal(t, "somestreamer", body.Streamer)
	require.Equal(t, int64(7), body.VideoID)
}

func TestSearchClip_GateBlockedMapsTo409(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{err: errSearchBlocked}
	h := NewHandler(nil, searcher, nil, t.TempDir())

	req, _ := newMultipartUpload(t, "file", "clip.wav", []byte("not-really-audio"))
	w := httptest.NewRecorder()
	h.SearchClip(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "SEARCH_BLOCKED", body.Code)
}

func TestSearchClip_ProcessingErrorMapsTo400(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{err: apperr.Inputf("query clip produced no embeddings")}
	h := NewHandler(nil, searcher, nil, t.TempDir())

	req, _ := newMultipartUpload(t, "file", "clip.wav", []byte("not-really-audio"))
	w := httptest.NewRecorder()
	h.SearchClip(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "PROCESSING_ERROR", body.Code)
}

func TestSearchClip_EmptyUploadRejected(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, &fakeSearcher{}, nil, t.TempDir())

	req, _ := newMultipartUpload(t, "file", "clip.wav", []byte{})
	w := httptest.NewRecorder()
	h.SearchClip(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "INVALID_UPLOAD", body.Code)
}

func TestSearchClip_MissingFileFieldRejected(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, &fakeSearcher{}, nil, t.TempDir())

	req, _ := newMultipartUpload(t, "wrong_field", "clip.wav", []byte("data"))
	w := httptest.NewRecorder()
	h.SearchClip(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchClip_StagesUploadUnderUploadDir(t *testing.T) {
	t.Parallel()

	uploadDir := t.TempDir()
	searcher := &capturingSearcher{}
	h := NewHandler(nil, searcher, nil, uploadDir)

	req, _ := newMultipartUpload(t, "file", "clip.wav", []byte("not-really-audio"))
	w := httptest.NewRecorder()
	h.SearchClip(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, searcher.capturedPath, uploadDir)
}

// capturingSearcher records the clip path it was called with, letting the
// test assert the upload was staged under the handler's configured
// uploadDir rather than left in some other location.
type capturingSearcher struct {
	capturedPath string
}

func (c *capturingSearcher) SearchFile(_ context.Context, clipPath string) (search.Result, error) {
	c.capturedPath = clipPath
	return search.Result{Found: false, Reason: "no match"}, nil
}

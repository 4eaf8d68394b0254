package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/logging"
	"github.com/manofshad/vodhunter-go/internal/metrics"
)

// maxUploadBytes bounds a single clip upload. Search clips are short
// (seconds, not hours of archive), so this is generous but not unbounded.
const maxUploadBytes = 64 << 20 // 64 MiB

// searchResponse is spec.md §6's SearchResponse wire shape.
type searchResponse struct {
	Found            bool    `json:"found"`
	Streamer         string  `json:"streamer,omitempty"`
	VideoID          int64   `json:"video_id,omitempty"`
	VideoURL         string  `json:"video_url,omitempty"`
	Title            string  `json:"title,omitempty"`
	TimestampSeconds int     `json:"timestamp_seconds,omitempty"`
	Score            float64 `json:"score,omitempty"`
	Reason           string  `json:"reason,omitempty"`
}

// SearchClip handles POST /api/search/clip.
//
// @Summary Identify the broadcast a clip was recorded from
// @Accept mpfd
// @Produce json
// @Param file formData file true "Audio clip to search for"
// @Success 200 {object} searchResponse
// @Failure 400 {object} errorBody "INVALID_UPLOAD or PROCESSING_ERROR"
// @Failure 409 {object} errorBody "SEARCH_BLOCKED"
// @Router /api/search/clip [post]
func (h *Handler) SearchClip(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeAPIError(w, "INVALID_UPLOAD", apperr.Input(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, "INVALID_UPLOAD", apperr.Inputf("missing \"file\" field: %v", err))
		return
	}
	defer file.Close()

	if header.Size == 0 {
		writeAPIError(w, "INVALID_UPLOAD", apperr.Inputf("uploaded clip is empty"))
		return
	}

	stagedPath, err := h.stageUpload(file, header.Filename)
	if err != nil {
		writeAPIError(w, "INVALID_UPLOAD", err)
		return
	}
	defer func() {
		if rmErr := os.Remove(stagedPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Error().Err(rmErr).Str("path", stagedPath).Msg("api: failed to remove staged upload")
		}
	}()

	result, err := h.searcher.SearchFile(r.Context(), stagedPath)
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			metrics.RecordSearchRequest("blocked")
			writeAPIError(w, "SEARCH_BLOCKED", err)
			return
		}
		metrics.RecordSearchRequest("error")
		writeJSONStatus(w, http.StatusBadRequest, errorBody{Code: "PROCESSING_ERROR", Message: err.Error()})
		return
	}

	outcome := "not_found"
	if result.Found {
		outcome = "found"
	}
	metrics.RecordSearchRequest(outcome)

	writeJSON(w, searchResponse{
		Found:            result.Found,
		Streamer:         result.Streamer,
		VideoID:          result.VideoID,
		VideoURL:         result.VideoURL,
		Title:            result.Title,
		TimestampSeconds: result.TimestampSeconds,
		Score:            result.Score,
		Reason:           result.Reason,
	})
}

// stageUpload copies an incoming multipart file into h.uploadDir under a
// uuid-named path, mirroring original_source/search/query_preprocessor.py's
// temp-file-scoped handling of uploads.
func (h *Handler) stageUpload(src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", apperr.Inputf("cannot prepare upload directory: %v", err)
	}

	dstPath := filepath.Join(h.uploadDir, fmt.Sprintf("upload_%s%s", uuid.NewString(), filepath.Ext(originalName)))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", apperr.Inputf("cannot stage upload: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", apperr.Inputf("cannot write staged upload: %v", err)
	}
	return dstPath, nil
}

package api

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/manofshad/vodhunter-go/internal/apperr"
	"github.com/manofshad/vodhunter-go/internal/logging"
)

// errorBody is spec.md §6/§7's structured error response: {code, message}.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes data as the response body with a 200 status.
func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

// writeJSONStatus encodes data as the response body with the given status.
func writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("api: failed to encode JSON response")
	}
}

// decodeJSONBody decodes the request body into v, rejecting trailing
// garbage and empty bodies the way a malformed request should be rejected.
func decodeJSONBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperr.Inputf("empty request body")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperr.Input(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return apperr.Inputf("unexpected data after JSON body")
	}
	return nil
}

// writeAPIError maps an apperr.Kind to an HTTP status and {code, message}
// body, per spec.md §7's error-kind-to-status table.
func writeAPIError(w http.ResponseWriter, code string, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindInput:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindFatalConfig:
		status = http.StatusServiceUnavailable
	case apperr.KindTransient:
		status = http.StatusBadGateway
	}
	writeJSONStatus(w, status, errorBody{Code: code, Message: err.Error()})
}

package api

import "net/http"

type healthResponse struct {
	OK bool `json:"ok"`
}

// Health handles GET /api/health.
//
// @Summary Health check
// @Produce json
// @Success 200 {object} healthResponse
// @Router /api/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthResponse{OK: true})
}

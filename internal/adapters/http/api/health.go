package api

import (
	"net/http"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	board Board
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(board Board) *HealthHandler {
	return &HealthHandler{board: board}
}

type healthResponse struct {
	Status string `json:"status"`
	Teams  int    `json:"teams"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Teams: h.board.Current().Count()})
}

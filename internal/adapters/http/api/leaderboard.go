package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	board    Board
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(board Board, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		board:    board,
		maxLimit: maxLimit,
	}
}

type leaderboardResponse struct {
	LastUpdated *time.Time      `json:"last_updated"`
	Total       int             `json:"total"`
	Entries     []entryResponse `json:"entries"`
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests. Without a
// limit it returns up to the configured maximum; larger limits are capped.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := h.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		n = min(v, h.maxLimit)
	}

	snap := h.board.Current()
	top, err := snap.TopN(n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	resp := leaderboardResponse{
		LastUpdated: snap.State().LastUpdated,
		Total:       snap.Count(),
		Entries:     make([]entryResponse, 0, len(top)),
	}
	for _, e := range top {
		resp.Entries = append(resp.Entries, toResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/okian/graphboard/internal/adapters/repository"
)

// RankHandler handles rank requests.
type RankHandler struct {
	board Board
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(board Board) *RankHandler {
	return &RankHandler{board: board}
}

// HandleGetRank handles GET /rank/{team} requests. Teams match
// case-insensitively.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	team := strings.TrimSpace(mux.Vars(r)["team"])
	if team == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	entry, err := h.board.Current().Rank(team)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(entry))
}

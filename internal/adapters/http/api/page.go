package api

import (
	"bytes"
	"net/http"

	"github.com/okian/graphboard/internal/adapters/render"
	"github.com/okian/graphboard/internal/adapters/repository"
)

// PageHandler serves the rendered leaderboard page.
type PageHandler struct {
	board Board
	title string
}

// NewPageHandler creates a new page handler.
func NewPageHandler(board Board, title string) *PageHandler {
	return &PageHandler{board: board, title: title}
}

// HandlePage handles GET / requests.
func (h *PageHandler) HandlePage(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := render.HTML(&buf, h.board.Current().State(), render.WithTitle(h.title)); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// StateHandler serves the leaderboard in its persisted document form.
type StateHandler struct {
	board Board
}

// NewStateHandler creates a new state handler.
func NewStateHandler(board Board) *StateHandler {
	return &StateHandler{board: board}
}

// HandleState handles GET /state requests.
func (h *StateHandler) HandleState(w http.ResponseWriter, _ *http.Request) {
	data, err := repository.Encode(h.board.Current().State())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(data)
}

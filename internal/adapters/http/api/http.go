// Package api serves the read-only leaderboard HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/okian/graphboard/internal/adapters/repository"
	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/pkg/logger"
	"github.com/okian/graphboard/pkg/metrics"
)

// Board supplies the current leaderboard snapshot.
type Board interface {
	Current() *repository.Snapshot
}

// Server wires HTTP routes for the leaderboard API.
type Server struct {
	router *mux.Router

	healthHandler      *HealthHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	pageHandler        *PageHandler
	stateHandler       *StateHandler

	limiter *rate.Limiter
	log     logger.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(board Board, opts ...Option) *Server {
	o := options{
		maxLimit:  100,
		rateLimit: 50,
		burst:     100,
		title:     "Leaderboard",
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		router:             mux.NewRouter(),
		healthHandler:      NewHealthHandler(board),
		leaderboardHandler: NewLeaderboardHandler(board, o.maxLimit),
		rankHandler:        NewRankHandler(board),
		pageHandler:        NewPageHandler(board, o.title),
		stateHandler:       NewStateHandler(board),
		log:                o.log,
	}
	if o.rateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(o.rateLimit), o.burst)
	}
	s.register()
	return s
}

// Router exposes the underlying router so other packages can add routes.
func (s *Server) Router() *mux.Router { return s.router }

func (s *Server) register() {
	r := s.router
	r.HandleFunc("/", MetricsMiddleware(s.pageHandler.HandlePage, "page")).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard")).Methods(http.MethodGet)
	r.HandleFunc("/rank/{team}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank")).Methods(http.MethodGet)
	r.HandleFunc("/state", MetricsMiddleware(s.stateHandler.HandleState, "state")).Methods(http.MethodGet)
	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
}

// Handler returns the router wrapped with rate limiting, compression and
// panic recovery.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if s.limiter != nil {
		h = RateLimitMiddleware(s.limiter, h)
	}
	h = handlers.CompressHandler(h)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.log}),
		handlers.PrintRecoveryStack(false),
	)(h)
}

// NewHTTPServer returns an http.Server for addr serving s.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// entryResponse is the JSON shape of one leaderboard entry.
type entryResponse struct {
	Rank         int       `json:"rank"`
	Team         string    `json:"team"`
	ChallengeAcc float64   `json:"challenge_acc"`
	OriginalAcc  float64   `json:"original_acc"`
	Gap          float64   `json:"gap"`
	Timestamp    time.Time `json:"timestamp"`
}

func toResponse(e model.Entry) entryResponse {
	return entryResponse{
		Rank:         e.Rank,
		Team:         e.Team,
		ChallengeAcc: e.ChallengeAcc,
		OriginalAcc:  e.OriginalAcc,
		Gap:          e.Gap,
		Timestamp:    e.Timestamp.UTC(),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

type recoveryLogger struct {
	log logger.Logger
}

func (l recoveryLogger) Println(args ...any) {
	l.log.Error(context.Background(), "panic recovered", logger.Any("panic", args))
}

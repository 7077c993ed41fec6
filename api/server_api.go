package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saeidalz13/battleship-arena/archive"
	mb "github.com/saeidalz13/battleship-arena/models/battleship"
	mc "github.com/saeidalz13/battleship-arena/models/connection"
)

const (
	StageProd = "prod"
	StageDev  = "dev"
)

const shutdownTimeout time.Duration = time.Second * 10

var defaultPort int = 8000

type Server struct {
	port      int
	stage     string
	publicURL string

	analytics    Analytics
	archiveStore archive.Store

	sessionLoops sync.WaitGroup

	SessionManager *mc.BattleshipSessionManager
	MatchManager   *mb.BattleshipMatchManager
}

type Option func(*Server) error

// NewServer panics on an invalid option; misconfiguration is a startup
// failure.
func NewServer(
	sessionManager *mc.BattleshipSessionManager,
	matchManager *mb.BattleshipMatchManager,
	optFuncs ...Option,
) *Server {
	server := Server{
		port:           defaultPort,
		stage:          StageDev,
		SessionManager: sessionManager,
		MatchManager:   matchManager,
	}
	for _, opt := range optFuncs {
		if err := opt(&server); err != nil {
			panic(err)
		}
	}
	return &server
}

func WithPort(port int) Option {
	return func(s *Server) error {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port: %d", port)
		}
		s.port = port
		return nil
	}
}

func WithStage(stage string) Option {
	return func(s *Server) error {
		if stage != StageProd && stage != StageDev {
			return fmt.Errorf("invalid type of development stage: %s", stage)
		}
		s.stage = stage
		return nil
	}
}

func WithPublicURL(publicURL string) Option {
	return func(s *Server) error {
		s.publicURL = publicURL
		return nil
	}
}

func WithAnalytics(analytics Analytics) Option {
	return func(s *Server) error {
		s.analytics = analytics
		return nil
	}
}

func WithArchiveStore(store archive.Store) Option {
	return func(s *Server) error {
		s.archiveStore = store
		return nil
	}
}

func (s *Server) Port() int {
	return s.port
}

// Handler wires the websocket endpoint and the read-only HTTP API.
func (s *Server) Handler() http.Handler {
	rp := NewRequestProcessor(s.SessionManager, s.MatchManager, s.analytics, s.publicURL)
	rp.sessionLoops = &s.sessionLoops

	mux := http.NewServeMux()
	mux.Handle("GET /battleship", rp)
	mux.HandleFunc("GET /api/matches", s.handleListMatches)
	mux.HandleFunc("GET /api/archive", s.handleListArchive)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	return mux
}

// Run serves until ctx is cancelled and then shuts down gracefully.
// Websocket connections are hijacked and so not covered by Shutdown;
// their sessions are terminated explicitly and Run returns only once
// every session has left its match.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: time.Second * 10,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.port).Str("stage", s.stage).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.SessionManager.TerminateAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := s.WaitSessions(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// WaitSessions blocks until every websocket session served by Handler
// has finished its read loop, or ctx is done.
func (s *Server) WaitSessions(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.sessionLoops.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for sessions: %w", ctx.Err())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func (s *Server) handleListMatches(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.MatchManager.ListActive())
}

func (s *Server) handleListArchive(w http.ResponseWriter, r *http.Request) {
	if s.archiveStore == nil {
		writeJSON(w, http.StatusOK, []mb.ArchiveRecord{})
		return
	}

	records, err := s.archiveStore.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list archive")
		writeJSON(w, http.StatusInternalServerError, mc.NewRespErr(err.Error(), "failed to read archive"))
		return
	}
	if records == nil {
		records = []mb.ArchiveRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type respStats struct {
	MatchesCreated  int64 `json:"matches_created"`
	MatchesFinished int64 `json:"matches_finished"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeJSON(w, http.StatusNotFound, mc.NewRespErr("", "analytics are disabled"))
		return
	}

	created, err := s.analytics.GetMatchesCreatedCount(r.Context())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Msg("failed to read created matches")
		writeJSON(w, http.StatusInternalServerError, mc.NewRespErr(err.Error(), "failed to read stats"))
		return
	}
	finished, err := s.analytics.GetMatchesFinishedCount(r.Context())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Msg("failed to read finished matches")
		writeJSON(w, http.StatusInternalServerError, mc.NewRespErr(err.Error(), "failed to read stats"))
		return
	}

	writeJSON(w, http.StatusOK, respStats{MatchesCreated: created, MatchesFinished: finished})
}

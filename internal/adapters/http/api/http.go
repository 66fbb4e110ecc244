// Package api exposes the competition over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/okian/dancefloor/internal/domain/competition"
	"github.com/okian/dancefloor/internal/domain/ledger"
	"github.com/okian/dancefloor/internal/domain/model"
	"github.com/okian/dancefloor/internal/domain/ranking"
	"github.com/okian/dancefloor/pkg/logger"
)

const defaultMaxRequestBytes = 1 << 20

// Competition is the operation set the handlers drive.
type Competition interface {
	GenerateHeats(ctx context.Context, category string) (competition.HeatsResult, error)
	SetActiveHeat(ctx context.Context, heatID string) (competition.ActiveHeatResult, error)
	AdvanceToSemifinal(ctx context.Context, category string) (competition.SemifinalResult, error)
	AdvanceToFinal(ctx context.Context) (competition.FinalResult, error)
	DetermineWinners(ctx context.Context) (competition.WinnersResult, error)
	Reset(ctx context.Context) error

	SubmitScores(ctx context.Context, sub ledger.Submission) (competition.SubmitResult, error)

	Snapshot(ctx context.Context) (competition.View, error)
	History(ctx context.Context) ([]model.Snapshot, error)
	Rankings(ctx context.Context, phase model.Phase, heatID string) (ranking.RoleStandings, error)

	ImportRoster(ctx context.Context, ps []model.Participant, js []model.Judge) (competition.RosterResult, error)
}

// Server wires HTTP routes for the competition API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	phaseHandler    *PhaseHandler
	scoresHandler   *ScoresHandler
	snapshotHandler *SnapshotHandler
	rosterHandler   *RosterHandler

	maxRequestBytes int64
	limiter         *judgeLimiter
	pinger          Pinger
	logger          logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(comp Competition, stats StatsProvider, opts ...Option) *Server {
	s := &Server{maxRequestBytes: defaultMaxRequestBytes, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	codec := &codec{maxBytes: s.maxRequestBytes, validate: validator.New(validator.WithRequiredStructEnabled()), logger: s.logger}
	s.healthHandler = NewHealthHandler(s.pinger)
	s.statsHandler = NewStatsHandler(stats)
	s.phaseHandler = &PhaseHandler{comp: comp, codec: codec}
	s.scoresHandler = &ScoresHandler{comp: comp, codec: codec, limiter: s.limiter}
	s.snapshotHandler = &SnapshotHandler{comp: comp, codec: codec}
	s.rosterHandler = &RosterHandler{comp: comp, codec: codec}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/competition", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.snapshotHandler.HandleGetSnapshot, "competition"))
		r.Get("/history", MetricsMiddleware(s.snapshotHandler.HandleGetHistory, "history"))
		r.Get("/rankings", MetricsMiddleware(s.snapshotHandler.HandleGetRankings, "rankings"))

		r.Post("/heats", MetricsMiddleware(s.phaseHandler.HandleGenerateHeats, "generate_heats"))
		r.Put("/heats/active", MetricsMiddleware(s.phaseHandler.HandleSetActiveHeat, "set_active_heat"))
		r.Post("/semifinal", MetricsMiddleware(s.phaseHandler.HandleAdvanceToSemifinal, "advance_to_semifinal"))
		r.Post("/final", MetricsMiddleware(s.phaseHandler.HandleAdvanceToFinal, "advance_to_final"))
		r.Post("/winners", MetricsMiddleware(s.phaseHandler.HandleDetermineWinners, "determine_winners"))
		r.Post("/reset", MetricsMiddleware(s.phaseHandler.HandleReset, "reset"))
	})

	r.Post("/scores", MetricsMiddleware(s.scoresHandler.HandleSubmitScores, "scores"))
	r.Post("/roster", MetricsMiddleware(s.rosterHandler.HandleImportRoster, "roster"))
}

// Handler returns a router with every API route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
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

// codec decodes and validates request bodies and renders results.
type codec struct {
	maxBytes int64
	validate *validator.Validate
	logger   logger.Logger
}

// decode reads a JSON body into v. An empty body leaves v at its zero value
// before validation runs.
func (c *codec) decode(w http.ResponseWriter, r *http.Request, v any) error {
	const op = "api.decode"
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, c.maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewKindf(op, model.ErrValidation, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return model.WrapKind(op, model.ErrValidation, fmt.Errorf("malformed JSON: %w", err))
	}
	if err := c.validate.Struct(v); err != nil {
		return model.WrapKind(op, model.ErrValidation, err)
	}
	return nil
}

// fail writes err with its mapped status. Unexpected failures are logged.
func (c *codec) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		c.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

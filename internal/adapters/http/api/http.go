// Package api serves the scoring and ranking operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/nailbiter/internal/adapters/http/swagger"
	service "github.com/okian/nailbiter/internal/app"
	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/okian/nailbiter/internal/domain/model"
	"github.com/okian/nailbiter/pkg/logger"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	StatsProvider

	ScoreSamples(ctx context.Context, samples []excitement.Sample) (excitement.Result, error)
	RankDate(ctx context.Context, date time.Time, force bool) (service.RunSummary, error)
	Ranking(ctx context.Context, date string, n int) ([]model.RankedGame, error)
	Game(ctx context.Context, eventID string) (model.RankedGame, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps        Dependencies
	maxLimit    int
	corsOrigins []string
	now         func() time.Time
	logger      logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLimit caps the limit query parameter of ranking reads.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithCORSOrigins restricts browser origins. Empty allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithClock sets the clock used to pick the default ranking date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		maxLimit:      defaultMaxLimit,
		corsOrigins:   []string{"*"},
		now:           time.Now,
		logger:        logger.Named("http"),
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with every route and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	swagger.Register(r)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/score", MetricsMiddleware(s.handleScore, "score"))
		r.Post("/rankings", MetricsMiddleware(s.handleRankDate, "rankings_run"))
		r.Get("/rankings/{date}", MetricsMiddleware(s.handleGetRanking, "rankings"))
		r.Get("/games/{eventID}", MetricsMiddleware(s.handleGetGame, "games"))
	})
	return r
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

// writeFailure maps err to its status and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

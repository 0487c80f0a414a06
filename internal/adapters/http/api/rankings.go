package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/nailbiter/internal/app"
	"github.com/okian/nailbiter/internal/domain/model"
)

type rankRequest struct {
	Date  string `json:"date"`
	Force bool   `json:"force"`
}

// handleRankDate handles POST /v1/rankings. An empty date ranks yesterday.
func (s *Server) handleRankDate(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid json: %w", err))
		return
	}

	date := service.TargetDate(s.now())
	if d := strings.TrimSpace(req.Date); d != "" {
		parsed, err := model.ParseDate(d)
		if err != nil {
			writeFailure(w, fmt.Errorf("%w: %q", service.ErrInvalidDate, d))
			return
		}
		date = parsed
	}

	sum, err := s.deps.RankDate(r.Context(), date, req.Force)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if sum.Queued == 0 && sum.Rejected > 0 {
		writeError(w, http.StatusTooManyRequests, "backpressure",
			fmt.Errorf("%w: %d games rejected", ErrBackpressure, sum.Rejected))
		return
	}
	writeJSON(w, http.StatusAccepted, sum)
}

// handleGetRanking handles GET /v1/rankings/{date}?limit=N. A missing limit
// means the configured maximum; larger limits are capped to it.
func (s *Server) handleGetRanking(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	limit := s.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		limit = min(n, s.maxLimit)
	}

	games, err := s.deps.Ranking(r.Context(), date, limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if games == nil {
		games = []model.RankedGame{}
	}
	writeJSON(w, http.StatusOK, rankingResponse{Date: date, Games: games})
}

type rankingResponse struct {
	Date  string             `json:"date"`
	Games []model.RankedGame `json:"games"`
}

// handleGetGame handles GET /v1/games/{eventID}.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Game(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/nailbiter/internal/adapters/espn"
	"github.com/okian/nailbiter/internal/domain/excitement"
)

const maxScoreBody = 4 << 20

// scoreRequest accepts either explicit samples or an ESPN-style
// winprobability list.
type scoreRequest struct {
	Samples        []excitement.Sample `json:"samples"`
	WinProbability json.RawMessage     `json:"winprobability"`
}

// handleScore handles POST /v1/score.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxScoreBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	samples, err := decodeSamples(body)
	if err != nil {
		writeFailure(w, err)
		return
	}

	res, err := s.deps.ScoreSamples(r.Context(), samples)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeSamples(body []byte) ([]excitement.Sample, error) {
	var req scoreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrBadRequest, err)
	}
	if req.WinProbability == nil {
		return req.Samples, nil
	}

	samples, err := espn.ParseSummary(bytes.NewReader(body))
	switch {
	case errors.Is(err, espn.ErrNoWinProbability):
		return nil, nil // scorer reports insufficient data
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return samples, nil
}

// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/nailbiter/internal/domain/excitement"
)

// DateLayout is the calendar-day format used for game dates and ranking keys.
const DateLayout = "2006-01-02"

const unknownTeam = "Unknown"

// GameCard is one scoreboard entry. It deliberately carries no score.
type GameCard struct {
	EventID string `json:"event_id"`
	Date    string `json:"date"` // YYYY-MM-DD
	Home    string `json:"home"`
	Away    string `json:"away"`
}

// Matchup renders "Away at Home" without revealing the result.
func (c GameCard) Matchup() string {
	home, away := c.Home, c.Away
	if home == "" {
		home = unknownTeam
	}
	if away == "" {
		away = unknownTeam
	}
	return away + " at " + home
}

// Game is a card together with its home-team win-probability trace.
type Game struct {
	GameCard
	Samples []excitement.Sample
}

// RankedGame is the spoiler-safe view stored and served for one scored game.
type RankedGame struct {
	EventID  string            `json:"event_id"`
	Date     string            `json:"date"`
	Matchup  string            `json:"matchup"`
	Result   excitement.Result `json:"result"`
	ScoredAt time.Time         `json:"scored_at"`
}

// NewRankedGame builds the stored view of a scored card.
func NewRankedGame(card GameCard, res excitement.Result, at time.Time) RankedGame {
	return RankedGame{
		EventID:  card.EventID,
		Date:     card.Date,
		Matchup:  card.Matchup(),
		Result:   res,
		ScoredAt: at.UTC(),
	}
}

// Job is a unit of ranking work flowing through the queue.
type Job struct {
	JobID string   // unique per enqueue
	RunID string   // groups the jobs of one ranking run
	Card  GameCard // game to fetch and score
}

// FormatDate renders t as a ranking key.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD ranking key.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Package repository stores scored games and serves them back ranked.
package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/okian/nailbiter/internal/domain/model"
)

// Store provides read/write access to ranked games.
type Store interface {
	// Save inserts or replaces the game keyed by its event id.
	Save(ctx context.Context, g model.RankedGame) error

	// Get returns one game or ErrNotFound.
	Get(ctx context.Context, eventID string) (model.RankedGame, error)

	// TopN returns the games of date (YYYY-MM-DD) ordered by score desc,
	// then event id asc. n <= 0 returns every game of the date.
	TopN(ctx context.Context, date string, n int) ([]model.RankedGame, error)

	// Count returns the number of stored games.
	Count(ctx context.Context) int

	Close() error
}

func validate(g model.RankedGame) error {
	switch {
	case strings.TrimSpace(g.EventID) == "":
		return errorf(ErrInvalidGame, "missing event id")
	case strings.TrimSpace(g.Date) == "":
		return errorf(ErrInvalidGame, "missing date for event %s", g.EventID)
	}
	return nil
}

// ranksBefore reports whether a is listed before b: higher score first,
// event id ascending on ties so the order is deterministic.
func ranksBefore(a, b model.RankedGame) bool {
	if a.Result.Score != b.Result.Score {
		return a.Result.Score > b.Result.Score
	}
	return a.EventID < b.EventID
}

// rank sorts games in place and applies the n limit.
func rank(games []model.RankedGame, n int) []model.RankedGame {
	sort.Slice(games, func(i, j int) bool { return ranksBefore(games[i], games[j]) })
	if n > 0 && len(games) > n {
		games = games[:n]
	}
	return games
}

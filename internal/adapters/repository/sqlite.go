package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver

	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/okian/nailbiter/internal/domain/model"
	"github.com/okian/nailbiter/pkg/metrics"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ranked_games (
	event_id         TEXT PRIMARY KEY,
	game_date        TEXT NOT NULL,
	matchup          TEXT NOT NULL,
	lead_changes     INTEGER NOT NULL,
	average_swing    REAL NOT NULL,
	largest_swing    REAL NOT NULL,
	toss_up_fraction REAL NOT NULL,
	score            REAL NOT NULL,
	verdict          TEXT NOT NULL,
	scored_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS ranked_games_by_date ON ranked_games (game_date, score DESC, event_id);
`

const selectColumns = `event_id, game_date, matchup, lead_changes, average_swing,
	largest_swing, toss_up_fraction, score, verdict, scored_at`

// SQLiteStore persists ranked games in a SQLite file so rankings survive
// restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	s := &SQLiteStore{db: db}
	metrics.UpdateStoredGames(s.Count(ctx))
	return s, nil
}

func (s *SQLiteStore) Save(ctx context.Context, g model.RankedGame) error {
	if err := validate(g); err != nil {
		return err
	}
	r := g.Result
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ranked_games (`+selectColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(event_id) DO UPDATE SET
	game_date = excluded.game_date,
	matchup = excluded.matchup,
	lead_changes = excluded.lead_changes,
	average_swing = excluded.average_swing,
	largest_swing = excluded.largest_swing,
	toss_up_fraction = excluded.toss_up_fraction,
	score = excluded.score,
	verdict = excluded.verdict,
	scored_at = excluded.scored_at`,
		g.EventID, g.Date, g.Matchup, r.LeadChanges, r.AverageSwing,
		r.LargestSwing, r.TossUpFraction, r.Score, r.Verdict.String(),
		g.ScoredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving event %s: %w", g.EventID, err)
	}
	metrics.UpdateStoredGames(s.Count(ctx))
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, eventID string) (model.RankedGame, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM ranked_games WHERE event_id = ?`, eventID)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RankedGame{}, errorf(ErrNotFound, "event %s", eventID)
	}
	if err != nil {
		return model.RankedGame{}, fmt.Errorf("loading event %s: %w", eventID, err)
	}
	return g, nil
}

func (s *SQLiteStore) TopN(ctx context.Context, date string, n int) ([]model.RankedGame, error) {
	limit := n
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM ranked_games
WHERE game_date = ? ORDER BY score DESC, event_id ASC LIMIT ?`, date, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking %s: %w", date, err)
	}
	defer func() { _ = rows.Close() }()

	games := []model.RankedGame{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("ranking %s: %w", date, err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ranking %s: %w", date, err)
	}
	return games, nil
}

func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ranked_games`).Scan(&n); err != nil {
		metrics.RecordStoreError("count")
		return 0
	}
	return n
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(sc scanner) (model.RankedGame, error) {
	var (
		g        model.RankedGame
		verdict  string
		scoredAt string
	)
	err := sc.Scan(&g.EventID, &g.Date, &g.Matchup, &g.Result.LeadChanges,
		&g.Result.AverageSwing, &g.Result.LargestSwing, &g.Result.TossUpFraction,
		&g.Result.Score, &verdict, &scoredAt)
	if err != nil {
		return model.RankedGame{}, err
	}
	if g.Result.Verdict, err = excitement.ParseVerdict(verdict); err != nil {
		return model.RankedGame{}, err
	}
	if g.ScoredAt, err = time.Parse(time.RFC3339Nano, scoredAt); err != nil {
		return model.RankedGame{}, fmt.Errorf("parsing scored_at: %w", err)
	}
	return g, nil
}

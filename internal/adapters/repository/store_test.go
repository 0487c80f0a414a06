package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/okian/nailbiter/internal/domain/model"
)

var scoredAt = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func game(id, date string, score float64) model.RankedGame {
	return model.RankedGame{
		EventID: id,
		Date:    date,
		Matchup: "Away at Home",
		Result: excitement.Result{
			LeadChanges:    2,
			AverageSwing:   0.1,
			LargestSwing:   0.2,
			TossUpFraction: 0.25,
			Score:          score,
			Verdict:        excitement.DefaultPolicy().Thresholds.VerdictFor(score),
		},
		ScoredAt: scoredAt,
	}
}

func ids(games []model.RankedGame) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.EventID
	}
	return out
}

// conformance runs the Store contract against a fresh store from open.
func conformance(open func() Store) {
	ctx := context.Background()

	Convey("Given an empty store", func() {
		s := open()
		Reset(func() { _ = s.Close() })

		Convey("Get on a missing id returns ErrNotFound", func() {
			_, err := s.Get(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("TopN on an unknown date is empty", func() {
			games, err := s.TopN(ctx, "2024-03-04", 10)
			So(err, ShouldBeNil)
			So(games, ShouldBeEmpty)
		})

		Convey("Save rejects games without identity", func() {
			So(errors.Is(s.Save(ctx, game("", "2024-03-04", 1)), ErrInvalidGame), ShouldBeTrue)
			So(errors.Is(s.Save(ctx, game("1", "", 1)), ErrInvalidGame), ShouldBeTrue)
		})

		Convey("Moving a game to another date removes it from the old one", func() {
			So(s.Save(ctx, game("x", "2024-03-04", 5)), ShouldBeNil)
			So(s.Save(ctx, game("x", "2024-03-05", 5)), ShouldBeNil)

			old, err := s.TopN(ctx, "2024-03-04", 0)
			So(err, ShouldBeNil)
			So(old, ShouldBeEmpty)
			moved, err := s.TopN(ctx, "2024-03-05", 0)
			So(err, ShouldBeNil)
			So(ids(moved), ShouldResemble, []string{"x"})
			So(s.Count(ctx), ShouldEqual, 1)
		})

		Convey("When games from two dates are saved", func() {
			for _, g := range []model.RankedGame{
				game("b", "2024-03-04", 7.5),
				game("a", "2024-03-04", 7.5),
				game("c", "2024-03-04", 9.1),
				game("d", "2024-03-04", 2.0),
				game("e", "2024-03-05", 5.0),
			} {
				So(s.Save(ctx, g), ShouldBeNil)
			}

			Convey("Count covers every date", func() {
				So(s.Count(ctx), ShouldEqual, 5)
			})

			Convey("TopN orders by score then event id", func() {
				games, err := s.TopN(ctx, "2024-03-04", 0)
				So(err, ShouldBeNil)
				So(ids(games), ShouldResemble, []string{"c", "a", "b", "d"})
			})

			Convey("TopN honours the limit", func() {
				games, err := s.TopN(ctx, "2024-03-04", 2)
				So(err, ShouldBeNil)
				So(ids(games), ShouldResemble, []string{"c", "a"})
			})

			Convey("Get round-trips the result", func() {
				g, err := s.Get(ctx, "c")
				So(err, ShouldBeNil)
				So(g.Result, ShouldResemble, game("c", "2024-03-04", 9.1).Result)
				So(g.Matchup, ShouldEqual, "Away at Home")
				So(g.ScoredAt.Equal(scoredAt), ShouldBeTrue)
			})

			Convey("Saving an existing id replaces it", func() {
				So(s.Save(ctx, game("d", "2024-03-04", 9.9)), ShouldBeNil)
				So(s.Count(ctx), ShouldEqual, 5)

				games, err := s.TopN(ctx, "2024-03-04", 1)
				So(err, ShouldBeNil)
				So(ids(games), ShouldResemble, []string{"d"})
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("MemoryStore", t, func() {
		conformance(func() Store { return NewMemoryStore() })
	})
}

func TestSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	var n int

	Convey("SQLiteStore", t, func() {
		conformance(func() Store {
			n++
			s, err := NewSQLiteStore(context.Background(), filepath.Join(dir, fmt.Sprintf("games-%d.db", n)))
			So(err, ShouldBeNil)
			return s
		})

		Convey("Data survives reopening the file", func() {
			ctx := context.Background()
			path := filepath.Join(dir, "reopen.db")

			s, err := NewSQLiteStore(ctx, path)
			So(err, ShouldBeNil)
			So(s.Save(ctx, game("r", "2024-03-04", 6.6)), ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			s, err = NewSQLiteStore(ctx, path)
			So(err, ShouldBeNil)
			defer s.Close()
			g, err := s.Get(ctx, "r")
			So(err, ShouldBeNil)
			So(g.Result.Verdict, ShouldEqual, excitement.VerdictExciting)
		})
	})
}

func TestRedisStore(t *testing.T) {
	Convey("RedisStore", t, func() {
		conformance(func() Store {
			mr := miniredis.RunT(t)
			return NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), WithTTL(time.Minute))
		})

		Convey("Expired games leave the count", func() {
			ctx := context.Background()
			mr := miniredis.RunT(t)
			now := scoredAt
			s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}),
				WithTTL(time.Hour),
				WithRedisClock(func() time.Time { return now }),
			)
			defer s.Close()

			So(s.Save(ctx, game("old", "2024-03-04", 5)), ShouldBeNil)
			now = now.Add(90 * time.Minute)
			mr.FastForward(90 * time.Minute)
			So(s.Save(ctx, game("new", "2024-03-04", 6)), ShouldBeNil)

			So(s.Count(ctx), ShouldEqual, 1)
			_, err := s.Get(ctx, "old")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			games, err := s.TopN(ctx, "2024-03-04", 0)
			So(err, ShouldBeNil)
			So(ids(games), ShouldResemble, []string{"new"})
		})

		Convey("Key prefixes keep stores apart", func() {
			ctx := context.Background()
			mr := miniredis.RunT(t)
			a := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), WithKeyPrefix("a"))
			b := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), WithKeyPrefix("b"))
			defer a.Close()
			defer b.Close()

			So(a.Save(ctx, game("1", "2024-03-04", 5)), ShouldBeNil)
			So(a.Count(ctx), ShouldEqual, 1)
			So(b.Count(ctx), ShouldEqual, 0)
			So(mr.Exists("a:game:1"), ShouldBeTrue)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Open", t, func() {
		ctx := context.Background()

		Convey("defaults to memory", func() {
			s, err := Open(ctx, Backend{})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &MemoryStore{})
		})

		Convey("opens sqlite at the given path", func() {
			s, err := Open(ctx, Backend{Kind: "SQLite", SQLitePath: filepath.Join(t.TempDir(), "open.db")})
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &SQLiteStore{})
			So(s.Close(), ShouldBeNil)
		})

		Convey("rejects unknown backends", func() {
			_, err := Open(ctx, Backend{Kind: "etcd"})
			So(errors.Is(err, ErrUnknownStore), ShouldBeTrue)
		})
	})
}

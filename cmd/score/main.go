// Command score rates finished games from their win-probability traces.
//
//	score [flags] [FILE]      score one summary JSON file (default box.json)
//	score -date YYYY-MM-DD    rank every game of a day from ESPN
//	score -date yesterday     same, for yesterday in US Eastern time
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/nailbiter/internal/adapters/espn"
	"github.com/okian/nailbiter/internal/adapters/repository"
	app "github.com/okian/nailbiter/internal/app"
	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/okian/nailbiter/internal/domain/model"
	"github.com/okian/nailbiter/pkg/logger"
)

const (
	defaultInput   = "box.json"
	defaultTimeout = 2 * time.Minute
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	date    string
	baseURL string
	sport   string
	asJSON  bool
	policy  excitement.Policy
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.SetOutput(stderr)

	p := excitement.DefaultPolicy()
	opts := options{policy: p}
	fs.StringVar(&opts.date, "date", "", "rank a day's games from ESPN (YYYY-MM-DD or \"yesterday\")")
	fs.StringVar(&opts.baseURL, "base-url", espn.DefaultBaseURL, "ESPN site API base URL")
	fs.StringVar(&opts.sport, "sport", espn.DefaultSport, "ESPN sport path")
	fs.BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")
	fs.Float64Var(&opts.policy.Weights.LeadChanges, "lead-weight", p.Weights.LeadChanges, "points available for lead changes")
	fs.Float64Var(&opts.policy.Weights.AverageSwing, "avg-weight", p.Weights.AverageSwing, "points available for the average swing")
	fs.Float64Var(&opts.policy.Weights.LargestSwing, "max-weight", p.Weights.LargestSwing, "points available for the largest swing")
	fs.Float64Var(&opts.policy.Weights.TossUp, "tossup-weight", p.Weights.TossUp, "points available for time in the toss-up band")
	verbose := fs.Bool("verbose", false, "log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := opts.policy.Validate(); err != nil {
		fmt.Fprintln(stderr, "score:", err)
		return 2
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	_ = logger.Init(logger.WithOutput(stderr))
	_ = logger.SetLevelString(level)

	scorer := excitement.NewScorer(excitement.WithPolicy(opts.policy))

	var err error
	if opts.date != "" {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
		err = rankDay(ctx, opts, scorer, stdout)
	} else {
		path := defaultInput
		if fs.NArg() > 0 {
			path = fs.Arg(0)
		}
		err = scoreFile(path, opts, scorer, stdout)
	}
	if err != nil {
		fmt.Fprintln(stderr, "score:", err)
		return 1
	}
	return 0
}

func scoreFile(path string, opts options, scorer *excitement.Scorer, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	samples, err := espn.ParseSummary(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	res, err := scorer.Score(samples)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if opts.asJSON {
		return json.NewEncoder(w).Encode(res)
	}
	fmt.Fprintf(w, "Verdict: %s (%.2f/10)\n", res.Verdict, res.Score)
	fmt.Fprintf(w, "Lead changes: %d\n", res.LeadChanges)
	fmt.Fprintf(w, "Average swing: %.3f\n", res.AverageSwing)
	fmt.Fprintf(w, "Largest swing: %.3f\n", res.LargestSwing)
	fmt.Fprintf(w, "Time in toss-up range (%.0f%%-%.0f%%): %.2f%%\n",
		opts.policy.TossUpLow*100, opts.policy.TossUpHigh*100, res.TossUpFraction*100)
	return nil
}

// rankDay scores every game of a day in turn. A game that cannot be fetched
// or scored is reported and skipped.
func rankDay(ctx context.Context, opts options, scorer *excitement.Scorer, w io.Writer) error {
	date := app.TargetDate(time.Now())
	if opts.date != "yesterday" {
		d, err := model.ParseDate(opts.date)
		if err != nil {
			return fmt.Errorf("invalid -date %q: want YYYY-MM-DD", opts.date)
		}
		date = d
	}

	client := espn.New(espn.WithBaseURL(opts.baseURL), espn.WithSport(opts.sport))
	cards, err := client.Scoreboard(ctx, date)
	if err != nil {
		return err
	}

	log := logger.Named("score")
	day := model.FormatDate(date)
	store := repository.NewMemoryStore()
	for _, card := range cards {
		err := rankGame(ctx, client, scorer, store, card)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			log.Warn(ctx, "skipping game", logger.String("event_id", card.EventID), logger.Error(err))
		}
	}

	ranked, err := store.TopN(ctx, day, 0)
	if err != nil {
		return err
	}

	if opts.asJSON {
		return json.NewEncoder(w).Encode(ranked)
	}
	switch {
	case len(cards) == 0:
		fmt.Fprintf(w, "No games found for %s.\n", day)
		return nil
	case len(ranked) == 0:
		fmt.Fprintf(w, "No excitement data available for %s.\n", day)
		return nil
	}
	fmt.Fprintf(w, "Excitement rankings for %s:\n", day)
	for i, g := range ranked {
		fmt.Fprintf(w, "%d. %s: %s, excitement %.2f/10 (lead changes %d, biggest swing %.3f)\n",
			i+1, g.Matchup, g.Result.Verdict, g.Result.Score, g.Result.LeadChanges, g.Result.LargestSwing)
	}
	return nil
}

func rankGame(ctx context.Context, client *espn.Client, scorer *excitement.Scorer, store repository.Store, card model.GameCard) error {
	game, err := client.Game(ctx, card)
	if err != nil {
		return err
	}
	res, err := scorer.Score(game.Samples)
	if err != nil {
		return err
	}
	return store.Save(ctx, model.NewRankedGame(game.GameCard, res, time.Now()))
}

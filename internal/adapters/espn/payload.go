package espn

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/okian/nailbiter/internal/domain/model"
)

// scoreboard mirrors the parts of /scoreboard we read. Scores are ignored on
// purpose.
type scoreboard struct {
	Events []struct {
		ID           string `json:"id"`
		Competitions []struct {
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Team     struct {
					DisplayName string `json:"displayName"`
					Name        string `json:"name"`
				} `json:"team"`
			} `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

type summary struct {
	WinProbability []struct {
		HomeWinPercentage *float64 `json:"homeWinPercentage"`
		PlayID            string   `json:"playId"`
	} `json:"winprobability"`
}

// ParseScoreboard decodes a scoreboard payload into game cards dated date.
// Events without an id, without competitions or with fewer than two
// competitors are skipped.
func ParseScoreboard(r io.Reader, date time.Time) ([]model.GameCard, error) {
	var sb scoreboard
	if err := json.NewDecoder(r).Decode(&sb); err != nil {
		return nil, fmt.Errorf("%w: decoding scoreboard: %v", ErrMalformedPayload, err)
	}

	day := model.FormatDate(date)
	cards := make([]model.GameCard, 0, len(sb.Events))
	for _, ev := range sb.Events {
		if strings.TrimSpace(ev.ID) == "" || len(ev.Competitions) == 0 {
			continue
		}
		competitors := ev.Competitions[0].Competitors
		if len(competitors) < 2 {
			continue
		}
		card := model.GameCard{EventID: ev.ID, Date: day}
		for _, c := range competitors {
			name := c.Team.DisplayName
			if name == "" {
				name = c.Team.Name
			}
			switch c.HomeAway {
			case "home":
				card.Home = name
			case "away":
				card.Away = name
			}
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// ParseSummary decodes a game summary and returns its home-team
// win-probability trace, one sample per entry in payload order. Values are
// passed through untouched; range checks belong to the scorer.
func ParseSummary(r io.Reader) ([]excitement.Sample, error) {
	var s summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: decoding summary: %v", ErrMalformedPayload, err)
	}
	if len(s.WinProbability) == 0 {
		return nil, ErrNoWinProbability
	}

	samples := make([]excitement.Sample, len(s.WinProbability))
	for i, wp := range s.WinProbability {
		if wp.HomeWinPercentage == nil {
			return nil, fmt.Errorf("%w: winprobability[%d] missing homeWinPercentage", ErrMalformedPayload, i)
		}
		samples[i] = excitement.Sample{Marker: float64(i), Probability: *wp.HomeWinPercentage}
	}
	return samples, nil
}

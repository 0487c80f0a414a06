// Package espn is the game data source: it reads scoreboards and
// win-probability traces from the ESPN site API.
package espn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/okian/nailbiter/internal/domain/model"
	"github.com/okian/nailbiter/pkg/metrics"
)

// Defaults for the public ESPN endpoint.
const (
	DefaultBaseURL   = "https://site.api.espn.com/apis/site/v2/sports"
	DefaultSport     = "basketball/nba"
	DefaultTimeout   = 10 * time.Second
	defaultUserAgent = "nailbiter/1.0"
	maxErrorBody     = 512
)

// Client handles ESPN API requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sport      string
	userAgent  string
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithSport selects the league path, e.g. "basketball/wnba".
func WithSport(sport string) Option {
	return func(c *Client) {
		if sport != "" {
			c.sport = sport
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a new ESPN API client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		sport:      DefaultSport,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scoreboard lists the games played on date.
func (c *Client) Scoreboard(ctx context.Context, date time.Time) ([]model.GameCard, error) {
	q := url.Values{"dates": {date.Format("20060102")}}
	var cards []model.GameCard
	err := c.get(ctx, "scoreboard", q, func(body io.Reader) error {
		var err error
		cards, err = ParseScoreboard(body, date)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("scoreboard %s: %w", model.FormatDate(date), err)
	}
	return cards, nil
}

// Samples returns the home-team win-probability trace of a finished game.
func (c *Client) Samples(ctx context.Context, eventID string) ([]excitement.Sample, error) {
	q := url.Values{"event": {eventID}}
	var samples []excitement.Sample
	err := c.get(ctx, "summary", q, func(body io.Reader) error {
		var err error
		samples, err = ParseSummary(body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("summary %s: %w", eventID, err)
	}
	return samples, nil
}

// Game fetches the trace of card's game.
func (c *Client) Game(ctx context.Context, card model.GameCard) (model.Game, error) {
	samples, err := c.Samples(ctx, card.EventID)
	if err != nil {
		return model.Game{}, err
	}
	return model.Game{GameCard: card, Samples: samples}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, decode func(io.Reader) error) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordSourceRequest(endpoint, outcome, float64(time.Since(start).Milliseconds()))
	}()

	u := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.sport, endpoint, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status=%d body=%s", ErrUpstream, resp.StatusCode, string(body))
	}
	return decode(resp.Body)
}

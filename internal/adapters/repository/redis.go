package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/nailbiter/internal/domain/model"
	"github.com/okian/nailbiter/pkg/metrics"
)

const (
	defaultRedisPrefix = "nailbiter"
	defaultRedisTTL    = 14 * 24 * time.Hour
)

// RedisStore keeps each game as JSON and one sorted set per date.
//
// Keys:
//
//	{prefix}:game:{event_id}   JSON RankedGame
//	{prefix}:ranking:{date}    ZSET event_id -> score
//	{prefix}:games             ZSET event_id -> saved_at (unix)
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL sets how long games and rankings live. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithRedisClock overrides the time source used to expire the game index.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix, ttl: defaultRedisTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) gameKey(id string) string      { return s.prefix + ":game:" + id }
func (s *RedisStore) rankingKey(date string) string { return s.prefix + ":ranking:" + date }
func (s *RedisStore) indexKey() string              { return s.prefix + ":games" }

// Save upserts g. A game saved again under a new date leaves the old date's
// ranking.
func (s *RedisStore) Save(ctx context.Context, g model.RankedGame) error {
	if err := validate(g); err != nil {
		return err
	}
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", g.EventID, err)
	}

	var count *redis.IntCmd
	key := s.gameKey(g.EventID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		prevDate, err := s.storedDate(ctx, tx, key)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if prevDate != "" && prevDate != g.Date {
				pipe.ZRem(ctx, s.rankingKey(prevDate), g.EventID)
			}
			pipe.Set(ctx, key, data, s.ttl)
			pipe.ZAdd(ctx, s.rankingKey(g.Date), redis.Z{Score: g.Result.Score, Member: g.EventID})
			if s.ttl > 0 {
				pipe.Expire(ctx, s.rankingKey(g.Date), s.ttl)
			}
			pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(s.now().Unix()), Member: g.EventID})
			s.trimIndex(ctx, pipe)
			count = pipe.ZCard(ctx, s.indexKey())
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("saving event %s: %w", g.EventID, err)
	}
	metrics.UpdateStoredGames(int(count.Val()))
	return nil
}

// storedDate returns the date g was last saved under, or "" when it is new.
func (s *RedisStore) storedDate(ctx context.Context, tx *redis.Tx, key string) (string, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var prev model.RankedGame
	if err := json.Unmarshal(data, &prev); err != nil {
		return "", nil // overwritten below
	}
	return prev.Date, nil
}

// trimIndex drops index entries whose game JSON has expired.
func (s *RedisStore) trimIndex(ctx context.Context, pipe redis.Pipeliner) {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	pipe.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+strconv.FormatInt(cutoff, 10))
}

func (s *RedisStore) Get(ctx context.Context, eventID string) (model.RankedGame, error) {
	data, err := s.client.Get(ctx, s.gameKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.RankedGame{}, errorf(ErrNotFound, "event %s", eventID)
	}
	if err != nil {
		return model.RankedGame{}, fmt.Errorf("loading event %s: %w", eventID, err)
	}
	var g model.RankedGame
	if err := json.Unmarshal(data, &g); err != nil {
		return model.RankedGame{}, fmt.Errorf("decoding event %s: %w", eventID, err)
	}
	return g, nil
}

// TopN reads the whole day and orders it client side; Redis breaks score
// ties by member descending, which differs from the store contract.
func (s *RedisStore) TopN(ctx context.Context, date string, n int) ([]model.RankedGame, error) {
	ids, err := s.client.ZRevRange(ctx, s.rankingKey(date), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("ranking %s: %w", date, err)
	}
	if len(ids) == 0 {
		return []model.RankedGame{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.gameKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("ranking %s: %w", date, err)
	}

	games := make([]model.RankedGame, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // expired
		}
		var g model.RankedGame
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return nil, fmt.Errorf("decoding ranking %s: %w", date, err)
		}
		if g.Date != date {
			continue // expired and saved again under another date
		}
		games = append(games, g)
	}
	return rank(games, n), nil
}

// Count returns the number of games whose JSON has not expired.
func (s *RedisStore) Count(ctx context.Context) int {
	pipe := s.client.TxPipeline()
	s.trimIndex(ctx, pipe)
	card := pipe.ZCard(ctx, s.indexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordStoreError("count")
		return 0
	}
	return int(card.Val())
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Package leaderboard ranks players by guessing score in a Redis sorted set.
// It is a read-optimized projection of the stats table: the authoritative
// totals live in Postgres, the ranking lives here.
package leaderboard

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Entry represents one ranked player.
type Entry struct {
	UserID      uuid.UUID `json:"user_id"`
	Score       int       `json:"score"`
	GamesPlayed int       `json:"games_played"`
	GamesWon    int       `json:"games_won"`
	Accuracy    float64   `json:"accuracy"`
}

// ServiceOptions configures leaderboard behavior.
type ServiceOptions struct {
	TopN           int
	RedisKeyPrefix string
}

// Service maintains the ranking in Redis.
type Service struct {
	redis  *redis.Client
	logger zerolog.Logger
	topN   int
	prefix string
}

// NewService constructs a leaderboard service instance.
func NewService(redisClient *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	return &Service{
		redis:  redisClient,
		logger: logger.With().Str("component", "leaderboard").Logger(),
		topN:   topN,
		prefix: prefix,
	}
}

// RecordGuess folds one guess outcome into the ranking.
func (s *Service) RecordGuess(ctx context.Context, userID uuid.UUID, points int, won bool) error {
	zKey := s.rankKey()
	metaKey := s.metaKey(userID)

	wins := 0
	if won {
		wins = 1
	}

	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, zKey, float64(points), userID.String())
	pipe.HIncrBy(ctx, metaKey, "games", 1)
	pipe.HIncrBy(ctx, metaKey, "wins", int64(wins))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	return nil
}

// Top retrieves the highest-scoring players, best first.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.rankKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		entry, err := s.readMeta(ctx, z.Member.(string))
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		entry.Score = int(z.Score)
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (s *Service) readMeta(ctx context.Context, userIDStr string) (*Entry, error) {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt leaderboard member %q: %w", userIDStr, err)
	}

	data, err := s.redis.HGetAll(ctx, s.metaKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	entry := &Entry{UserID: userID}
	entry.GamesPlayed = parseInt(data["games"])
	entry.GamesWon = parseInt(data["wins"])
	if entry.GamesPlayed > 0 {
		entry.Accuracy = float64(entry.GamesWon) / float64(entry.GamesPlayed)
	}
	return entry, nil
}

func (s *Service) rankKey() string {
	return s.prefix + ":score"
}

func (s *Service) metaKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:meta:%s", s.prefix, userID.String())
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}

// Package repository holds the persistence collaborators the game core
// talks to behind narrow interfaces.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CorrectGuessPoints is the score awarded for identifying the partner.
const CorrectGuessPoints = 10

// PlayerStats mirrors one row of the player_stats table.
type PlayerStats struct {
	UserID      uuid.UUID
	Score       int
	GamesPlayed int
	GamesWon    int
	GamesLost   int
}

// StatsRepository persists per-player guess outcomes.
type StatsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStatsRepository creates a stats repository over a pgx pool.
func NewStatsRepository(pool *pgxpool.Pool, logger zerolog.Logger) *StatsRepository {
	return &StatsRepository{
		pool:   pool,
		logger: logger.With().Str("component", "stats_repository").Logger(),
	}
}

// RecordGuess upserts one guess outcome and returns the updated totals.
func (r *StatsRepository) RecordGuess(ctx context.Context, userID uuid.UUID, wasCorrect bool) (PlayerStats, error) {
	score := 0
	won := 0
	lost := 1
	if wasCorrect {
		score = CorrectGuessPoints
		won = 1
		lost = 0
	}

	const query = `
		INSERT INTO player_stats (user_id, score, games_played, games_won, games_lost)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			score        = player_stats.score + EXCLUDED.score,
			games_played = player_stats.games_played + 1,
			games_won    = player_stats.games_won + EXCLUDED.games_won,
			games_lost   = player_stats.games_lost + EXCLUDED.games_lost,
			updated_at   = now()
		RETURNING score, games_played, games_won, games_lost`

	stats := PlayerStats{UserID: userID}
	err := r.pool.QueryRow(ctx, query, userID, score, won, lost).
		Scan(&stats.Score, &stats.GamesPlayed, &stats.GamesWon, &stats.GamesLost)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("record guess: %w", err)
	}
	return stats, nil
}

// GetStats returns current totals for a user; zeroes when the user has no
// recorded games yet.
func (r *StatsRepository) GetStats(ctx context.Context, userID uuid.UUID) (PlayerStats, error) {
	const query = `
		SELECT score, games_played, games_won, games_lost
		FROM player_stats
		WHERE user_id = $1`

	stats := PlayerStats{UserID: userID}
	err := r.pool.QueryRow(ctx, query, userID).
		Scan(&stats.Score, &stats.GamesPlayed, &stats.GamesWon, &stats.GamesLost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, nil
		}
		return PlayerStats{}, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}

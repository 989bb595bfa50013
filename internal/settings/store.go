package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	settingsKey     = "admin:settings"
	settingsChannel = "settings.updated"
)

// Store serves the current settings snapshot and applies admin updates.
// Redis persistence is optional; when a client is configured, updates are
// written through and broadcast on a pub/sub channel so that every process
// reloads instead of polling or guessing staleness.
type Store struct {
	mu      sync.RWMutex
	current Settings

	redis  *redis.Client
	rand   func() float64
	logger zerolog.Logger
}

// NewStore creates a settings store seeded with defaults. redisClient may be
// nil for in-process-only operation (tests, single-node dev).
func NewStore(redisClient *redis.Client, defaults Settings, logger zerolog.Logger) *Store {
	return &Store{
		current: defaults,
		redis:   redisClient,
		rand:    rand.Float64,
		logger:  logger.With().Str("component", "settings_store").Logger(),
	}
}

// Load pulls the persisted document from Redis over the seeded defaults. A
// missing key persists the defaults instead, so the admin surface always has
// a document to edit.
func (s *Store) Load(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}

	data, err := s.redis.Get(ctx, settingsKey).Bytes()
	if err == redis.Nil {
		s.mu.RLock()
		seed := s.current
		s.mu.RUnlock()
		return s.persist(ctx, seed)
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("persisted settings invalid: %w", err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()
	return nil
}

// Update validates, applies and persists a full settings document, then
// notifies other processes via pub/sub.
func (s *Store) Update(ctx context.Context, updated Settings) error {
	if err := updated.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = updated
	s.mu.Unlock()

	if err := s.persist(ctx, updated); err != nil {
		return err
	}
	if s.redis != nil {
		if err := s.redis.Publish(ctx, settingsChannel, "updated").Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish settings update")
		}
	}

	s.logger.Info().
		Float64("ai_match_probability", updated.AIMatchProbability).
		Int("match_timeout_ms", updated.MatchTimeoutMs).
		Str("ai_provider", updated.AIProvider).
		Msg("settings updated")
	return nil
}

// Watch blocks reloading the snapshot whenever another process publishes an
// update. Returns when ctx is cancelled. No-op without Redis.
func (s *Store) Watch(ctx context.Context) error {
	if s.redis == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	sub := s.redis.Subscribe(ctx, settingsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Load(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("settings reload failed")
			}
		}
	}
}

func (s *Store) persist(ctx context.Context, doc Settings) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.redis.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the whole document (admin GET).
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// AIMatchProbability returns the live probability of pairing with AI.
func (s *Store) AIMatchProbability() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AIMatchProbability
}

// MatchTimeout returns the live pairing timeout.
func (s *Store) MatchTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.MatchTimeout()
}

// RoundDuration returns the live conversation round length.
func (s *Store) RoundDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RoundDuration()
}

// SelectAIBehavior resolves the configured behavior policy to a concrete
// persona tag for one match.
func (s *Store) SelectAIBehavior() string {
	s.mu.RLock()
	behavior := s.current.AIBehavior
	s.mu.RUnlock()

	if behavior != BehaviorRandom {
		return behavior
	}
	if s.rand() < 0.5 {
		return BehaviorHumanLike
	}
	return BehaviorAILike
}

// Prompt returns the system instruction for a language and behavior, falling
// back to English when the language has no dedicated prompt.
func (s *Store) Prompt(language, behavior string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byLang, ok := s.current.Prompts[behavior]
	if !ok {
		return ""
	}
	if prompt, ok := byLang[language]; ok && prompt != "" {
		return prompt
	}
	return byLang["en"]
}

// Provider returns the active provider tag and its credentials.
func (s *Store) Provider() (string, ProviderSettings) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AIProvider, s.current.Providers[s.current.AIProvider]
}

// HasLanguage reports whether lang is configured.
func (s *Store) HasLanguage(lang string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.HasLanguage(lang)
}

// Package matchmaking owns the waiting queue, the active match table and the
// user-to-match index, and runs the pairing decision procedure: a randomized
// AI draw, a FIFO same-language scan, and a timeout-driven AI fallback.
package matchmaking

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cberkay/imposterchat/internal/metrics"
	"github.com/cberkay/imposterchat/pkg/clock"
)

var (
	ErrAlreadyQueued  = errors.New("user already in waiting queue")
	ErrAlreadyMatched = errors.New("user already in an active match")
)

// Tunables supplies the live pairing parameters. Implementations must return
// the latest admin-applied value on every call; the engine re-reads them on
// each decision, never at construction.
type Tunables interface {
	AIMatchProbability() float64
	MatchTimeout() time.Duration
	SelectAIBehavior() string
}

// Sessions is the slice of the AI session manager the engine drives: open a
// conversation when an AI match is created, close it exactly once on
// teardown.
type Sessions interface {
	Open(matchID uuid.UUID, language, behavior string) error
	Close(matchID uuid.UUID)
}

// EngineOptions tweak non-structural engine behavior.
type EngineOptions struct {
	// Rand draws the AI-match probability sample; defaults to rand.Float64.
	Rand func() float64
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Engine serializes all queue, match-table and index mutations behind one
// mutex. The only work done under the lock is table surgery; AI session
// open/close and the timeout callback run after unlock.
type Engine struct {
	mu        sync.Mutex
	queue     []User
	matches   map[uuid.UUID]*Match
	userMatch map[uuid.UUID]uuid.UUID
	timers    map[uuid.UUID]clock.Timer

	tunables       Tunables
	sessions       Sessions
	clk            clock.Clock
	rand           func() float64
	metrics        *metrics.Metrics
	onTimeoutMatch func(*Match)

	logger zerolog.Logger
}

// NewEngine creates a matchmaking engine.
func NewEngine(tunables Tunables, sessions Sessions, clk clock.Clock, opts EngineOptions, logger zerolog.Logger) *Engine {
	randFn := opts.Rand
	if randFn == nil {
		randFn = rand.Float64
	}
	return &Engine{
		matches:   make(map[uuid.UUID]*Match),
		userMatch: make(map[uuid.UUID]uuid.UUID),
		timers:    make(map[uuid.UUID]clock.Timer),
		tunables:  tunables,
		sessions:  sessions,
		clk:       clk,
		rand:      randFn,
		metrics:   opts.Metrics,
		logger:    logger.With().Str("component", "matchmaking_engine").Logger(),
	}
}

// SetTimeoutNotifier registers the callback invoked, outside the engine
// lock, for matches created by a pairing timeout firing. Synchronously
// created matches are visible to the enqueue caller via MatchForUser and
// need no callback. Must be set before the first Enqueue.
func (e *Engine) SetTimeoutNotifier(f func(*Match)) {
	e.mu.Lock()
	e.onTimeoutMatch = f
	e.mu.Unlock()
}

// Enqueue inserts the user into the waiting queue and immediately runs the
// pairing decision procedure. Whether a match resulted is observable via
// MatchForUser. Rejects users that already hold a queue slot or a match.
func (e *Engine) Enqueue(user User) error {
	e.mu.Lock()
	if _, matched := e.userMatch[user.ID]; matched {
		e.mu.Unlock()
		return ErrAlreadyMatched
	}
	if e.queueIndexLocked(user.ID) >= 0 {
		e.mu.Unlock()
		return ErrAlreadyQueued
	}

	user.JoinedAt = e.clk.Now()
	e.queue = append(e.queue, user)
	e.logger.Info().Str("user_id", user.ID.String()).Str("language", user.Language).Msg("user enqueued")

	after := e.decideLocked(user)
	e.mu.Unlock()

	if after != nil {
		after()
	}
	return nil
}

// decideLocked runs the pairing decision for a freshly queued user. It
// returns a follow-up to run after the lock is released (AI session open),
// or nil.
func (e *Engine) decideLocked(user User) func() {
	if e.rand() < e.tunables.AIMatchProbability() {
		e.logger.Info().Str("user_id", user.ID.String()).Msg("AI pairing selected by probability draw")
		_, after := e.createAIMatchLocked(user, metrics.ViaImmediate)
		return after
	}

	// FIFO within language: earliest queued other than self wins.
	for _, other := range e.queue {
		if other.ID == user.ID || other.Language != user.Language {
			continue
		}
		e.createHumanMatchLocked(user, other)
		return nil
	}

	// Nobody compatible yet: arm the AI fallback timer.
	userID := user.ID
	e.timers[userID] = e.clk.AfterFunc(e.tunables.MatchTimeout(), func() {
		e.fireTimeout(userID)
	})
	return nil
}

// fireTimeout is the pairing-timeout callback. A user matched or removed
// before expiry is no longer queued, which makes a stale firing a silent
// no-op; the enqueue-vs-timeout race is settled by whoever takes the mutex
// first.
func (e *Engine) fireTimeout(userID uuid.UUID) {
	e.mu.Lock()
	delete(e.timers, userID)

	idx := e.queueIndexLocked(userID)
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	user := e.queue[idx]
	e.logger.Info().Str("user_id", userID.String()).Msg("pairing timeout reached, matching with AI")

	match, after := e.createAIMatchLocked(user, metrics.ViaTimeout)
	notify := e.onTimeoutMatch
	e.mu.Unlock()

	if after != nil {
		after()
	}
	if notify != nil {
		notify(match)
	}
}

func (e *Engine) createHumanMatchLocked(user, other User) *Match {
	e.removeFromQueueLocked(user.ID)
	e.removeFromQueueLocked(other.ID)
	e.cancelTimerLocked(user.ID)
	e.cancelTimerLocked(other.ID)

	partner := other
	match := &Match{
		ID:                uuid.New(),
		User1:             user,
		User2:             &partner,
		IsAIMatch:         false,
		ActualPartnerType: PartnerHuman,
		CreatedAt:         e.clk.Now(),
	}
	e.matches[match.ID] = match
	e.userMatch[user.ID] = match.ID
	e.userMatch[other.ID] = match.ID

	e.metrics.MatchCreated(metrics.PartnerHuman, metrics.ViaImmediate)
	e.logger.Info().
		Str("match_id", match.ID.String()).
		Str("user_id", user.ID.String()).
		Str("partner_id", other.ID.String()).
		Msg("human match created")
	return match
}

func (e *Engine) createAIMatchLocked(user User, via string) (*Match, func()) {
	e.removeFromQueueLocked(user.ID)
	e.cancelTimerLocked(user.ID)

	behavior := e.tunables.SelectAIBehavior()
	match := &Match{
		ID:                uuid.New(),
		User1:             user,
		IsAIMatch:         true,
		ActualPartnerType: PartnerAI,
		Behavior:          behavior,
		CreatedAt:         e.clk.Now(),
	}
	e.matches[match.ID] = match
	e.userMatch[user.ID] = match.ID

	e.metrics.MatchCreated(metrics.PartnerAI, via)
	e.logger.Info().
		Str("match_id", match.ID.String()).
		Str("user_id", user.ID.String()).
		Str("behavior", behavior).
		Msg("AI match created")

	// Session open happens after unlock; a failure leaves the match in a
	// degraded state the router surfaces on first turn, not a torn table.
	return match, func() {
		if err := e.sessions.Open(match.ID, user.Language, behavior); err != nil {
			e.logger.Error().Err(err).Str("match_id", match.ID.String()).Msg("failed to open AI session")
		}
	}
}

// MatchForUser returns the user's active match via the reverse index.
func (e *Engine) MatchForUser(userID uuid.UUID) *Match {
	e.mu.Lock()
	defer e.mu.Unlock()

	matchID, ok := e.userMatch[userID]
	if !ok {
		return nil
	}
	return e.matches[matchID]
}

// Match returns a match by id.
func (e *Engine) Match(matchID uuid.UUID) *Match {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matches[matchID]
}

// PartnerOf returns the other human participant of matchID, or nil if the
// match is AI-based, unknown, or does not contain userID.
func (e *Engine) PartnerOf(matchID, userID uuid.UUID) *User {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matches[matchID].Partner(userID)
}

// RemoveUser idempotently tears down everything associated with a user: the
// pending timeout, the waiting-queue entry, and the active match with both
// of its index entries. The AI session, if any, is closed exactly once.
func (e *Engine) RemoveUser(userID uuid.UUID) {
	e.mu.Lock()
	e.cancelTimerLocked(userID)
	e.removeFromQueueLocked(userID)

	var closeSession *uuid.UUID
	if matchID, ok := e.userMatch[userID]; ok {
		if match := e.matches[matchID]; match != nil {
			delete(e.userMatch, match.User1.ID)
			if match.User2 != nil {
				delete(e.userMatch, match.User2.ID)
			}
			delete(e.matches, matchID)
			if match.IsAIMatch {
				id := matchID
				closeSession = &id
			}
			e.logger.Info().
				Str("match_id", matchID.String()).
				Str("user_id", userID.String()).
				Msg("match torn down")
		}
	}
	e.mu.Unlock()

	if closeSession != nil {
		e.sessions.Close(*closeSession)
	}
}

// QueueDepth reports how many users are waiting.
func (e *Engine) QueueDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// ActiveMatchCount reports how many matches are live.
func (e *Engine) ActiveMatchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.matches)
}

func (e *Engine) queueIndexLocked(userID uuid.UUID) int {
	for i, u := range e.queue {
		if u.ID == userID {
			return i
		}
	}
	return -1
}

func (e *Engine) removeFromQueueLocked(userID uuid.UUID) {
	if i := e.queueIndexLocked(userID); i >= 0 {
		e.queue = append(e.queue[:i], e.queue[i+1:]...)
	}
}

func (e *Engine) cancelTimerLocked(userID uuid.UUID) {
	if t, ok := e.timers[userID]; ok {
		t.Stop()
		delete(e.timers, userID)
	}
}

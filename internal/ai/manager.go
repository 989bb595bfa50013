package ai

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cberkay/imposterchat/internal/metrics"
)

var (
	ErrSessionExists   = errors.New("AI session already open for match")
	ErrSessionNotFound = errors.New("no AI session for match")
)

// openingInstruction is a hidden user turn that seeds the AI's first
// message; it never reaches the player.
const openingInstruction = "Start the conversation naturally as if you just connected with someone."

// Prompts supplies persona system instructions by language and behavior.
type Prompts interface {
	Prompt(language, behavior string) string
}

// Manager owns the per-match AI session table. Each session pins the
// provider resolved at open time and serializes its own turn generation, so
// overlapping message calls for one match cannot interleave replies.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	resolver ProviderResolver
	prompts  Prompts
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

type session struct {
	mu           sync.Mutex
	provider     Provider
	systemPrompt string
	transcript   []Turn
}

// NewManager creates an AI session manager. metricsSet may be nil.
func NewManager(resolver ProviderResolver, prompts Prompts, metricsSet *metrics.Metrics, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*session),
		resolver: resolver,
		prompts:  prompts,
		metrics:  metricsSet,
		logger:   logger.With().Str("component", "ai_session_manager").Logger(),
	}
}

// Open creates the conversation state for a match. A conflicting re-open for
// a live match id is a caller bug and is rejected rather than silently
// leaking the prior transcript. Missing provider credentials surface here,
// leaving the match degraded but the tables intact.
func (m *Manager) Open(matchID uuid.UUID, language, behavior string) error {
	provider, err := m.resolver.Resolve()
	if err != nil {
		return err
	}

	prompt := m.prompts.Prompt(language, behavior)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[matchID]; exists {
		m.logger.Error().Str("match_id", matchID.String()).Msg("conflicting session re-open rejected")
		return ErrSessionExists
	}
	m.sessions[matchID] = &session{
		provider:     provider,
		systemPrompt: prompt,
	}

	m.logger.Info().
		Str("match_id", matchID.String()).
		Str("provider", provider.Name()).
		Str("language", language).
		Str("behavior", behavior).
		Msg("AI session opened")
	return nil
}

// OpeningLine produces the AI's first message for a match.
func (m *Manager) OpeningLine(ctx context.Context, matchID uuid.UUID) (string, error) {
	return m.turn(ctx, matchID, openingInstruction)
}

// Reply produces the AI's next message given the user's latest input.
func (m *Manager) Reply(ctx context.Context, matchID uuid.UUID, text string) (string, error) {
	return m.turn(ctx, matchID, text)
}

func (m *Manager) turn(ctx context.Context, matchID uuid.UUID, userText string) (string, error) {
	m.mu.RLock()
	s, ok := m.sessions[matchID]
	m.mu.RUnlock()
	if !ok {
		return "", ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = append(s.transcript, Turn{Role: RoleUser, Text: userText})

	reply, err := s.provider.Complete(ctx, s.systemPrompt, s.transcript)
	m.metrics.AITurn(err != nil)
	if err != nil {
		m.logger.Warn().Err(err).Str("match_id", matchID.String()).Msg("AI turn generation failed")
		return "", err
	}

	s.transcript = append(s.transcript, Turn{Role: RoleAssistant, Text: reply})
	return reply, nil
}

// Close discards a match's session. Idempotent; closing an unknown id is a
// no-op.
func (m *Manager) Close(matchID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[matchID]; ok {
		delete(m.sessions, matchID)
		m.logger.Info().Str("match_id", matchID.String()).Msg("AI session closed")
	}
}

// Has reports whether a session exists for matchID.
func (m *Manager) Has(matchID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[matchID]
	return ok
}

// SessionCount reports open sessions (observability).
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

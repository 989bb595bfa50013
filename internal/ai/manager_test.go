package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	mu    sync.Mutex
	calls [][]Turn
	reply string
	err   error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, systemPrompt string, transcript []Turn) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := make([]Turn, len(transcript))
	copy(snapshot, transcript)
	p.calls = append(p.calls, snapshot)
	if p.err != nil {
		return "", p.err
	}
	return fmt.Sprintf("%s #%d", p.reply, len(p.calls)), nil
}

type staticResolver struct {
	provider Provider
	err      error
}

func (r staticResolver) Resolve() (Provider, error) { return r.provider, r.err }

type staticPrompts struct {
	prompt string
}

func (p staticPrompts) Prompt(language, behavior string) string { return p.prompt }

func newTestManager(t *testing.T, provider Provider) *Manager {
	t.Helper()
	return NewManager(staticResolver{provider: provider}, staticPrompts{prompt: "be alex"}, nil, zerolog.Nop())
}

func TestOpenAndClose(t *testing.T) {
	mgr := newTestManager(t, &scriptedProvider{reply: "hi"})
	matchID := uuid.New()

	require.NoError(t, mgr.Open(matchID, "en", "human_like"))
	assert.True(t, mgr.Has(matchID))
	assert.Equal(t, 1, mgr.SessionCount())

	assert.ErrorIs(t, mgr.Open(matchID, "en", "human_like"), ErrSessionExists)

	mgr.Close(matchID)
	assert.False(t, mgr.Has(matchID))

	// Closing again is harmless.
	mgr.Close(matchID)
	assert.Equal(t, 0, mgr.SessionCount())
}

func TestOpenSurfacesResolverError(t *testing.T) {
	mgr := NewManager(staticResolver{err: errors.New("no API key configured")}, staticPrompts{}, nil, zerolog.Nop())

	err := mgr.Open(uuid.New(), "en", "human_like")
	require.Error(t, err)
	assert.Equal(t, 0, mgr.SessionCount())
}

func TestOpeningLineSeedsHiddenInstruction(t *testing.T) {
	provider := &scriptedProvider{reply: "hey there"}
	mgr := newTestManager(t, provider)
	matchID := uuid.New()
	require.NoError(t, mgr.Open(matchID, "en", "human_like"))

	line, err := mgr.OpeningLine(context.Background(), matchID)
	require.NoError(t, err)
	assert.Equal(t, "hey there #1", line)

	require.Len(t, provider.calls, 1)
	require.Len(t, provider.calls[0], 1)
	assert.Equal(t, RoleUser, provider.calls[0][0].Role)
	assert.Equal(t, openingInstruction, provider.calls[0][0].Text)
}

func TestReplyAccumulatesTranscript(t *testing.T) {
	provider := &scriptedProvider{reply: "reply"}
	mgr := newTestManager(t, provider)
	matchID := uuid.New()
	require.NoError(t, mgr.Open(matchID, "en", "human_like"))

	first, err := mgr.Reply(context.Background(), matchID, "hello")
	require.NoError(t, err)
	second, err := mgr.Reply(context.Background(), matchID, "how are you")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// The second call sees user, assistant, user in order.
	require.Len(t, provider.calls, 2)
	got := provider.calls[1]
	require.Len(t, got, 3)
	assert.Equal(t, Turn{Role: RoleUser, Text: "hello"}, got[0])
	assert.Equal(t, Turn{Role: RoleAssistant, Text: first}, got[1])
	assert.Equal(t, Turn{Role: RoleUser, Text: "how are you"}, got[2])
}

func TestTurnWithoutSession(t *testing.T) {
	mgr := newTestManager(t, &scriptedProvider{reply: "x"})

	_, err := mgr.Reply(context.Background(), uuid.New(), "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = mgr.OpeningLine(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFailedTurnDoesNotRecordAssistantText(t *testing.T) {
	provider := &scriptedProvider{reply: "ok"}
	mgr := newTestManager(t, provider)
	matchID := uuid.New()
	require.NoError(t, mgr.Open(matchID, "en", "human_like"))

	provider.err = errors.New("upstream 500")
	_, err := mgr.Reply(context.Background(), matchID, "hello")
	require.Error(t, err)

	provider.err = nil
	_, err = mgr.Reply(context.Background(), matchID, "still there?")
	require.NoError(t, err)

	// No assistant turn was recorded for the failed attempt; both user
	// turns are.
	got := provider.calls[len(provider.calls)-1]
	require.Len(t, got, 2)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, "hello", got[0].Text)
	assert.Equal(t, RoleUser, got[1].Role)
	assert.Equal(t, "still there?", got[1].Text)
}

func TestSessionsIsolatedPerMatch(t *testing.T) {
	provider := &scriptedProvider{reply: "r"}
	mgr := newTestManager(t, provider)
	a, b := uuid.New(), uuid.New()
	require.NoError(t, mgr.Open(a, "en", "human_like"))
	require.NoError(t, mgr.Open(b, "tr", "ai_like"))

	_, err := mgr.Reply(context.Background(), a, "for a")
	require.NoError(t, err)
	_, err = mgr.Reply(context.Background(), b, "for b")
	require.NoError(t, err)

	// Each session carries only its own turns.
	require.Len(t, provider.calls, 2)
	assert.Len(t, provider.calls[1], 1)
	assert.Equal(t, "for b", provider.calls[1][0].Text)
}

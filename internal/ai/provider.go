// Package ai owns per-match conversational state for AI-played partners and
// generates their turns through a pluggable provider backend.
package ai

import "context"

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a match transcript.
type Turn struct {
	Role string
	Text string
}

// Provider produces the next assistant message for a transcript. Providers
// are stateless; the session manager owns the transcript.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt string, transcript []Turn) (string, error)
}

// ProviderResolver yields the Provider matching the current configuration.
// Resolved at session-open time so admin provider switches apply to the next
// match, not retroactively to transcripts already in flight.
type ProviderResolver interface {
	Resolve() (Provider, error)
}

// Package settings holds the live gameplay tunables: pairing probability,
// timeouts, languages, AI provider credentials and persona prompts. Values
// are admin-editable at runtime; every getter reflects the latest applied
// update, so matchmaking decisions never act on a stale snapshot.
package settings

import (
	"fmt"
	"time"
)

// AI provider tags. Closed set; the factory in internal/ai rejects others.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderXAI    = "xai"
)

// AI behavior tags. BehaviorRandom is a selection policy, not a persona:
// SelectAIBehavior resolves it to one of the other two per match.
const (
	BehaviorHumanLike = "human_like"
	BehaviorAILike    = "ai_like"
	BehaviorRandom    = "random"
)

// ProviderSettings carries credentials for one AI backend.
type ProviderSettings struct {
	APIKey     string `json:"api_key"`
	Model      string `json:"model"`
	APIBaseURL string `json:"api_base_url,omitempty"`
}

// Settings is the full admin-editable configuration document.
type Settings struct {
	AIProvider string                      `json:"ai_provider"`
	Providers  map[string]ProviderSettings `json:"ai_providers"`

	AIMatchProbability   float64 `json:"ai_match_probability"`
	MatchTimeoutMs       int     `json:"match_timeout_ms"`
	RoundDurationSeconds int     `json:"round_duration_seconds"`

	AIBehavior string   `json:"ai_behavior"`
	Languages  []string `json:"languages"`

	// Prompts maps behavior tag -> language code -> system instruction.
	Prompts map[string]map[string]string `json:"prompts"`
}

// MatchTimeout returns the pairing timeout as a duration.
func (s Settings) MatchTimeout() time.Duration {
	return time.Duration(s.MatchTimeoutMs) * time.Millisecond
}

// RoundDuration returns the conversation round length as a duration.
func (s Settings) RoundDuration() time.Duration {
	return time.Duration(s.RoundDurationSeconds) * time.Second
}

// HasLanguage reports whether lang is among the configured language codes.
func (s Settings) HasLanguage(lang string) bool {
	for _, l := range s.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Validate checks structural correctness and clamps soft bounds in place,
// mirroring the admin setters of the original system (probability to [0,1],
// timeout to >=1s).
func (s *Settings) Validate() error {
	switch s.AIProvider {
	case ProviderGemini, ProviderOpenAI, ProviderXAI:
	default:
		return fmt.Errorf("unsupported ai provider %q", s.AIProvider)
	}

	switch s.AIBehavior {
	case BehaviorHumanLike, BehaviorAILike, BehaviorRandom:
	default:
		return fmt.Errorf("unsupported ai behavior %q", s.AIBehavior)
	}

	if len(s.Languages) == 0 {
		return fmt.Errorf("at least one language required")
	}

	if s.AIMatchProbability < 0 {
		s.AIMatchProbability = 0
	}
	if s.AIMatchProbability > 1 {
		s.AIMatchProbability = 1
	}
	if s.MatchTimeoutMs < 1000 {
		s.MatchTimeoutMs = 1000
	}
	if s.RoundDurationSeconds <= 0 {
		s.RoundDurationSeconds = defaultRoundDurationSeconds
	}
	return nil
}

package ai

import (
	"fmt"
	"time"

	"github.com/cberkay/imposterchat/internal/settings"
)

// Factory builds the Provider matching the live settings snapshot. It holds
// no cached instance: every Resolve call reads the store again, so a
// provider switch applies to the next session opened.
type Factory struct {
	settings *settings.Store
	timeout  time.Duration
}

// NewFactory creates a provider factory over the settings store.
func NewFactory(store *settings.Store, timeout time.Duration) *Factory {
	return &Factory{settings: store, timeout: timeout}
}

// Resolve returns the configured provider, or an error when its credentials
// are missing. The caller surfaces that as a degraded-match condition.
func (f *Factory) Resolve() (Provider, error) {
	tag, creds := f.settings.Provider()
	if creds.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", tag)
	}

	switch tag {
	case settings.ProviderGemini:
		return NewGeminiClient(creds.APIKey, creds.Model, "", f.timeout), nil
	case settings.ProviderOpenAI, settings.ProviderXAI:
		return NewOpenAIClient(tag, creds.APIKey, creds.Model, creds.APIBaseURL, f.timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", tag)
	}
}

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cberkay/imposterchat/internal/settings"
)

func TestOpenAICompleteBuildsChatRequest(t *testing.T) {
	var captured chatRequest
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello back"}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient("openai", "sk-test", "gpt-4o-mini", server.URL, time.Second)
	reply, err := client.Complete(context.Background(), "be brief", []Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleAssistant, Text: "hey"},
		{Role: RoleUser, Text: "sup"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", reply)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, chatMessage{Role: "system", Content: "be brief"}, captured.Messages[0])
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "user", captured.Messages[3].Role)
}

func TestOpenAICompleteErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewOpenAIClient("openai", "sk", "m", server.URL, time.Second)
		_, err := client.Complete(context.Background(), "p", nil)
		assert.ErrorContains(t, err, "status 429")
	})

	t.Run("empty completion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		client := NewOpenAIClient("xai", "sk", "m", server.URL, time.Second)
		_, err := client.Complete(context.Background(), "p", nil)
		assert.ErrorContains(t, err, "empty completion")
	})
}

func TestGeminiCompleteBuildsGenerateContentRequest(t *testing.T) {
	var captured geminiRequest
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "well "}, {"text": "hello"}},
				}},
			},
		})
	}))
	defer server.Close()

	client := NewGeminiClient("gk-test", "gemini-2.5-flash", server.URL, time.Second)
	reply, err := client.Complete(context.Background(), "be alex", []Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleAssistant, Text: "hey"},
	})
	require.NoError(t, err)
	assert.Equal(t, "well hello", reply)

	assert.Equal(t, "gk-test", gotKey)
	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "be alex", captured.SystemInstruction.Parts[0].Text)
	require.Len(t, captured.Contents, 2)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
}

func TestGeminiCompleteNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := NewGeminiClient("gk", "m", server.URL, time.Second)
	_, err := client.Complete(context.Background(), "p", nil)
	assert.ErrorContains(t, err, "no candidates")
}

func TestFactoryResolvesConfiguredProvider(t *testing.T) {
	seed := settings.Defaults()
	seed.Providers[settings.ProviderGemini] = settings.ProviderSettings{APIKey: "gk", Model: "gemini-2.5-flash"}
	seed.Providers[settings.ProviderXAI] = settings.ProviderSettings{APIKey: "xk", Model: "grok-1.5-flash", APIBaseURL: "https://api.x.ai/v1"}
	store := settings.NewStore(nil, seed, zerolog.Nop())
	factory := NewFactory(store, time.Second)

	provider, err := factory.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())

	doc := store.Snapshot()
	doc.AIProvider = settings.ProviderXAI
	require.NoError(t, store.Update(context.Background(), doc))

	provider, err = factory.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "xai", provider.Name())
}

func TestFactoryRejectsMissingAPIKey(t *testing.T) {
	seed := settings.Defaults()
	seed.Providers[settings.ProviderGemini] = settings.ProviderSettings{Model: "gemini-2.5-flash"}
	store := settings.NewStore(nil, seed, zerolog.Nop())
	factory := NewFactory(store, time.Second)

	_, err := factory.Resolve()
	assert.ErrorContains(t, err, "no API key configured")
}

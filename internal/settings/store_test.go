package settings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(nil, Defaults(), zerolog.Nop())
}

func TestDefaultsAreValid(t *testing.T) {
	defaults := Defaults()
	require.NoError(t, defaults.Validate())
	assert.Equal(t, ProviderGemini, defaults.AIProvider)
	assert.InDelta(t, 0.5, defaults.AIMatchProbability, 0.0001)
	assert.Equal(t, 10*time.Second, defaults.MatchTimeout())
	assert.Equal(t, 180*time.Second, defaults.RoundDuration())
	assert.True(t, defaults.HasLanguage("en"))
	assert.True(t, defaults.HasLanguage("tr"))
	assert.False(t, defaults.HasLanguage("de"))

	for _, behavior := range []string{BehaviorHumanLike, BehaviorAILike} {
		for _, lang := range defaults.Languages {
			assert.NotEmpty(t, defaults.Prompts[behavior][lang], "%s/%s prompt missing", behavior, lang)
		}
	}
}

func TestValidateRejectsUnknownProviderAndBehavior(t *testing.T) {
	doc := Defaults()
	doc.AIProvider = "claude"
	assert.Error(t, doc.Validate())

	doc = Defaults()
	doc.AIBehavior = "chaotic"
	assert.Error(t, doc.Validate())

	doc = Defaults()
	doc.Languages = nil
	assert.Error(t, doc.Validate())
}

func TestValidateClampsSoftBounds(t *testing.T) {
	doc := Defaults()
	doc.AIMatchProbability = 1.7
	doc.MatchTimeoutMs = 200
	doc.RoundDurationSeconds = 0
	require.NoError(t, doc.Validate())

	assert.Equal(t, 1.0, doc.AIMatchProbability)
	assert.Equal(t, 1000, doc.MatchTimeoutMs)
	assert.Equal(t, 180, doc.RoundDurationSeconds)

	doc.AIMatchProbability = -0.3
	require.NoError(t, doc.Validate())
	assert.Equal(t, 0.0, doc.AIMatchProbability)
}

func TestUpdateAppliesAndClamps(t *testing.T) {
	store := newTestStore(t)

	doc := Defaults()
	doc.AIMatchProbability = 2.0
	doc.MatchTimeoutMs = 5000
	require.NoError(t, store.Update(context.Background(), doc))

	assert.Equal(t, 1.0, store.AIMatchProbability())
	assert.Equal(t, 5*time.Second, store.MatchTimeout())
}

func TestUpdateRejectsInvalidDocumentAndKeepsCurrent(t *testing.T) {
	store := newTestStore(t)

	doc := Defaults()
	doc.AIProvider = "mystery"
	require.Error(t, store.Update(context.Background(), doc))

	assert.Equal(t, ProviderGemini, store.Snapshot().AIProvider)
}

func TestSelectAIBehaviorFixedPolicy(t *testing.T) {
	store := newTestStore(t)

	doc := Defaults()
	doc.AIBehavior = BehaviorAILike
	require.NoError(t, store.Update(context.Background(), doc))
	assert.Equal(t, BehaviorAILike, store.SelectAIBehavior())

	doc.AIBehavior = BehaviorHumanLike
	require.NoError(t, store.Update(context.Background(), doc))
	assert.Equal(t, BehaviorHumanLike, store.SelectAIBehavior())
}

func TestSelectAIBehaviorRandomPolicy(t *testing.T) {
	store := newTestStore(t)
	doc := Defaults()
	doc.AIBehavior = BehaviorRandom
	require.NoError(t, store.Update(context.Background(), doc))

	store.rand = func() float64 { return 0.2 }
	assert.Equal(t, BehaviorHumanLike, store.SelectAIBehavior())

	store.rand = func() float64 { return 0.8 }
	assert.Equal(t, BehaviorAILike, store.SelectAIBehavior())
}

func TestPromptFallsBackToEnglish(t *testing.T) {
	store := newTestStore(t)

	trPrompt := store.Prompt("tr", BehaviorHumanLike)
	assert.NotEmpty(t, trPrompt)

	enPrompt := store.Prompt("en", BehaviorHumanLike)
	assert.Equal(t, enPrompt, store.Prompt("de", BehaviorHumanLike))

	assert.Empty(t, store.Prompt("en", "no_such_behavior"))
}

func TestProviderReturnsActiveCredentials(t *testing.T) {
	store := newTestStore(t)

	doc := Defaults()
	doc.AIProvider = ProviderOpenAI
	doc.Providers[ProviderOpenAI] = ProviderSettings{APIKey: "sk-test", Model: "gpt-4o-mini"}
	require.NoError(t, store.Update(context.Background(), doc))

	name, creds := store.Provider()
	assert.Equal(t, ProviderOpenAI, name)
	assert.Equal(t, "sk-test", creds.APIKey)
	assert.Equal(t, "gpt-4o-mini", creds.Model)
}

func TestLoadWithoutRedisKeepsSeed(t *testing.T) {
	seed := Defaults()
	seed.AIMatchProbability = 0.25
	store := NewStore(nil, seed, zerolog.Nop())

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, 0.25, store.AIMatchProbability())
}

func TestLoadPersistsDefaultsOnMissingKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	store := NewStore(client, Defaults(), zerolog.Nop())
	require.NoError(t, store.Load(ctx))

	// A second process starting later sees the persisted document, not its
	// own seed.
	seed := Defaults()
	seed.AIMatchProbability = 0.1
	other := NewStore(client, seed, zerolog.Nop())
	require.NoError(t, other.Load(ctx))
	assert.InDelta(t, 0.5, other.AIMatchProbability(), 0.0001)
}

func TestUpdatePersistsAcrossStores(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	store := NewStore(client, Defaults(), zerolog.Nop())
	require.NoError(t, store.Load(ctx))

	doc := store.Snapshot()
	doc.AIMatchProbability = 0.75
	doc.AIProvider = ProviderOpenAI
	require.NoError(t, store.Update(ctx, doc))

	other := NewStore(client, Defaults(), zerolog.Nop())
	require.NoError(t, other.Load(ctx))
	assert.Equal(t, 0.75, other.AIMatchProbability())

	name, _ := other.Provider()
	assert.Equal(t, ProviderOpenAI, name)
}

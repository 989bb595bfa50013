package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cberkay/imposterchat/internal/ai"
	"github.com/cberkay/imposterchat/internal/config"
	"github.com/cberkay/imposterchat/internal/db/repository"
	"github.com/cberkay/imposterchat/internal/game"
	"github.com/cberkay/imposterchat/internal/leaderboard"
	"github.com/cberkay/imposterchat/internal/logging"
	"github.com/cberkay/imposterchat/internal/matchmaking"
	"github.com/cberkay/imposterchat/internal/metrics"
	"github.com/cberkay/imposterchat/internal/server"
	"github.com/cberkay/imposterchat/internal/settings"
	"github.com/cberkay/imposterchat/pkg/clock"
	"github.com/cberkay/imposterchat/pkg/http/ws"
)

// Application aggregates shared infrastructure and the game core.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
	store *settings.Store

	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, optional Redis/Postgres, and the whole
// matchmaking core. Every component is constructed here and injected; no
// package-level state anywhere.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	} else {
		logger.Warn().Msg("REDIS_ADDR not configured; settings are process-local only")
	}

	store := settings.NewStore(redisClient, seedSettings(cfg), logger)
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var lb *leaderboard.Service
	if redisClient != nil {
		lb = leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{})
	}

	var pool *pgxpool.Pool
	var statsRepo *repository.StatsRepository
	if cfg.Postgres.Host != "" {
		connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)
		var err error
		pool, err = pgxpool.New(ctx, connString)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		statsRepo = repository.NewStatsRepository(pool, logger)
	} else {
		logger.Warn().Msg("PG_HOST not configured; guess results are not persisted")
	}

	var recorder game.GuessRecorder
	if statsRepo != nil {
		recorder = guessRecorder{repo: statsRepo, lb: lb, logger: logger}
	}

	metricsSet := metrics.New(prometheus.DefaultRegisterer)

	factory := ai.NewFactory(store, cfg.AI.HTTPTimeout)
	sessionMgr := ai.NewManager(factory, store, metricsSet, logger)

	clk := clock.New()
	engine := matchmaking.NewEngine(store, sessionMgr, clk, matchmaking.EngineOptions{
		Metrics: metricsSet,
	}, logger)
	metrics.RegisterGauges(prometheus.DefaultRegisterer,
		func() float64 { return float64(engine.QueueDepth()) },
		func() float64 { return float64(engine.ActiveMatchCount()) },
	)

	hub := ws.NewHub(logger)
	router := game.NewRouter(engine, sessionMgr, hub, store, clk, game.RouterOptions{
		Stats: recorder,
	}, logger)
	engine.SetTimeoutNotifier(router.NotifyTimeoutMatch)

	gameHandler := game.NewHandler(router, hub, logger)
	apiServer := server.NewHTTPServer(cfg, logger, engine, store, gameHandler, lb)

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		http:      apiServer,
		store:     store,
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.redis != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.store.Watch(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("settings watcher stopped")
			}
		}()
	}
}

// seedSettings folds bootstrap provider credentials into the default
// settings document. The admin surface can replace any of it at runtime.
func seedSettings(cfg *config.App) settings.Settings {
	seed := settings.Defaults()
	seed.AIProvider = cfg.AI.Provider
	seed.Providers = map[string]settings.ProviderSettings{
		settings.ProviderGemini: {APIKey: cfg.AI.GeminiAPIKey, Model: cfg.AI.GeminiModel},
		settings.ProviderOpenAI: {APIKey: cfg.AI.OpenAIAPIKey, Model: cfg.AI.OpenAIModel, APIBaseURL: cfg.AI.OpenAIBaseURL},
		settings.ProviderXAI:    {APIKey: cfg.AI.XAIAPIKey, Model: cfg.AI.XAIModel, APIBaseURL: cfg.AI.XAIBaseURL},
	}
	return seed
}

// guessRecorder adapts the stats repository to the router's contract and
// mirrors each outcome into the Redis ranking when one is configured.
type guessRecorder struct {
	repo   *repository.StatsRepository
	lb     *leaderboard.Service
	logger zerolog.Logger
}

func (g guessRecorder) RecordGuess(ctx context.Context, userID uuid.UUID, wasCorrect bool) (game.GuessStats, error) {
	stats, err := g.repo.RecordGuess(ctx, userID, wasCorrect)
	if err != nil {
		return game.GuessStats{}, err
	}

	if g.lb != nil {
		points := 0
		if wasCorrect {
			points = repository.CorrectGuessPoints
		}
		if err := g.lb.RecordGuess(ctx, userID, points, wasCorrect); err != nil {
			g.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("leaderboard update failed")
		}
	}

	return game.GuessStats{
		Score:       stats.Score,
		GamesPlayed: stats.GamesPlayed,
		GamesWon:    stats.GamesWon,
		GamesLost:   stats.GamesLost,
	}, nil
}

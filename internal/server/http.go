package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cberkay/imposterchat/internal/config"
	"github.com/cberkay/imposterchat/internal/game"
	"github.com/cberkay/imposterchat/internal/leaderboard"
	"github.com/cberkay/imposterchat/internal/matchmaking"
	"github.com/cberkay/imposterchat/internal/settings"
	httperrors "github.com/cberkay/imposterchat/pkg/http/errors"
)

// WSUpgrader handles WebSocket upgrades (configure CORS/security as needed).
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: implement proper origin checking for production
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type healthResponse struct {
	Status        string `json:"status"`
	Queue         int    `json:"queue"`
	ActiveMatches int    `json:"active_matches"`
	AIProvider    string `json:"ai_provider"`
}

// NewHTTPServer wires the service routes: health, metrics, the game
// WebSocket endpoint, the ranking endpoint and the admin settings surface.
// lb may be nil when no Redis is configured.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, engine *matchmaking.Engine, store *settings.Store, gameHandler *game.Handler, lb *leaderboard.Service) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		provider, _ := store.Provider()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthResponse{
			Status:        "ok",
			Queue:         engine.QueueDepth(),
			ActiveMatches: engine.ActiveMatchCount(),
			AIProvider:    provider,
		})
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/ws/game", func(w http.ResponseWriter, r *http.Request) {
		conn, err := WSUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}
		gameHandler.HandleConnection(conn)
	})

	if lb != nil {
		mux.HandleFunc("/v1/leaderboard", lb.Handler())
	}

	mux.HandleFunc("/v1/admin/settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(store.Snapshot())

		case http.MethodPut:
			var updated settings.Settings
			if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
				httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "Invalid settings payload")
				return
			}
			if err := store.Update(r.Context(), updated); err != nil {
				logger.Warn().Err(err).Msg("settings update rejected")
				httperrors.RespondBadRequest(w, httperrors.ErrCodeSettingsUpdateFailed, err.Error())
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(store.Snapshot())

		default:
			httperrors.RespondMethodNotAllowed(w)
		}
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

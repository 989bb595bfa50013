package game

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httperrors "github.com/cberkay/imposterchat/pkg/http/errors"
	"github.com/cberkay/imposterchat/pkg/http/ws"
)

// Handler manages WebSocket connections and routes game messages into the
// session router.
type Handler struct {
	router *Router
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewHandler creates a game WebSocket handler.
func NewHandler(router *Router, hub *ws.Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		router: router,
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection processes a new WebSocket connection for its full
// lifetime. The connection id doubles as the user identity, so one
// connection holds at most one queue slot. Blocks until the peer
// disconnects, then guarantees matchmaking teardown.
func (h *Handler) HandleConnection(conn *websocket.Conn) {
	userID := uuid.New()
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(userID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(userID, msg)
	})

	// Cleanup on disconnect
	h.router.HandleDisconnect(userID)
	h.hub.UnregisterConnection(userID)
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(userID uuid.UUID, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinQueue:
		var req ws.JoinQueuePayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid join_queue payload")
		}
		h.router.HandleJoin(userID, req.Language)
		return nil

	case ws.TypeSendMessage:
		var req ws.SendMessagePayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid send_message payload")
		}
		h.router.HandleMessage(userID, req.Text)
		return nil

	case ws.TypeTyping:
		var req ws.TypingPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid typing payload")
		}
		h.router.HandleTyping(userID, req.IsTyping)
		return nil

	case ws.TypeTimeUp:
		h.router.HandleTimeUp(userID)
		return nil

	case ws.TypeSubmitGuess:
		var req ws.SubmitGuessPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid submit_guess payload")
		}
		h.router.HandleGuess(userID, req.MatchID, req.Guess)
		return nil

	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) error {
	return h.hub.SendToUser(userID, ws.NewMessage(ws.TypeError, ws.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

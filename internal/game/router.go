// Package game wires real-time events between a connection and its match
// partner: human messages are relayed verbatim, AI turns are generated and
// delivered behind a typing simulation, and reveal/guess/disconnect flows
// are coordinated against the matchmaking engine.
package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cberkay/imposterchat/internal/matchmaking"
	"github.com/cberkay/imposterchat/pkg/clock"
	httperrors "github.com/cberkay/imposterchat/pkg/http/errors"
	"github.com/cberkay/imposterchat/pkg/http/ws"
)

// Typing-simulation bounds. The delay before the AI "starts typing" and the
// length-proportional typing time keep its cadence inside human range.
const (
	thinkingDelayBase   = 800 * time.Millisecond
	thinkingDelayJitter = 1200 * time.Millisecond
	typingPerChar       = 30 * time.Millisecond
	typingDurationMin   = 1200 * time.Millisecond
	typingDurationMax   = 4500 * time.Millisecond
)

// PartnerUnknown is the only partner type ever sent in a matched event.
const PartnerUnknown = "unknown"

// Transport delivers an event to one specific connection identity.
type Transport interface {
	SendToUser(userID uuid.UUID, msg ws.Message) error
}

// Sessions is the per-turn surface of the AI session manager.
type Sessions interface {
	OpeningLine(ctx context.Context, matchID uuid.UUID) (string, error)
	Reply(ctx context.Context, matchID uuid.UUID, text string) (string, error)
}

// Config supplies the live values the router reads per event.
type Config interface {
	RoundDuration() time.Duration
	HasLanguage(lang string) bool
}

// GuessStats is the score payload returned by the bookkeeping collaborator.
type GuessStats struct {
	Score       int
	GamesPlayed int
	GamesWon    int
	GamesLost   int
}

// GuessRecorder persists a guess outcome. Optional; without one the router
// reports zeroed score fields, which is the guest behavior.
type GuessRecorder interface {
	RecordGuess(ctx context.Context, userID uuid.UUID, wasCorrect bool) (GuessStats, error)
}

// RouterOptions tweak non-structural router behavior.
type RouterOptions struct {
	// Rand drives the thinking-delay jitter; defaults to rand.Float64.
	Rand func() float64
	// Stats may be nil.
	Stats GuessRecorder
}

// Router owns no state; it coordinates the engine, the AI sessions and the
// transport per inbound event, keyed by the sending connection's user id.
type Router struct {
	engine    *matchmaking.Engine
	sessions  Sessions
	transport Transport
	cfg       Config
	stats     GuessRecorder
	clk       clock.Clock
	rand      func() float64
	logger    zerolog.Logger
}

// NewRouter creates a match session router.
func NewRouter(engine *matchmaking.Engine, sessions Sessions, transport Transport, cfg Config, clk clock.Clock, opts RouterOptions, logger zerolog.Logger) *Router {
	randFn := opts.Rand
	if randFn == nil {
		randFn = rand.Float64
	}
	return &Router{
		engine:    engine,
		sessions:  sessions,
		transport: transport,
		cfg:       cfg,
		stats:     opts.Stats,
		clk:       clk,
		rand:      randFn,
		logger:    logger.With().Str("component", "session_router").Logger(),
	}
}

// HandleJoin enqueues the user and announces the pairing outcome: a matched
// event to every human participant when pairing happened synchronously, a
// searching event otherwise. Timeout-driven pairings announce later through
// NotifyTimeoutMatch.
func (r *Router) HandleJoin(userID uuid.UUID, language string) {
	if !r.cfg.HasLanguage(language) {
		r.sendError(userID, httperrors.ErrCodeUnknownLanguage, "Unsupported language")
		return
	}

	err := r.engine.Enqueue(matchmaking.User{ID: userID, Language: language})
	if err != nil {
		r.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("enqueue rejected")
		r.sendError(userID, httperrors.ErrCodeJoinFailed, "Failed to join queue")
		return
	}

	match := r.engine.MatchForUser(userID)
	if match == nil {
		r.send(userID, ws.NewMessage(ws.TypeSearching, nil))
		return
	}

	r.sendMatched(userID, match)
	if match.IsAIMatch {
		r.deliverAITurn(userID, match.ID, r.sessions.OpeningLine)
		return
	}
	if partner := match.Partner(userID); partner != nil {
		r.sendMatched(partner.ID, match)
	}
}

// NotifyTimeoutMatch announces a match created by the pairing timeout. Wired
// as the engine's timeout notifier.
func (r *Router) NotifyTimeoutMatch(match *matchmaking.Match) {
	r.sendMatched(match.User1.ID, match)
	if match.IsAIMatch {
		r.deliverAITurn(match.User1.ID, match.ID, r.sessions.OpeningLine)
	}
}

// HandleMessage forwards a chat turn: verbatim and immediately to a human
// partner, or through AI generation plus typing simulation for AI matches.
func (r *Router) HandleMessage(userID uuid.UUID, text string) {
	match := r.engine.MatchForUser(userID)
	if match == nil {
		r.sendError(userID, httperrors.ErrCodeNoActiveMatch, "No active match")
		return
	}

	if match.IsAIMatch {
		matchID := match.ID
		r.deliverAITurn(userID, matchID, func(ctx context.Context, id uuid.UUID) (string, error) {
			return r.sessions.Reply(ctx, id, text)
		})
		return
	}

	if partner := match.Partner(userID); partner != nil {
		r.send(partner.ID, ws.NewMessage(ws.TypeMessage, ws.MessagePayload{Text: text, FromAI: false}))
	}
}

// HandleTyping relays typing flags between humans. AI matches get nothing:
// their typing signal comes only from the simulated delays around replies.
func (r *Router) HandleTyping(userID uuid.UUID, isTyping bool) {
	match := r.engine.MatchForUser(userID)
	if match == nil || match.IsAIMatch {
		return
	}
	if partner := match.Partner(userID); partner != nil {
		r.send(partner.ID, ws.NewMessage(ws.TypePartnerTyping, ws.TypingPayload{IsTyping: isTyping}))
	}
}

// HandleTimeUp reveals the partner's true nature to the sender. The match
// stays live; teardown only ever happens on disconnect.
func (r *Router) HandleTimeUp(userID uuid.UUID) {
	match := r.engine.MatchForUser(userID)
	if match == nil {
		r.sendError(userID, httperrors.ErrCodeNoActiveMatch, "No active match")
		return
	}
	r.send(userID, ws.NewMessage(ws.TypeRevealPartner, ws.RevealPartnerPayload{
		ActualPartnerType: string(match.ActualPartnerType),
		MatchID:           match.ID.String(),
	}))
}

// HandleGuess validates the guess against the caller's current match and
// reports correctness plus whatever score the bookkeeping collaborator
// returns.
func (r *Router) HandleGuess(userID uuid.UUID, matchID string, guess string) {
	id, err := uuid.Parse(matchID)
	if err != nil {
		r.sendError(userID, httperrors.ErrCodeInvalidMatchID, "Invalid match ID")
		return
	}

	if guess != string(matchmaking.PartnerHuman) && guess != string(matchmaking.PartnerAI) {
		r.sendError(userID, httperrors.ErrCodeInvalidGuess, "Guess must be HUMAN or AI")
		return
	}

	match := r.engine.MatchForUser(userID)
	if match == nil || match.ID != id {
		r.sendError(userID, httperrors.ErrCodeMatchMismatch, "Invalid match")
		return
	}

	wasCorrect := guess == string(match.ActualPartnerType)

	var stats GuessStats
	if r.stats != nil {
		recorded, err := r.stats.RecordGuess(context.Background(), userID, wasCorrect)
		if err != nil {
			r.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to record guess result")
		} else {
			stats = recorded
		}
	}

	r.send(userID, ws.NewMessage(ws.TypeGuessResult, ws.GuessResultPayload{
		WasCorrect:  wasCorrect,
		Score:       stats.Score,
		GamesPlayed: stats.GamesPlayed,
		GamesWon:    stats.GamesWon,
		GamesLost:   stats.GamesLost,
	}))
}

// HandleDisconnect notifies a human partner, then tears everything down.
// Safe to call for users with no match; RemoveUser is idempotent.
func (r *Router) HandleDisconnect(userID uuid.UUID) {
	match := r.engine.MatchForUser(userID)
	if match != nil && !match.IsAIMatch {
		if partner := match.Partner(userID); partner != nil {
			r.send(partner.ID, ws.NewMessage(ws.TypePartnerDisconnected, nil))
		}
	}
	r.engine.RemoveUser(userID)
}

// deliverAITurn runs one AI turn behind the typing simulation: after a
// randomized thinking delay the partner "starts typing", the reply is
// generated, and after a length-proportional delay the message lands and
// typing stops. Generation errors clear the indicator and surface as an
// error event; the match stays intact so the user may retry.
func (r *Router) deliverAITurn(userID, matchID uuid.UUID, generate func(context.Context, uuid.UUID) (string, error)) {
	r.clk.AfterFunc(r.thinkingDelay(), func() {
		r.send(userID, ws.NewMessage(ws.TypePartnerTyping, ws.TypingPayload{IsTyping: true}))

		reply, err := generate(context.Background(), matchID)
		if err != nil {
			r.send(userID, ws.NewMessage(ws.TypePartnerTyping, ws.TypingPayload{IsTyping: false}))
			r.sendError(userID, httperrors.ErrCodeAIReplyFailed, "Failed to get response")
			return
		}

		r.clk.AfterFunc(typingDuration(reply), func() {
			r.send(userID, ws.NewMessage(ws.TypeMessage, ws.MessagePayload{Text: reply, FromAI: true}))
			r.send(userID, ws.NewMessage(ws.TypePartnerTyping, ws.TypingPayload{IsTyping: false}))
		})
	})
}

func (r *Router) thinkingDelay() time.Duration {
	return thinkingDelayBase + time.Duration(r.rand()*float64(thinkingDelayJitter))
}

func typingDuration(reply string) time.Duration {
	d := time.Duration(len(reply)) * typingPerChar
	if d < typingDurationMin {
		return typingDurationMin
	}
	if d > typingDurationMax {
		return typingDurationMax
	}
	return d
}

func (r *Router) sendMatched(userID uuid.UUID, match *matchmaking.Match) {
	r.send(userID, ws.NewMessage(ws.TypeMatched, ws.MatchedPayload{
		MatchID:              match.ID.String(),
		PartnerType:          PartnerUnknown,
		RoundDurationSeconds: int(r.cfg.RoundDuration() / time.Second),
	}))
}

func (r *Router) send(userID uuid.UUID, msg ws.Message) {
	if err := r.transport.SendToUser(userID, msg); err != nil {
		r.logger.Warn().Err(err).Str("user_id", userID.String()).Str("type", msg.Type).Msg("delivery failed")
	}
}

func (r *Router) sendError(userID uuid.UUID, code, message string) {
	r.send(userID, ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: code, Message: message}))
}

package ws

import "encoding/json"

// MessageType constants for the WebSocket protocol.
const (
	// Client -> Server
	TypeJoinQueue   = "join_queue"
	TypeSendMessage = "send_message"
	TypeTyping      = "typing"
	TypeTimeUp      = "time_up"
	TypeSubmitGuess = "submit_guess"

	// Server -> Client
	TypeSearching           = "searching"
	TypeMatched             = "matched"
	TypeMessage             = "message"
	TypePartnerTyping       = "partner_typing"
	TypeRevealPartner       = "reveal_partner"
	TypeGuessResult         = "guess_result"
	TypePartnerDisconnected = "partner_disconnected"
	TypeError               = "error"
)

// Message wraps all WebSocket payloads with a type discriminator.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client Messages (incoming)

type JoinQueuePayload struct {
	Language string `json:"language"`
}

type SendMessagePayload struct {
	Text string `json:"text"`
}

type TypingPayload struct {
	IsTyping bool `json:"is_typing"`
}

type SubmitGuessPayload struct {
	MatchID string `json:"match_id"`
	Guess   string `json:"guess"`
}

// Server Messages (outgoing)

type MatchedPayload struct {
	MatchID string `json:"match_id"`
	// PartnerType is always "unknown" on the wire; the true type is only
	// disclosed via reveal_partner.
	PartnerType          string `json:"partner_type"`
	RoundDurationSeconds int    `json:"round_duration_seconds"`
}

type MessagePayload struct {
	Text   string `json:"text"`
	FromAI bool   `json:"from_ai"`
}

type RevealPartnerPayload struct {
	ActualPartnerType string `json:"actual_partner_type"`
	MatchID           string `json:"match_id"`
}

type GuessResultPayload struct {
	WasCorrect  bool `json:"was_correct"`
	Score       int  `json:"score"`
	GamesPlayed int  `json:"games_played"`
	GamesWon    int  `json:"games_won"`
	GamesLost   int  `json:"games_lost"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage marshals payload into a typed envelope. Marshal errors are
// impossible for the payload structs above, so they are swallowed.
func NewMessage(msgType string, payload interface{}) Message {
	msg := Message{Type: msgType}
	if payload != nil {
		msg.Payload, _ = json.Marshal(payload)
	}
	return msg
}

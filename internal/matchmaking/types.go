package matchmaking

import (
	"time"

	"github.com/google/uuid"
)

// PartnerType is the ground truth of what sat on the other side of a match.
type PartnerType string

const (
	PartnerHuman PartnerType = "HUMAN"
	PartnerAI    PartnerType = "AI"
)

// User identifies a connected player as seen by matchmaking. ID doubles as
// the connection identity: one logical connection holds one queue slot.
type User struct {
	ID       uuid.UUID
	Language string
	JoinedAt time.Time
}

// Match is the unit of a paired conversation. User2 is nil for AI matches.
// A Match is immutable after creation; lifecycle state lives in the engine
// tables, never on the struct.
type Match struct {
	ID                uuid.UUID
	User1             User
	User2             *User
	IsAIMatch         bool
	ActualPartnerType PartnerType
	// Behavior is the persona tag chosen for the AI participant; empty for
	// human-human matches.
	Behavior  string
	CreatedAt time.Time
}

// Partner returns the other human participant, or nil for AI matches and for
// users that are not part of the match.
func (m *Match) Partner(userID uuid.UUID) *User {
	if m == nil || m.IsAIMatch || m.User2 == nil {
		return nil
	}
	if m.User1.ID == userID {
		return m.User2
	}
	if m.User2.ID == userID {
		u := m.User1
		return &u
	}
	return nil
}

// Contains reports whether userID occupies one of the participant slots.
func (m *Match) Contains(userID uuid.UUID) bool {
	if m == nil {
		return false
	}
	if m.User1.ID == userID {
		return true
	}
	return m.User2 != nil && m.User2.ID == userID
}

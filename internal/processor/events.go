package processor

import (
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/parley/internal/resolver"
)

// LedgerUpdated is published after every credited utterance.
type LedgerUpdated struct {
	SessionID  uuid.UUID      `json:"session_id"`
	SpeakerTag string         `json:"speaker_tag"`
	IsManager  bool           `json:"is_manager"`
	ManagerMs  float64        `json:"manager_ms"`
	MemberMs   float64        `json:"member_ms"`
	State      resolver.State `json:"state"`
	ManagerTag string         `json:"manager_tag,omitempty"`
}

// SessionTick is published once per tick interval while a session is active.
type SessionTick struct {
	SessionID uuid.UUID `json:"session_id"`
	ElapsedMs int64     `json:"elapsed_ms"`
	ManagerMs float64   `json:"manager_ms"`
	MemberMs  float64   `json:"member_ms"`
}

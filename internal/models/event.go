package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind represents kind of competition event.
type EventKind int8

const (
	// RegisterUserEvent means that user was registered.
	RegisterUserEvent EventKind = 1
	// CreateTeamEvent means that team was created by its founder.
	CreateTeamEvent EventKind = 2
	// JoinTeamEvent means that user joined team.
	JoinTeamEvent EventKind = 3
	// UnlockHintEvent means that user unlocked hint.
	UnlockHintEvent EventKind = 4
	// SolveChallengeEvent means that user solved challenge.
	SolveChallengeEvent EventKind = 5
)

// String returns string representation of event kind.
func (t EventKind) String() string {
	switch t {
	case RegisterUserEvent:
		return "register_user"
	case CreateTeamEvent:
		return "create_team"
	case JoinTeamEvent:
		return "join_team"
	case UnlockHintEvent:
		return "unlock_hint"
	case SolveChallengeEvent:
		return "solve_challenge"
	default:
		return fmt.Sprintf("EventKind(%d)", t)
	}
}

// ParseEventKind parses string representation of event kind.
func ParseEventKind(s string) (EventKind, error) {
	for kind := RegisterUserEvent; kind <= SolveChallengeEvent; kind++ {
		if kind.String() == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unsupported event kind: %q", s)
}

// Event represents single change of competition state.
type Event struct {
	ID      int64
	Kind    EventKind
	Time    time.Time
	Payload any
}

// RegisterUserPayload contains data of RegisterUserEvent.
type RegisterUserPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateTeamPayload contains data of CreateTeamEvent.
type CreateTeamPayload struct {
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	UserID string `json:"user_id"`
}

// JoinTeamPayload contains data of JoinTeamEvent.
type JoinTeamPayload struct {
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
}

// UnlockHintPayload contains data of UnlockHintEvent.
type UnlockHintPayload struct {
	UserID      string `json:"user_id"`
	ChallengeID string `json:"challenge_id"`
	HintID      string `json:"hint_id"`
}

// SolveChallengePayload contains data of SolveChallengeEvent.
//
// Points are already net of hint costs.
type SolveChallengePayload struct {
	UserID      string `json:"user_id"`
	ChallengeID string `json:"challenge_id"`
	TeamID      string `json:"team_id,omitempty"`
	Points      int    `json:"points"`
}

// DecodePayload decodes raw JSON payload for specified event kind.
func DecodePayload(kind EventKind, data []byte) (any, error) {
	switch kind {
	case RegisterUserEvent:
		return decodePayload[RegisterUserPayload](kind, data)
	case CreateTeamEvent:
		return decodePayload[CreateTeamPayload](kind, data)
	case JoinTeamEvent:
		return decodePayload[JoinTeamPayload](kind, data)
	case UnlockHintEvent:
		return decodePayload[UnlockHintPayload](kind, data)
	case SolveChallengeEvent:
		return decodePayload[SolveChallengePayload](kind, data)
	default:
		return nil, fmt.Errorf("unsupported event kind: %v", kind)
	}
}

func decodePayload[T any](kind EventKind, data []byte) (any, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("cannot decode %v payload: %w", kind, err)
	}
	return payload, nil
}

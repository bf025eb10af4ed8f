package models

import (
	"fmt"
)

// NotFoundError is returned when requested object does not exist.
type NotFoundError struct {
	// Kind contains kind of object: challenge, hint, team, code or user.
	Kind string
	// ID contains requested identifier.
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// DuplicateNameError is returned when name is already taken.
type DuplicateNameError struct {
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s name %q is already taken", e.Kind, e.Name)
}

// AlreadyOnTeamError is returned when user already has a team.
type AlreadyOnTeamError struct {
	UserID string
	TeamID string
}

func (e *AlreadyOnTeamError) Error() string {
	return fmt.Sprintf("user %q is already on team %q", e.UserID, e.TeamID)
}

// TeamFullError is returned when team roster reached its limit.
type TeamFullError struct {
	TeamID string
	Size   int
}

func (e *TeamFullError) Error() string {
	return fmt.Sprintf("team %q already has %d members", e.TeamID, e.Size)
}

// ValidationError is returned for empty or malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrSessionNotLive    = errors.New("session is not live")
	ErrSessionCompleted  = errors.New("session is already completed")
	ErrNotEnoughTeams    = errors.New("a session needs at least two teams")
	ErrSetupDisabled     = errors.New("squad setup is disabled")
	ErrAmbiguousName     = errors.New("more than one player has that name")
)

// NotFoundError reports a missing session, game, team or any other entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InconsistentStateError means a game's cached scores disagree with the
// sum of its ledger. The ledger wins.
type InconsistentStateError struct {
	GameID  string
	CachedA int
	CachedB int
	LedgerA int
	LedgerB int
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("game %s score %d-%d disagrees with ledger %d-%d",
		e.GameID, e.CachedA, e.CachedB, e.LedgerA, e.LedgerB)
}

type NoEventsError struct {
	GameID string
}

func (e *NoEventsError) Error() string {
	return fmt.Sprintf("game %s has no score events to retract", e.GameID)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

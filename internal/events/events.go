package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindSnapshot       Kind = "snapshot"
	KindScoreAppended  Kind = "score.appended"
	KindScoreRetracted Kind = "score.retracted"
	KindGameStarted    Kind = "game.started"
	KindGameCompleted  Kind = "game.completed"
	KindGameReconciled Kind = "game.reconciled"
	KindSessionStarted Kind = "session.started"
	KindSessionEnded   Kind = "session.ended"
	KindTeamUpdated    Kind = "team.updated"
)

// Event is one change to a session, delivered to its stream subscribers.
type Event struct {
	Kind      Kind            `json:"kind"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	At        time.Time       `json:"at"`
}

func New(kind Kind, sessionID string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s event: %w", kind, err)
	}
	return Event{Kind: kind, SessionID: sessionID, Data: raw, At: time.Now().UTC()}, nil
}

// Broker fans session events out to subscribers. The channel returned by
// Subscribe is closed once ctx is done.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, sessionID string) (<-chan Event, error)
}

// Package events consumes NationStates movement events from RabbitMQ and
// correlates them against active chase sessions.
package events

import (
	"encoding/json"
	"fmt"
)

// MoveEvent is a decoded "move" event from the bus.
type MoveEvent struct {
	Destination string // region the nation moved to
	Time        int64  // arrival time, integer seconds
	EventID     int64  // sequence id, globally monotonic
	Actor       string // nation that moved
}

// rawMove uses pointer fields so missing keys are distinguishable from
// zero values.
type rawMove struct {
	Destination *string `json:"destination"`
	Time        *int64  `json:"time"`
	EventID     *int64  `json:"event"`
	Actor       *string `json:"actor"`
}

// DecodeMove parses a move event payload, rejecting malformed JSON and
// payloads with missing fields.
func DecodeMove(body []byte) (MoveEvent, error) {
	var raw rawMove
	if err := json.Unmarshal(body, &raw); err != nil {
		return MoveEvent{}, fmt.Errorf("events: decode move: %w", err)
	}
	if raw.Destination == nil || raw.Time == nil || raw.EventID == nil || raw.Actor == nil {
		return MoveEvent{}, fmt.Errorf("events: decode move: missing field in %q", body)
	}
	return MoveEvent{
		Destination: *raw.Destination,
		Time:        *raw.Time,
		EventID:     *raw.EventID,
		Actor:       *raw.Actor,
	}, nil
}

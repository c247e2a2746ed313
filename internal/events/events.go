// Package events defines the raffle's domain event stream. Every state
// change of custody significance is emitted from domain logic as an Event;
// sinks fan the stream out to memory (introspection, tests) and Kafka
// (downstream consumers).
package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category classifies events by their primary purpose. This enables
// different retention policies and routing per class.
type Category string

const (
	// CategoryParticipation covers entrant-driven changes: entries and
	// refunds. High volume, short retention.
	CategoryParticipation Category = "participation"

	// CategorySettlement covers the money-moving outcomes of a round.
	// These are the records downstream accounting consumes.
	CategorySettlement Category = "settlement"

	// CategoryOperations covers operational visibility: failures, retries.
	CategoryOperations Category = "operations"
)

// Action names a raffle event.
type Action string

const (
	ActionEntryRecorded    Action = "entry_recorded"
	ActionRefunded         Action = "slot_refunded"
	ActionWinnerSelected   Action = "winner_selected"
	ActionSettlementFailed Action = "settlement_failed"
)

// actionCategories maps each action to its category.
var actionCategories = map[Action]Category{
	ActionEntryRecorded:    CategoryParticipation,
	ActionRefunded:         CategoryParticipation,
	ActionWinnerSelected:   CategorySettlement,
	ActionSettlementFailed: CategoryOperations,
}

// Category returns the category for this action. Unknown actions default to
// CategoryOperations.
func (a Action) Category() Category {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is one raffle occurrence. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Action     Action            `json:"action"`
	Category   Category          `json:"category"`
	Epoch      uint64            `json:"epoch"`
	Account    string            `json:"account,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// New builds an event for the given action.
func New(action Action, epoch uint64, account string, occurredAt time.Time, metadata map[string]string) Event {
	return Event{
		ID:         uuid.New(),
		OccurredAt: occurredAt,
		Action:     action,
		Category:   action.Category(),
		Epoch:      epoch,
		Account:    account,
		Metadata:   metadata,
	}
}

// Validate rejects malformed events before they reach any sink.
func (e Event) Validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("event id must be set")
	}
	if _, ok := actionCategories[e.Action]; !ok {
		return fmt.Errorf("unknown event action %q", e.Action)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("event time must be set")
	}
	return nil
}

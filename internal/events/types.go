// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Transaction events
	TransactionStateChanged EventType = "tx.state_changed"
	TransactionCompleted    EventType = "tx.completed"

	// Balance events
	BalanceUpdated EventType = "balance.updated"

	// Swap events
	QuoteUpdated EventType = "swap.quote_updated"

	// Token list events
	TokenListSynced EventType = "tokens.synced"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// NewBase stamps an event of type t with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// TransactionStateChangedEvent is emitted on every submit pipeline transition.
type TransactionStateChangedEvent struct {
	BaseEvent
	Kind  string
	State string
	// Terminal – конвейер завершён.
	Terminal bool
}

// TransactionCompletedEvent carries the terminal outcome of a submitted transaction.
type TransactionCompletedEvent struct {
	BaseEvent
	Signature string
	Kind      string
	Amount    string
	Mint      string
	Recipient string
	State     string
	Success   bool
	// Ambiguous is set when the expiry window elapsed without an observed outcome.
	Ambiguous   bool
	ErrorKind   string
	Error       string
	ExplorerURL string
}

// BalanceUpdatedEvent is emitted when a new balance snapshot is published.
type BalanceUpdatedEvent struct {
	BaseEvent
	Account   string
	Network   string
	Available bool
	Lamports  uint64
	Holdings  int
}

// QuoteUpdatedEvent is emitted when the swap quoter changes state.
type QuoteUpdatedEvent struct {
	BaseEvent
	Generation uint64
	State      string
	OutAmount  string
	Error      string
}

// TokenListSyncedEvent is emitted after the token list is stored.
type TokenListSyncedEvent struct {
	BaseEvent
	Tokens int
}

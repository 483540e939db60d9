// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/docdocgo-cli/internal/model"

// =============================================================================
// STATE
// =============================================================================

// State is the controller's turn state.
type State int

const (
	// StateIdle accepts a new submission.
	StateIdle State = iota
	// StateSubmitting has a request in flight.
	StateSubmitting
	// StateAwaitingScheduledQuery will auto-submit a backend-scheduled query.
	StateAwaitingScheduledQuery
	// StateError is idle with the last turn's error still displayed.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingScheduledQuery:
		return "awaiting-scheduled-query"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// SessionState is a point-in-time copy of the controller's conversation state.
type SessionState struct {
	History               []model.HistoryEntry
	Collection            model.CollectionInfo
	Busy                  bool
	PendingScheduledQuery string
	LastError             string
	State                 State
}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies an Event.
type EventKind int

const (
	// EventDispatched fires when a request leaves the controller.
	EventDispatched EventKind = iota
	// EventReply fires after a response has been applied.
	EventReply
	// EventFailed fires when a turn ends in a transport or HTTP error.
	EventFailed
	// EventScheduled fires when a scheduled query has been queued.
	EventScheduled
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventDispatched:
		return "dispatched"
	case EventReply:
		return "reply"
	case EventFailed:
		return "failed"
	case EventScheduled:
		return "scheduled"
	default:
		return "unknown"
	}
}

// Event notifies the presentation layer of a turn transition.
type Event struct {
	Kind      EventKind
	Turn      uint64
	Scheduled bool

	// Endpoint is set for EventDispatched.
	Endpoint string
	// Reply is set for EventReply.
	Reply *Turn
	// Err is set for EventFailed.
	Err error
	// Query is the pending token for EventScheduled.
	Query string
}

// Observer receives events. It is called outside the controller lock, from
// whichever goroutine drove the turn.
type Observer func(Event)

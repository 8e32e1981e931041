// Package ledger holds the guarded status-transition primitive shared by the
// friendship, moderation, ticket and vote records. Every lifecycle mutation in
// the app goes through Transition (or a Graph built on top of it), so the
// "requested status must be reachable from the current one" rule lives in
// exactly one place.
package ledger

import (
	"fmt"
	"time"

	"uninet.id/campuslink/pkg/apperror"
)

type Status string

// StatusField is embedded into stateful entities. StatusChangedAt tracks the
// last transition, not row updates in general.
type StatusField struct {
	Status          Status    `gorm:"size:30;not null;index" json:"status"`
	StatusChangedAt time.Time `json:"status_changed_at"`
}

func (f *StatusField) Set(s Status, at time.Time) {
	f.Status = s
	f.StatusChangedAt = at
}

// Transition validates a requested status change against the set of statuses
// it is allowed to start from. Requesting the status the record already holds
// is a no-op success, not an error; callers that want duplicates rejected
// (e.g. repeated friend requests) must guard before calling.
func Transition(current, requested Status, allowedFrom ...Status) (Status, error) {
	if current == requested {
		return current, nil
	}
	for _, from := range allowedFrom {
		if current == from {
			return requested, nil
		}
	}
	return current, fmt.Errorf("%w: %s -> %s", apperror.ErrInvalidTransition, current, requested)
}

// Graph is a configurable transition table: for each source status, the set of
// statuses reachable from it. Used where the allowed edges are a matter of
// configuration rather than code (the ticket workflow).
type Graph map[Status][]Status

func (g Graph) Can(from, to Status) bool {
	for _, s := range g[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Step applies the same idempotency rule as Transition against the graph's
// edges for the current status.
func (g Graph) Step(current, requested Status) (Status, error) {
	if current == requested {
		return current, nil
	}
	if !g.Can(current, requested) {
		return current, fmt.Errorf("%w: %s -> %s", apperror.ErrInvalidTransition, current, requested)
	}
	return requested, nil
}

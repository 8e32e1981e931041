package entity

import (
	"time"

	"uninet.id/campuslink/pkg/ledger"
)

// AccountState is the tagged representation of a user's moderation status:
// exactly one of Suspension/Ban is set, and only for the matching status.
// It is built through the constructors below, never by hand, so impossible
// field combinations (a banned account with a suspension expiry, an active
// account with a reason) cannot be constructed.
type AccountState struct {
	Status     ledger.Status
	ChangedAt  time.Time
	Suspension *Suspension
	Ban        *Ban
}

type Suspension struct {
	Reason        string
	Since         time.Time
	DurationHours *int       // nil = permanent
	ExpiresAt     *time.Time // nil = permanent
}

type Ban struct {
	Reason string
	Since  time.Time
}

func ActiveState(at time.Time) AccountState {
	return AccountState{Status: AccountActive, ChangedAt: at}
}

func SuspendedState(reason string, durationHours *int, at time.Time) AccountState {
	s := &Suspension{Reason: reason, Since: at, DurationHours: durationHours}
	if durationHours != nil {
		expires := at.Add(time.Duration(*durationHours) * time.Hour)
		s.ExpiresAt = &expires
	}
	return AccountState{Status: AccountSuspended, ChangedAt: at, Suspension: s}
}

func BannedState(reason string, at time.Time) AccountState {
	return AccountState{Status: AccountBanned, ChangedAt: at, Ban: &Ban{Reason: reason, Since: at}}
}

// AccountStateOf reads the variant back out of a user row.
func AccountStateOf(u *User) AccountState {
	state := AccountState{Status: u.AccountStatus}
	if u.AccountStatusChangedAt != nil {
		state.ChangedAt = *u.AccountStatusChangedAt
	}
	switch u.AccountStatus {
	case AccountSuspended:
		s := &Suspension{DurationHours: u.SuspensionDurationHours, ExpiresAt: u.SuspensionExpiresAt}
		if u.SuspensionReason != nil {
			s.Reason = *u.SuspensionReason
		}
		if u.SuspendedAt != nil {
			s.Since = *u.SuspendedAt
		}
		state.Suspension = s
	case AccountBanned:
		b := &Ban{}
		if u.SuspensionReason != nil {
			b.Reason = *u.SuspensionReason
		}
		if u.BannedAt != nil {
			b.Since = *u.BannedAt
		}
		state.Ban = b
	}
	return state
}

// ApplyAccountState writes the variant onto the row, clearing every column
// that does not belong to the new status.
func ApplyAccountState(u *User, state AccountState) {
	u.AccountStatus = state.Status
	changedAt := state.ChangedAt
	u.AccountStatusChangedAt = &changedAt
	u.SuspendedAt = nil
	u.SuspensionReason = nil
	u.SuspensionDurationHours = nil
	u.SuspensionExpiresAt = nil
	u.BannedAt = nil

	switch state.Status {
	case AccountSuspended:
		since := state.Suspension.Since
		reason := state.Suspension.Reason
		u.SuspendedAt = &since
		u.SuspensionReason = &reason
		u.SuspensionDurationHours = state.Suspension.DurationHours
		u.SuspensionExpiresAt = state.Suspension.ExpiresAt
	case AccountBanned:
		since := state.Ban.Since
		reason := state.Ban.Reason
		u.BannedAt = &since
		u.SuspensionReason = &reason
	}
}

// Expired reports whether a suspended state has a passed expiry. Permanent
// suspensions (nil expiry) never expire.
func (s AccountState) Expired(now time.Time) bool {
	return s.Status == AccountSuspended &&
		s.Suspension != nil &&
		s.Suspension.ExpiresAt != nil &&
		!now.Before(*s.Suspension.ExpiresAt)
}

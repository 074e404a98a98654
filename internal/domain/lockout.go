package domain

import (
	"time"

	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// AttemptOutcome is the result of a single authentication attempt.
type AttemptOutcome int

const (
	AttemptSuccess AttemptOutcome = iota
	AttemptFailure
)

// LockState is the derived lockout state of a credential block.
type LockState int

const (
	LockStateOpen LockState = iota
	LockStateLocked
	LockStateAdminLocked
)

// LockoutPolicy decides whether login attempts are permitted and computes the
// credential state after each attempt. It is pure: all mutation happens by
// returning a new Credentials value, which the caller persists atomically.
type LockoutPolicy struct {
	// MaxAttempts is the number of consecutive failures that triggers a lock.
	MaxAttempts int
	// LockDuration is how long a triggered lock lasts.
	LockDuration time.Duration
	// RelockOnAttempt extends the lock window on failures that arrive while a
	// lock is already active. Off by default: an active window only has its
	// counter incremented.
	RelockOnAttempt bool
}

// Locked reports whether a timed lock window is active. An admin lock is not
// a timed lock; see State.
func (p LockoutPolicy) Locked(c Credentials, now time.Time) bool {
	return c.LockUntil != nil && now.Before(*c.LockUntil)
}

// State derives the lockout state. AdminLocked takes precedence over the
// counter-driven state.
func (p LockoutPolicy) State(c Credentials, now time.Time) LockState {
	if c.AdminLocked {
		return LockStateAdminLocked
	}
	if p.Locked(c, now) {
		return LockStateLocked
	}
	return LockStateOpen
}

// Decide returns nil when an attempt is permitted, or the denial reason.
func (p LockoutPolicy) Decide(c Credentials, now time.Time) error {
	switch p.State(c, now) {
	case LockStateAdminLocked:
		return domerrors.ErrAdminLocked
	case LockStateLocked:
		return domerrors.ErrMaxAttempts
	}
	return nil
}

// Apply computes the credential block after an attempt. The admin lock is
// sticky: no outcome changes the counter while it is set.
func (p LockoutPolicy) Apply(c Credentials, now time.Time, outcome AttemptOutcome) Credentials {
	if c.AdminLocked {
		return c
	}
	if outcome == AttemptSuccess {
		c.LoginAttempts = 0
		c.LockUntil = nil
		return c
	}
	// A failure against an expired lock window restarts the count at 1
	// instead of accumulating across the stale window.
	if c.LockUntil != nil && !now.Before(*c.LockUntil) {
		c.LoginAttempts = 1
		c.LockUntil = nil
		return c
	}
	active := p.Locked(c, now)
	c.LoginAttempts++
	if c.LoginAttempts >= p.MaxAttempts && (!active || p.RelockOnAttempt) {
		until := now.Add(p.LockDuration)
		c.LockUntil = &until
	}
	return c
}

// Unlock clears the counter-driven lock. It never touches the admin lock,
// which requires a separate administrative action.
func (p LockoutPolicy) Unlock(c Credentials) Credentials {
	c.LoginAttempts = 0
	c.LockUntil = nil
	return c
}

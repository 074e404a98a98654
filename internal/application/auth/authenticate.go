package auth

import (
	"context"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// AuthenticateInput identifies the person by one of their contact addresses,
// compared exactly as stored.
type AuthenticateInput struct {
	Address     string
	Password    string
	OneTimeCode string // required only when a confirmed second factor exists
	ClientIP    string // recorded on success when non-empty
}

// AuthenticateResult is the authenticated person.
type AuthenticateResult struct {
	Person *domain.Person
}

// Authenticate verifies a password against the stored hash, gated by the
// lockout policy. Every counter or lock transition is applied through a
// store-level read-modify-write so concurrent attempts cannot lose
// increments.
type Authenticate struct {
	people          ports.PersonStore
	hasher          ports.PasswordHasher
	policy          domain.LockoutPolicy
	requireVerified bool
	now             func() time.Time
}

// NewAuthenticate builds the use case.
func NewAuthenticate(people ports.PersonStore, hasher ports.PasswordHasher, policy domain.LockoutPolicy, requireVerified bool) *Authenticate {
	return &Authenticate{
		people:          people,
		hasher:          hasher,
		policy:          policy,
		requireVerified: requireVerified,
		now:             time.Now,
	}
}

// Execute runs the attempt. Domain outcomes are the sentinels in
// domain/errors; store and hasher failures propagate unchanged and leave the
// counter untouched.
func (uc *Authenticate) Execute(ctx context.Context, input AuthenticateInput) (*AuthenticateResult, error) {
	person, err := uc.people.GetByAddress(ctx, input.Address)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, domerrors.ErrNotFound
	}
	now := uc.now()

	// Admin lock denies without touching the counter.
	if person.Login.AdminLocked {
		return nil, domerrors.ErrAdminLocked
	}

	// An active timed lock denies, but the attempt is still recorded.
	if err := uc.policy.Decide(person.Login, now); err != nil {
		if _, rerr := uc.people.UpdateCredentials(ctx, person.ID, func(c domain.Credentials) (domain.Credentials, error) {
			return uc.policy.Apply(c, now, domain.AttemptFailure), nil
		}); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	match, err := uc.hasher.Verify(input.Password, person.Login.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, uc.recordFailure(ctx, person.ID, now, domerrors.ErrPasswordIncorrect)
	}

	if uc.requireVerified {
		if ch, ok := person.Channel(input.Address); ok && !ch.Verified {
			if ch.Kind == domain.ChannelPhone {
				return nil, domerrors.ErrUnverifiedPhone
			}
			return nil, domerrors.ErrUnverifiedEmail
		}
	}

	// A confirmed second factor requires a matching one-time code; a wrong
	// or missing code counts as a failed attempt like a wrong password.
	if person.Login.SecondFactorEnabled() {
		if input.OneTimeCode == "" || !totp.Validate(input.OneTimeCode, person.Login.SecondFactorSecret) {
			return nil, uc.recordFailure(ctx, person.ID, now, domerrors.ErrInvalidOneTimeCode)
		}
	}

	// Skip the write when there is nothing to reset and no IP to record.
	if person.Login.LoginAttempts != 0 || person.Login.LockUntil != nil || input.ClientIP != "" {
		creds, err := uc.people.UpdateCredentials(ctx, person.ID, func(c domain.Credentials) (domain.Credentials, error) {
			next := uc.policy.Apply(c, now, domain.AttemptSuccess)
			if input.ClientIP != "" {
				next.LastLoginIP = input.ClientIP
			}
			return next, nil
		})
		if err != nil {
			return nil, err
		}
		person.Login = creds
	}
	return &AuthenticateResult{Person: person}, nil
}

// recordFailure applies the Failure transition atomically. When the attempt
// pushes the account into a lock, the lock wins over the supplied reason so
// the caller learns a lock now applies.
func (uc *Authenticate) recordFailure(ctx context.Context, id domain.PersonID, now time.Time, reason error) error {
	var locked bool
	_, err := uc.people.UpdateCredentials(ctx, id, func(c domain.Credentials) (domain.Credentials, error) {
		next := uc.policy.Apply(c, now, domain.AttemptFailure)
		locked = uc.policy.Locked(next, now)
		return next, nil
	})
	if err != nil {
		return err
	}
	if locked {
		return domerrors.ErrMaxAttempts
	}
	return reason
}

package auth

import (
	"context"
	"time"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// Unlock clears a counter-driven lock ahead of its expiry. It never touches
// an admin lock; that requires the separate administrative operation.
type Unlock struct {
	people ports.PersonStore
	policy domain.LockoutPolicy
	now    func() time.Time
}

// NewUnlock builds the use case.
func NewUnlock(people ports.PersonStore, policy domain.LockoutPolicy) *Unlock {
	return &Unlock{people: people, policy: policy, now: time.Now}
}

// Execute unlocks the person owning the address. Already-open accounts are a
// no-op success.
func (uc *Unlock) Execute(ctx context.Context, address string) error {
	person, err := uc.people.GetByAddress(ctx, address)
	if err != nil {
		return err
	}
	if person == nil {
		return domerrors.ErrNotFound
	}
	if !uc.policy.Locked(person.Login, uc.now()) {
		return nil
	}
	_, err = uc.people.UpdateCredentials(ctx, person.ID, func(c domain.Credentials) (domain.Credentials, error) {
		return uc.policy.Unlock(c), nil
	})
	return err
}

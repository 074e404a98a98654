package auth

import (
	"context"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// SetAdminLock sets or clears the operator-imposed lock. It is independent of
// the attempt counter and takes precedence over it; clearing it does not
// clear a timed lock.
type SetAdminLock struct {
	people ports.PersonStore
}

// NewSetAdminLock builds the use case.
func NewSetAdminLock(people ports.PersonStore) *SetAdminLock {
	return &SetAdminLock{people: people}
}

// Execute toggles the admin lock on the person owning the address.
func (uc *SetAdminLock) Execute(ctx context.Context, address string, locked bool) error {
	person, err := uc.people.GetByAddress(ctx, address)
	if err != nil {
		return err
	}
	if person == nil {
		return domerrors.ErrNotFound
	}
	_, err = uc.people.UpdateCredentials(ctx, person.ID, func(c domain.Credentials) (domain.Credentials, error) {
		c.AdminLocked = locked
		return c, nil
	})
	return err
}

package ports

import (
	"context"
	"time"

	"github.com/hongkongkiwi/know-your-people/internal/domain"
)

// CredentialsMutation transforms the current persisted credential block into
// the next one. Returning an error aborts the update and propagates unchanged.
type CredentialsMutation func(domain.Credentials) (domain.Credentials, error)

// ChannelMutation transforms the current persisted contact channel into the
// next one. Returning an error aborts the update and propagates unchanged.
type ChannelMutation func(domain.ContactChannel) (domain.ContactChannel, error)

// PersonStore defines persistence for people. Lookups return (nil, nil) when
// no record matches. Contact address uniqueness across all people is enforced
// here: Create returns domain/errors.ErrAddressTaken on a duplicate.
//
// UpdateCredentials and UpdateChannel apply their mutation as a single
// read-modify-write against the current persisted value. Concurrent updates
// to the same row must serialize; a mutation never observes a stale snapshot.
type PersonStore interface {
	Create(ctx context.Context, person *domain.Person) error
	GetByID(ctx context.Context, id domain.PersonID) (*domain.Person, error)
	GetByAddress(ctx context.Context, address string) (*domain.Person, error)
	GetByVerificationCode(ctx context.Context, code string) (*domain.Person, error)

	// UpdateCredentials atomically rewrites the credential block of one
	// person and returns the value that was persisted.
	UpdateCredentials(ctx context.Context, id domain.PersonID, mutate CredentialsMutation) (domain.Credentials, error)

	// UpdateChannel atomically rewrites the channel owning the address and
	// returns the value that was persisted. Unknown addresses return
	// domain/errors.ErrNotFound.
	UpdateChannel(ctx context.Context, address string, mutate ChannelMutation) (domain.ContactChannel, error)

	// ExpireCodesIssuedBefore clears every live verification code issued
	// before the cutoff and reports how many were cleared.
	ExpireCodesIssuedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

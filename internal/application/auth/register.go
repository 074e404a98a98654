package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// RegisterInput creates a person with one email channel and optionally one
// phone channel, both starting unverified.
type RegisterInput struct {
	Email        string
	PhoneCountry string
	PhoneNumber  string
	Password     string
	Info         domain.UserInfo
}

// RegisterResult is the created person.
type RegisterResult struct {
	Person *domain.Person
}

// Register hashes the password and creates the person. Contact address
// uniqueness is enforced by the store (ErrAddressTaken).
type Register struct {
	people ports.PersonStore
	hasher ports.PasswordHasher
}

// NewRegister builds the use case.
func NewRegister(people ports.PersonStore, hasher ports.PasswordHasher) *Register {
	return &Register{people: people, hasher: hasher}
}

// Execute validates input, hashes the password and persists the new person.
func (uc *Register) Execute(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if !emailRegex.MatchString(input.Email) {
		return nil, domerrors.ErrInvalidAddress
	}
	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	person := &domain.Person{
		ID: domain.NewPersonID(uuid.New()),
		Channels: []domain.ContactChannel{
			{ID: uuid.New(), Kind: domain.ChannelEmail, Address: input.Email},
		},
		Login:     domain.Credentials{PasswordHash: hash},
		Info:      input.Info,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.PhoneNumber != "" {
		person.Channels = append(person.Channels, domain.ContactChannel{
			ID:      uuid.New(),
			Kind:    domain.ChannelPhone,
			Country: input.PhoneCountry,
			Address: input.PhoneNumber,
		})
	}
	if err := uc.people.Create(ctx, person); err != nil {
		return nil, err
	}
	return &RegisterResult{Person: person}, nil
}

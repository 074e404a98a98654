package verification

import (
	"context"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// CheckCode resolves a live verification code to the person owning it,
// without consuming it. Used by SMS callback flows that only carry the code.
type CheckCode struct {
	people ports.PersonStore
}

// NewCheckCode builds the use case.
func NewCheckCode(people ports.PersonStore) *CheckCode {
	return &CheckCode{people: people}
}

// Execute returns the owning person id. A code that matches no live channel
// code reports ErrCodeIncorrect; it is indistinguishable from a consumed one.
func (uc *CheckCode) Execute(ctx context.Context, code string) (domain.PersonID, error) {
	if code == "" {
		return domain.PersonID{}, domerrors.ErrCodeEmpty
	}
	person, err := uc.people.GetByVerificationCode(ctx, code)
	if err != nil {
		return domain.PersonID{}, err
	}
	if person == nil {
		return domain.PersonID{}, domerrors.ErrCodeIncorrect
	}
	return person.ID, nil
}

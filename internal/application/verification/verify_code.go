package verification

import (
	"context"
	"crypto/subtle"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// VerifyCode consumes a verification code for a contact channel. Consumption
// is one-shot: a successful verify clears the stored code, so a replay of the
// same code fails with ErrNoCodeGenerated.
type VerifyCode struct {
	people ports.PersonStore
}

// NewVerifyCode builds the use case.
func NewVerifyCode(people ports.PersonStore) *VerifyCode {
	return &VerifyCode{people: people}
}

// Execute marks the channel verified when the submitted code matches the
// stored one exactly (no normalization). The compare-and-clear runs inside
// the store's atomic channel update, so two concurrent verifies of the same
// code produce exactly one success.
func (uc *VerifyCode) Execute(ctx context.Context, address, submitted string) error {
	if submitted == "" {
		return domerrors.ErrCodeEmpty
	}
	_, err := uc.people.UpdateChannel(ctx, address, func(c domain.ContactChannel) (domain.ContactChannel, error) {
		if c.Code == nil {
			return c, domerrors.ErrNoCodeGenerated
		}
		if subtle.ConstantTimeCompare([]byte(*c.Code), []byte(submitted)) != 1 {
			return c, domerrors.ErrCodeIncorrect
		}
		c.Verified = true
		c.Code = nil
		c.CodeIssuedAt = nil
		return c, nil
	})
	return err
}

package auth

import (
	"context"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// SetupSecondFactorResult returns the secret and QR URL for the
// authenticator app.
type SetupSecondFactorResult struct {
	Secret string // base32 secret
	URL    string // otpauth://totp/... for QR code
}

// SetupSecondFactor generates a TOTP secret and stores it unconfirmed. Login
// only starts requiring the one-time code after ConfirmSecondFactor.
type SetupSecondFactor struct {
	people ports.PersonStore
	issuer string
}

// NewSetupSecondFactor builds the use case; issuer is the label shown in the
// authenticator app.
func NewSetupSecondFactor(people ports.PersonStore, issuer string) *SetupSecondFactor {
	return &SetupSecondFactor{people: people, issuer: issuer}
}

// Execute creates and stores a fresh secret for the person owning the
// address. A repeat call before confirmation replaces the pending secret; a
// call after confirmation fails.
func (uc *SetupSecondFactor) Execute(ctx context.Context, address string) (*SetupSecondFactorResult, error) {
	person, err := uc.people.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, domerrors.ErrNotFound
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      uc.issuer,
		AccountName: address,
	})
	if err != nil {
		return nil, err
	}
	secret := key.Secret()
	_, err = uc.people.UpdateCredentials(ctx, person.ID, func(c domain.Credentials) (domain.Credentials, error) {
		if c.SecondFactorConfirmedAt != nil {
			return c, domerrors.ErrSecondFactorConfirmed
		}
		c.SecondFactorSecret = secret
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return &SetupSecondFactorResult{Secret: secret, URL: key.URL()}, nil
}

// ConfirmSecondFactor validates a code against the pending secret and turns
// the second factor on.
type ConfirmSecondFactor struct {
	people ports.PersonStore
	now    func() time.Time
}

// NewConfirmSecondFactor builds the use case.
func NewConfirmSecondFactor(people ports.PersonStore) *ConfirmSecondFactor {
	return &ConfirmSecondFactor{people: people, now: time.Now}
}

// Execute marks the second factor confirmed when the code matches.
func (uc *ConfirmSecondFactor) Execute(ctx context.Context, address, code string) error {
	person, err := uc.people.GetByAddress(ctx, address)
	if err != nil {
		return err
	}
	if person == nil {
		return domerrors.ErrNotFound
	}
	now := uc.now()
	_, err = uc.people.UpdateCredentials(ctx, person.ID, func(c domain.Credentials) (domain.Credentials, error) {
		if c.SecondFactorSecret == "" {
			return c, domerrors.ErrSecondFactorNotSetup
		}
		if c.SecondFactorConfirmedAt != nil {
			return c, domerrors.ErrSecondFactorConfirmed
		}
		if !totp.Validate(code, c.SecondFactorSecret) {
			return c, domerrors.ErrInvalidOneTimeCode
		}
		c.SecondFactorConfirmedAt = &now
		return c, nil
	})
	return err
}

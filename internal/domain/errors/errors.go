package errors

import "errors"

// Sentinel errors for the authentication and verification flows. Handlers map
// these to HTTP status and stable error codes; infrastructure failures (store,
// hasher) are returned as ordinary wrapped errors and never converted into one
// of these.
var (
	// Login failures.
	ErrNotFound           = errors.New("person not found")
	ErrPasswordIncorrect  = errors.New("password incorrect")
	ErrMaxAttempts        = errors.New("maximum login attempts exceeded")
	ErrAdminLocked        = errors.New("account locked by administrator")
	ErrUnverifiedEmail    = errors.New("email address not verified")
	ErrUnverifiedPhone    = errors.New("phone number not verified")
	ErrInvalidOneTimeCode = errors.New("invalid one-time code")

	// Registration failures.
	ErrAddressTaken   = errors.New("contact address already registered")
	ErrInvalidAddress = errors.New("contact address is not valid")

	// Verification failures.
	ErrCodeEmpty       = errors.New("verification code is empty")
	ErrCodeIncorrect   = errors.New("verification code incorrect")
	ErrNoCodeGenerated = errors.New("no verification code generated")

	// Second factor management.
	ErrSecondFactorNotSetup  = errors.New("second factor not set up")
	ErrSecondFactorConfirmed = errors.New("second factor already confirmed")
)

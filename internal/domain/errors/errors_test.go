package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{
		ErrNotFound,
		ErrPasswordIncorrect,
		ErrMaxAttempts,
		ErrAdminLocked,
		ErrUnverifiedEmail,
		ErrUnverifiedPhone,
		ErrInvalidOneTimeCode,
		ErrAddressTaken,
		ErrCodeEmpty,
		ErrCodeIncorrect,
		ErrNoCodeGenerated,
		ErrSecondFactorNotSetup,
		ErrSecondFactorConfirmed,
	}
	seen := make(map[error]bool, len(all))
	for _, err := range all {
		assert.NotNil(t, err)
		assert.False(t, seen[err], "duplicate sentinel: %v", err)
		seen[err] = true
	}
}

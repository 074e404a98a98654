package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

func testPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 3, LockDuration: 10 * time.Second}
}

func TestDecide(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(5 * time.Second)
	past := now.Add(-5 * time.Second)
	policy := testPolicy()

	tests := []struct {
		name  string
		creds Credentials
		want  error
	}{
		{"fresh account", Credentials{}, nil},
		{"under threshold", Credentials{LoginAttempts: 2}, nil},
		{"active lock", Credentials{LoginAttempts: 3, LockUntil: &future}, domerrors.ErrMaxAttempts},
		{"expired lock", Credentials{LoginAttempts: 3, LockUntil: &past}, nil},
		{"admin locked", Credentials{AdminLocked: true}, domerrors.ErrAdminLocked},
		{"admin lock beats timed lock", Credentials{AdminLocked: true, LockUntil: &future}, domerrors.ErrAdminLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Decide(tt.creds, now))
		})
	}
}

func TestApplyFailureLocksAtThreshold(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := testPolicy()

	creds := Credentials{}
	creds = policy.Apply(creds, now, AttemptFailure)
	assert.Equal(t, 1, creds.LoginAttempts)
	assert.Nil(t, creds.LockUntil)

	creds = policy.Apply(creds, now, AttemptFailure)
	assert.Equal(t, 2, creds.LoginAttempts)
	assert.Nil(t, creds.LockUntil)

	creds = policy.Apply(creds, now, AttemptFailure)
	assert.Equal(t, 3, creds.LoginAttempts)
	require.NotNil(t, creds.LockUntil)
	assert.Equal(t, now.Add(policy.LockDuration), *creds.LockUntil)
	assert.Equal(t, LockStateLocked, policy.State(creds, now))
}

func TestApplyFailureDuringActiveLock(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(8 * time.Second)
	policy := testPolicy()
	creds := Credentials{LoginAttempts: 3, LockUntil: &until}

	// Counter keeps counting while locked; the window itself stays put.
	next := policy.Apply(creds, now, AttemptFailure)
	assert.Equal(t, 4, next.LoginAttempts)
	require.NotNil(t, next.LockUntil)
	assert.Equal(t, until, *next.LockUntil)

	// With RelockOnAttempt the window is pushed out instead.
	policy.RelockOnAttempt = true
	next = policy.Apply(creds, now, AttemptFailure)
	require.NotNil(t, next.LockUntil)
	assert.Equal(t, now.Add(policy.LockDuration), *next.LockUntil)
}

func TestApplyFailureAfterExpiredLockRestartsCount(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	policy := testPolicy()
	creds := Credentials{LoginAttempts: 5, LockUntil: &past}

	next := policy.Apply(creds, now, AttemptFailure)
	assert.Equal(t, 1, next.LoginAttempts)
	assert.Nil(t, next.LockUntil)
}

func TestApplySuccessResets(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	policy := testPolicy()
	creds := Credentials{LoginAttempts: 7, LockUntil: &future, LastLoginIP: "10.0.0.1"}

	next := policy.Apply(creds, now, AttemptSuccess)
	assert.Equal(t, 0, next.LoginAttempts)
	assert.Nil(t, next.LockUntil)
	assert.Equal(t, "10.0.0.1", next.LastLoginIP)
}

func TestApplyIgnoresOutcomeWhenAdminLocked(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := testPolicy()
	creds := Credentials{AdminLocked: true, LoginAttempts: 2}

	assert.Equal(t, creds, policy.Apply(creds, now, AttemptFailure))
	assert.Equal(t, creds, policy.Apply(creds, now, AttemptSuccess))
}

func TestUnlockClearsTimedLockOnly(t *testing.T) {
	future := time.Now().Add(time.Minute)
	policy := testPolicy()
	creds := Credentials{LoginAttempts: 3, LockUntil: &future, AdminLocked: true}

	next := policy.Unlock(creds)
	assert.Equal(t, 0, next.LoginAttempts)
	assert.Nil(t, next.LockUntil)
	assert.True(t, next.AdminLocked)
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/persistence/memory"
)

// fakeHasher avoids Argon2 cost in use-case tests.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (fakeHasher) Verify(password, hash string) (bool, error) {
	return hash == "hash:"+password, nil
}

var testPolicy = domain.LockoutPolicy{
	MaxAttempts:  3,
	LockDuration: 2 * time.Hour,
}

func newPerson(t *testing.T, store *memory.Store, email string, verified bool) *domain.Person {
	t.Helper()
	reg := NewRegister(store, fakeHasher{})
	result, err := reg.Execute(context.Background(), RegisterInput{
		Email:    email,
		Password: "correct horse",
	})
	require.NoError(t, err)
	if verified {
		_, err := store.UpdateChannel(context.Background(), email, func(c domain.ContactChannel) (domain.ContactChannel, error) {
			c.Verified = true
			return c, nil
		})
		require.NoError(t, err)
	}
	return result.Person
}

func newAuthenticate(store *memory.Store, requireVerified bool) *Authenticate {
	return NewAuthenticate(store, fakeHasher{}, testPolicy, requireVerified)
}

func TestAuthenticateSuccess(t *testing.T) {
	store := memory.NewStore()
	person := newPerson(t, store, "a@example.com", false)
	uc := newAuthenticate(store, false)

	result, err := uc.Execute(context.Background(), AuthenticateInput{
		Address:  "a@example.com",
		Password: "correct horse",
		ClientIP: "203.0.113.9",
	})
	require.NoError(t, err)
	assert.Equal(t, person.ID, result.Person.ID)
	assert.Equal(t, "203.0.113.9", result.Person.Login.LastLoginIP)

	stored, err := store.GetByID(context.Background(), person.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Login.LoginAttempts)
	assert.Equal(t, "203.0.113.9", stored.Login.LastLoginIP)
}

func TestAuthenticateUnknownAddress(t *testing.T) {
	uc := newAuthenticate(memory.NewStore(), false)
	_, err := uc.Execute(context.Background(), AuthenticateInput{Address: "missing@example.com", Password: "x"})
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}

func TestAuthenticateLocksAtThreshold(t *testing.T) {
	store := memory.NewStore()
	person := newPerson(t, store, "a@example.com", false)
	uc := newAuthenticate(store, false)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		_, err := uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, domerrors.ErrPasswordIncorrect, "attempt %d", i)
	}
	// The attempt that crosses the threshold reports the lock, not the
	// password mismatch.
	_, err := uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domerrors.ErrMaxAttempts)

	stored, err := store.GetByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Login.LoginAttempts)
	require.NotNil(t, stored.Login.LockUntil)

	// The correct password is also denied while locked, and the attempt is
	// still counted.
	_, err = uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domerrors.ErrMaxAttempts)
	stored, err = store.GetByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Login.LoginAttempts)
}

func TestAuthenticateAfterLockExpiry(t *testing.T) {
	store := memory.NewStore()
	person := newPerson(t, store, "a@example.com", false)
	uc := newAuthenticate(store, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "wrong"})
	}
	stored, err := store.GetByID(ctx, person.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Login.LockUntil)

	uc.now = func() time.Time { return stored.Login.LockUntil.Add(time.Minute) }

	// A wrong password after expiry restarts the count at 1.
	_, err = uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domerrors.ErrPasswordIncorrect)
	after, err := store.GetByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Login.LoginAttempts)
	assert.Nil(t, after.Login.LockUntil)

	// The correct password now succeeds and clears the counter.
	result, err := uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Person.Login.LoginAttempts)
}

func TestAuthenticateAdminLocked(t *testing.T) {
	store := memory.NewStore()
	person := newPerson(t, store, "a@example.com", false)
	ctx := context.Background()
	require.NoError(t, NewSetAdminLock(store).Execute(ctx, "a@example.com", true))

	uc := newAuthenticate(store, false)
	_, err := uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domerrors.ErrAdminLocked)

	// The denial does not touch the counter.
	stored, err := store.GetByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Login.LoginAttempts)
}

func TestAuthenticateRequiresVerifiedChannel(t *testing.T) {
	store := memory.NewStore()
	newPerson(t, store, "a@example.com", false)
	uc := newAuthenticate(store, true)
	ctx := context.Background()

	_, err := uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domerrors.ErrUnverifiedEmail)

	_, err = store.UpdateChannel(ctx, "a@example.com", func(c domain.ContactChannel) (domain.ContactChannel, error) {
		c.Verified = true
		return c, nil
	})
	require.NoError(t, err)
	_, err = uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "correct horse"})
	assert.NoError(t, err)
}

func TestAuthenticateUnverifiedPhone(t *testing.T) {
	store := memory.NewStore()
	reg := NewRegister(store, fakeHasher{})
	_, err := reg.Execute(context.Background(), RegisterInput{
		Email:        "a@example.com",
		PhoneCountry: "1",
		PhoneNumber:  "+15550100",
		Password:     "correct horse",
	})
	require.NoError(t, err)

	uc := newAuthenticate(store, true)
	_, err = uc.Execute(context.Background(), AuthenticateInput{Address: "+15550100", Password: "correct horse"})
	assert.ErrorIs(t, err, domerrors.ErrUnverifiedPhone)
}

func TestAuthenticateSecondFactor(t *testing.T) {
	store := memory.NewStore()
	person := newPerson(t, store, "a@example.com", false)
	ctx := context.Background()

	setup := NewSetupSecondFactor(store, "test")
	setupResult, err := setup.Execute(ctx, "a@example.com")
	require.NoError(t, err)
	code, err := totp.GenerateCode(setupResult.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, NewConfirmSecondFactor(store).Execute(ctx, "a@example.com", code))

	uc := newAuthenticate(store, false)

	// Correct password without a code counts as a failed attempt.
	_, err = uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domerrors.ErrInvalidOneTimeCode)
	stored, err := store.GetByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Login.LoginAttempts)

	// With a fresh code it succeeds.
	code, err = totp.GenerateCode(setupResult.Secret, time.Now())
	require.NoError(t, err)
	result, err := uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "correct horse", OneTimeCode: code})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Person.Login.LoginAttempts)
}

func TestUnlock(t *testing.T) {
	store := memory.NewStore()
	person := newPerson(t, store, "a@example.com", false)
	uc := newAuthenticate(store, false)
	unlock := NewUnlock(store, testPolicy)
	ctx := context.Background()

	// Unlocking an open account is a no-op success.
	assert.NoError(t, unlock.Execute(ctx, "a@example.com"))

	for i := 0; i < 3; i++ {
		_, _ = uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "wrong"})
	}
	stored, err := store.GetByID(ctx, person.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Login.LockUntil)

	require.NoError(t, unlock.Execute(ctx, "a@example.com"))
	stored, err = store.GetByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Login.LockUntil)
	assert.Equal(t, 0, stored.Login.LoginAttempts)

	_, err = uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "correct horse"})
	assert.NoError(t, err)
}

func TestUnlockDoesNotClearAdminLock(t *testing.T) {
	store := memory.NewStore()
	newPerson(t, store, "a@example.com", false)
	ctx := context.Background()
	require.NoError(t, NewSetAdminLock(store).Execute(ctx, "a@example.com", true))

	// The admin lock is not a timed lock; unlock reports success without
	// touching it.
	require.NoError(t, NewUnlock(store, testPolicy).Execute(ctx, "a@example.com"))
	uc := newAuthenticate(store, false)
	_, err := uc.Execute(ctx, AuthenticateInput{Address: "a@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domerrors.ErrAdminLocked)
}

func TestUnlockUnknownAddress(t *testing.T) {
	err := NewUnlock(memory.NewStore(), testPolicy).Execute(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	reg := NewRegister(memory.NewStore(), fakeHasher{})
	_, err := reg.Execute(context.Background(), RegisterInput{Email: "not-an-email", Password: "pw"})
	assert.ErrorIs(t, err, domerrors.ErrInvalidAddress)
}

func TestRegisterDuplicateAddress(t *testing.T) {
	store := memory.NewStore()
	newPerson(t, store, "a@example.com", false)
	reg := NewRegister(store, fakeHasher{})
	_, err := reg.Execute(context.Background(), RegisterInput{Email: "a@example.com", Password: "pw"})
	assert.ErrorIs(t, err, domerrors.ErrAddressTaken)
}

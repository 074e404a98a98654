package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

func newPerson(t *testing.T, email string) *domain.Person {
	t.Helper()
	return &domain.Person{
		ID: domain.NewPersonID(uuid.New()),
		Channels: []domain.ContactChannel{
			{ID: uuid.New(), Kind: domain.ChannelEmail, Address: email},
		},
		Login: domain.Credentials{PasswordHash: "$argon2id$..."},
	}
}

func TestCreateEnforcesAddressUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Create(ctx, newPerson(t, "a@example.com")))
	err := store.Create(ctx, newPerson(t, "a@example.com"))
	assert.ErrorIs(t, err, domerrors.ErrAddressTaken)
}

func TestGetByAddressReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, newPerson(t, "a@example.com")))

	p1, err := store.GetByAddress(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, p1)
	p1.Login.LoginAttempts = 99

	p2, err := store.GetByAddress(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, p2.Login.LoginAttempts)

	missing, err := store.GetByAddress(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateCredentialsFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newPerson(t, "a@example.com")
	require.NoError(t, store.Create(ctx, p))

	_, err := store.UpdateCredentials(ctx, p.ID, func(c domain.Credentials) (domain.Credentials, error) {
		c.LoginAttempts = 5
		return c, domerrors.ErrAdminLocked
	})
	assert.ErrorIs(t, err, domerrors.ErrAdminLocked)

	got, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Login.LoginAttempts)
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newPerson(t, "a@example.com")
	require.NoError(t, store.Create(ctx, p))

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.UpdateCredentials(ctx, p.ID, func(c domain.Credentials) (domain.Credentials, error) {
				c.LoginAttempts++
				return c, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.Login.LoginAttempts)
}

func TestConcurrentCodeConsumptionSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newPerson(t, "a@example.com")
	code := "ABC123"
	now := time.Now()
	p.Channels[0].Code = &code
	p.Channels[0].CodeIssuedAt = &now
	require.NoError(t, store.Create(ctx, p))

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.UpdateChannel(ctx, "a@example.com", func(c domain.ContactChannel) (domain.ContactChannel, error) {
				if c.Code == nil {
					return c, domerrors.ErrNoCodeGenerated
				}
				c.Verified = true
				c.Code = nil
				c.CodeIssuedAt = nil
				return c, nil
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

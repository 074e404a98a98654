package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/application/retention"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/persistence/memory"
	"github.com/hongkongkiwi/know-your-people/internal/infrastructure/security"
)

// recordingEnqueuer captures enqueued deliveries.
type recordingEnqueuer struct {
	kinds     []domain.ChannelKind
	addresses []string
	codes     []string
	err       error
}

func (r *recordingEnqueuer) EnqueueDeliverCode(_ context.Context, kind domain.ChannelKind, address, code string) error {
	r.kinds = append(r.kinds, kind)
	r.addresses = append(r.addresses, address)
	r.codes = append(r.codes, code)
	return r.err
}

var _ ports.TaskEnqueuer = (*recordingEnqueuer)(nil)

var testSettings = CodeSettings{EmailLength: 64, SMSLength: 5}

func seedPerson(t *testing.T, store *memory.Store) {
	t.Helper()
	now := time.Now()
	err := store.Create(context.Background(), &domain.Person{
		ID: domain.NewPersonID(uuid.New()),
		Channels: []domain.ContactChannel{
			{ID: uuid.New(), Kind: domain.ChannelEmail, Address: "a@example.com"},
			{ID: uuid.New(), Kind: domain.ChannelPhone, Country: "1", Address: "+15550100"},
		},
		Login:     domain.Credentials{PasswordHash: "x"},
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
}

func TestIssueCodeShapes(t *testing.T) {
	store := memory.NewStore()
	seedPerson(t, store)
	enq := &recordingEnqueuer{}
	uc := NewIssueCode(store, security.NewCodeGenerator(), enq, testSettings)
	ctx := context.Background()

	emailResult, err := uc.Execute(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelEmail, emailResult.Kind)
	assert.Len(t, emailResult.Code, 64)

	smsResult, err := uc.Execute(ctx, "+15550100")
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelPhone, smsResult.Kind)
	assert.Len(t, smsResult.Code, 5)
	for _, r := range smsResult.Code {
		assert.Contains(t, "0123456789", string(r))
	}

	require.Equal(t, []string{"a@example.com", "+15550100"}, enq.addresses)
	assert.Equal(t, []string{emailResult.Code, smsResult.Code}, enq.codes)
}

func TestIssueCodeUnknownAddress(t *testing.T) {
	uc := NewIssueCode(memory.NewStore(), security.NewCodeGenerator(), &recordingEnqueuer{}, testSettings)
	_, err := uc.Execute(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
}

func TestIssueCodeSurvivesEnqueueFailure(t *testing.T) {
	store := memory.NewStore()
	seedPerson(t, store)
	enq := &recordingEnqueuer{err: assert.AnError}
	uc := NewIssueCode(store, security.NewCodeGenerator(), enq, testSettings)

	result, err := uc.Execute(context.Background(), "a@example.com")
	require.NoError(t, err)

	// The code is persisted despite the failed enqueue and still verifies.
	verify := NewVerifyCode(store)
	assert.NoError(t, verify.Execute(context.Background(), "a@example.com", result.Code))
}

func TestVerifyCode(t *testing.T) {
	store := memory.NewStore()
	seedPerson(t, store)
	issue := NewIssueCode(store, security.NewCodeGenerator(), &recordingEnqueuer{}, testSettings)
	verify := NewVerifyCode(store)
	ctx := context.Background()

	assert.ErrorIs(t, verify.Execute(ctx, "a@example.com", ""), domerrors.ErrCodeEmpty)
	assert.ErrorIs(t, verify.Execute(ctx, "a@example.com", "anything"), domerrors.ErrNoCodeGenerated)

	result, err := issue.Execute(ctx, "a@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, verify.Execute(ctx, "a@example.com", "wrong"), domerrors.ErrCodeIncorrect)
	require.NoError(t, verify.Execute(ctx, "a@example.com", result.Code))

	person, err := store.GetByAddress(ctx, "a@example.com")
	require.NoError(t, err)
	ch, ok := person.Channel("a@example.com")
	require.True(t, ok)
	assert.True(t, ch.Verified)
	assert.Nil(t, ch.Code)

	// Consumption is one-shot: the same code no longer verifies.
	assert.ErrorIs(t, verify.Execute(ctx, "a@example.com", result.Code), domerrors.ErrNoCodeGenerated)
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	store := memory.NewStore()
	seedPerson(t, store)
	issue := NewIssueCode(store, security.NewCodeGenerator(), &recordingEnqueuer{}, testSettings)
	verify := NewVerifyCode(store)
	ctx := context.Background()

	first, err := issue.Execute(ctx, "a@example.com")
	require.NoError(t, err)
	second, err := issue.Execute(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first.Code, second.Code)

	assert.ErrorIs(t, verify.Execute(ctx, "a@example.com", first.Code), domerrors.ErrCodeIncorrect)
	assert.NoError(t, verify.Execute(ctx, "a@example.com", second.Code))
}

func TestCheckCode(t *testing.T) {
	store := memory.NewStore()
	seedPerson(t, store)
	issue := NewIssueCode(store, security.NewCodeGenerator(), &recordingEnqueuer{}, testSettings)
	check := NewCheckCode(store)
	ctx := context.Background()

	_, err := check.Execute(ctx, "")
	assert.ErrorIs(t, err, domerrors.ErrCodeEmpty)
	_, err = check.Execute(ctx, "nope")
	assert.ErrorIs(t, err, domerrors.ErrCodeIncorrect)

	result, err := issue.Execute(ctx, "+15550100")
	require.NoError(t, err)
	person, err := store.GetByAddress(ctx, "+15550100")
	require.NoError(t, err)

	id, err := check.Execute(ctx, result.Code)
	require.NoError(t, err)
	assert.Equal(t, person.ID, id)

	// Check does not consume: the code still verifies afterwards.
	assert.NoError(t, NewVerifyCode(store).Execute(ctx, "+15550100", result.Code))
}

func TestExpireStaleCodes(t *testing.T) {
	store := memory.NewStore()
	seedPerson(t, store)
	issue := NewIssueCode(store, security.NewCodeGenerator(), &recordingEnqueuer{}, testSettings)
	ctx := context.Background()

	past := time.Now().Add(-48 * time.Hour)
	issue.now = func() time.Time { return past }
	stale, err := issue.Execute(ctx, "a@example.com")
	require.NoError(t, err)

	issue.now = time.Now
	fresh, err := issue.Execute(ctx, "+15550100")
	require.NoError(t, err)

	n, err := retention.RunExpireStaleCodes(ctx, store, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	verify := NewVerifyCode(store)
	assert.ErrorIs(t, verify.Execute(ctx, "a@example.com", stale.Code), domerrors.ErrNoCodeGenerated)
	assert.NoError(t, verify.Execute(ctx, "+15550100", fresh.Code))

	// maxAge 0 disables the sweep.
	n, err = retention.RunExpireStaleCodes(ctx, store, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

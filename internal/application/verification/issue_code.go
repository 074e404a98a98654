package verification

import (
	"context"
	"time"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
	domerrors "github.com/hongkongkiwi/know-your-people/internal/domain/errors"
)

// CodeSettings is the per-channel shape of generated codes.
type CodeSettings struct {
	EmailLength int // alphanumeric
	SMSLength   int // digits
}

// IssueCodeResult is the issued code, returned so callers that deliver
// out-of-band (or tests) can see it.
type IssueCodeResult struct {
	Code     string
	Kind     domain.ChannelKind
	IssuedAt time.Time
}

// IssueCode generates a fresh verification code for a contact channel,
// replacing any previous one, and enqueues delivery. Only the newest code is
// ever valid.
type IssueCode struct {
	people   ports.PersonStore
	codes    ports.CodeGenerator
	enqueuer ports.TaskEnqueuer
	settings CodeSettings
	now      func() time.Time
}

// NewIssueCode builds the use case.
func NewIssueCode(people ports.PersonStore, codes ports.CodeGenerator, enqueuer ports.TaskEnqueuer, settings CodeSettings) *IssueCode {
	return &IssueCode{
		people:   people,
		codes:    codes,
		enqueuer: enqueuer,
		settings: settings,
		now:      time.Now,
	}
}

// Execute issues a code for the channel owning the address. Delivery is
// fire-and-forget: the code is persisted before the enqueue, and an enqueue
// failure does not undo issuance.
func (uc *IssueCode) Execute(ctx context.Context, address string) (*IssueCodeResult, error) {
	person, err := uc.people.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, domerrors.ErrNotFound
	}
	ch, ok := person.Channel(address)
	if !ok {
		return nil, domerrors.ErrNotFound
	}

	length, alphabet := uc.settings.EmailLength, ports.AlphabetAlphanumeric
	if ch.Kind == domain.ChannelPhone {
		length, alphabet = uc.settings.SMSLength, ports.AlphabetDigits
	}
	code, err := uc.codes.Generate(length, alphabet)
	if err != nil {
		return nil, err
	}

	issuedAt := uc.now()
	if _, err := uc.people.UpdateChannel(ctx, address, func(c domain.ContactChannel) (domain.ContactChannel, error) {
		c.Code = &code
		c.CodeIssuedAt = &issuedAt
		return c, nil
	}); err != nil {
		return nil, err
	}

	_ = uc.enqueuer.EnqueueDeliverCode(ctx, ch.Kind, address, code)
	return &IssueCodeResult{Code: code, Kind: ch.Kind, IssuedAt: issuedAt}, nil
}

package ports

import (
	"context"

	"github.com/hongkongkiwi/know-your-people/internal/domain"
)

// CodeSender delivers a verification code over one transport (SMS, email).
type CodeSender interface {
	Send(ctx context.Context, kind domain.ChannelKind, address, code string) error
}

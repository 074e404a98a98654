package delivery

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
)

// LogSender writes codes to the log instead of delivering them. Used in
// development and as the email sender until an SMTP provider is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, kind domain.ChannelKind, address, code string) error {
	s.log.Info().
		Str("kind", string(kind)).
		Str("address", address).
		Str("code", code).
		Msg("verification code (log-only delivery)")
	return nil
}

var _ ports.CodeSender = (*LogSender)(nil)

package queue

import (
	"context"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
)

// NoopEnqueuer is a no-op enqueuer for when Redis/Asynq is not configured.
// Issued codes are still persisted and verifiable; they just are not
// delivered.
type NoopEnqueuer struct{}

func NewNoopEnqueuer() *NoopEnqueuer {
	return &NoopEnqueuer{}
}

func (q *NoopEnqueuer) EnqueueDeliverCode(ctx context.Context, kind domain.ChannelKind, address, code string) error {
	return nil
}

var _ ports.TaskEnqueuer = (*NoopEnqueuer)(nil)

package ports

import (
	"context"

	"github.com/hongkongkiwi/know-your-people/internal/domain"
)

// TaskEnqueuer enqueues async tasks (code delivery). Enqueueing is
// fire-and-forget relative to code issuance: issuance succeeds and is
// persisted even when the enqueue or the delivery behind it fails, since a
// retried delivery of the same stored code must remain valid.
type TaskEnqueuer interface {
	EnqueueDeliverCode(ctx context.Context, kind domain.ChannelKind, address, code string) error
}

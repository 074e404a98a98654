package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
)

const TypeDeliverCode = "verification:deliver_code"

// deliverCodePayload is the JSON carried by a TypeDeliverCode task.
type deliverCodePayload struct {
	Kind    string `json:"kind"`
	Address string `json:"address"`
	Code    string `json:"code"`
}

// TaskEnqueuer implements ports.TaskEnqueuer on Asynq.
type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) *TaskEnqueuer {
	return &TaskEnqueuer{client: asynq.NewClient(redisOpt), log: log}
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueDeliverCode(ctx context.Context, kind domain.ChannelKind, address, code string) error {
	payload, _ := json.Marshal(deliverCodePayload{
		Kind:    string(kind),
		Address: address,
		Code:    code,
	})
	task := asynq.NewTask(TypeDeliverCode, payload)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("address", address).Msg("enqueue code delivery failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)

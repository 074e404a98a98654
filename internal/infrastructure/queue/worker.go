package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
	"github.com/hongkongkiwi/know-your-people/internal/domain"
)

// Worker runs Asynq task handlers (code delivery). A failed delivery is
// retried by Asynq against the same stored code, which stays valid until
// consumed or reissued.
type Worker struct {
	srv   *asynq.Server
	mux   *asynq.ServeMux
	sms   ports.CodeSender
	email ports.CodeSender
	log   zerolog.Logger
}

// NewWorker creates an Asynq server and registers handlers. Call Run() to
// start. Either sender may be nil; tasks for that transport are logged and
// dropped.
func NewWorker(redisOpt asynq.RedisClientOpt, sms, email ports.CodeSender, log zerolog.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		LogLevel:    asynq.InfoLevel,
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, sms: sms, email: email, log: log}
	mux.HandleFunc(TypeDeliverCode, w.handleDeliverCode)
	return w
}

func (w *Worker) handleDeliverCode(ctx context.Context, t *asynq.Task) error {
	var p deliverCodePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("deliver code task payload invalid")
		return err
	}
	sender := w.email
	if domain.ChannelKind(p.Kind) == domain.ChannelPhone {
		sender = w.sms
	}
	if sender == nil {
		w.log.Warn().Str("kind", p.Kind).Str("address", p.Address).Msg("no sender configured; dropping code delivery")
		return nil
	}
	if err := sender.Send(ctx, domain.ChannelKind(p.Kind), p.Address, p.Code); err != nil {
		w.log.Warn().Err(err).Str("address", p.Address).Msg("code delivery failed; asynq will retry")
		return err
	}
	return nil
}

// Run blocks until shutdown. Use Shutdown for graceful stop.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the worker.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

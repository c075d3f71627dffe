package push

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	QueueName    = "push"
	DLXExchange  = "push.dlx"
	DLQQueueName = "push.dlq"
)

// Batch is one queued chunk. ID keys the consumer's redelivery guard.
type Batch struct {
	ID       uuid.UUID `json:"id"`
	Messages []Message `json:"messages"`
}

type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueDispatcher hands chunks to RabbitMQ for the push worker instead of
// calling the delivery network inline.
type QueueDispatcher struct {
	pub       Publisher
	chunkSize int
	log       *slog.Logger
}

func NewQueueDispatcher(pub Publisher, chunkSize int, log *slog.Logger) *QueueDispatcher {
	return &QueueDispatcher{pub: pub, chunkSize: chunkSize, log: log}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, msgs []Message) Result {
	valid, skipped := filterValid(msgs, d.log)
	res := Result{Skipped: skipped}

	for i, chunk := range Chunk(valid, d.chunkSize) {
		body, err := json.Marshal(Batch{ID: uuid.New(), Messages: chunk})
		if err != nil {
			d.log.Warn("encode push batch", "chunk", i, "error", err)
			res.FailedChunks++
			continue
		}
		err = d.pub.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		})
		if err != nil {
			d.log.Warn("enqueue push batch", "chunk", i, "error", err)
			res.FailedChunks++
			continue
		}
		res.Queued += len(chunk)
	}
	return res
}

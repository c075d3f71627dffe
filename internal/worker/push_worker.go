package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/holohaven-api/internal/push"
)

const deliveredTTL = 24 * time.Hour

func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(push.DLXExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(push.DLQQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(push.DLQQueueName, push.QueueName, push.DLXExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(push.QueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    push.DLXExchange,
		"x-dead-letter-routing-key": push.QueueName,
	}); err != nil {
		return fmt.Errorf("declare push queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

// DeliveryGuard remembers which batches were already handed to the
// delivery network so a redelivered message is not sent twice.
type DeliveryGuard interface {
	Seen(ctx context.Context, batchID string) (bool, error)
	Mark(ctx context.Context, batchID string) error
}

type redisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) DeliveryGuard {
	return &redisGuard{client: client}
}

func (g *redisGuard) Seen(ctx context.Context, batchID string) (bool, error) {
	n, err := g.client.Exists(ctx, "push_delivered:"+batchID).Result()
	if err != nil {
		return false, fmt.Errorf("check delivered key: %w", err)
	}
	return n > 0, nil
}

func (g *redisGuard) Mark(ctx context.Context, batchID string) error {
	if err := g.client.Set(ctx, "push_delivered:"+batchID, "1", deliveredTTL).Err(); err != nil {
		return fmt.Errorf("set delivered key: %w", err)
	}
	return nil
}

type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type PushWorker struct {
	channel    Consumer
	dispatcher push.Dispatcher
	guard      DeliveryGuard
	log        *slog.Logger
	done       chan struct{}
}

func NewPushWorker(ch Consumer, dispatcher push.Dispatcher, guard DeliveryGuard, log *slog.Logger) *PushWorker {
	return &PushWorker{
		channel:    ch,
		dispatcher: dispatcher,
		guard:      guard,
		log:        log,
		done:       make(chan struct{}),
	}
}

func (w *PushWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(push.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("push worker started")
	return nil
}

func (w *PushWorker) Stop() { close(w.done) }

func (w *PushWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var batch push.Batch
	if err := json.Unmarshal(msg.Body, &batch); err != nil {
		w.log.Error("unmarshal push batch", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("batch_id", batch.ID, "size", len(batch.Messages))

	seen, err := w.guard.Seen(ctx, batch.ID.String())
	if err != nil {
		log.Error("check delivery guard", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("batch already delivered, skipping")
		_ = msg.Ack(false)
		return
	}

	res := w.dispatcher.Dispatch(ctx, batch.Messages)
	if res.FailedChunks > 0 && res.Sent == 0 {
		log.Error("push batch failed", "skipped", res.Skipped)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	if err := w.guard.Mark(ctx, batch.ID.String()); err != nil {
		log.Error("mark batch delivered", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("push batch delivered", "sent", res.Sent, "skipped", res.Skipped)
}

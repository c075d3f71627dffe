package push

import (
	"context"
	"log/slog"
	"time"
)

type TokenToucher interface {
	TouchPushTokens(ctx context.Context, tokens []string, at time.Time) error
}

type Result struct {
	Sent         int
	Skipped      int
	FailedChunks int
	Queued       int
}

// Dispatcher is what the fan-out calls. Implementations never return an
// error: failures end up in the Result and the log.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []Message) Result
}

type BatchDispatcher struct {
	sender    Sender
	toucher   TokenToucher
	chunkSize int
	log       *slog.Logger
	now       func() time.Time
}

func NewBatchDispatcher(sender Sender, toucher TokenToucher, chunkSize int, log *slog.Logger) *BatchDispatcher {
	return &BatchDispatcher{sender: sender, toucher: toucher, chunkSize: chunkSize, log: log, now: time.Now}
}

func (d *BatchDispatcher) Dispatch(ctx context.Context, msgs []Message) Result {
	valid, skipped := filterValid(msgs, d.log)
	res := Result{Skipped: skipped}

	for i, chunk := range Chunk(valid, d.chunkSize) {
		tickets, err := d.sender.Send(ctx, chunk)
		if err != nil {
			d.log.Warn("push chunk failed", "chunk", i, "size", len(chunk), "error", err)
			res.FailedChunks++
			continue
		}
		delivered := make([]string, 0, len(tickets))
		for _, t := range tickets {
			if !t.OK() {
				d.log.Warn("push ticket rejected", "token", t.Token, "message", t.Message)
				continue
			}
			delivered = append(delivered, t.Token)
		}
		res.Sent += len(delivered)

		if d.toucher != nil && len(delivered) > 0 {
			if err := d.toucher.TouchPushTokens(ctx, delivered, d.now()); err != nil {
				d.log.Warn("touch push tokens", "error", err)
			}
		}
	}
	return res
}

// filterValid drops messages addressed to malformed tokens. The tokens stay
// stored; only the sweeper removes them.
func filterValid(msgs []Message, log *slog.Logger) ([]Message, int) {
	valid := make([]Message, 0, len(msgs))
	skipped := 0
	for _, m := range msgs {
		if !IsValidToken(m.To) {
			log.Warn("skipping invalid push token", "token", m.To)
			skipped++
			continue
		}
		valid = append(valid, m)
	}
	return valid, skipped
}

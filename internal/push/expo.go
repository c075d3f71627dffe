package push

import (
	"context"
	"fmt"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

type ExpoSender struct {
	client *expo.PushClient
}

func NewExpoSender(cfg *expo.ClientConfig) *ExpoSender {
	return &ExpoSender{client: expo.NewPushClient(cfg)}
}

func (s *ExpoSender) Send(ctx context.Context, msgs []Message) ([]Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batch := make([]expo.PushMessage, 0, len(msgs))
	for _, m := range msgs {
		batch = append(batch, expo.PushMessage{
			To:    []expo.ExponentPushToken{expo.ExponentPushToken(m.To)},
			Title: m.Title,
			Body:  m.Body,
			Data:  m.Data,
			Sound: m.Sound,
		})
	}

	responses, err := s.client.PublishMultiple(batch)
	if err != nil {
		return nil, fmt.Errorf("publish to expo: %w", err)
	}

	tickets := make([]Ticket, 0, len(responses))
	for i, resp := range responses {
		t := Ticket{ID: resp.ID, Status: resp.Status, Message: resp.Message}
		if i < len(msgs) {
			t.Token = msgs[i].To
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

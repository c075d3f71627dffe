// Package push delivers device notifications through the Expo push service.
// A failed chunk never aborts the chunks after it.
package push

import (
	"context"
	"regexp"
	"strings"
)

// MaxChunkSize is the largest batch Expo accepts in one request.
const MaxChunkSize = 100

type Message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

type Ticket struct {
	Token   string
	ID      string
	Status  string
	Message string
}

func (t Ticket) OK() bool { return t.Status == "ok" }

type Sender interface {
	Send(ctx context.Context, msgs []Message) ([]Ticket, error)
}

var uuidToken = regexp.MustCompile(`(?i)^[a-z\d]{8}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{4}-[a-z\d]{12}$`)

// IsValidToken applies Expo's push token format rules.
func IsValidToken(token string) bool {
	if (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]") {
		return true
	}
	return uuidToken.MatchString(token)
}

func Chunk(msgs []Message, size int) [][]Message {
	if size <= 0 || size > MaxChunkSize {
		size = MaxChunkSize
	}
	var chunks [][]Message
	for start := 0; start < len(msgs); start += size {
		end := min(start+size, len(msgs))
		chunks = append(chunks, msgs[start:end])
	}
	return chunks
}

func Fanout(tokens []string, title, body string, data map[string]string) []Message {
	msgs := make([]Message, 0, len(tokens))
	for _, t := range tokens {
		msgs = append(msgs, Message{To: t, Title: title, Body: body, Data: data, Sound: "default"})
	}
	return msgs
}

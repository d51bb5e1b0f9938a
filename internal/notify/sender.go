package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// ErrNoRecipient is returned when the destination number is blank.
var ErrNoRecipient = errors.New("notify: recipient is required")

// SMSSender delivers a text message and returns the provider message id.
type SMSSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// NopSender logs messages instead of delivering them.
type NopSender struct {
	Logger zerolog.Logger
}

// Send implements SMSSender.
func (n NopSender) Send(_ context.Context, to, body string) (string, error) {
	if strings.TrimSpace(to) == "" {
		return "", ErrNoRecipient
	}
	n.Logger.Info().Str("to", to).Int("length", len(body)).Msg("sms_skipped")
	return "", nil
}

// Message is one message captured by InMemory.
type Message struct {
	To   string
	Body string
}

// InMemory records messages, for tests and local runs.
type InMemory struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, fails every send.
	Err error
}

// Send implements SMSSender.
func (m *InMemory) Send(_ context.Context, to, body string) (string, error) {
	if strings.TrimSpace(to) == "" {
		return "", ErrNoRecipient
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.messages = append(m.messages, Message{To: to, Body: body})
	return fmt.Sprintf("mem-%d", len(m.messages)), nil
}

// Messages returns a copy of everything sent so far.
func (m *InMemory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

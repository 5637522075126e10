// Package mailer delivers transactional email (OTP codes, order confirmations).
package mailer

import (
	"context"
	"log/slog"
	"sync"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. Used when SMTP is not configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (LogMailer) Send(_ context.Context, msg Message) error {
	// Bodies carry sign-in codes; keep them out of the logs.
	slog.Info("email not sent (smtp disabled)", "to", msg.To, "subject", msg.Subject, "body_bytes", len(msg.Body))
	return nil
}

// MemoryMailer records messages; tests read them back through Sent.
type MemoryMailer struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MemoryMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Last returns the most recent message, or false when nothing was sent.
func (m *MemoryMailer) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return Message{}, false
	}
	return m.messages[len(m.messages)-1], true
}

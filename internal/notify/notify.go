// Package notify delivers the "new contact submission" email.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("notify: email not configured")

// Message is a rendered notification.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Mailer sends one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Disabled is the Mailer used in production when no SMTP credentials exist.
type Disabled struct{}

// Send always returns ErrNotConfigured.
func (Disabled) Send(context.Context, Message) error { return ErrNotConfigured }

// Mailbox is a disposable in-process mailbox used during local development
// when no SMTP credentials are configured. Delivered messages are logged and
// kept in memory, newest last, up to the capacity.
type Mailbox struct {
	logger   *slog.Logger
	capacity int

	mu       sync.Mutex
	messages []Message
}

// NewMailbox creates a Mailbox holding at most capacity messages.
func NewMailbox(logger *slog.Logger, capacity int) *Mailbox {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = 50
	}
	return &Mailbox{logger: logger, capacity: capacity}
}

// Send stores msg.
func (m *Mailbox) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	if over := len(m.messages) - m.capacity; over > 0 {
		m.messages = append(m.messages[:0:0], m.messages[over:]...)
	}
	m.mu.Unlock()

	m.logger.Info("email delivered to local mailbox",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// Messages returns a copy of the stored messages.
func (m *Mailbox) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

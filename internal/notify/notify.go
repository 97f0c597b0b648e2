package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tartampluch/drem/internal/config"
)

// Attachment is a file sent along with a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a rendered summary mail.
type Message struct {
	From        string
	To          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Validate checks the fields every Notifier needs.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return errors.New(config.ErrNoRecipients)
	}
	return nil
}

// Notifier delivers a Message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier logs the message instead of sending it. Used for dry runs.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, config.MsgDryRunMail,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeySubject, msg.Subject,
		config.LogKeyRecipients, msg.To,
		config.LogKeySizeBytes, len(msg.Text)+len(msg.HTML),
		config.LogKeyCount, len(msg.Attachments),
	)
	return nil
}

package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/tartampluch/drem/internal/config"
)

// mailClient is the subset of *sendgrid.Client used to deliver mail.
type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridNotifier sends messages through the SendGrid v3 API.
type SendGridNotifier struct {
	client mailClient
}

// NewSendGridNotifier authenticates with apiKey.
func NewSendGridNotifier(apiKey string) *SendGridNotifier {
	return &SendGridNotifier{client: sendgrid.NewSendClient(apiKey)}
}

// Send delivers msg. Any non-2xx status is an error.
func (n *SendGridNotifier) Send(ctx context.Context, msg Message) error {
	m, err := BuildMail(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrSendMail, err)
	}

	resp, err := n.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrSendMail, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %d: %s", config.ErrMailStatus, resp.StatusCode, resp.Body)
	}

	slog.InfoContext(ctx, config.MsgMailSent,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeySubject, msg.Subject,
		config.LogKeyRecipients, msg.To,
		config.LogKeyStatus, resp.StatusCode,
	)
	return nil
}

// BuildMail converts msg to a SendGrid v3 payload. All recipients share one
// personalization; the plain-text part precedes the HTML part as the API requires.
func BuildMail(msg Message) (*mail.SGMailV3, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	from, err := mail.ParseEmail(msg.From)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", config.ErrMailAddress, msg.From, err)
	}

	p := mail.NewPersonalization()
	for _, to := range msg.To {
		addr, err := mail.ParseEmail(to)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", config.ErrMailAddress, to, err)
		}
		p.AddTos(addr)
	}

	m := mail.NewV3Mail()
	m.SetFrom(from)
	m.Subject = msg.Subject
	m.AddPersonalizations(p)

	if msg.Text != "" {
		m.AddContent(mail.NewContent(config.MimeTextPlain, msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(mail.NewContent(config.MimeHTML, msg.HTML))
	}

	for _, a := range msg.Attachments {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Data))
		att.SetType(a.ContentType)
		att.SetFilename(a.Filename)
		att.SetDisposition(config.DispositionAttach)
		m.AddAttachment(att)
	}
	return m, nil
}

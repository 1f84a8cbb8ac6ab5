package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhillyerd/enmime"

	reporting "bptracker/internal/reporting/domain"
)

// MailConfig describes the fixed envelope of report e-mails.
type MailConfig struct {
	FromName    string
	FromAddress string
	To          []string
	Subject     string
	Body        string
}

// Transport yields an enmime sender bound to the caller's context.
type Transport interface {
	Sender(ctx context.Context) enmime.Sender
}

// Mailer attaches documents to a message and submits it once.
type Mailer struct {
	cfg       MailConfig
	transport Transport
}

// NewMailer validates the envelope and constructs a mailer.
func NewMailer(cfg MailConfig, transport Transport) (*Mailer, error) {
	if transport == nil {
		return nil, errors.New("delivery: nil transport")
	}
	if cfg.FromAddress == "" {
		return nil, errors.New("delivery: sender address required")
	}
	if len(cfg.To) == 0 {
		return nil, errors.New("delivery: recipient required")
	}
	if cfg.Subject == "" {
		return nil, errors.New("delivery: subject required")
	}
	return &Mailer{cfg: cfg, transport: transport}, nil
}

// Recipients returns the configured recipients.
func (m *Mailer) Recipients() []string {
	out := make([]string, len(m.cfg.To))
	copy(out, m.cfg.To)
	return out
}

// Send e-mails the document as an attachment. Transport errors are returned
// wrapped in ErrDeliveryFailed and are not retried.
func (m *Mailer) Send(ctx context.Context, doc reporting.Document) error {
	if m == nil {
		return errors.New("delivery: nil mailer")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	builder := enmime.Builder().
		From(m.cfg.FromName, m.cfg.FromAddress).
		Subject(m.cfg.Subject).
		Text([]byte(m.cfg.Body)).
		AddAttachment(doc.Bytes, doc.ContentType, doc.Filename)
	for _, to := range m.cfg.To {
		builder = builder.To("", to)
	}
	if err := builder.Send(m.transport.Sender(ctx)); err != nil {
		return fmt.Errorf("%w: %v", reporting.ErrDeliveryFailed, err)
	}
	return nil
}

package delivery

import (
	"context"
	"errors"
	"net"
	"net/smtp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/jhillyerd/enmime"
)

// SMTPTransport submits through an SMTP relay.
type SMTPTransport struct {
	sender *enmime.SMTPSender
}

// NewSMTPTransport uses PLAIN auth when a username is given.
func NewSMTPTransport(addr, username, password string) (*SMTPTransport, error) {
	if addr == "" {
		return nil, errors.New("delivery: smtp address required")
	}
	var auth smtp.Auth
	if username != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPTransport{sender: enmime.NewSMTP(addr, auth)}, nil
}

// Sender returns the SMTP sender; net/smtp does not take a context.
func (t *SMTPTransport) Sender(context.Context) enmime.Sender {
	return t.sender
}

// SESClient is the subset of the SES API used for raw sends.
type SESClient interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESTransport submits the encoded MIME message via SendRawEmail.
type SESTransport struct {
	client SESClient
}

// NewSESTransport loads the default AWS credential chain for region.
func NewSESTransport(ctx context.Context, region string) (*SESTransport, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewSESTransportWithClient(ses.NewFromConfig(cfg))
}

// NewSESTransportWithClient wraps an existing client.
func NewSESTransportWithClient(client SESClient) (*SESTransport, error) {
	if client == nil {
		return nil, errors.New("delivery: nil ses client")
	}
	return &SESTransport{client: client}, nil
}

// Sender binds ctx to the SES call.
func (t *SESTransport) Sender(ctx context.Context) enmime.Sender {
	return senderFunc(func(reversePath string, recipients []string, msg []byte) error {
		_, err := t.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
			Source:       aws.String(reversePath),
			Destinations: recipients,
			RawMessage:   &types.RawMessage{Data: msg},
		})
		return err
	})
}

type senderFunc func(reversePath string, recipients []string, msg []byte) error

func (f senderFunc) Send(reversePath string, recipients []string, msg []byte) error {
	return f(reversePath, recipients, msg)
}

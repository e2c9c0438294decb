// internal/infra/email/sendgrid_gateway.go
package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	domainEmail "vaccination_tracker/internal/domain/email"
)

// sendGridClient is the subset of *sendgrid.Client the gateway uses.
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridGateway delivers email through the SendGrid v3 API.
type SendGridGateway struct {
	client    sendGridClient
	fromEmail string
	fromName  string
	logger    *logrus.Entry
}

func NewSendGridGateway(apiKey, fromEmail, fromName string, logger *logrus.Entry) *SendGridGateway {
	return newSendGridGateway(sendgrid.NewSendClient(apiKey), fromEmail, fromName, logger)
}

func newSendGridGateway(client sendGridClient, fromEmail, fromName string, logger *logrus.Entry) *SendGridGateway {
	return &SendGridGateway{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger.WithField("component", "sendgrid_gateway"),
	}
}

func (g *SendGridGateway) Send(ctx context.Context, msg domainEmail.Message) error {
	from := mail.NewEmail(g.fromName, g.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToAddress)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := g.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.ToAddress, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email to %s: status %d: %s", msg.ToAddress, response.StatusCode, response.Body)
	}

	g.logger.WithFields(logrus.Fields{"to": msg.ToAddress, "subject": msg.Subject, "status": response.StatusCode}).Debug("Email accepted by SendGrid")
	return nil
}

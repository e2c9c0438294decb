// internal/infra/email/ses_gateway.go
package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"

	domainEmail "vaccination_tracker/internal/domain/email"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESGateway delivers email through Amazon SES.
type SESGateway struct {
	client    sesAPI
	fromEmail string
	fromName  string
	logger    *logrus.Entry
}

// NewSESGateway loads the default AWS credential chain for region.
func NewSESGateway(ctx context.Context, region, fromEmail, fromName string, logger *logrus.Entry) (*SESGateway, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newSESGateway(sesv2.NewFromConfig(cfg), fromEmail, fromName, logger), nil
}

func newSESGateway(client sesAPI, fromEmail, fromName string, logger *logrus.Entry) *SESGateway {
	return &SESGateway{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger.WithField("component", "ses_gateway"),
	}
}

func (g *SESGateway) Send(ctx context.Context, msg domainEmail.Message) error {
	fromAddress := g.fromEmail
	if g.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", g.fromName, g.fromEmail)
	}

	body := &types.Body{
		Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{msg.ToAddress},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}

	result, err := g.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.ToAddress, err)
	}

	g.logger.WithFields(logrus.Fields{
		"to":         msg.ToAddress,
		"subject":    msg.Subject,
		"message_id": aws.ToString(result.MessageId),
	}).Debug("Email accepted by SES")
	return nil
}

// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// messageSender is the part of *telebot.Bot the notifier needs.
type messageSender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// NewBot creates a long-polling bot. Handler errors are logged, not returned to the user.
func NewBot(token string, logger *logrus.Entry) (*telebot.Bot, error) {
	log := logger.WithField("component", "telebot")
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"text":      c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler failed")
		},
	}
	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("could not create telegram bot: %w", err)
	}
	return b, nil
}

// AdminNotifier delivers operator alerts as direct messages to the admin chat.
type AdminNotifier struct {
	sender  messageSender
	adminID int64
	logger  *logrus.Entry
}

func NewAdminNotifier(b *telebot.Bot, adminID int64, logger *logrus.Entry) *AdminNotifier {
	return newAdminNotifier(b, adminID, logger)
}

func newAdminNotifier(sender messageSender, adminID int64, logger *logrus.Entry) *AdminNotifier {
	return &AdminNotifier{
		sender:  sender,
		adminID: adminID,
		logger:  logger.WithField("component", "admin_notifier"),
	}
}

// Notify sends text to the admin. telebot has no context support, so ctx is only checked up front.
func (n *AdminNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recipient := &telebot.User{ID: n.adminID}
	if _, err := n.sender.Send(recipient, text, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
		n.logger.WithError(err).WithField("admin_id", n.adminID).Error("Failed to send alert to admin")
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}
	return nil
}

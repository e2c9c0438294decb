package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"vaccination_tracker/internal/app"
	"vaccination_tracker/internal/domain/reminder"
)

const msgUnauthorized = "Error: you are not allowed to run this command."

// Dispatcher is the subset of *app.DispatchService exposed to the operator.
type Dispatcher interface {
	RunSweep(ctx context.Context, t reminder.Type, now time.Time) (*app.SweepResult, error)
	PendingCounts(ctx context.Context) (map[reminder.Type]int, error)
}

// AdminHandlers serves the operator commands. Everything except /start is restricted to the admin.
type AdminHandlers struct {
	dispatcher   Dispatcher
	adminID      int64
	sweepTimeout time.Duration
	logger       *logrus.Entry
	now          func() time.Time
}

func NewAdminHandlers(dispatcher Dispatcher, adminID int64, sweepTimeout time.Duration, logger *logrus.Entry) *AdminHandlers {
	return &AdminHandlers{
		dispatcher:   dispatcher,
		adminID:      adminID,
		sweepTimeout: sweepTimeout,
		logger:       logger.WithField("component", "admin_handlers"),
		now:          time.Now,
	}
}

// commandFunc produces the reply text for one command.
type commandFunc func(ctx context.Context, senderID int64, args []string) string

// Register binds the commands to b. ctx bounds the lifetime of every handler.
func (h *AdminHandlers) Register(ctx context.Context, b *telebot.Bot) {
	b.Handle("/start", h.handler(ctx, "/start", false, h.Start))
	b.Handle("/help", h.handler(ctx, "/help", true, h.Help))
	b.Handle("/pending", h.handler(ctx, "/pending", true, h.Pending))
	b.Handle("/run_sweep", h.handler(ctx, "/run_sweep", true, h.RunSweep))
}

func (h *AdminHandlers) handler(ctx context.Context, name string, adminOnly bool, fn commandFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		log := h.logger.WithFields(logrus.Fields{
			"handler":   name,
			"sender_id": sender.ID,
		})
		log.Info("Command received")

		if adminOnly && !h.isAdmin(sender.ID) {
			log.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}
		return c.Send(fn(ctx, sender.ID, c.Args()))
	}
}

func (h *AdminHandlers) isAdmin(id int64) bool {
	return id == h.adminID
}

func (h *AdminHandlers) Start(_ context.Context, senderID int64, _ []string) string {
	if h.isAdmin(senderID) {
		return "Hello, admin. Reminder dispatch is running. Use /help to see the commands."
	}
	return "Hello! This bot is for the vaccination reminder operators only."
}

func (h *AdminHandlers) Help(context.Context, int64, []string) string {
	var b strings.Builder
	b.WriteString("Admin commands:\n\n")
	b.WriteString("/pending\n - Show how many unsent reminders of each type are stored.\n\n")
	b.WriteString("/run_sweep <weekly|daily>\n - Send every due reminder of that type now.\n\n")
	b.WriteString("/help\n - Show this message.")
	return b.String()
}

func (h *AdminHandlers) Pending(ctx context.Context, _ int64, _ []string) string {
	counts, err := h.dispatcher.PendingCounts(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to count pending reminders")
		return "Could not count pending reminders, see the logs."
	}

	var b strings.Builder
	b.WriteString("Unsent reminders:\n")
	for _, t := range reminder.Types {
		fmt.Fprintf(&b, "%s: %d\n", t, counts[t])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (h *AdminHandlers) RunSweep(ctx context.Context, senderID int64, args []string) string {
	if len(args) != 1 {
		return "Usage: /run_sweep <weekly|daily>"
	}
	t, err := reminder.ParseType(strings.ToLower(strings.TrimSpace(args[0])))
	if err != nil {
		return fmt.Sprintf("Unknown reminder type %q. Use weekly or daily.", args[0])
	}

	log := h.logger.WithFields(logrus.Fields{"type": t, "sender_id": senderID})
	log.Info("Manual sweep requested")

	ctx, cancel := context.WithTimeout(ctx, h.sweepTimeout)
	defer cancel()

	result, err := h.dispatcher.RunSweep(ctx, t, h.now())
	if errors.Is(err, app.ErrSweepInProgress) {
		return fmt.Sprintf("A %s sweep is already running, try again later.", t)
	}
	if result == nil {
		log.WithError(err).Error("Manual sweep failed")
		return fmt.Sprintf("The %s sweep failed: %v", t, err)
	}

	summary := fmt.Sprintf("%s sweep: %d due, %d recipients, %d delivered, %d failed, %d marked sent.",
		t, result.Selected, result.Recipients, result.Delivered, result.Failed, result.MarkedSent)
	if err != nil {
		log.WithError(err).Warn("Manual sweep finished with errors")
		return summary + "\nErrors:\n" + err.Error()
	}
	return summary
}

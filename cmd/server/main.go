package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"vaccination_tracker/internal/app"
	"vaccination_tracker/internal/domain/alert"
	domainEmail "vaccination_tracker/internal/domain/email"
	"vaccination_tracker/internal/infra/api"
	"vaccination_tracker/internal/infra/config"
	idb "vaccination_tracker/internal/infra/database"
	"vaccination_tracker/internal/infra/email"
	"vaccination_tracker/internal/infra/logger"
	"vaccination_tracker/internal/infra/scheduler"
	"vaccination_tracker/internal/infra/telegram"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	baseLogger := logrus.NewEntry(logger.Log)
	mainLogger := logger.WithComponent("main")

	mainLogger.WithFields(logrus.Fields{
		"http_addr":      cfg.HTTPAddr,
		"email_provider": cfg.EmailProvider,
		"timezone":       cfg.Location.String(),
		"telegram":       cfg.TelegramToken != "",
	}).Info("Vaccination tracker starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	poolOpts := idb.DefaultPoolOptions()
	poolOpts.MaxOpenConns = cfg.DBMaxOpenConns
	poolOpts.ConnectAttempts = cfg.DBConnectAttempts
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, poolOpts, logger.WithComponent("database"))
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.EnsureSchema(ctx, db); err != nil {
		mainLogger.WithError(err).Fatal("Could not prepare database schema")
	}
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	motherRepo := idb.NewPostgresMotherRepository(db)
	scheduleRepo := idb.NewPostgresScheduleRepository(db)
	reminderRepo := idb.NewPostgresReminderRepository(db)

	gateway, err := newEmailGateway(ctx, cfg, baseLogger)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create email gateway")
	}

	var (
		bot      *telebot.Bot
		notifier alert.Notifier = alert.Nop{}
	)
	if cfg.TelegramToken != "" {
		bot, err = telegram.NewBot(cfg.TelegramToken, baseLogger)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		notifier = telegram.NewAdminNotifier(bot, cfg.AdminTelegramID, baseLogger)
	}

	// Initialize Services
	reminderService := app.NewReminderService(motherRepo, scheduleRepo, reminderRepo, cfg.Location, baseLogger)
	babyService := app.NewBabyService(motherRepo, scheduleRepo, reminderRepo, reminderService, baseLogger)
	dispatchService := app.NewDispatchService(reminderRepo, gateway, notifier, baseLogger)

	reminderScheduler := scheduler.NewReminderScheduler(
		dispatchService,
		baseLogger,
		cfg.Location,
		cfg.CronSpecWeeklyReminders,
		cfg.CronSpecDailyReminders,
		cfg.SweepTimeout,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start reminder scheduler")
	}

	if bot != nil {
		telegram.NewAdminHandlers(dispatchService, cfg.AdminTelegramID, cfg.SweepTimeout, baseLogger).
			Register(ctx, bot)
		go bot.Start()
		mainLogger.Info("Telegram operator bot started.")
	}

	if isProduction(cfg.Environment) {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(babyService, reminderService, baseLogger)
	router := api.NewRouter(handler, api.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger.WithComponent("http"))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		mainLogger.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done() // Block until a signal is received
	mainLogger.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	if bot != nil {
		bot.Stop()
	}
	reminderScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}

func newEmailGateway(ctx context.Context, cfg *config.AppConfig, log *logrus.Entry) (domainEmail.Gateway, error) {
	if cfg.EmailProvider != config.EmailProviderSES {
		return email.NewSendGridGateway(cfg.SendGridAPIKey, cfg.EmailFromAddress, cfg.EmailFromName, log), nil
	}
	gw, err := email.NewSESGateway(ctx, cfg.AWSRegion, cfg.EmailFromAddress, cfg.EmailFromName, log)
	if err != nil {
		return nil, err
	}
	return gw, nil
}

func isProduction(env string) bool {
	return strings.EqualFold(env, "production")
}

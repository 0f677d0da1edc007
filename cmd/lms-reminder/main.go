// Command lms-reminder runs the Telegram bot, the hourly background sync and
// the notification dispatcher.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DavidGamba/go-getoptions"
	"github.com/go-telegram/bot"
	"github.com/smith3v/lms-reminder/pkg/app"
	"github.com/smith3v/lms-reminder/pkg/bot/handlers"
	"github.com/smith3v/lms-reminder/pkg/config"
	"github.com/smith3v/lms-reminder/pkg/db"
	"github.com/smith3v/lms-reminder/pkg/delivery"
	"github.com/smith3v/lms-reminder/pkg/logger"
)

type commandLineOptionValues struct {
	Config string
}

func parseCommandLine() *commandLineOptionValues {
	optionValues := &commandLineOptionValues{}
	opt := getoptions.New()

	defaultConfigPath := "config.json"
	if p := os.Getenv("LMSR_CONFIG"); p != "" {
		defaultConfigPath = p
	}

	opt.Bool("help", false, opt.Alias("h", "?"))
	opt.StringVar(&optionValues.Config, "config", defaultConfigPath,
		opt.Alias("c"),
		opt.Description("the path to the configuration file (json or yaml)"))

	_, err := opt.Parse(os.Args[1:])
	if opt.Called("help") {
		fmt.Fprint(os.Stderr, opt.Help())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		fmt.Fprint(os.Stderr, opt.Help(getoptions.HelpSynopsis))
		os.Exit(1)
	}
	return optionValues
}

func main() {
	optionValues := parseCommandLine()

	if err := config.LoadConfig(optionValues.Config); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	if err := logger.Configure(logger.Options{
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
		Format: cfg.Logging.Format,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if err := db.InitDB(cfg.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to assemble reminder components", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close resources", "error", err)
		}
	}()

	h := &handlers.Handlers{
		Engine:   a.Engine,
		Settings: a.Settings,
		History:  a.History,
		Pending:  a.Pending,
		ChatID:   cfg.Telegram.ChatID,
		Location: cfg.Location(),
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(h.DefaultHandler),
	}
	b, err := bot.New(cfg.Telegram.Token, opts...)
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}
	h.Register(b)

	go a.Trigger.Start(ctx)
	go a.Dispatcher(delivery.NewTelegramSender(b, cfg.Telegram.ChatID)).Start(ctx, cfg.Reminders.DispatchInterval)
	go db.StartStaleCleanup(ctx, db.DB, db.StaleCleanupInterval)

	logger.Info("Starting bot...", "sync_interval", a.Trigger.Interval(), "timezone", cfg.Backend.Timezone)
	b.Start(ctx)
}

// Command lms-reminder-mcp serves the reminder tools over MCP stdio.
//
// Usage:
//
//	./lms-reminder-mcp                  # Start MCP server (stdio)
//	./lms-reminder-mcp --config c.yaml  # Use another config file
//	./lms-reminder-mcp --help           # Show help
//
// It reads the same configuration as lms-reminder and shares its database,
// so reminders scheduled here are delivered by the bot process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DavidGamba/go-getoptions"
	"github.com/mark3labs/mcp-go/server"
	"github.com/smith3v/lms-reminder/pkg/app"
	"github.com/smith3v/lms-reminder/pkg/config"
	"github.com/smith3v/lms-reminder/pkg/db"
	"github.com/smith3v/lms-reminder/pkg/logger"
	"github.com/smith3v/lms-reminder/pkg/tools"
)

type commandLineOptionValues struct {
	Config string
}

// parseCommandLine writes help and errors to stderr; stdout carries the MCP
// protocol.
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
		fmt.Fprintln(os.Stderr, toolsHelp)
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

	_ = logger.Configure(logger.Options{Output: os.Stderr})

	if err := config.LoadConfig(optionValues.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig
	if err := logger.Configure(logger.Options{
		Level:  cfg.Logging.Level,
		File:   cfg.Logging.File,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := db.InitDB(cfg.Database); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to assemble reminder components: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	s := tools.NewServer(a.Engine, a.History, a.Settings)
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

const toolsHelp = `
ENVIRONMENT:
    LMSR_CONFIG   Default path of the config file (default: config.json)
    LMSR_*        Config overrides, e.g. LMSR_BACKEND__BASE_URL

TOOLS:
    run_reminder_cycle     Fetch the dashboard and rebuild the schedule now
    list_history           List delivered reminders (optional unread_only)
    mark_read              Mark one history entry as read
    mark_all_read          Mark every history entry as read
    delete_history_entry   Delete one history entry
    clear_history          Delete all history entries
    get_settings           Show reminder lead times and toggles
    update_settings        Set one category (category, values)`

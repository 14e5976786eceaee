package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/PlanD600/pland-tui/internal/api"
	"github.com/PlanD600/pland-tui/internal/config"
	"github.com/PlanD600/pland-tui/internal/live"
	"github.com/PlanD600/pland-tui/internal/store"
	"github.com/PlanD600/pland-tui/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("pland %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	// Local settings database
	settings, err := store.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing settings store: %v\n", err)
		os.Exit(1)
	}
	defer settings.Close()

	apiClient := api.NewClient(cfg.APIBaseURL, cfg.APIToken, logger)

	liveClient := live.NewClient(live.Config{
		URL:   cfg.WebSocketURL(),
		Token: cfg.APIToken,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go liveClient.Run(ctx)
	defer liveClient.Close()

	// Create and run the application
	app := ui.NewApp(apiClient, liveClient, settings, logger)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the structured logger. The TUI owns the terminal, so
// without a log file everything is discarded.
func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = io.Discard
	closeLog := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		out = f
		closeLog = func() { f.Close() }
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closeLog, nil
}

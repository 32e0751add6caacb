// Command ratclient connects to a rat chat relay and opens the chat window.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gookit/color"
	"github.com/pkg/errors"

	"github.com/Zereker/relay"
	"github.com/Zereker/relay/config"
	"github.com/Zereker/relay/logging"
	"github.com/Zereker/relay/tui"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

// drainTimeout bounds how long queued chat may take to flush after the window closes.
const drainTimeout = 2 * time.Second

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("ratclient: %v", err))
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	fs := flag.NewFlagSet("ratclient", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default: <user config dir>/rat/"+config.ClientConfigFile+")")
	server := fs.String("server", "", "server address")
	port := fs.Int("port", 0, "server port")
	name := fs.String("name", "", "display name")
	stderrLevel := fs.String("log-level", "", "stderr log level: error, warn, info, debug or trace")
	fileLevel := fs.String("log-file-level", "", "log file level")
	logFile := fs.String("log-file", "", "log file path, empty to disable")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, nil
		}
		return exitConfig, err
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		return exitConfig, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.ServerAddress = *server
		case "port":
			cfg.Port = *port
		case "name":
			cfg.Name = *name
		case "log-level":
			cfg.LogLevelStderr = *stderrLevel
		case "log-file-level":
			cfg.LogLevelFile = *fileLevel
		case "log-file":
			cfg.LogFile = *logFile
		}
	})

	if err := cfg.Validate(); err != nil {
		return exitConfig, err
	}

	return chat(cfg)
}

func chat(cfg config.Client) (int, error) {
	stderrLevel, err := logging.ParseLevel(cfg.LogLevelStderr)
	if err != nil {
		return exitConfig, err
	}
	fileLevel, err := logging.ParseLevel(cfg.LogLevelFile)
	if err != nil {
		return exitConfig, err
	}

	logger, closeLog := logging.New(logging.Options{
		StderrLevel: stderrLevel,
		FileLevel:   fileLevel,
		FilePath:    cfg.LogFile,
	})
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bridge := tui.NewBridge(256)
	defer bridge.Close()

	client, err := relay.Dial(ctx, cfg.Addr(), cfg.Name, bridge,
		relay.LoggerOption(logger),
		relay.MaxFrameSizeOption(cfg.MaxFrameSize),
		relay.PollIntervalOption(cfg.PollInterval.Std()),
	)
	if err != nil {
		return exitFailure, err
	}
	logger.Info("connected", "server", cfg.Addr(), "name", cfg.Name)

	done := make(chan error, 1)
	go func() {
		done <- client.Run(ctx)
	}()

	program := tea.NewProgram(tui.New(cfg.Name, client, bridge),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, uiErr := program.Run()
	bridge.Close()

	// The window asked for a flushing shutdown on quit; force it if the server stalls.
	client.RequestShutdown()
	select {
	case err = <-done:
	case <-time.After(drainTimeout):
		_ = client.Close()
		err = <-done
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Info("connection ended", "error", err)
	}

	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return exitFailure, errors.Wrap(uiErr, "terminal ui")
	}
	return exitOK, nil
}

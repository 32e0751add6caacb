// Command ratserver runs the rat chat relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/Zereker/relay"
	"github.com/Zereker/relay/config"
	"github.com/Zereker/relay/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("ratserver: %v", err))
	}
	os.Exit(code)
}

func run(args []string, stdout io.Writer) (int, error) {
	fs := flag.NewFlagSet("ratserver", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file (default: <user config dir>/rat/"+config.ServerConfigFile+")")
	printConfig := fs.Bool("print-config", false, "print the resolved configuration and exit")
	bind := fs.String("bind", "", "listen address")
	port := fs.Int("port", 0, "listen port")
	stderrLevel := fs.String("log-level", "", "stderr log level: error, warn, info, debug or trace")
	fileLevel := fs.String("log-file-level", "", "log file level")
	logFile := fs.String("log-file", "", "log file path, empty to disable")
	var handshakeTimeout config.Duration
	fs.TextVar(&handshakeTimeout, "handshake-timeout", config.Duration(0), "time allowed to send a name, 0 waits forever")
	chatRate := fs.Float64("chat-rate", 0, "chat lines per second per participant, 0 for no limit")
	chatBurst := fs.Int("chat-burst", 0, "chat burst per participant")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, nil
		}
		return exitConfig, err
	}

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		return exitConfig, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bind":
			cfg.BindAddress = *bind
		case "port":
			cfg.Port = *port
		case "log-level":
			cfg.LogLevelStderr = *stderrLevel
		case "log-file-level":
			cfg.LogLevelFile = *fileLevel
		case "log-file":
			cfg.LogFile = *logFile
		case "handshake-timeout":
			cfg.HandshakeTimeout = handshakeTimeout
		case "chat-rate":
			cfg.ChatRate = *chatRate
		case "chat-burst":
			cfg.ChatBurst = *chatBurst
		}
	})

	if err := cfg.Validate(); err != nil {
		return exitConfig, err
	}

	if *printConfig {
		renderConfig(stdout, cfg)
		return exitOK, nil
	}

	return serve(cfg)
}

func serve(cfg config.Server) (int, error) {
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

	addr, err := net.ResolveTCPAddr("tcp", cfg.Addr())
	if err != nil {
		return exitConfig, errors.Wrap(err, "resolve listen address")
	}

	srv, err := relay.New(addr, relay.ServerLoggerOption(logger))
	if err != nil {
		return exitFailure, err
	}
	defer func() { _ = srv.Close() }()

	chat := relay.NewChatServer(
		relay.SessionLoggerOption(logger),
		relay.SessionHandshakeTimeoutOption(cfg.HandshakeTimeout.Std()),
		relay.SessionFloodControlOption(cfg.ChatRate, cfg.ChatBurst),
		relay.SessionConnOption(
			relay.MaxFrameSizeOption(cfg.MaxFrameSize),
			relay.PollIntervalOption(cfg.PollInterval.Std()),
			relay.WriteTimeoutOption(cfg.WriteTimeout.Std()),
		),
	)

	if err := chat.Serve(ctx, srv); err != nil {
		return exitFailure, err
	}

	logger.Info("shutdown complete")
	return exitOK, nil
}

func renderConfig(w io.Writer, cfg config.Server) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Setting", "Value"})
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(cfg.Rows())
	table.Render()
}

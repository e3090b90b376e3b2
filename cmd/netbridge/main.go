// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/netbridge/api"
	"github.com/bureau-foundation/netbridge/bridge"
	"github.com/bureau-foundation/netbridge/lib/clock"
	"github.com/bureau-foundation/netbridge/lib/config"
	"github.com/bureau-foundation/netbridge/lib/process"
	"github.com/bureau-foundation/netbridge/lib/service"
	"github.com/bureau-foundation/netbridge/lib/version"
	"github.com/bureau-foundation/netbridge/network"
	"github.com/bureau-foundation/netbridge/network/nmdbus"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

// options holds the command-line flags.
type options struct {
	configPath  string
	listen      string
	socketPath  string
	logLevel    string
	showVersion bool

	// set records which override flags were given explicitly, so that
	// --socket "" can disable the socket.
	set map[string]bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	flagSet := pflag.NewFlagSet("netbridge", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to netbridge.yaml (default: $"+config.EnvironmentVariable+", else built-in defaults)")
	flagSet.StringVar(&opts.listen, "listen", "", "HTTP listen address (overrides http.listen_address)")
	flagSet.StringVar(&opts.socketPath, "socket", "", `control socket path, "" to disable (overrides socket.path)`)
	flagSet.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	for _, name := range []string{"listen", "socket", "log-level"} {
		opts.set[name] = flagSet.Changed(name)
	}
	return opts, nil
}

// loadConfig reads the configuration file, applies flag overrides and
// validates the result.
func loadConfig(opts *options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.set["listen"] {
		cfg.HTTP.ListenAddress = opts.listen
	}
	if opts.set["socket"] {
		cfg.Socket.Path = opts.socketPath
	}
	if opts.set["log-level"] {
		cfg.Log.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// responseMargin is the time a Wi-Fi listing needs beyond its scan
// poll budget: connecting, requesting the scan, reading access points.
const responseMargin = 30 * time.Second

// responseTimeout bounds an HTTP response. It covers the slowest
// command, a Wi-Fi listing that uses its whole scan budget.
func responseTimeout(cfg *config.Config) time.Duration {
	return cfg.ScanBudget() + responseMargin
}

func run() error {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.showVersion {
		fmt.Printf("netbridge %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Log.Format, cfg.LogLevel())
	slog.SetDefault(logger)
	logger.Info("starting netbridge", "version", version.Info())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handlers, err := network.New(network.Config{
		Connector: nmdbus.NewConnector(),
		Clock:     clock.Real(),
		Scan: network.ScanPolicy{
			Interval:      cfg.ScanInterval(),
			Attempts:      cfg.Scan.Attempts,
			FailOnTimeout: cfg.Scan.FailOnTimeout,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	dispatcher, err := bridge.NewDispatcher(handlers.Table(), logger)
	if err != nil {
		return err
	}

	queue, sender := bridge.NewQueue()
	loop := bridge.NewLoop(bridge.LoopConfig{
		Queue:      queue,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err := loop.Start(); err != nil {
		sender.Close()
		return fmt.Errorf("starting worker loop: %w", err)
	}

	return serve(ctx, cfg, loop, sender, logger)
}

// serve runs the front ends until ctx is cancelled or one of them
// fails, then closes their send handles and waits for the loop to
// drain. It consumes sender.
func serve(ctx context.Context, cfg *config.Config, loop *bridge.Loop, sender *bridge.Sender, logger *slog.Logger) error {
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan error, 2)
	running := 0
	start := func(name string, handle *bridge.Sender, serveFunc func(context.Context) error) {
		running++
		go func() {
			defer handle.Close()
			err := serveFunc(serveCtx)
			if err != nil {
				err = fmt.Errorf("%s: %w", name, err)
			}
			results <- err
		}()
	}

	httpSender := sender.Clone()
	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address: cfg.HTTP.ListenAddress,
		Handler: api.NewHandler(api.HandlerConfig{
			Submitter: httpSender,
			LoopState: loop.State,
			Logger:    logger,
		}),
		ResponseTimeout: responseTimeout(cfg),
		ShutdownTimeout: cfg.ShutdownTimeout(),
		Logger:          logger,
	})
	start("http server", httpSender, httpServer.Serve)

	if cfg.Socket.Path != "" {
		socketSender := sender.Clone()
		socketServer := api.NewSocketServer(api.HandlerConfig{
			Submitter: socketSender,
			LoopState: loop.State,
			Logger:    logger,
		}, cfg.Socket.Path)
		start("control socket", socketSender, socketServer.Serve)
	}

	// The front ends now hold the only references; the queue closes
	// when both have stopped.
	sender.Close()

	var firstErr error
	for ; running > 0; running-- {
		if err := <-results; err != nil && firstErr == nil {
			firstErr = err
		}
		cancel()
	}

	logger.Info("waiting for in-flight commands", "loop", loop.State().String())
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer waitCancel()
	if err := loop.Wait(waitCtx); err != nil {
		logger.Warn("worker loop did not stop before the shutdown timeout", "loop", loop.State().String())
	}

	return firstErr
}

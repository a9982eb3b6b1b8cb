// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Msgboardd is the message board daemon. It serves the TLV board
// protocol on a TCP socket and, when configured, the CBOR admin
// protocol on a Unix socket. Both adapters drive the same in-memory
// board engine and ticket manager.
//
// Configuration comes from a YAML file (--config or MSGBOARD_CONFIG);
// flags override individual settings for quick experiments.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rolandweber/Pityoulish-sub000/lib/admin"
	"github.com/rolandweber/Pityoulish-sub000/lib/board"
	"github.com/rolandweber/Pityoulish-sub000/lib/clock"
	"github.com/rolandweber/Pityoulish-sub000/lib/config"
	"github.com/rolandweber/Pityoulish-sub000/lib/server"
	"github.com/rolandweber/Pityoulish-sub000/lib/ticket"
	"github.com/rolandweber/Pityoulish-sub000/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		listen      string
		adminSocket string
		capacity    int
		splitWrites bool
		debug       bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to the YAML configuration file (default: $MSGBOARD_CONFIG, built-in defaults if unset)")
	flag.StringVar(&listen, "listen", "", "TCP listen address, overrides the config file")
	flag.StringVar(&adminSocket, "admin-socket", "", "Unix socket path for the admin protocol, overrides the config file")
	flag.IntVar(&capacity, "capacity", 0, "board capacity, overrides the config file")
	flag.BoolVar(&splitWrites, "split-writes", false, "deliver every response in at least two writes")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("msgboardd %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if adminSocket != "" {
		cfg.AdminSocket = adminSocket
	}
	if capacity > 0 {
		cfg.Board.Capacity = capacity
	}
	if splitWrites {
		cfg.Transport.SplitWrites = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	messageBoard, err := board.New(cfg.Board.Capacity, clk)
	if err != nil {
		return fmt.Errorf("creating board: %w", err)
	}
	tickets, err := ticket.NewManager(cfg.Tickets.TTL.Std(), cfg.Tickets.Actions, clk)
	if err != nil {
		return fmt.Errorf("creating ticket manager: %w", err)
	}

	boardServer, err := server.New(cfg.Listen, server.Config{
		ReadTimeout:    cfg.Transport.ReadTimeout.Std(),
		RequestTimeout: cfg.Transport.RequestTimeout.Std(),
		MaxPDUSize:     cfg.Transport.MaxPDUSize,
		SplitWrites:    cfg.Transport.SplitWrites,
	}, messageBoard, tickets, logger)
	if err != nil {
		return err
	}

	logger.Info("msgboardd starting",
		"version", version.Short(),
		"listen", boardServer.Address(),
		"capacity", cfg.Board.Capacity,
		"ticket_ttl", cfg.Tickets.TTL.String(),
		"ticket_actions", cfg.Tickets.Actions,
		"fingerprint", messageBoard.InstancePrefix(),
	)

	errs := make(chan error, 2)
	running := 1
	go func() {
		errs <- boardServer.Serve(ctx)
	}()

	if cfg.AdminSocket != "" {
		adminServer := admin.NewSocketServer(cfg.AdminSocket, logger)
		admin.NewService(messageBoard, tickets, clk).Register(adminServer)
		running++
		go func() {
			errs <- adminServer.Serve(ctx)
		}()
	}

	// Block until shutdown or a server failure. On signal, both
	// servers observe ctx and drain their connections.
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errs:
		running--
		if err != nil {
			return err
		}
	}

	// Give the remaining servers a moment to drain before exiting.
	drainDeadline := time.After(5 * time.Second)
	for i := 0; i < running; i++ {
		select {
		case <-errs:
		case <-drainDeadline:
			return nil
		}
	}
	return nil
}

// loadConfig resolves the configuration: an explicit --config path
// wins, then MSGBOARD_CONFIG, then built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("MSGBOARD_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

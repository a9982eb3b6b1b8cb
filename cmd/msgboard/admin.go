// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/rolandweber/Pityoulish-sub000/cmd/msgboard/cli"
	"github.com/rolandweber/Pityoulish-sub000/lib/admin"
)

// defaultAdminSocket matches the daemon's default configuration.
const defaultAdminSocket = "/run/msgboard/admin.sock"

func systemCommand() *cli.Command {
	var putSocket, removeSocket string

	return &cli.Command{
		Name:    "system",
		Summary: "manage system messages on the board",
		Subcommands: []*cli.Command{
			{
				Name:    "put",
				Summary: "post or replace a system message",
				Usage:   "msgboard system put [flags] <slot> <text>",
				Examples: []cli.Example{
					{Description: "announce maintenance in the motd slot", Command: "msgboard system put motd \"maintenance at noon\""},
				},
				Flags: func() *pflag.FlagSet {
					flags := pflag.NewFlagSet("put", pflag.ContinueOnError)
					flags.StringVar(&putSocket, "socket", defaultAdminSocket, "path to the daemon's admin socket")
					return flags
				},
				Run: func(args []string) error {
					if len(args) != 2 {
						return fmt.Errorf("expected <slot> and <text> arguments")
					}
					info, err := admin.NewClient(putSocket).PutSystemMessage(context.Background(), args[0], args[1])
					if err != nil {
						return err
					}
					fmt.Printf("%s  %s  %s\n", info.Timestamp, info.Originator, info.Text)
					return nil
				},
			},
			{
				Name:    "remove",
				Summary: "remove a system message",
				Usage:   "msgboard system remove [flags] <slot>",
				Flags: func() *pflag.FlagSet {
					flags := pflag.NewFlagSet("remove", pflag.ContinueOnError)
					flags.StringVar(&removeSocket, "socket", defaultAdminSocket, "path to the daemon's admin socket")
					return flags
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("expected exactly one slot argument")
					}
					return admin.NewClient(removeSocket).RemoveSystemMessage(context.Background(), args[0])
				},
			},
		},
	}
}

func statusCommand() *cli.Command {
	var socket string

	return &cli.Command{
		Name:    "status",
		Summary: "show daemon status",
		Usage:   "msgboard status [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flags.StringVar(&socket, "socket", defaultAdminSocket, "path to the daemon's admin socket")
			return flags
		},
		Run: func(args []string) error {
			status, err := admin.NewClient(socket).Status(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("fingerprint:    %s\n", status.Fingerprint)
			fmt.Printf("uptime:         %ds\n", status.UptimeSeconds)
			fmt.Printf("messages:       %d/%d (%d user, %d system)\n",
				status.Board.Total, status.Board.Capacity, status.Board.User, status.Board.System)
			fmt.Printf("system slots:   %d\n", status.Board.Slots)
			fmt.Printf("tickets live:   %d\n", status.TicketsLive)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	var socket, output, compression string

	return &cli.Command{
		Name:    "export",
		Summary: "export a board snapshot to a file",
		Usage:   "msgboard export [flags] --output <file>",
		Examples: []cli.Example{
			{Description: "export with zstd compression", Command: "msgboard export --output board.snap"},
			{Description: "export uncompressed for inspection", Command: "msgboard export --output board.snap --compression none"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
			flags.StringVar(&socket, "socket", defaultAdminSocket, "path to the daemon's admin socket")
			flags.StringVar(&output, "output", "", "file to write the snapshot to (required)")
			flags.StringVar(&compression, "compression", "zstd", "snapshot compression: none, lz4, or zstd")
			return flags
		},
		Run: func(args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			result, err := admin.NewClient(socket).Export(context.Background(), compression)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, result.Snapshot, 0o644); err != nil {
				return fmt.Errorf("writing snapshot: %w", err)
			}
			fmt.Printf("wrote %d bytes (%s) to %s\n", len(result.Snapshot), result.Compression, output)
			return nil
		},
	}
}

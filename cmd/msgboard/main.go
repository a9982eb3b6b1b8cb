// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Msgboard is the command-line client for the message board daemon.
// It speaks the TLV board protocol over TCP for the user-facing
// operations and the CBOR admin protocol over the daemon's Unix
// socket for operator actions.
package main

import (
	"fmt"
	"os"

	"github.com/rolandweber/Pityoulish-sub000/cmd/msgboard/cli"
	"github.com/rolandweber/Pityoulish-sub000/lib/version"
)

func main() {
	if err := root().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func root() *cli.Command {
	return &cli.Command{
		Name:    "msgboard",
		Summary: "message board client",
		Description: "Msgboard talks to a message board daemon: read the board,\n" +
			"post messages with a ticket, and administer the daemon over\n" +
			"its admin socket.",
		Subcommands: []*cli.Command{
			ticketCommand(),
			listCommand(),
			putCommand(),
			systemCommand(),
			statusCommand(),
			exportCommand(),
			{
				Name:    "version",
				Summary: "print version information",
				Run: func(args []string) error {
					fmt.Println(version.Full())
					return nil
				},
			},
		},
	}
}

// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/rolandweber/Pityoulish-sub000/cmd/msgboard/cli"
	"github.com/rolandweber/Pityoulish-sub000/lib/client"
)

// serverFlags holds the connection flags shared by all board protocol
// commands.
type serverFlags struct {
	server  string
	timeout time.Duration
}

func (f *serverFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.server, "server", "localhost:2888", "board server address (host:port)")
	flags.DurationVar(&f.timeout, "timeout", 10*time.Second, "request timeout")
}

func (f *serverFlags) client() *client.Client {
	return client.New(f.server, f.timeout)
}

func ticketCommand() *cli.Command {
	obtain := serverFlags{}
	ret := serverFlags{}
	replace := serverFlags{}

	return &cli.Command{
		Name:    "ticket",
		Summary: "obtain, return, or replace a ticket",
		Subcommands: []*cli.Command{
			{
				Name:    "obtain",
				Summary: "request a ticket for a username",
				Usage:   "msgboard ticket obtain [flags] <username>",
				Examples: []cli.Example{
					{Description: "get a ticket for alice", Command: "msgboard ticket obtain alice"},
				},
				Flags: func() *pflag.FlagSet {
					flags := pflag.NewFlagSet("obtain", pflag.ContinueOnError)
					obtain.register(flags)
					return flags
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("expected exactly one username argument")
					}
					token, err := obtain.client().ObtainTicket(context.Background(), args[0])
					if err != nil {
						return err
					}
					fmt.Println(token)
					return nil
				},
			},
			{
				Name:    "return",
				Summary: "hand a ticket back before it expires",
				Usage:   "msgboard ticket return [flags] <token>",
				Flags: func() *pflag.FlagSet {
					flags := pflag.NewFlagSet("return", pflag.ContinueOnError)
					ret.register(flags)
					return flags
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("expected exactly one token argument")
					}
					info, err := ret.client().ReturnTicket(context.Background(), args[0])
					if err != nil {
						return err
					}
					fmt.Println(info)
					return nil
				},
			},
			{
				Name:    "replace",
				Summary: "trade a ticket for a fresh one",
				Usage:   "msgboard ticket replace [flags] <token>",
				Flags: func() *pflag.FlagSet {
					flags := pflag.NewFlagSet("replace", pflag.ContinueOnError)
					replace.register(flags)
					return flags
				},
				Run: func(args []string) error {
					if len(args) != 1 {
						return fmt.Errorf("expected exactly one token argument")
					}
					token, err := replace.client().ReplaceTicket(context.Background(), args[0])
					if err != nil {
						return err
					}
					fmt.Println(token)
					return nil
				},
			},
		},
	}
}

func listCommand() *cli.Command {
	flags := serverFlags{}
	var limit int
	var marker string
	var follow bool

	return &cli.Command{
		Name:    "list",
		Summary: "list messages from the board",
		Usage:   "msgboard list [flags]",
		Examples: []cli.Example{
			{Description: "read the whole board in batches of 20", Command: "msgboard list --limit 20 --follow"},
			{Description: "continue from a saved marker", Command: "msgboard list --marker a5Fq"},
		},
		Flags: func() *pflag.FlagSet {
			set := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flags.register(set)
			set.IntVar(&limit, "limit", 20, "maximum messages per batch (1..127)")
			set.StringVar(&marker, "marker", "", "continuation marker from a previous listing")
			set.BoolVar(&follow, "follow", false, "keep requesting batches until the board is drained")
			return set
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("list takes no positional arguments")
			}
			boardClient := flags.client()
			ctx := context.Background()

			for {
				batch, err := boardClient.ListMessages(ctx, limit, marker)
				if err != nil {
					return err
				}
				if batch.Missed {
					fmt.Println("(messages may have been missed since the previous listing)")
				}
				for _, message := range batch.Messages {
					fmt.Printf("%s  %-12s  %s\n", message.Timestamp, message.Originator, message.Text)
				}
				marker = batch.Marker
				if !follow || len(batch.Messages) == 0 {
					break
				}
			}
			fmt.Printf("marker: %s\n", marker)
			return nil
		},
	}
}

func putCommand() *cli.Command {
	flags := serverFlags{}
	var ticket string

	return &cli.Command{
		Name:    "put",
		Summary: "post a message to the board",
		Usage:   "msgboard put [flags] --ticket <token> <text...>",
		Examples: []cli.Example{
			{Description: "post under a previously obtained ticket", Command: "msgboard put --ticket aliceQm3xR8s2 hello everyone"},
		},
		Flags: func() *pflag.FlagSet {
			set := pflag.NewFlagSet("put", pflag.ContinueOnError)
			flags.register(set)
			set.StringVar(&ticket, "ticket", "", "ticket token authorizing the post (required)")
			return set
		},
		Run: func(args []string) error {
			if ticket == "" {
				return fmt.Errorf("--ticket is required")
			}
			if len(args) == 0 {
				return fmt.Errorf("message text is required")
			}
			info, err := flags.client().PutMessage(context.Background(), ticket, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(info)
			return nil
		},
	}
}

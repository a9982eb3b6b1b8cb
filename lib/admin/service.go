// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package admin exposes operator actions on a running board daemon
// over a CBOR request-response protocol on a Unix socket. It is the
// second protocol adapter next to the TCP message board protocol:
// both drive the same board engine, neither knows about the other.
package admin

import (
	"context"
	"fmt"

	"github.com/rolandweber/Pityoulish-sub000/lib/board"
	"github.com/rolandweber/Pityoulish-sub000/lib/clock"
	"github.com/rolandweber/Pityoulish-sub000/lib/codec"
	"github.com/rolandweber/Pityoulish-sub000/lib/snapshot"
	"github.com/rolandweber/Pityoulish-sub000/lib/ticket"
)

// Status is the response payload of the "status" action.
type Status struct {
	Fingerprint   string      `cbor:"fingerprint"`
	Board         board.Stats `cbor:"board"`
	TicketsLive   int         `cbor:"tickets_live"`
	UptimeSeconds int64       `cbor:"uptime_seconds"`
}

// MessageInfo describes a stored message in action responses.
type MessageInfo struct {
	Originator string `cbor:"originator"`
	Timestamp  string `cbor:"timestamp"`
	Text       string `cbor:"text"`
}

// ExportResult carries an encoded snapshot.
type ExportResult struct {
	Compression string `cbor:"compression"`
	Snapshot    []byte `cbor:"snapshot"`
}

// Service implements the admin actions against a board and a ticket
// manager. Register the actions on a SocketServer with Register.
type Service struct {
	board   *board.Board
	tickets *ticket.Manager
	clock   clock.Clock
	started int64
}

// NewService creates the admin service for the given board and ticket
// manager.
func NewService(b *board.Board, tickets *ticket.Manager, clk clock.Clock) *Service {
	return &Service{
		board:   b,
		tickets: tickets,
		clock:   clk,
		started: clk.Now().Unix(),
	}
}

// Register installs all admin actions on the socket server.
func (s *Service) Register(server *SocketServer) {
	server.Handle("status", s.handleStatus)
	server.Handle("put-system", s.handlePutSystem)
	server.Handle("remove-system", s.handleRemoveSystem)
	server.Handle("export", s.handleExport)
}

func (s *Service) handleStatus(ctx context.Context, raw []byte) (any, error) {
	return &Status{
		Fingerprint:   s.board.InstancePrefix(),
		Board:         s.board.Stats(),
		TicketsLive:   s.tickets.Live(),
		UptimeSeconds: s.clock.Now().Unix() - s.started,
	}, nil
}

func (s *Service) handlePutSystem(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Slot string `cbor:"slot"`
		Text string `cbor:"text"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Slot == "" {
		return nil, fmt.Errorf("missing required field: slot")
	}
	if request.Text == "" {
		return nil, fmt.Errorf("missing required field: text")
	}

	message := s.board.PutSystemMessage(request.Slot, request.Text)
	return &MessageInfo{
		Originator: message.Originator,
		Timestamp:  message.Timestamp,
		Text:       message.Text,
	}, nil
}

func (s *Service) handleRemoveSystem(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Slot string `cbor:"slot"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Slot == "" {
		return nil, fmt.Errorf("missing required field: slot")
	}
	if !s.board.RemoveSystemMessage(request.Slot) {
		return nil, fmt.Errorf("no message in slot %q", request.Slot)
	}
	return nil, nil
}

func (s *Service) handleExport(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		Compression string `cbor:"compression"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	tag := snapshot.CompressionZstd
	if request.Compression != "" {
		var err error
		tag, err = snapshot.ParseCompressionTag(request.Compression)
		if err != nil {
			return nil, err
		}
	}

	encoded, used, err := snapshot.Encode(snapshot.Capture(s.board, s.clock), tag)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return &ExportResult{
		Compression: used.String(),
		Snapshot:    encoded,
	}, nil
}

// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the message board protocol client: it frames
// requests, reassembles responses across short reads, and turns
// ERROR_RESPONSEs into *ServerError values.
package client

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rolandweber/Pityoulish-sub000/lib/tlv"
	"github.com/rolandweber/Pityoulish-sub000/lib/wire"
)

// ServerError is an ERROR_RESPONSE from the server. The server does
// not distinguish protocol faults from application faults on the
// wire, so neither does this type.
type ServerError struct {
	Text string
}

func (e *ServerError) Error() string {
	return "server rejected the request: " + e.Text
}

// Client talks to one message board server. Safe for concurrent use;
// every call opens its own connection, matching the server's
// one-request-per-connection model.
type Client struct {
	address string
	timeout time.Duration
}

const defaultTimeout = 30 * time.Second

// New creates a client for the server at address ("host:port").
// timeout bounds each complete request-response exchange; zero or
// negative means 30 seconds.
func New(address string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{address: address, timeout: timeout}
}

// ListMessages fetches up to limit messages. An empty marker starts
// from the oldest retained message; pass the previous batch's marker
// to continue.
func (c *Client) ListMessages(ctx context.Context, limit int, marker string) (*wire.MessageBatch, error) {
	request, err := wire.BuildListMessages(limit, marker)
	if err != nil {
		return nil, err
	}
	response, err := c.exchange(ctx, request)
	if err != nil {
		return nil, err
	}
	batch, ok := response.(*wire.MessageBatch)
	if !ok {
		return nil, unexpectedResponse("MESSAGE_BATCH", response)
	}
	return batch, nil
}

// PutMessage posts text under the given ticket token and returns the
// server's confirmation.
func (c *Client) PutMessage(ctx context.Context, ticket, text string) (string, error) {
	request, err := wire.BuildPutMessage(ticket, text)
	if err != nil {
		return "", err
	}
	return c.expectInfo(ctx, request)
}

// ObtainTicket requests a ticket for username and returns its token.
func (c *Client) ObtainTicket(ctx context.Context, username string) (string, error) {
	request, err := wire.BuildObtainTicket(username)
	if err != nil {
		return "", err
	}
	return c.expectGrant(ctx, request)
}

// ReturnTicket hands the ticket back and returns the server's
// confirmation.
func (c *Client) ReturnTicket(ctx context.Context, ticket string) (string, error) {
	request, err := wire.BuildReturnTicket(ticket)
	if err != nil {
		return "", err
	}
	return c.expectInfo(ctx, request)
}

// ReplaceTicket trades the ticket for a fresh one and returns the new
// token.
func (c *Client) ReplaceTicket(ctx context.Context, ticket string) (string, error) {
	request, err := wire.BuildReplaceTicket(ticket)
	if err != nil {
		return "", err
	}
	return c.expectGrant(ctx, request)
}

func (c *Client) expectInfo(ctx context.Context, request []byte) (string, error) {
	response, err := c.exchange(ctx, request)
	if err != nil {
		return "", err
	}
	info, ok := response.(*wire.InfoResponse)
	if !ok {
		return "", unexpectedResponse("INFO_RESPONSE", response)
	}
	return info.Text, nil
}

func (c *Client) expectGrant(ctx context.Context, request []byte) (string, error) {
	response, err := c.exchange(ctx, request)
	if err != nil {
		return "", err
	}
	grant, ok := response.(*wire.TicketGrant)
	if !ok {
		return "", unexpectedResponse("TICKET_GRANT", response)
	}
	return grant.Ticket, nil
}

// exchange performs one request-response cycle on a fresh connection.
func (c *Client) exchange(ctx context.Context, request []byte) (wire.Response, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return nil, fmt.Errorf("client: connecting to %s: %w", c.address, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("client: sending request: %w", err)
	}

	pdu, err := readPDU(conn)
	if err != nil {
		return nil, err
	}
	response, err := wire.ParseResponse(pdu)
	if err != nil {
		return nil, err
	}
	if failure, ok := response.(*wire.ErrorResponse); ok {
		return nil, &ServerError{Text: failure.Text}
	}
	return response, nil
}

// readPDU reassembles one complete PDU: header first, then the body
// until the declared size. The server may deliver it in arbitrarily
// small pieces.
func readPDU(conn net.Conn) ([]byte, error) {
	header := make([]byte, tlv.HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, fmt.Errorf("client: reading response header: %w", err)
	}
	// The request size cap does not apply here: a message batch may
	// run up to the 16-bit TLV length limit, and the two length bytes
	// cannot declare anything beyond it.
	length := int(binary.BigEndian.Uint16(header[2:4]))
	pdu := make([]byte, tlv.HeaderSize+length)
	copy(pdu, header)
	if _, err := io.ReadFull(conn, pdu[tlv.HeaderSize:]); err != nil {
		return nil, fmt.Errorf("client: reading response body: %w", err)
	}
	return pdu, nil
}

func unexpectedResponse(want string, got wire.Response) error {
	return fmt.Errorf("client: expected %s, got %T", want, got)
}

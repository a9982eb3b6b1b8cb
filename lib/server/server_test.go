// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rolandweber/Pityoulish-sub000/lib/board"
	"github.com/rolandweber/Pityoulish-sub000/lib/clock"
	"github.com/rolandweber/Pityoulish-sub000/lib/testutil"
	"github.com/rolandweber/Pityoulish-sub000/lib/ticket"
	"github.com/rolandweber/Pityoulish-sub000/lib/tlv"
	"github.com/rolandweber/Pityoulish-sub000/lib/wire"
)

func startServer(t *testing.T, config Config) *Server {
	t.Helper()

	messageBoard, err := board.New(8, clock.Real())
	if err != nil {
		t.Fatalf("creating board: %v", err)
	}
	tickets, err := ticket.NewManager(time.Minute, 3, clock.Real())
	if err != nil {
		t.Fatalf("creating ticket manager: %v", err)
	}

	server, err := New("127.0.0.1:0", config, messageBoard, tickets, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, serveErr, 5*time.Second, "server shutdown"); err != nil {
			t.Errorf("serve returned error: %v", err)
		}
	})
	return server
}

// roundTrip sends one request PDU and reads back one complete
// response, reassembling it from however many reads it takes.
func roundTrip(t *testing.T, address string, request []byte) []byte {
	t.Helper()

	conn, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dialing server: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := conn.Write(request); err != nil {
		t.Fatalf("writing request: %v", err)
	}
	return readResponse(t, conn)
}

func readResponse(t *testing.T, conn net.Conn) []byte {
	t.Helper()

	header := make([]byte, tlv.HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		t.Fatalf("reading response header: %v", err)
	}
	length := int(binary.BigEndian.Uint16(header[2:4]))
	body := make([]byte, length)
	if _, err := io.ReadFull(conn, body); err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return append(header, body...)
}

func obtainTicket(t *testing.T, address, username string) string {
	t.Helper()

	request, err := wire.BuildObtainTicket(username)
	if err != nil {
		t.Fatalf("building obtain request: %v", err)
	}
	response, err := wire.ParseResponse(roundTrip(t, address, request))
	if err != nil {
		t.Fatalf("parsing obtain response: %v", err)
	}
	grant, ok := response.(*wire.TicketGrant)
	if !ok {
		t.Fatalf("expected ticket grant, got %#v", response)
	}
	return grant.Ticket
}

func requireErrorResponse(t *testing.T, pdu []byte) *wire.ErrorResponse {
	t.Helper()

	response, err := wire.ParseResponse(pdu)
	if err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	failure, ok := response.(*wire.ErrorResponse)
	if !ok {
		t.Fatalf("expected error response, got %#v", response)
	}
	return failure
}

func TestObtainPutList(t *testing.T) {
	server := startServer(t, Config{})
	address := server.Address()

	token := obtainTicket(t, address, "alice")

	put, err := wire.BuildPutMessage(token, "hello board")
	if err != nil {
		t.Fatalf("building put request: %v", err)
	}
	response, err := wire.ParseResponse(roundTrip(t, address, put))
	if err != nil {
		t.Fatalf("parsing put response: %v", err)
	}
	if _, ok := response.(*wire.InfoResponse); !ok {
		t.Fatalf("expected info response, got %#v", response)
	}

	list, err := wire.BuildListMessages(10, "")
	if err != nil {
		t.Fatalf("building list request: %v", err)
	}
	response, err = wire.ParseResponse(roundTrip(t, address, list))
	if err != nil {
		t.Fatalf("parsing list response: %v", err)
	}
	batch, ok := response.(*wire.MessageBatch)
	if !ok {
		t.Fatalf("expected message batch, got %#v", response)
	}
	if len(batch.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(batch.Messages))
	}
	if batch.Messages[0].Originator != "alice" || batch.Messages[0].Text != "hello board" {
		t.Fatalf("unexpected message %#v", batch.Messages[0])
	}
	if batch.Missed {
		t.Fatal("fresh listing must not be discontinuous")
	}
}

func TestPutExhaustsTicketActions(t *testing.T) {
	server := startServer(t, Config{})
	address := server.Address()

	token := obtainTicket(t, address, "bob")
	put, err := wire.BuildPutMessage(token, "again")
	if err != nil {
		t.Fatalf("building put request: %v", err)
	}

	// The manager grants three actions per ticket.
	for i := 0; i < 3; i++ {
		response, err := wire.ParseResponse(roundTrip(t, address, put))
		if err != nil {
			t.Fatalf("parsing put response %d: %v", i, err)
		}
		if _, ok := response.(*wire.InfoResponse); !ok {
			t.Fatalf("put %d: expected info response, got %#v", i, response)
		}
	}

	failure := requireErrorResponse(t, roundTrip(t, address, put))
	if !strings.Contains(failure.Text, "no actions left") {
		t.Fatalf("unexpected error text %q", failure.Text)
	}
}

func TestReplaceTicketInvalidatesOldToken(t *testing.T) {
	server := startServer(t, Config{})
	address := server.Address()

	token := obtainTicket(t, address, "carol")

	replace, err := wire.BuildReplaceTicket(token)
	if err != nil {
		t.Fatalf("building replace request: %v", err)
	}
	response, err := wire.ParseResponse(roundTrip(t, address, replace))
	if err != nil {
		t.Fatalf("parsing replace response: %v", err)
	}
	grant, ok := response.(*wire.TicketGrant)
	if !ok {
		t.Fatalf("expected ticket grant, got %#v", response)
	}
	if grant.Ticket == token {
		t.Fatal("replacement must differ from the returned token")
	}

	// The old token is dead.
	put, err := wire.BuildPutMessage(token, "stale")
	if err != nil {
		t.Fatalf("building put request: %v", err)
	}
	requireErrorResponse(t, roundTrip(t, address, put))

	// The new one works.
	put, err = wire.BuildPutMessage(grant.Ticket, "fresh")
	if err != nil {
		t.Fatalf("building put request: %v", err)
	}
	response, err = wire.ParseResponse(roundTrip(t, address, put))
	if err != nil {
		t.Fatalf("parsing put response: %v", err)
	}
	if _, ok := response.(*wire.InfoResponse); !ok {
		t.Fatalf("expected info response, got %#v", response)
	}
}

func TestReturnTicket(t *testing.T) {
	server := startServer(t, Config{})
	address := server.Address()

	token := obtainTicket(t, address, "dave")
	ret, err := wire.BuildReturnTicket(token)
	if err != nil {
		t.Fatalf("building return request: %v", err)
	}
	response, err := wire.ParseResponse(roundTrip(t, address, ret))
	if err != nil {
		t.Fatalf("parsing return response: %v", err)
	}
	if _, ok := response.(*wire.InfoResponse); !ok {
		t.Fatalf("expected info response, got %#v", response)
	}

	// Returning again fails: the token is gone.
	requireErrorResponse(t, roundTrip(t, address, ret))

	// The username is free for a fresh obtain.
	obtainTicket(t, address, "dave")
}

func TestMalformedRequestGetsErrorResponse(t *testing.T) {
	server := startServer(t, Config{})

	// LIST_MESSAGES with no fields at all.
	failure := requireErrorResponse(t, roundTrip(t, server.Address(), []byte{0xE3, 0x82, 0x00, 0x00}))
	if !strings.Contains(failure.Text, "LIMIT") {
		t.Fatalf("unexpected error text %q", failure.Text)
	}
}

func TestShortHeader(t *testing.T) {
	server := startServer(t, Config{})

	conn, err := net.Dial("tcp", server.Address())
	if err != nil {
		t.Fatalf("dialing server: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	// Two bytes, then a half-close: less than a header.
	if _, err := conn.Write([]byte{0xE3, 0x82}); err != nil {
		t.Fatalf("writing partial header: %v", err)
	}
	conn.(*net.TCPConn).CloseWrite()

	failure := requireErrorResponse(t, readResponse(t, conn))
	if !strings.Contains(failure.Text, "header") {
		t.Fatalf("unexpected error text %q", failure.Text)
	}
}

func TestOversizedRequest(t *testing.T) {
	server := startServer(t, Config{MaxPDUSize: 64})

	// Header declaring more payload than the server accepts.
	request := []byte{0xE3, 0x82, 0x03, 0xFF}
	failure := requireErrorResponse(t, roundTrip(t, server.Address(), request))
	if !strings.Contains(failure.Text, "maximum") {
		t.Fatalf("unexpected error text %q", failure.Text)
	}
}

func TestIncompleteRequest(t *testing.T) {
	server := startServer(t, Config{})

	conn, err := net.Dial("tcp", server.Address())
	if err != nil {
		t.Fatalf("dialing server: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	// A full header declaring 13 payload bytes, then nothing.
	if _, err := conn.Write([]byte{0xE3, 0x82, 0x00, 0x0D}); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	conn.(*net.TCPConn).CloseWrite()

	failure := requireErrorResponse(t, readResponse(t, conn))
	if !strings.Contains(failure.Text, "declared") {
		t.Fatalf("unexpected error text %q", failure.Text)
	}
}

func TestDeadlineExpiry(t *testing.T) {
	server := startServer(t, Config{
		ReadTimeout:    30 * time.Millisecond,
		RequestTimeout: 60 * time.Millisecond,
	})

	conn, err := net.Dial("tcp", server.Address())
	if err != nil {
		t.Fatalf("dialing server: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	// Send nothing; the server must give up and say so.
	failure := requireErrorResponse(t, readResponse(t, conn))
	if !strings.Contains(failure.Text, "deadline") {
		t.Fatalf("unexpected error text %q", failure.Text)
	}
}

func TestSplitWritesStillParse(t *testing.T) {
	server := startServer(t, Config{SplitWrites: true})
	address := server.Address()

	token := obtainTicket(t, address, "erin")
	put, err := wire.BuildPutMessage(token, "chopped delivery")
	if err != nil {
		t.Fatalf("building put request: %v", err)
	}
	response, err := wire.ParseResponse(roundTrip(t, address, put))
	if err != nil {
		t.Fatalf("parsing put response: %v", err)
	}
	if _, ok := response.(*wire.InfoResponse); !ok {
		t.Fatalf("expected info response, got %#v", response)
	}
}

func TestConcurrentClients(t *testing.T) {
	server := startServer(t, Config{})
	address := server.Address()

	const clients = 8
	done := make(chan error, clients)
	for i := 0; i < clients; i++ {
		go func(i int) {
			username := "user" + string(rune('a'+i))
			request, err := wire.BuildObtainTicket(username)
			if err != nil {
				done <- err
				return
			}
			conn, err := net.Dial("tcp", address)
			if err != nil {
				done <- err
				return
			}
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(5 * time.Second))
			if _, err := conn.Write(request); err != nil {
				done <- err
				return
			}
			header := make([]byte, tlv.HeaderSize)
			if _, err := io.ReadFull(conn, header); err != nil {
				done <- err
				return
			}
			body := make([]byte, binary.BigEndian.Uint16(header[2:4]))
			if _, err := io.ReadFull(conn, body); err != nil {
				done <- err
				return
			}
			_, err = wire.ParseResponse(append(header, body...))
			done <- err
		}(i)
	}
	for i := 0; i < clients; i++ {
		if err := <-done; err != nil {
			t.Fatalf("client %d failed: %v", i, err)
		}
	}
}

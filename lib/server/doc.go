// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package server serves the message board protocol on a TCP socket.
//
// Each accepted connection handles exactly one request-response
// cycle in its own goroutine: the client writes one TLV request PDU,
// the server dispatches it against the ticket manager and the board,
// writes one response PDU, and closes; the protocol has no
// keep-alive.
//
// Reads run under two independent timeouts: a per-read socket
// deadline so a silent peer cannot park a goroutine, and a wall-clock
// deadline for the whole request so a slow-trickling peer cannot
// either. The declared PDU size is checked against the maximum before
// the body is read.
//
// Every failure path produces either an ERROR_RESPONSE (best effort)
// or a closed connection, never a hang, and never crashes the accept
// loop. Protocol errors and application errors share one wire shape;
// only the text differs.
package server

// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rolandweber/Pityoulish-sub000/lib/board"
	"github.com/rolandweber/Pityoulish-sub000/lib/netutil"
	"github.com/rolandweber/Pityoulish-sub000/lib/ticket"
	"github.com/rolandweber/Pityoulish-sub000/lib/tlv"
	"github.com/rolandweber/Pityoulish-sub000/lib/wire"
)

// Transport-level faults. Each closes the connection after a
// best-effort error response.
var (
	ErrHeaderTooShort    = errors.New("server: connection closed before a complete header arrived")
	ErrRequestTooLarge   = errors.New("server: declared request size exceeds the maximum PDU size")
	ErrIncompleteRequest = errors.New("server: connection closed before the declared request size arrived")
	ErrDeadlineExpired   = errors.New("server: request deadline expired")
)

// Config holds the transport tuning knobs. Zero values are replaced
// by the defaults below.
type Config struct {
	// ReadTimeout is the per-read socket deadline.
	ReadTimeout time.Duration

	// RequestTimeout is the wall-clock budget for receiving one
	// complete request.
	RequestTimeout time.Duration

	// MaxPDUSize caps the total request size, header included.
	MaxPDUSize int

	// SplitWrites makes the server deliver every response in at
	// least two writes, exercising client-side reassembly.
	SplitWrites bool
}

const (
	defaultReadTimeout    = 10 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxPDUSize <= 0 {
		c.MaxPDUSize = wire.MaxPDUSize
	}
	return c
}

// Server accepts message board protocol connections. Create with
// New, then call Serve.
type Server struct {
	config   Config
	board    *board.Board
	tickets  *ticket.Manager
	logger   *slog.Logger
	listener net.Listener

	// activeConnections tracks in-flight handlers for graceful
	// shutdown. Serve waits for all of them before returning.
	activeConnections sync.WaitGroup
}

// New creates a server listening on address (e.g. ":2888", use ":0"
// for a random port) serving the given board and ticket manager.
func New(address string, config Config, messageBoard *board.Board, tickets *ticket.Manager, logger *slog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("server: listening on %s: %w", address, err)
	}
	return &Server{
		config:   config.withDefaults(),
		board:    messageBoard,
		tickets:  tickets,
		logger:   logger,
		listener: listener,
	}, nil
}

// Address returns the listener's address in "host:port" form.
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

// Serve accepts connections and handles each in its own goroutine.
// Blocks until ctx is cancelled, then stops accepting and waits for
// active handlers to complete.
func (s *Server) Serve(ctx context.Context) error {
	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	s.logger.Info("server listening", "address", s.Address())

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// handleConnection processes one request-response cycle.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	logger := s.logger.With("remote", remote)

	request, err := s.readRequest(conn)
	if err != nil {
		logger.Warn("request read failed", "error", err)
		s.writeErrorResponse(conn, err)
		return
	}

	response := s.dispatch(request, remoteIP(conn))
	if err := s.writeResponse(conn, response); err != nil {
		if !netutil.IsExpectedCloseError(err) {
			logger.Warn("response write failed", "error", err)
		}
		return
	}
	logger.Debug("request served", "size", len(request))
}

// readRequest reads one complete request PDU off the connection. The
// state machine is header first (at least four bytes), then the body
// until the declared size, under the per-read timeout and the
// wall-clock deadline.
func (s *Server) readRequest(conn net.Conn) ([]byte, error) {
	deadline := time.Now().Add(s.config.RequestTimeout)
	buffer := make([]byte, s.config.MaxPDUSize)
	received := 0

	// Header phase: the first read must deliver at least the four
	// header bytes. A client that dribbles the header one byte at a
	// time is not a conforming client.
	n, err := s.readChunk(conn, buffer, deadline)
	received += n
	if err != nil && isTimeout(err) {
		return nil, ErrDeadlineExpired
	}
	if received < tlv.HeaderSize {
		return nil, ErrHeaderTooShort
	}

	// The transport only needs the declared length; full header
	// validation is the parser's job. The length bytes are
	// meaningful even if the type byte is garbage; a garbage type
	// fails dispatch with a proper error response.
	length := int(binary.BigEndian.Uint16(buffer[2:4]))
	total := tlv.HeaderSize + length
	if total > s.config.MaxPDUSize {
		return nil, ErrRequestTooLarge
	}

	// Body phase: read until the declared size is reached.
	for received < total {
		n, err := s.readChunk(conn, buffer[received:total], deadline)
		received += n
		if err != nil {
			if isTimeout(err) {
				return nil, ErrDeadlineExpired
			}
			if err == io.EOF || netutil.IsExpectedCloseError(err) {
				return nil, ErrIncompleteRequest
			}
			return nil, err
		}
	}
	return buffer[:total], nil
}

// readChunk performs one read with the per-read timeout, clamped to
// the request's wall-clock deadline.
func (s *Server) readChunk(conn net.Conn, into []byte, deadline time.Time) (int, error) {
	readDeadline := time.Now().Add(s.config.ReadTimeout)
	if readDeadline.After(deadline) {
		readDeadline = deadline
	}
	if !readDeadline.After(time.Now()) {
		return 0, ErrDeadlineExpired
	}
	if err := conn.SetReadDeadline(readDeadline); err != nil {
		return 0, err
	}
	return conn.Read(into)
}

// writeResponse writes the response PDU, split into two writes when
// configured so clients must reassemble.
func (s *Server) writeResponse(conn net.Conn, response []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
		return err
	}
	if s.config.SplitWrites && len(response) > tlv.HeaderSize {
		if _, err := conn.Write(response[:tlv.HeaderSize]); err != nil {
			return err
		}
		_, err := conn.Write(response[tlv.HeaderSize:])
		return err
	}
	_, err := conn.Write(response)
	return err
}

// writeErrorResponse sends a best-effort ERROR_RESPONSE for a
// transport-level fault. Failures are ignored, the connection is
// closing either way.
func (s *Server) writeErrorResponse(conn net.Conn, cause error) {
	response, err := wire.BuildErrorResponseFromError(cause)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(s.config.ReadTimeout))
	conn.Write(response)
}

// isTimeout reports whether err is a socket deadline expiry.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// remoteIP extracts the client's IP (without port) as the bound
// network identity for tickets.
func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

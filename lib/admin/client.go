// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rolandweber/Pityoulish-sub000/lib/codec"
)

// dialTimeout is the maximum time to wait for a connection to the
// admin socket. Covers only the connect phase.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long the client waits for the server to
// send a response after writing the request. Matched to the server's
// readTimeout + writeTimeout to account for handler execution time.
const responseReadTimeout = 45 * time.Second

// maxResponseSize caps a single CBOR response. Matches the server's
// maxRequestSize for symmetry.
const maxResponseSize = 1024 * 1024

// ActionError is returned by Call when the server responds with
// ok=false. It wraps the server's error message and the action that
// failed.
type ActionError struct {
	Action  string
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("admin error on %q: %s", e.Action, e.Message)
}

// Client sends CBOR requests to a board daemon's admin socket. Each
// Call opens a new connection, matching the server's one-request-per-
// connection model.
type Client struct {
	socketPath string
}

// NewClient creates a client for the admin socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Status fetches the daemon's status summary.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.Call(ctx, "status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// PutSystemMessage posts or replaces the system message in slot.
func (c *Client) PutSystemMessage(ctx context.Context, slot, text string) (*MessageInfo, error) {
	var info MessageInfo
	fields := map[string]any{"slot": slot, "text": text}
	if err := c.Call(ctx, "put-system", fields, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RemoveSystemMessage removes the system message in slot.
func (c *Client) RemoveSystemMessage(ctx context.Context, slot string) error {
	return c.Call(ctx, "remove-system", map[string]any{"slot": slot}, nil)
}

// Export fetches an encoded board snapshot. compression is "none",
// "lz4", "zstd", or empty for the server default.
func (c *Client) Export(ctx context.Context, compression string) (*ExportResult, error) {
	var result ExportResult
	fields := map[string]any{}
	if compression != "" {
		fields["compression"] = compression
	}
	if err := c.Call(ctx, "export", fields, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Call sends a CBOR request and decodes the response.
//
// The fields parameter may contain handler-specific request fields;
// the client adds "action" itself. Pass nil for actions without
// parameters.
//
// On success, if result is non-nil and the response contains data,
// the data is CBOR-decoded into result. On failure the server's
// message is returned as an *ActionError; connection and encoding
// errors are returned as plain errors.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}

	if !response.OK {
		return &ActionError{
			Action:  action,
			Message: response.Error,
		}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// send connects to the socket, writes the request, and reads the
// response. Each call creates a new connection.
func (c *Client) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	// Half-close the write side. CBOR is self-delimiting so this is
	// not strictly necessary, but it lets the server's read side see
	// EOF cleanly.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}

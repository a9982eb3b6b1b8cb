// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"

	"github.com/rolandweber/Pityoulish-sub000/lib/wire"
)

// ErrTicketUsedUp rejects a put whose ticket has no actions left. The
// ticket itself stays live until returned or expired.
var ErrTicketUsedUp = errors.New("server: ticket has no actions left")

// fallbackErrorResponse is a pre-encoded ERROR_RESPONSE ("error") for
// the case where encoding the real error fails.
var fallbackErrorResponse = []byte{
	0xE2, 0x82, 0x00, 0x09,
	0xC0, 0x82, 0x00, 0x05, 'e', 'r', 'r', 'o', 'r',
}

// dispatch parses one request PDU and executes it against the board
// and the ticket manager. Always returns a complete response PDU;
// faults become ERROR_RESPONSEs.
func (s *Server) dispatch(request []byte, address string) []byte {
	response, err := s.execute(request, address)
	if err != nil {
		response, err = wire.BuildErrorResponseFromError(err)
		if err != nil {
			return fallbackErrorResponse
		}
	}
	return response
}

func (s *Server) execute(request []byte, address string) ([]byte, error) {
	parsed, err := wire.ParseRequest(request)
	if err != nil {
		return nil, err
	}

	switch request := parsed.(type) {
	case *wire.ListMessagesRequest:
		return s.listMessages(request)
	case *wire.PutMessageRequest:
		return s.putMessage(request, address)
	case *wire.ObtainTicketRequest:
		return s.obtainTicket(request, address)
	case *wire.ReturnTicketRequest:
		return s.returnTicket(request, address)
	case *wire.ReplaceTicketRequest:
		return s.replaceTicket(request, address)
	default:
		return nil, fmt.Errorf("server: unhandled request %T", parsed)
	}
}

func (s *Server) listMessages(request *wire.ListMessagesRequest) ([]byte, error) {
	batch, err := s.board.ListMessages(request.Limit, request.Marker)
	if err != nil {
		return nil, err
	}

	out := wire.MessageBatch{
		Messages: make([]wire.Message, len(batch.Messages)),
		Marker:   batch.Marker,
		Missed:   batch.Discontinuous,
	}
	for i, message := range batch.Messages {
		out.Messages[i] = wire.Message{
			Originator: message.Originator,
			Timestamp:  message.Timestamp,
			Text:       message.Text,
		}
	}
	return wire.BuildMessageBatch(out)
}

func (s *Server) putMessage(request *wire.PutMessageRequest, address string) ([]byte, error) {
	granted, err := s.tickets.Lookup(request.Ticket, address)
	if err != nil {
		return nil, err
	}
	if !granted.Punch() {
		return nil, ErrTicketUsedUp
	}
	s.board.PutMessage(granted.Username(), request.Text)
	return wire.BuildInfoResponse("message stored")
}

func (s *Server) obtainTicket(request *wire.ObtainTicketRequest, address string) ([]byte, error) {
	granted, err := s.tickets.Obtain(request.Originator, address)
	if err != nil {
		return nil, err
	}
	return wire.BuildTicketGrant(granted.Token())
}

func (s *Server) returnTicket(request *wire.ReturnTicketRequest, address string) ([]byte, error) {
	granted, err := s.tickets.Lookup(request.Ticket, address)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Return(granted); err != nil {
		return nil, err
	}
	return wire.BuildInfoResponse("ticket returned")
}

// replaceTicket is return-then-obtain in one request. After the old
// ticket is returned, the username and address are free again, so the
// obtain can only fail on internal faults.
func (s *Server) replaceTicket(request *wire.ReplaceTicketRequest, address string) ([]byte, error) {
	granted, err := s.tickets.Lookup(request.Ticket, address)
	if err != nil {
		return nil, err
	}
	username := granted.Username()
	if err := s.tickets.Return(granted); err != nil {
		return nil, err
	}
	replacement, err := s.tickets.Obtain(username, address)
	if err != nil {
		return nil, err
	}
	return wire.BuildTicketGrant(replacement.Token())
}

// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"

	"github.com/rolandweber/Pityoulish-sub000/lib/tlv"
)

// Request is one of the five typed request shapes. Use a type switch
// to dispatch:
//
//	switch request := request.(type) {
//	case *wire.ListMessagesRequest: ...
//	case *wire.PutMessageRequest: ...
//	}
type Request interface {
	isRequest()
}

// ListMessagesRequest asks for a batch of messages.
type ListMessagesRequest struct {
	// Limit is the maximum batch size, 1..127.
	Limit int

	// Marker is the continuation token from a previous batch. Empty
	// means "from the oldest retained message".
	Marker string
}

// PutMessageRequest posts a user message, authorized by a ticket.
type PutMessageRequest struct {
	Ticket string
	Text   string
}

// ObtainTicketRequest requests a fresh ticket for a username.
type ObtainTicketRequest struct {
	Originator string
}

// ReturnTicketRequest hands a ticket back before it expires.
type ReturnTicketRequest struct {
	Ticket string
}

// ReplaceTicketRequest trades a live ticket for a fresh one.
type ReplaceTicketRequest struct {
	Ticket string
}

func (*ListMessagesRequest) isRequest()  {}
func (*PutMessageRequest) isRequest()    {}
func (*ObtainTicketRequest) isRequest()  {}
func (*ReturnTicketRequest) isRequest()  {}
func (*ReplaceTicketRequest) isRequest() {}

// ParseRequest decodes one request PDU. Any violation of the request
// shape is reported as a *ProtocolError.
func ParseRequest(data []byte) (Request, error) {
	outer, err := tlv.Parse(data, 0, len(data))
	if err != nil {
		return nil, fromTLVError(err, "")
	}
	if outer.End() != len(data) {
		return nil, &ProtocolError{
			Kind:   KindMalformedHeader,
			Offset: outer.End(),
			Detail: fmt.Sprintf("%d trailing bytes after request", len(data)-outer.End()),
		}
	}

	switch outer.Type {
	case tlv.TypeListMessages:
		return parseListMessages(outer)
	case tlv.TypePutMessage:
		return parsePutMessage(outer)
	case tlv.TypeObtainTicket:
		return parseObtainTicket(outer)
	case tlv.TypeReturnTicket:
		return parseReturnTicket(outer)
	case tlv.TypeReplaceTicket:
		return parseReplaceTicket(outer)
	default:
		return nil, &ProtocolError{
			Kind:   KindUnexpectedField,
			Field:  outer.Type.String(),
			Offset: outer.Start,
			Detail: "not a request type",
		}
	}
}

// collectFields walks the children of outer once, checking each
// against the expected field set and rejecting duplicates. The
// expected slice doubles as the reporting order for missing mandatory
// fields: when several are missing, the first one in expected order
// is the one named.
func collectFields(outer tlv.Record, expected []tlv.Type) (map[tlv.Type]tlv.Record, error) {
	allowed := make(map[tlv.Type]bool, len(expected))
	for _, typ := range expected {
		allowed[typ] = true
	}

	fields := make(map[tlv.Type]tlv.Record, len(expected))
	child, ok, err := outer.FirstChild()
	if err != nil {
		return nil, fromTLVError(err, "")
	}
	for ok {
		if !allowed[child.Type] {
			return nil, &ProtocolError{
				Kind:   KindUnexpectedField,
				Field:  child.Type.String(),
				Offset: child.Start,
				Detail: fmt.Sprintf("not expected in %s", outer.Type),
			}
		}
		if _, seen := fields[child.Type]; seen {
			return nil, &ProtocolError{
				Kind:   KindDuplicateField,
				Field:  child.Type.String(),
				Offset: child.Start,
				Detail: fmt.Sprintf("appears more than once in %s", outer.Type),
			}
		}
		fields[child.Type] = child

		child, ok, err = child.NextSibling(outer.End())
		if err != nil {
			return nil, fromTLVError(err, "")
		}
	}
	return fields, nil
}

// requireField returns the collected record for typ, or a
// MissingField error naming it.
func requireField(outer tlv.Record, fields map[tlv.Type]tlv.Record, typ tlv.Type) (tlv.Record, error) {
	record, ok := fields[typ]
	if !ok {
		return tlv.Record{}, &ProtocolError{
			Kind:   KindMissingField,
			Field:  typ.String(),
			Offset: outer.Start,
			Detail: fmt.Sprintf("required in %s", outer.Type),
		}
	}
	return record, nil
}

func parseListMessages(outer tlv.Record) (Request, error) {
	fields, err := collectFields(outer, []tlv.Type{tlv.TypeLimit, tlv.TypeMarker})
	if err != nil {
		return nil, err
	}

	limitRecord, err := requireField(outer, fields, tlv.TypeLimit)
	if err != nil {
		return nil, err
	}
	limit, err := decodeLimit(limitRecord)
	if err != nil {
		return nil, err
	}

	request := &ListMessagesRequest{Limit: limit}
	if markerRecord, ok := fields[tlv.TypeMarker]; ok {
		request.Marker, err = decodeToken(markerRecord)
		if err != nil {
			return nil, err
		}
	}
	return request, nil
}

func parsePutMessage(outer tlv.Record) (Request, error) {
	fields, err := collectFields(outer, []tlv.Type{tlv.TypeTicket, tlv.TypeText})
	if err != nil {
		return nil, err
	}

	ticketRecord, err := requireField(outer, fields, tlv.TypeTicket)
	if err != nil {
		return nil, err
	}
	ticket, err := decodeToken(ticketRecord)
	if err != nil {
		return nil, err
	}

	textRecord, err := requireField(outer, fields, tlv.TypeText)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(textRecord)
	if err != nil {
		return nil, err
	}

	return &PutMessageRequest{Ticket: ticket, Text: text}, nil
}

func parseObtainTicket(outer tlv.Record) (Request, error) {
	fields, err := collectFields(outer, []tlv.Type{tlv.TypeOriginator})
	if err != nil {
		return nil, err
	}

	originatorRecord, err := requireField(outer, fields, tlv.TypeOriginator)
	if err != nil {
		return nil, err
	}
	originator, err := decodeOriginator(originatorRecord)
	if err != nil {
		return nil, err
	}
	return &ObtainTicketRequest{Originator: originator}, nil
}

func parseReturnTicket(outer tlv.Record) (Request, error) {
	fields, err := collectFields(outer, []tlv.Type{tlv.TypeTicket})
	if err != nil {
		return nil, err
	}
	ticketRecord, err := requireField(outer, fields, tlv.TypeTicket)
	if err != nil {
		return nil, err
	}
	ticket, err := decodeToken(ticketRecord)
	if err != nil {
		return nil, err
	}
	return &ReturnTicketRequest{Ticket: ticket}, nil
}

func parseReplaceTicket(outer tlv.Record) (Request, error) {
	fields, err := collectFields(outer, []tlv.Type{tlv.TypeTicket})
	if err != nil {
		return nil, err
	}
	ticketRecord, err := requireField(outer, fields, tlv.TypeTicket)
	if err != nil {
		return nil, err
	}
	ticket, err := decodeToken(ticketRecord)
	if err != nil {
		return nil, err
	}
	return &ReplaceTicketRequest{Ticket: ticket}, nil
}

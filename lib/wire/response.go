// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"

	"github.com/rolandweber/Pityoulish-sub000/lib/tlv"
)

// Response is one of the four typed response shapes.
type Response interface {
	isResponse()
}

// InfoResponse reports a successful mutation with a human-readable
// confirmation.
type InfoResponse struct {
	Text string
}

// ErrorResponse reports a rejected request or an internal fault. The
// wire shape is identical for both; only the text differs.
type ErrorResponse struct {
	Text string
}

// TicketGrant carries a freshly-issued ticket token.
type TicketGrant struct {
	Ticket string
}

// Message is one board entry as carried in a MESSAGE_BATCH.
type Message struct {
	Originator string
	Timestamp  string
	Text       string
}

// MessageBatch carries an ordered slice of messages (oldest first),
// the continuation marker, and the discontinuity indicator.
type MessageBatch struct {
	Messages []Message
	Marker   string

	// Missed indicates messages may have been evicted since the
	// request's marker was issued. Conservative: false positives are
	// tolerated, false negatives are not.
	Missed bool
}

func (*InfoResponse) isResponse()  {}
func (*ErrorResponse) isResponse() {}
func (*TicketGrant) isResponse()   {}
func (*MessageBatch) isResponse()  {}

// ParseResponse decodes one response PDU.
func ParseResponse(data []byte) (Response, error) {
	outer, err := tlv.Parse(data, 0, len(data))
	if err != nil {
		return nil, fromTLVError(err, "")
	}
	if outer.End() != len(data) {
		return nil, &ProtocolError{
			Kind:   KindMalformedHeader,
			Offset: outer.End(),
			Detail: fmt.Sprintf("%d trailing bytes after response", len(data)-outer.End()),
		}
	}

	switch outer.Type {
	case tlv.TypeInfoResponse:
		text, err := parseSingleText(outer, tlv.TypeText)
		if err != nil {
			return nil, err
		}
		return &InfoResponse{Text: text}, nil

	case tlv.TypeErrorResponse:
		text, err := parseSingleText(outer, tlv.TypeText)
		if err != nil {
			return nil, err
		}
		return &ErrorResponse{Text: text}, nil

	case tlv.TypeTicketGrant:
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
		return &TicketGrant{Ticket: ticket}, nil

	case tlv.TypeMessageBatch:
		return parseMessageBatch(outer)

	default:
		return nil, &ProtocolError{
			Kind:   KindUnexpectedField,
			Field:  outer.Type.String(),
			Offset: outer.Start,
			Detail: "not a response type",
		}
	}
}

// parseSingleText handles the INFO_RESPONSE and ERROR_RESPONSE
// shapes: a single mandatory TEXT field.
func parseSingleText(outer tlv.Record, typ tlv.Type) (string, error) {
	fields, err := collectFields(outer, []tlv.Type{typ})
	if err != nil {
		return "", err
	}
	textRecord, err := requireField(outer, fields, typ)
	if err != nil {
		return "", err
	}
	return decodeText(textRecord)
}

// parseMessageBatch decodes a MESSAGE_BATCH: a mandatory MARKER, an
// optional empty MISSED indicator, then zero or more MESSAGE records
// in board order. The repeated MESSAGE field rules out the set-based
// walker, so the children are consumed positionally.
func parseMessageBatch(outer tlv.Record) (Response, error) {
	batch := &MessageBatch{}

	child, ok, err := outer.FirstChild()
	if err != nil {
		return nil, fromTLVError(err, "")
	}
	if !ok || child.Type != tlv.TypeMarker {
		return nil, &ProtocolError{
			Kind:   KindMissingField,
			Field:  tlv.TypeMarker.String(),
			Offset: outer.Start,
			Detail: "MESSAGE_BATCH must start with a MARKER",
		}
	}
	batch.Marker, err = decodeToken(child)
	if err != nil {
		return nil, err
	}

	child, ok, err = child.NextSibling(outer.End())
	if err != nil {
		return nil, fromTLVError(err, "")
	}
	if ok && child.Type == tlv.TypeMissed {
		if child.Length != 0 {
			return nil, &ProtocolError{
				Kind:   KindInvalidValue,
				Field:  child.Type.String(),
				Offset: child.Start,
				Detail: fmt.Sprintf("length %d, want empty indicator", child.Length),
			}
		}
		batch.Missed = true
		child, ok, err = child.NextSibling(outer.End())
		if err != nil {
			return nil, fromTLVError(err, "")
		}
	}

	for ok {
		if child.Type != tlv.TypeMessage {
			return nil, &ProtocolError{
				Kind:   KindUnexpectedField,
				Field:  child.Type.String(),
				Offset: child.Start,
				Detail: "only MESSAGE records may follow the batch header fields",
			}
		}
		message, err := parseMessage(child)
		if err != nil {
			return nil, err
		}
		batch.Messages = append(batch.Messages, message)

		child, ok, err = child.NextSibling(outer.End())
		if err != nil {
			return nil, fromTLVError(err, "")
		}
	}
	return batch, nil
}

func parseMessage(outer tlv.Record) (Message, error) {
	fields, err := collectFields(outer, []tlv.Type{
		tlv.TypeOriginator, tlv.TypeTimestamp, tlv.TypeText,
	})
	if err != nil {
		return Message{}, err
	}

	originatorRecord, err := requireField(outer, fields, tlv.TypeOriginator)
	if err != nil {
		return Message{}, err
	}
	originator, err := decodeOriginator(originatorRecord)
	if err != nil {
		return Message{}, err
	}

	timestampRecord, err := requireField(outer, fields, tlv.TypeTimestamp)
	if err != nil {
		return Message{}, err
	}
	timestamp, err := decodeTimestamp(timestampRecord)
	if err != nil {
		return Message{}, err
	}

	textRecord, err := requireField(outer, fields, tlv.TypeText)
	if err != nil {
		return Message{}, err
	}
	text, err := decodeText(textRecord)
	if err != nil {
		return Message{}, err
	}

	return Message{Originator: originator, Timestamp: timestamp, Text: text}, nil
}

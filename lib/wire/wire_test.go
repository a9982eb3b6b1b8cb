// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/rolandweber/Pityoulish-sub000/lib/tlv"
)

func TestBuildListMessagesExactBytes(t *testing.T) {
	// E3 82 00 0D | C4 82 00 01 08 | C3 82 00 04 68 65 72 65
	encoded, err := BuildListMessages(8, "here")
	if err != nil {
		t.Fatalf("BuildListMessages: %v", err)
	}
	want := []byte{
		0xE3, 0x82, 0x00, 0x0D,
		0xC4, 0x82, 0x00, 0x01, 0x08,
		0xC3, 0x82, 0x00, 0x04, 0x68, 0x65, 0x72, 0x65,
	}
	if !bytes.Equal(encoded, want) {
		t.Errorf("encoded = % X\nwant      % X", encoded, want)
	}
}

func TestRequestRoundTrips(t *testing.T) {
	tests := []struct {
		name    string
		build   func() ([]byte, error)
		request Request
	}{
		{
			name:    "list messages without marker",
			build:   func() ([]byte, error) { return BuildListMessages(127, "") },
			request: &ListMessagesRequest{Limit: 127},
		},
		{
			name:    "list messages with marker",
			build:   func() ([]byte, error) { return BuildListMessages(1, "qfzk") },
			request: &ListMessagesRequest{Limit: 1, Marker: "qfzk"},
		},
		{
			name:    "put message",
			build:   func() ([]byte, error) { return BuildPutMessage("alice3fk2", "héllo wörld") },
			request: &PutMessageRequest{Ticket: "alice3fk2", Text: "héllo wörld"},
		},
		{
			name:    "obtain ticket",
			build:   func() ([]byte, error) { return BuildObtainTicket("alice_01") },
			request: &ObtainTicketRequest{Originator: "alice_01"},
		},
		{
			name:    "return ticket",
			build:   func() ([]byte, error) { return BuildReturnTicket("bobT7x") },
			request: &ReturnTicketRequest{Ticket: "bobT7x"},
		},
		{
			name:    "replace ticket",
			build:   func() ([]byte, error) { return BuildReplaceTicket("bobT7x") },
			request: &ReplaceTicketRequest{Ticket: "bobT7x"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			encoded, err := test.build()
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			decoded, err := ParseRequest(encoded)
			if err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if !reflect.DeepEqual(decoded, test.request) {
				t.Errorf("decoded = %+v, want %+v", decoded, test.request)
			}
		})
	}
}

func TestResponseRoundTrips(t *testing.T) {
	batch := MessageBatch{
		Messages: []Message{
			{Originator: "alice", Timestamp: "2026-08-28T09:15:00Z", Text: "first"},
			{Originator: "bob", Timestamp: "2026-08-28T09:15:03Z", Text: "zwöite"},
		},
		Marker: "qabc",
		Missed: true,
	}

	tests := []struct {
		name     string
		build    func() ([]byte, error)
		response Response
	}{
		{
			name:     "info",
			build:    func() ([]byte, error) { return BuildInfoResponse("message stored") },
			response: &InfoResponse{Text: "message stored"},
		},
		{
			name:     "error",
			build:    func() ([]byte, error) { return BuildErrorResponse("no such ticket") },
			response: &ErrorResponse{Text: "no such ticket"},
		},
		{
			name:     "ticket grant",
			build:    func() ([]byte, error) { return BuildTicketGrant("alicek3J9q") },
			response: &TicketGrant{Ticket: "alicek3J9q"},
		},
		{
			name:     "message batch",
			build:    func() ([]byte, error) { return BuildMessageBatch(batch) },
			response: &batch,
		},
		{
			name: "empty batch",
			build: func() ([]byte, error) {
				return BuildMessageBatch(MessageBatch{Marker: "qa"})
			},
			response: &MessageBatch{Marker: "qa"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			encoded, err := test.build()
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			decoded, err := ParseResponse(encoded)
			if err != nil {
				t.Fatalf("ParseResponse: %v", err)
			}
			if !reflect.DeepEqual(decoded, test.response) {
				t.Errorf("decoded = %+v, want %+v", decoded, test.response)
			}
		})
	}
}

func TestParseRequestMissingLimit(t *testing.T) {
	// A LIST_MESSAGES with only a MARKER must name LIMIT as missing.
	buffer := []byte{
		0xE3, 0x82, 0x00, 0x08,
		0xC3, 0x82, 0x00, 0x04, 'h', 'e', 'r', 'e',
	}
	_, err := ParseRequest(buffer)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v, want *ProtocolError", err)
	}
	if protoErr.Kind != KindMissingField {
		t.Errorf("Kind = %v, want missing field", protoErr.Kind)
	}
	if protoErr.Field != "LIMIT" {
		t.Errorf("Field = %q, want LIMIT", protoErr.Field)
	}
}

func TestParseRequestDuplicateField(t *testing.T) {
	buffer := []byte{
		0xE3, 0x82, 0x00, 0x0A,
		0xC4, 0x82, 0x00, 0x01, 0x08,
		0xC4, 0x82, 0x00, 0x01, 0x09,
	}
	_, err := ParseRequest(buffer)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Kind != KindDuplicateField {
		t.Fatalf("error = %v, want duplicate field", err)
	}
	if protoErr.Field != "LIMIT" {
		t.Errorf("Field = %q, want LIMIT", protoErr.Field)
	}
	if protoErr.Offset != 9 {
		t.Errorf("Offset = %d, want 9", protoErr.Offset)
	}
}

func TestParseRequestUnexpectedField(t *testing.T) {
	// TICKET is not in the LIST_MESSAGES field set.
	buffer := []byte{
		0xE3, 0x82, 0x00, 0x09,
		0xC4, 0x82, 0x00, 0x01, 0x08,
		0xC6, 0x82, 0x00, 0x00,
	}
	_, err := ParseRequest(buffer)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Kind != KindUnexpectedField {
		t.Fatalf("error = %v, want unexpected field", err)
	}
	if protoErr.Field != "TICKET" {
		t.Errorf("Field = %q, want TICKET", protoErr.Field)
	}
}

func TestParseRequestOverlongField(t *testing.T) {
	// The nested LIMIT declares more bytes than the parent holds.
	buffer := []byte{
		0xE3, 0x82, 0x00, 0x05,
		0xC4, 0x82, 0x00, 0x10, 0x08,
	}
	_, err := ParseRequest(buffer)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Kind != KindOverlongField {
		t.Fatalf("error = %v, want overlong field", err)
	}
}

func TestParseRequestLimitValues(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
		ok    bool
	}{
		{"one", []byte{0x01}, true},
		{"max", []byte{0x7F}, true},
		{"zero", []byte{0x00}, false},
		{"high bit", []byte{0x80}, false},
		{"two bytes", []byte{0x00, 0x08}, false},
		{"empty", nil, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload := append([]byte{0xC4, 0x82, 0x00, byte(len(test.value))}, test.value...)
			buffer := append([]byte{0xE3, 0x82, 0x00, byte(len(payload))}, payload...)

			_, err := ParseRequest(buffer)
			if test.ok {
				if err != nil {
					t.Fatalf("ParseRequest: %v", err)
				}
				return
			}
			var protoErr *ProtocolError
			if !errors.As(err, &protoErr) || protoErr.Kind != KindInvalidValue {
				t.Fatalf("error = %v, want invalid value", err)
			}
		})
	}
}

func TestParseRequestUnknownOuterType(t *testing.T) {
	_, err := ParseRequest([]byte{0x55, 0x82, 0x00, 0x00})
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) || protoErr.Kind != KindMalformedHeader {
		t.Fatalf("error = %v, want malformed header", err)
	}
}

func TestParseRequestResponseTypeAsRequest(t *testing.T) {
	encoded, err := BuildInfoResponse("nope")
	if err != nil {
		t.Fatalf("BuildInfoResponse: %v", err)
	}
	_, err = ParseRequest(encoded)
	if !IsProtocolError(err, KindUnexpectedField) {
		t.Fatalf("error = %v, want unexpected field", err)
	}
}

func TestParseRequestUndecodableOriginator(t *testing.T) {
	// "al ice" contains a space, outside the originator alphabet.
	payload := []byte{0xC1, 0x82, 0x00, 0x06, 'a', 'l', ' ', 'i', 'c', 'e'}
	buffer := append([]byte{0xE6, 0x82, 0x00, byte(len(payload))}, payload...)
	_, err := ParseRequest(buffer)
	if !IsProtocolError(err, KindUndecodableString) {
		t.Fatalf("error = %v, want undecodable string", err)
	}
}

func TestParseResponseTrailingBytes(t *testing.T) {
	encoded, err := BuildInfoResponse("ok")
	if err != nil {
		t.Fatalf("BuildInfoResponse: %v", err)
	}
	_, err = ParseResponse(append(encoded, 0x00))
	if !IsProtocolError(err, KindMalformedHeader) {
		t.Fatalf("error = %v, want malformed header for trailing bytes", err)
	}
}

func TestBatchSizeInvariant(t *testing.T) {
	encoded, err := BuildMessageBatch(MessageBatch{
		Marker: "qb",
		Messages: []Message{
			{Originator: "carol", Timestamp: "2026-08-28T10:00:00Z", Text: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("BuildMessageBatch: %v", err)
	}
	record, err := tlv.Parse(encoded, 0, len(encoded))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if record.Size() != len(encoded) {
		t.Errorf("record size %d != PDU size %d", record.Size(), len(encoded))
	}
}

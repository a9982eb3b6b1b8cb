// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package tlv

import (
	"encoding/binary"
	"fmt"
)

// Type is the one-byte type tag of a TLV record. The values are
// protocol constants; changing them breaks wire compatibility.
type Type byte

// Primitive types. The value is a raw string or a single byte.
const (
	TypeText       Type = 0xC0
	TypeOriginator Type = 0xC1
	TypeTimestamp  Type = 0xC2
	TypeMarker     Type = 0xC3
	TypeLimit      Type = 0xC4
	TypeMissed     Type = 0xC5
	TypeTicket     Type = 0xC6
)

// Constructed types. The value is a concatenation of nested records.
const (
	TypeMessage       Type = 0xE0
	TypeInfoResponse  Type = 0xE1
	TypeErrorResponse Type = 0xE2
	TypeListMessages  Type = 0xE3
	TypeMessageBatch  Type = 0xE4
	TypePutMessage    Type = 0xE5
	TypeObtainTicket  Type = 0xE6
	TypeTicketGrant   Type = 0xE7
	TypeReturnTicket  Type = 0xE8
	TypeReplaceTicket Type = 0xE9
)

// typeNames maps each known type to its protocol name. Membership in
// this map is what makes a type byte valid for [Parse].
var typeNames = map[Type]string{
	TypeText:          "TEXT",
	TypeOriginator:    "ORIGINATOR",
	TypeTimestamp:     "TIMESTAMP",
	TypeMarker:        "MARKER",
	TypeLimit:         "LIMIT",
	TypeMissed:        "MISSED",
	TypeTicket:        "TICKET",
	TypeMessage:       "MESSAGE",
	TypeInfoResponse:  "INFO_RESPONSE",
	TypeErrorResponse: "ERROR_RESPONSE",
	TypeListMessages:  "LIST_MESSAGES",
	TypeMessageBatch:  "MESSAGE_BATCH",
	TypePutMessage:    "PUT_MESSAGE",
	TypeObtainTicket:  "OBTAIN_TICKET",
	TypeTicketGrant:   "TICKET_GRANT",
	TypeReturnTicket:  "RETURN_TICKET",
	TypeReplaceTicket: "REPLACE_TICKET",
}

// String returns the protocol name of the type, or a hex rendering
// for unknown type bytes.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", byte(t))
}

// Known reports whether t is a type byte defined by the protocol.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// Constructed reports whether t carries nested records as its value.
func (t Type) Constructed() bool {
	return t >= TypeMessage && t <= TypeReplaceTicket
}

const (
	// HeaderSize is the fixed size of every record header: one type
	// byte, the length-of-length marker, and two length bytes.
	HeaderSize = 4

	// lengthOfLength is the only supported length encoding marker.
	// 0x82 announces a two-byte length field, BER style.
	lengthOfLength = 0x82

	// MaxLength is the largest representable value length. Bounding
	// lengths to 16 bits is what lets the builder rewrite a length
	// in place without relocating data.
	MaxLength = 0xFFFF
)

// ErrorKind classifies a structural TLV failure.
type ErrorKind int

const (
	// KindMalformedHeader: the type byte is unknown, the
	// length-of-length marker is unsupported, or the header itself
	// does not fit in the valid range.
	KindMalformedHeader ErrorKind = iota

	// KindOverlongRecord: the record's declared end reaches past the
	// end of its container.
	KindOverlongRecord
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedHeader:
		return "malformed header"
	case KindOverlongRecord:
		return "overlong record"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ParseError reports a structurally invalid record. Offset is the
// position of the offending record's type byte within the buffer.
type ParseError struct {
	Kind   ErrorKind
	Offset int
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tlv: %s at offset %d: %s", e.Kind, e.Offset, e.Detail)
}

// Record is an immutable parsed view of one TLV record. It shares the
// backing buffer with the caller but never caches anything that could
// go stale: type, start, and length are fixed at parse time and the
// value bytes are sliced on demand.
type Record struct {
	// Type is the record's type tag.
	Type Type

	// Start is the offset of the type byte within the buffer.
	Start int

	// Length is the declared value length.
	Length int

	data []byte
}

// ValueStart returns the offset of the first value byte.
func (r Record) ValueStart() int { return r.Start + HeaderSize }

// End returns the offset one past the record's last value byte.
func (r Record) End() int { return r.Start + HeaderSize + r.Length }

// Size returns the record's total encoded size, header included.
func (r Record) Size() int { return HeaderSize + r.Length }

// Value returns the record's value bytes. The slice aliases the
// parse buffer; callers must not modify it.
func (r Record) Value() []byte {
	return r.data[r.ValueStart():r.End()]
}

// Parse reads the record starting at position. The record, header
// included, must lie entirely within buffer[position:limit]; limit is
// the container's declared end, not the buffer's capacity.
func Parse(buffer []byte, position, limit int) (Record, error) {
	if limit > len(buffer) {
		limit = len(buffer)
	}
	if position < 0 || position+HeaderSize > limit {
		return Record{}, &ParseError{
			Kind:   KindMalformedHeader,
			Offset: position,
			Detail: fmt.Sprintf("need %d header bytes, %d available", HeaderSize, limit-position),
		}
	}

	typ := Type(buffer[position])
	if !typ.Known() {
		return Record{}, &ParseError{
			Kind:   KindMalformedHeader,
			Offset: position,
			Detail: fmt.Sprintf("unknown type byte 0x%02X", buffer[position]),
		}
	}
	if buffer[position+1] != lengthOfLength {
		return Record{}, &ParseError{
			Kind:   KindMalformedHeader,
			Offset: position,
			Detail: fmt.Sprintf("unsupported length encoding 0x%02X", buffer[position+1]),
		}
	}

	length := int(binary.BigEndian.Uint16(buffer[position+2 : position+4]))
	record := Record{Type: typ, Start: position, Length: length, data: buffer}
	if record.End() > limit {
		return Record{}, &ParseError{
			Kind:   KindOverlongRecord,
			Offset: position,
			Detail: fmt.Sprintf("declared end %d exceeds container end %d", record.End(), limit),
		}
	}
	return record, nil
}

// FirstChild parses the first nested record of a constructed r.
// Returns ok=false for primitive types and for empty values.
func (r Record) FirstChild() (child Record, ok bool, err error) {
	if !r.Type.Constructed() || r.Length == 0 {
		return Record{}, false, nil
	}
	child, err = Parse(r.data, r.ValueStart(), r.End())
	if err != nil {
		return Record{}, false, err
	}
	return child, true, nil
}

// NextSibling parses the record immediately following r. Returns
// ok=false when r.End() reaches containerEnd, meaning r was the last
// record in its container.
func (r Record) NextSibling(containerEnd int) (next Record, ok bool, err error) {
	if r.End() >= containerEnd {
		return Record{}, false, nil
	}
	next, err = Parse(r.data, r.End(), containerEnd)
	if err != nil {
		return Record{}, false, err
	}
	return next, true, nil
}

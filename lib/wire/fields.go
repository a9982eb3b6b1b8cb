// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"
	"unicode/utf8"

	"github.com/rolandweber/Pityoulish-sub000/lib/tlv"
)

// MaxPDUSize is the largest request PDU the transport accepts, header
// included. Responses are bounded only by the TLV length field.
const MaxPDUSize = 1024

const (
	// MinLimit and MaxLimit bound the LIMIT field. The value is a
	// single byte with the high bit unused.
	MinLimit = 1
	MaxLimit = 127

	// MaxOriginatorLength bounds the display name carried in
	// ORIGINATOR fields.
	MaxOriginatorLength = 32
)

// ValidOriginator reports whether name is acceptable as an
// originator: 1..32 characters, ASCII letters, digits, and
// underscore. The originator is embedded verbatim in ticket tokens,
// so its alphabet must be a subset of the token alphabet.
func ValidOriginator(name string) bool {
	if len(name) < 1 || len(name) > MaxOriginatorLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isTokenByte(name[i]) {
			return false
		}
	}
	return true
}

// ValidToken reports whether s is acceptable as an opaque TICKET or
// MARKER token: non-empty ASCII letters, digits, and underscore.
func ValidToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTokenByte(s[i]) {
			return false
		}
	}
	return true
}

func isTokenByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_':
		return true
	}
	return false
}

// decodeLimit reads a LIMIT field: exactly one byte, value 1..127.
func decodeLimit(record tlv.Record) (int, error) {
	if record.Length != 1 {
		return 0, &ProtocolError{
			Kind:   KindInvalidValue,
			Field:  record.Type.String(),
			Offset: record.Start,
			Detail: fmt.Sprintf("length %d, want exactly 1 byte", record.Length),
		}
	}
	value := int(record.Value()[0])
	if value < MinLimit || value > MaxLimit {
		return 0, &ProtocolError{
			Kind:   KindInvalidValue,
			Field:  record.Type.String(),
			Offset: record.Start,
			Detail: fmt.Sprintf("value %d out of range %d..%d", value, MinLimit, MaxLimit),
		}
	}
	return value, nil
}

// decodeText reads a TEXT field as UTF-8.
func decodeText(record tlv.Record) (string, error) {
	value := record.Value()
	if !utf8.Valid(value) {
		return "", &ProtocolError{
			Kind:   KindUndecodableString,
			Field:  record.Type.String(),
			Offset: record.Start,
			Detail: "value is not valid UTF-8",
		}
	}
	return string(value), nil
}

// decodeOriginator reads an ORIGINATOR field in the restricted
// originator alphabet.
func decodeOriginator(record tlv.Record) (string, error) {
	value := string(record.Value())
	if !ValidOriginator(value) {
		return "", &ProtocolError{
			Kind:   KindUndecodableString,
			Field:  record.Type.String(),
			Offset: record.Start,
			Detail: fmt.Sprintf("%q is not a valid originator", value),
		}
	}
	return value, nil
}

// decodeToken reads an opaque TICKET or MARKER token in the
// restricted token alphabet.
func decodeToken(record tlv.Record) (string, error) {
	value := string(record.Value())
	if !ValidToken(value) {
		return "", &ProtocolError{
			Kind:   KindUndecodableString,
			Field:  record.Type.String(),
			Offset: record.Start,
			Detail: fmt.Sprintf("%q is not a valid token", value),
		}
	}
	return value, nil
}

// decodeTimestamp reads a TIMESTAMP field: printable ASCII, as
// produced by the board's ISO-8601 formatter. The client does not
// re-validate the calendar fields; the timestamp is display data.
func decodeTimestamp(record tlv.Record) (string, error) {
	value := record.Value()
	for i, b := range value {
		if b < 0x20 || b > 0x7E {
			return "", &ProtocolError{
				Kind:   KindUndecodableString,
				Field:  record.Type.String(),
				Offset: record.Start + tlv.HeaderSize + i,
				Detail: fmt.Sprintf("non-printable byte 0x%02X in timestamp", b),
			}
		}
	}
	return string(value), nil
}

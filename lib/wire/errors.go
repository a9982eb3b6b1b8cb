// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"

	"github.com/rolandweber/Pityoulish-sub000/lib/tlv"
)

// ErrorKind classifies a protocol violation detected while parsing a
// request or response.
type ErrorKind int

const (
	// KindMalformedHeader: a record header is structurally invalid
	// (unknown type byte, unsupported length encoding, or truncated).
	KindMalformedHeader ErrorKind = iota

	// KindUnexpectedField: a nested field is not in the expected set
	// for the enclosing request or response type.
	KindUnexpectedField

	// KindDuplicateField: a nested field appears more than once.
	KindDuplicateField

	// KindMissingField: a mandatory field is absent.
	KindMissingField

	// KindOverlongField: a nested field's declared end reaches past
	// its parent.
	KindOverlongField

	// KindInvalidValue: a field's value is out of range, such as a
	// LIMIT outside 1..127 or a multi-byte LIMIT.
	KindInvalidValue

	// KindUndecodableString: a string field's bytes are not valid for
	// the field's encoding (UTF-8 or the restricted ASCII subsets).
	KindUndecodableString
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedHeader:
		return "malformed header"
	case KindUnexpectedField:
		return "unexpected field"
	case KindDuplicateField:
		return "duplicate field"
	case KindMissingField:
		return "missing field"
	case KindOverlongField:
		return "overlong field"
	case KindInvalidValue:
		return "invalid value"
	case KindUndecodableString:
		return "undecodable string"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ProtocolError reports a protocol violation. Callers extract it with
// errors.As to distinguish violation kinds:
//
//	var protoErr *wire.ProtocolError
//	if errors.As(err, &protoErr) && protoErr.Kind == wire.KindMissingField { ... }
type ProtocolError struct {
	// Kind classifies the violation.
	Kind ErrorKind

	// Field names the offending field ("LIMIT", "TICKET", ...).
	// Empty when the violation is not tied to a specific field.
	Field string

	// Offset is the byte offset of the offending record within the
	// parsed PDU.
	Offset int

	// Detail describes the violation.
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("protocol: %s %s at offset %d: %s", e.Kind, e.Field, e.Offset, e.Detail)
	}
	return fmt.Sprintf("protocol: %s at offset %d: %s", e.Kind, e.Offset, e.Detail)
}

// IsProtocolError reports whether err is a *ProtocolError of the
// given kind.
func IsProtocolError(err error, kind ErrorKind) bool {
	var protoErr *ProtocolError
	return errors.As(err, &protoErr) && protoErr.Kind == kind
}

// fromTLVError converts a structural tlv failure into the
// corresponding ProtocolError. The field name is filled by callers
// that know which field was being read.
func fromTLVError(err error, field string) error {
	var parseErr *tlv.ParseError
	if !errors.As(err, &parseErr) {
		return err
	}
	kind := KindMalformedHeader
	if parseErr.Kind == tlv.KindOverlongRecord {
		kind = KindOverlongField
	}
	return &ProtocolError{
		Kind:   kind,
		Field:  field,
		Offset: parseErr.Offset,
		Detail: parseErr.Detail,
	}
}

// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire maps between TLV trees and the typed requests and
// responses of the message board protocol.
//
// The protocol has five request shapes (LIST_MESSAGES, PUT_MESSAGE,
// OBTAIN_TICKET, RETURN_TICKET, REPLACE_TICKET) and four response
// shapes (INFO_RESPONSE, ERROR_RESPONSE, TICKET_GRANT,
// MESSAGE_BATCH). Parsing walks a record's children exactly once and
// enforces the per-shape field set: a field outside the set, a
// duplicated field, a field overrunning its parent, or a missing
// mandatory field each surface a [ProtocolError] naming the offending
// field and byte offset.
//
// Building estimates a conservative buffer (three bytes per character
// covers any UTF-8 text the protocol admits), writes the record tree
// with the tlv builder, and trims to the written size.
//
// The wire format does not distinguish a rejected request from an
// internal fault: both are an ERROR_RESPONSE wrapping a TEXT field,
// so no implementation detail leaks to the client.
package wire

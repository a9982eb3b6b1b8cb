// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package tlv reads and writes the message board's type-length-value
// records directly over a caller-owned byte buffer.
//
// Every record on the wire is `type(1) 0x82 length(2, big-endian)
// value(length)`. The single supported length-of-length marker (0x82)
// keeps headers fixed at four bytes, so a builder can grow a record's
// length in place without ever relocating data. Primitive types carry
// a raw value; constructed types carry a concatenation of nested
// records.
//
// The package has two halves with no shared mutable state:
//
//   - [Parse], [Record.FirstChild], and [Record.NextSibling] give a
//     read-only, zero-copy view of an existing buffer. A Record is an
//     immutable (type, start, length) triple computed once at parse
//     time; nothing is lazily re-read from the buffer.
//   - [NewBuilder] and [Builder.AppendChild] write records using the
//     append-while-building pattern: a child is written immediately
//     after its parent's current end, and the caller folds the child's
//     size into the parent's length once the child is complete.
//
// Traversal is bounds-checked against the container's declared length,
// never against buffer capacity alone: a nested record that would
// reach past its parent surfaces [KindOverlongRecord] instead of
// silently reading adjacent unrelated data.
package tlv

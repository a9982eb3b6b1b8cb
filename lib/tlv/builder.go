// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package tlv

import (
	"encoding/binary"
	"fmt"
)

// Builder writes one TLV record into a caller-owned buffer. The
// builder keeps no cached length: Length and End are always read back
// from the two length bytes in the buffer, so there is no mutable
// state that can drift from the encoded bytes.
//
// Nested records are written with [Builder.AppendChild], which
// positions a child builder at the parent's current end. The caller
// finishes the child, then folds its size into the parent with
// [Builder.AddToLength].
type Builder struct {
	data  []byte
	start int
	typ   Type
}

// NewBuilder writes a header for typ at position with a zero length
// and returns a builder for the record. Fails when the buffer cannot
// hold the four header bytes.
func NewBuilder(typ Type, buffer []byte, position int) (*Builder, error) {
	if position < 0 || position+HeaderSize > len(buffer) {
		return nil, fmt.Errorf("tlv: no room for header at position %d in %d-byte buffer", position, len(buffer))
	}
	buffer[position] = byte(typ)
	buffer[position+1] = lengthOfLength
	binary.BigEndian.PutUint16(buffer[position+2:position+4], 0)
	return &Builder{data: buffer, start: position, typ: typ}, nil
}

// Type returns the record's type tag.
func (b *Builder) Type() Type { return b.typ }

// Start returns the offset of the record's type byte.
func (b *Builder) Start() int { return b.start }

// Length returns the record's current declared length, read back
// from the buffer.
func (b *Builder) Length() int {
	return int(binary.BigEndian.Uint16(b.data[b.start+2 : b.start+4]))
}

// End returns the offset one past the record's current last value byte.
func (b *Builder) End() int { return b.start + HeaderSize + b.Length() }

// Size returns the record's current total encoded size.
func (b *Builder) Size() int { return HeaderSize + b.Length() }

// SetLength rewrites the record's length field. Only the two length
// bytes change; no data is moved.
func (b *Builder) SetLength(length int) error {
	if length < 0 || length > MaxLength {
		return fmt.Errorf("tlv: length %d out of range 0..%d", length, MaxLength)
	}
	if b.start+HeaderSize+length > len(b.data) {
		return fmt.Errorf("tlv: length %d overruns %d-byte buffer", length, len(b.data))
	}
	binary.BigEndian.PutUint16(b.data[b.start+2:b.start+4], uint16(length))
	return nil
}

// AddToLength grows (or shrinks) the record's declared length by
// delta. Used after appending a fully-built child.
func (b *Builder) AddToLength(delta int) error {
	return b.SetLength(b.Length() + delta)
}

// SetText writes the UTF-8 bytes of text as the record's value and
// sets the length accordingly. Any previous value is overwritten.
func (b *Builder) SetText(text string) error {
	encoded := []byte(text)
	if err := b.SetLength(len(encoded)); err != nil {
		return err
	}
	copy(b.data[b.start+HeaderSize:], encoded)
	return nil
}

// SetByte writes a single-byte value and sets the length to one.
func (b *Builder) SetByte(value byte) error {
	if err := b.SetLength(1); err != nil {
		return err
	}
	b.data[b.start+HeaderSize] = value
	return nil
}

// AppendChild writes a zero-length header for typ immediately after
// the record's current end and returns a builder for the child. The
// parent's length is not touched; call AddToLength with the child's
// final size once the child is complete.
func (b *Builder) AppendChild(typ Type) (*Builder, error) {
	return NewBuilder(typ, b.data, b.End())
}

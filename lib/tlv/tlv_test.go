// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package tlv

import (
	"bytes"
	"errors"
	"testing"
)

func TestParsePrimitive(t *testing.T) {
	buffer := []byte{0xC0, 0x82, 0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}

	record, err := Parse(buffer, 0, len(buffer))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if record.Type != TypeText {
		t.Errorf("Type = %v, want TEXT", record.Type)
	}
	if record.Length != 5 {
		t.Errorf("Length = %d, want 5", record.Length)
	}
	if record.Size() != HeaderSize+record.Length {
		t.Errorf("Size = %d, want %d", record.Size(), HeaderSize+record.Length)
	}
	if string(record.Value()) != "hello" {
		t.Errorf("Value = %q, want hello", record.Value())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		buffer []byte
		limit  int
		kind   ErrorKind
	}{
		{
			name:   "unknown type byte",
			buffer: []byte{0x7F, 0x82, 0x00, 0x00},
			limit:  4,
			kind:   KindMalformedHeader,
		},
		{
			name:   "unsupported length encoding",
			buffer: []byte{0xC0, 0x81, 0x05, 0x00},
			limit:  4,
			kind:   KindMalformedHeader,
		},
		{
			name:   "header truncated",
			buffer: []byte{0xC0, 0x82, 0x00},
			limit:  3,
			kind:   KindMalformedHeader,
		},
		{
			name:   "declared end exceeds limit",
			buffer: []byte{0xC0, 0x82, 0x00, 0x10, 'x'},
			limit:  5,
			kind:   KindOverlongRecord,
		},
		{
			name: "limit tighter than buffer",
			// The record fits the buffer but not the declared
			// container range; capacity alone must not rescue it.
			buffer: []byte{0xC0, 0x82, 0x00, 0x04, 'a', 'b', 'c', 'd'},
			limit:  6,
			kind:   KindOverlongRecord,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.buffer, 0, test.limit)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Parse error = %v, want *ParseError", err)
			}
			if parseErr.Kind != test.kind {
				t.Errorf("Kind = %v, want %v", parseErr.Kind, test.kind)
			}
		})
	}
}

func TestTraverseChildren(t *testing.T) {
	// LIST_MESSAGES containing LIMIT(8) and MARKER("here").
	buffer := []byte{
		0xE3, 0x82, 0x00, 0x0D,
		0xC4, 0x82, 0x00, 0x01, 0x08,
		0xC3, 0x82, 0x00, 0x04, 'h', 'e', 'r', 'e',
	}

	outer, err := Parse(buffer, 0, len(buffer))
	if err != nil {
		t.Fatalf("Parse outer: %v", err)
	}
	if got := outer.Size(); got != HeaderSize+outer.Length {
		t.Fatalf("outer.Size = %d, want %d", got, HeaderSize+outer.Length)
	}

	limit, ok, err := outer.FirstChild()
	if err != nil || !ok {
		t.Fatalf("FirstChild: ok=%v err=%v", ok, err)
	}
	if limit.Type != TypeLimit || limit.Value()[0] != 8 {
		t.Errorf("first child = %v value %v, want LIMIT 8", limit.Type, limit.Value())
	}

	marker, ok, err := limit.NextSibling(outer.End())
	if err != nil || !ok {
		t.Fatalf("NextSibling: ok=%v err=%v", ok, err)
	}
	if marker.Type != TypeMarker || string(marker.Value()) != "here" {
		t.Errorf("second child = %v value %q, want MARKER here", marker.Type, marker.Value())
	}

	if _, ok, err := marker.NextSibling(outer.End()); ok || err != nil {
		t.Errorf("NextSibling past last child: ok=%v err=%v, want ok=false", ok, err)
	}

	// Child sizes must sum to the container length.
	if limit.Size()+marker.Size() != outer.Length {
		t.Errorf("child sizes %d+%d != container length %d", limit.Size(), marker.Size(), outer.Length)
	}
}

func TestFirstChildPrimitive(t *testing.T) {
	buffer := []byte{0xC0, 0x82, 0x00, 0x02, 'h', 'i'}
	record, err := Parse(buffer, 0, len(buffer))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok, err := record.FirstChild(); ok || err != nil {
		t.Errorf("FirstChild on primitive: ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestFirstChildEmptyConstructed(t *testing.T) {
	buffer := []byte{0xE4, 0x82, 0x00, 0x00}
	record, err := Parse(buffer, 0, len(buffer))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok, err := record.FirstChild(); ok || err != nil {
		t.Errorf("FirstChild on empty value: ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestChildOverrunsParent(t *testing.T) {
	// The nested TEXT declares 0x20 bytes but the parent only holds 4.
	// Bytes beyond the parent exist in the buffer; traversal must not
	// read them.
	buffer := make([]byte, 64)
	copy(buffer, []byte{
		0xE1, 0x82, 0x00, 0x08,
		0xC0, 0x82, 0x00, 0x20,
	})
	outer, err := Parse(buffer, 0, len(buffer))
	if err != nil {
		t.Fatalf("Parse outer: %v", err)
	}
	_, _, err = outer.FirstChild()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Kind != KindOverlongRecord {
		t.Fatalf("FirstChild error = %v, want overlong record", err)
	}
}

func TestBuilderSetText(t *testing.T) {
	buffer := make([]byte, 32)
	builder, err := NewBuilder(TypeText, buffer, 0)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if err := builder.SetText("bonjour"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	want := []byte{0xC0, 0x82, 0x00, 0x07, 'b', 'o', 'n', 'j', 'o', 'u', 'r'}
	if !bytes.Equal(buffer[:builder.End()], want) {
		t.Errorf("encoded = % X, want % X", buffer[:builder.End()], want)
	}

	// The builder reads its length back from the buffer.
	if builder.Length() != 7 {
		t.Errorf("Length = %d, want 7", builder.Length())
	}
}

func TestBuilderAppendChild(t *testing.T) {
	buffer := make([]byte, 64)
	parent, err := NewBuilder(TypeInfoResponse, buffer, 0)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	child, err := parent.AppendChild(TypeText)
	if err != nil {
		t.Fatalf("AppendChild: %v", err)
	}
	if child.Start() != parent.End() {
		t.Fatalf("child start = %d, want parent end %d", child.Start(), parent.End())
	}
	if err := child.SetText("ok"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if err := parent.AddToLength(child.Size()); err != nil {
		t.Fatalf("AddToLength: %v", err)
	}

	// Re-parse the built bytes and verify the size invariant.
	record, err := Parse(buffer, 0, parent.End())
	if err != nil {
		t.Fatalf("Parse built record: %v", err)
	}
	if record.Size() != HeaderSize+record.Length {
		t.Errorf("Size = %d, want %d", record.Size(), HeaderSize+record.Length)
	}
	nested, ok, err := record.FirstChild()
	if err != nil || !ok {
		t.Fatalf("FirstChild: ok=%v err=%v", ok, err)
	}
	if string(nested.Value()) != "ok" {
		t.Errorf("nested value = %q, want ok", nested.Value())
	}
}

func TestBuilderBounds(t *testing.T) {
	if _, err := NewBuilder(TypeText, make([]byte, 3), 0); err == nil {
		t.Error("NewBuilder in 3-byte buffer: want error")
	}

	builder, err := NewBuilder(TypeText, make([]byte, 8), 0)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if err := builder.SetLength(5); err == nil {
		t.Error("SetLength past buffer end: want error")
	}
	if err := builder.SetLength(MaxLength + 1); err == nil {
		t.Error("SetLength beyond 16 bits: want error")
	}
	if err := builder.SetLength(4); err != nil {
		t.Errorf("SetLength within buffer: %v", err)
	}
}

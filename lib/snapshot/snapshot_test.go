// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rolandweber/Pityoulish-sub000/lib/board"
	"github.com/rolandweber/Pityoulish-sub000/lib/clock"
)

func populatedBoard(t *testing.T) (*board.Board, *clock.FakeClock) {
	t.Helper()

	clk := clock.Fake(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	b, err := board.New(8, clk)
	if err != nil {
		t.Fatalf("creating board: %v", err)
	}
	b.PutMessage("alice", "first post")
	b.PutMessage("bob", "second post")
	b.PutSystemMessage("motd", "maintenance at noon")
	return b, clk
}

func TestCaptureEncodeDecode(t *testing.T) {
	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			b, clk := populatedBoard(t)
			captured := Capture(b, clk)

			if captured.Fingerprint != b.InstancePrefix() {
				t.Fatalf("fingerprint %q, want %q", captured.Fingerprint, b.InstancePrefix())
			}
			if captured.CreatedAt != "2026-08-28T12:00:00Z" {
				t.Fatalf("unexpected creation time %q", captured.CreatedAt)
			}

			encoded, _, err := Encode(captured, tag)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}

			if decoded.Capacity != 8 {
				t.Fatalf("capacity %d, want 8", decoded.Capacity)
			}
			if len(decoded.Messages) != 3 {
				t.Fatalf("got %d messages, want 3", len(decoded.Messages))
			}
			if decoded.Messages[0].Originator != "alice" || decoded.Messages[0].Text != "first post" {
				t.Fatalf("unexpected first entry %+v", decoded.Messages[0])
			}
			last := decoded.Messages[2]
			if last.Kind != "system" || last.Slot != "motd" {
				t.Fatalf("unexpected system entry %+v", last)
			}
			for _, entry := range decoded.Messages {
				if !strings.HasPrefix(entry.Key, captured.Fingerprint) {
					t.Fatalf("key %q does not carry fingerprint %q", entry.Key, captured.Fingerprint)
				}
			}
		})
	}
}

func TestCompressionActuallyShrinks(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	b, err := board.New(64, clk)
	if err != nil {
		t.Fatalf("creating board: %v", err)
	}
	// Repetitive text compresses well.
	for i := 0; i < 64; i++ {
		b.PutMessage("alice", strings.Repeat("the quick brown fox ", 20))
	}

	captured := Capture(b, clk)
	plain, _, err := Encode(captured, CompressionNone)
	if err != nil {
		t.Fatalf("encode none: %v", err)
	}
	packed, used, err := Encode(captured, CompressionZstd)
	if err != nil {
		t.Fatalf("encode zstd: %v", err)
	}
	if used != CompressionZstd {
		t.Fatalf("expected zstd to be used, got %v", used)
	}
	if len(packed) >= len(plain) {
		t.Fatalf("zstd output %d not smaller than plain %d", len(packed), len(plain))
	}
}

func TestIncompressibleFallsBackToNone(t *testing.T) {
	b, clk := populatedBoard(t)

	// A tiny payload barely compresses; either way the round trip
	// must succeed, with the header reflecting what was stored.
	encoded, used, err := Encode(Capture(b, clk), CompressionLZ4)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if used != CompressionLZ4 && used != CompressionNone {
		t.Fatalf("unexpected effective tag %v", used)
	}
	if _, err := Decode(encoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("definitely not a snapshot, far too short?")); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected bad magic, got %v", err)
	}
	if _, err := Decode([]byte{'M', 'B', 'S', 1}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	b, clk := populatedBoard(t)
	encoded, _, err := Encode(Capture(b, clk), CompressionNone)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Flip one payload byte.
	encoded[len(encoded)-1] ^= 0x01
	if _, err := Decode(encoded); !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("expected digest mismatch, got %v", err)
	}
}

func TestEncodingIsDeterministic(t *testing.T) {
	b, clk := populatedBoard(t)
	captured := Capture(b, clk)

	first, _, err := Encode(captured, CompressionZstd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, _, err := Encode(captured, CompressionZstd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("same snapshot produced different encodings")
	}
}

func TestParseCompressionTag(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		tag, err := ParseCompressionTag(name)
		if err != nil {
			t.Fatalf("parsing %q: %v", name, err)
		}
		if tag.String() != name {
			t.Fatalf("round trip of %q gave %q", name, tag.String())
		}
	}
	if _, err := ParseCompressionTag("gzip"); err == nil {
		t.Fatal("expected an error for an unknown tag")
	}
}

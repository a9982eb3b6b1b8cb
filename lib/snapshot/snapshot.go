// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot encodes a point-in-time export of a message board
// into a compact, integrity-checked file format. The payload is
// deterministic CBOR, optionally compressed, with a keyed BLAKE3
// digest over the uncompressed bytes.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/rolandweber/Pityoulish-sub000/lib/board"
	"github.com/rolandweber/Pityoulish-sub000/lib/clock"
	"github.com/rolandweber/Pityoulish-sub000/lib/codec"
)

// Format faults.
var (
	ErrBadMagic        = errors.New("snapshot: not a snapshot file")
	ErrTruncated       = errors.New("snapshot: file is truncated")
	ErrDigestMismatch  = errors.New("snapshot: payload digest mismatch")
	ErrPayloadTooLarge = errors.New("snapshot: declared payload size is implausible")
)

// magic identifies a snapshot file. The trailing byte is the format
// version.
var magic = [4]byte{'M', 'B', 'S', 1}

// headerSize is magic(4) + compression tag(1) + uncompressed size(4)
// + digest(32).
const headerSize = 4 + 1 + 4 + 32

// maxPayloadSize bounds the declared uncompressed size. A board holds
// at most a few thousand bounded PDUs, so 64 MB is far beyond any
// legitimate snapshot.
const maxPayloadSize = 64 << 20

// digestKey is the 32-byte key for BLAKE3 keyed hashing. Domain
// separation keeps snapshot digests distinct from any other use of
// the same bytes. The value is the ASCII domain name, zero-padded,
// so it stays readable in hex dumps.
var digestKey = [32]byte{
	'm', 's', 'g', 'b', 'o', 'a', 'r', 'd', '.',
	's', 'n', 'a', 'p', 's', 'h', 'o', 't',
}

// Entry is one board message in a snapshot.
type Entry struct {
	Key        string `cbor:"key"`
	Kind       string `cbor:"kind"`
	Slot       string `cbor:"slot,omitempty"`
	Originator string `cbor:"originator"`
	Timestamp  string `cbor:"timestamp"`
	Text       string `cbor:"text"`
}

// Snapshot is a point-in-time export of a message board.
type Snapshot struct {
	// Fingerprint is the board's sequencer instance prefix. Markers
	// in the snapshot are only meaningful against a board with the
	// same fingerprint.
	Fingerprint string `cbor:"fingerprint"`

	// CreatedAt is the capture time in the board's timestamp format.
	CreatedAt string `cbor:"created_at"`

	Capacity int     `cbor:"capacity"`
	Messages []Entry `cbor:"messages"`
}

// Capture exports the board's current content as a Snapshot.
func Capture(b *board.Board, clk clock.Clock) *Snapshot {
	exported := b.Export()
	stats := b.Stats()

	snapshot := &Snapshot{
		Fingerprint: b.InstancePrefix(),
		CreatedAt:   clk.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Capacity:    stats.Capacity,
		Messages:    make([]Entry, len(exported)),
	}
	for i, entry := range exported {
		snapshot.Messages[i] = Entry{
			Key:        entry.Key,
			Kind:       entry.Kind.String(),
			Slot:       entry.Slot,
			Originator: entry.Message.Originator,
			Timestamp:  entry.Message.Timestamp,
			Text:       entry.Message.Text,
		}
	}
	return snapshot
}

// Encode serializes the snapshot: CBOR payload, digest, compression,
// header. Incompressible payloads fall back to CompressionNone; the
// returned tag is the one actually stored.
func Encode(snapshot *Snapshot, tag CompressionTag) ([]byte, CompressionTag, error) {
	payload, err := codec.Marshal(snapshot)
	if err != nil {
		return nil, 0, fmt.Errorf("snapshot: encoding payload: %w", err)
	}
	dg := digest(payload)

	compressed, err := compress(payload, tag)
	if err != nil {
		if !errors.Is(err, errIncompressible) {
			return nil, 0, err
		}
		compressed = payload
		tag = CompressionNone
	}

	out := make([]byte, headerSize+len(compressed))
	copy(out[0:4], magic[:])
	out[4] = byte(tag)
	binary.BigEndian.PutUint32(out[5:9], uint32(len(payload)))
	copy(out[9:9+32], dg[:])
	copy(out[headerSize:], compressed)
	return out, tag, nil
}

// Decode parses and verifies an encoded snapshot.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < headerSize {
		return nil, ErrTruncated
	}
	if [4]byte(data[0:4]) != magic {
		return nil, ErrBadMagic
	}
	tag := CompressionTag(data[4])
	size := int(binary.BigEndian.Uint32(data[5:9]))
	if size > maxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	var expected [32]byte
	copy(expected[:], data[9:9+32])

	payload, err := decompress(data[headerSize:], tag, size)
	if err != nil {
		return nil, err
	}
	if digest(payload) != expected {
		return nil, ErrDigestMismatch
	}

	var snapshot Snapshot
	if err := codec.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("snapshot: decoding payload: %w", err)
	}
	return &snapshot, nil
}

// digest computes the keyed BLAKE3 digest of the uncompressed
// payload.
func digest(payload []byte) [32]byte {
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("snapshot: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

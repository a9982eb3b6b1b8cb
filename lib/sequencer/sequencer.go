// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package sequencer generates short printable IDs that are unique
// within one instance and totally ordered consistently with
// generation order. The board uses them as log keys and hands them to
// clients as batch markers, so no central counter ever crosses the
// wire.
//
// An ID is a random single-letter instance prefix followed by a
// base-26 alphabetic counter ('a'..'z' per digit, most significant
// digit first). Shorter IDs always precede longer ones, and for equal
// lengths lexicographic order equals numeric order, so [Compare] is a
// plain (length, bytes) comparison.
//
// The prefix makes IDs from a different instance detectable by
// [Sequencer.IsSane] with probability 25/26, a sanity check, not a
// guarantee (birthday-bounded, not cryptographic).
package sequencer

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Sequencer generates ordered IDs. Safe for concurrent use.
type Sequencer struct {
	mu      sync.Mutex
	prefix  byte
	counter uint64
}

// New creates a sequencer with a random instance prefix.
func New() *Sequencer {
	return &Sequencer{prefix: byte('a' + rand.IntN(26))}
}

// Prefix returns the instance prefix as a one-letter string.
func (s *Sequencer) Prefix() string {
	return string(s.prefix)
}

// Next returns the next ID. Every ID compares strictly greater than
// all IDs previously returned by this instance.
func (s *Sequencer) Next() string {
	s.mu.Lock()
	value := s.counter
	s.counter++
	s.mu.Unlock()

	// Base-26 rendering, least significant digit first, then the
	// prefix in front. The sequence runs a, b, .., z, ba, bb, ..
	// which is monotone under (length, bytes) comparison even though
	// "ab" is never produced.
	var digits [14]byte
	i := len(digits)
	for {
		i--
		digits[i] = byte('a' + value%26)
		value /= 26
		if value == 0 {
			break
		}
	}
	var builder strings.Builder
	builder.Grow(1 + len(digits) - i)
	builder.WriteByte(s.prefix)
	builder.Write(digits[i:])
	return builder.String()
}

// IsSane reports whether id could have been generated by this
// instance: the instance prefix followed by at least one counter
// digit, all in 'a'..'z'. IDs from an instance that happens to share
// the prefix pass the check; IDs with any other prefix do not.
func (s *Sequencer) IsSane(id string) bool {
	if len(id) < 2 || id[0] != s.prefix {
		return false
	}
	for i := 1; i < len(id); i++ {
		if id[i] < 'a' || id[i] > 'z' {
			return false
		}
	}
	return true
}

// Compare orders two IDs: by length first, then lexicographically.
// For IDs from one instance this matches generation order.
func Compare(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

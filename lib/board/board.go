// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rolandweber/Pityoulish-sub000/lib/clock"
	"github.com/rolandweber/Pityoulish-sub000/lib/sequencer"
)

// timestampLayout renders board timestamps as ISO-8601 UTC with
// second precision.
const timestampLayout = "2006-01-02T15:04:05Z"

// systemOriginator is the display name attached to system messages.
const systemOriginator = "board"

// Errors returned by Board methods. These are application errors:
// the transport surfaces them as ERROR_RESPONSE text.
var (
	ErrLimitOutOfRange = errors.New("board: limit out of range 1..127")
	ErrInvalidMarker   = errors.New("board: marker was not issued by this board")
)

// Kind distinguishes user messages from system messages.
type Kind int

const (
	KindUser Kind = iota
	KindSystem
)

// String returns "user" or "system".
func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindSystem:
		return "system"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Message is one board entry as visible to clients. Immutable once
// created.
type Message struct {
	Originator string
	Timestamp  string
	Text       string
}

// Batch is the result of a listing: messages oldest first, the
// continuation marker, and the discontinuity indicator.
type Batch struct {
	Messages []Message
	Marker   string

	// Discontinuous indicates messages may have been evicted since
	// the request's marker was issued. Conservative: it may be true
	// without an actual gap, never false with one.
	Discontinuous bool
}

// Entry is one stored message together with its bookkeeping, as
// exposed to diagnostic exports.
type Entry struct {
	Key     string
	Kind    Kind
	Slot    string
	Message Message
}

// Stats holds aggregate counts for the admin adapter.
type Stats struct {
	Capacity int `json:"capacity"`
	Total    int `json:"total"`
	User     int `json:"user"`
	System   int `json:"system"`
	Slots    int `json:"slots"`
}

// Board is the message board engine. Create with New; the zero value
// is not usable.
type Board struct {
	mu        sync.Mutex
	clock     clock.Clock
	sequencer *sequencer.Sequencer
	capacity  int

	// entries is ordered oldest to newest; keys are strictly
	// increasing, so marker lookups are binary searches.
	entries []Entry

	// slots maps a system slot name to the key currently occupying it.
	slots map[string]string

	// watermark is the largest key of any evicted user message.
	// Listings whose marker precedes it are discontinuous.
	watermark string

	// sentinel is an ID generated at construction, handed out as the
	// marker for listings of an empty board so that every marker a
	// client ever sees passes the sequencer's sanity check.
	sentinel string
}

// New creates a board holding at most capacity messages.
func New(capacity int, clk clock.Clock) (*Board, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("board: capacity %d, must be at least 1", capacity)
	}
	seq := sequencer.New()
	return &Board{
		clock:     clk,
		sequencer: seq,
		capacity:  capacity,
		slots:     make(map[string]string),
		sentinel:  seq.Next(),
	}, nil
}

// InstancePrefix returns the board's sequencer prefix, the one-letter
// fingerprint embedded in every key and marker.
func (b *Board) InstancePrefix() string {
	return b.sequencer.Prefix()
}

// ListMessages returns up to limit messages with keys strictly
// greater than marker, oldest first. An empty marker means "from the
// oldest retained message". The returned batch's marker is the key of
// its last message; for an empty batch it is the caller's marker, or
// the board's sentinel when no marker was given. Repeated calls with
// the returned marker are idempotent while the board is static.
func (b *Board) ListMessages(limit int, marker string) (Batch, error) {
	if limit < 1 || limit > 127 {
		return Batch{}, ErrLimitOutOfRange
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if marker != "" && !b.sequencer.IsSane(marker) {
		return Batch{}, ErrInvalidMarker
	}

	start := 0
	if marker != "" {
		start = sort.Search(len(b.entries), func(i int) bool {
			return sequencer.Compare(b.entries[i].Key, marker) > 0
		})
	}
	end := start + limit
	if end > len(b.entries) {
		end = len(b.entries)
	}

	batch := Batch{Messages: make([]Message, 0, end-start)}
	for _, entry := range b.entries[start:end] {
		batch.Messages = append(batch.Messages, entry.Message)
	}

	switch {
	case end > start:
		batch.Marker = b.entries[end-1].Key
	case marker != "":
		batch.Marker = marker
	case len(b.entries) > 0:
		batch.Marker = b.entries[len(b.entries)-1].Key
	default:
		batch.Marker = b.sentinel
	}

	if marker != "" && b.watermark != "" && sequencer.Compare(marker, b.watermark) < 0 {
		batch.Discontinuous = true
	}
	return batch, nil
}

// PutMessage appends a user message and returns it. At capacity, the
// single oldest entry is evicted first.
func (b *Board) PutMessage(originator, text string) Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insert(Entry{
		Kind: KindUser,
		Message: Message{
			Originator: originator,
			Timestamp:  b.timestamp(),
			Text:       text,
		},
	})
}

// PutSystemMessage appends a system message and returns it. With a
// slot name, any existing message in that slot is removed first: a
// replacement, not a gap, so the discontinuity watermark does not
// move. With an empty slot name the message is permanent until
// capacity evicts it.
func (b *Board) PutSystemMessage(slot, text string) Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slot != "" {
		if key, ok := b.slots[slot]; ok {
			b.removeKey(key)
		}
	}
	message := b.insert(Entry{
		Kind: KindSystem,
		Slot: slot,
		Message: Message{
			Originator: systemOriginator,
			Timestamp:  b.timestamp(),
			Text:       text,
		},
	})
	if slot != "" {
		b.slots[slot] = b.entries[len(b.entries)-1].Key
	}
	return message
}

// RemoveSystemMessage removes the system message occupying the named
// slot. Returns false when the slot is empty or unknown.
func (b *Board) RemoveSystemMessage(slot string) bool {
	if slot == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := b.slots[slot]
	if !ok {
		return false
	}
	b.removeKey(key)
	delete(b.slots, slot)
	return true
}

// Stats returns aggregate counts.
func (b *Board) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := Stats{Capacity: b.capacity, Total: len(b.entries), Slots: len(b.slots)}
	for _, entry := range b.entries {
		if entry.Kind == KindUser {
			stats.User++
		} else {
			stats.System++
		}
	}
	return stats
}

// Export returns a copy of all entries, oldest first, for diagnostic
// snapshots. The board is never restored from one.
func (b *Board) Export() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]Entry, len(b.entries))
	copy(entries, b.entries)
	return entries
}

// insert appends entry with a fresh key, evicting the oldest entry
// when the board is at capacity. Caller holds b.mu.
func (b *Board) insert(entry Entry) Message {
	if len(b.entries) >= b.capacity {
		oldest := b.entries[0]
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
		if oldest.Kind == KindUser {
			b.watermark = oldest.Key
		} else if oldest.Slot != "" {
			delete(b.slots, oldest.Slot)
		}
	}
	entry.Key = b.sequencer.Next()
	b.entries = append(b.entries, entry)
	return entry.Message
}

// removeKey removes the entry with the given key, preserving order.
// Used only for system slot replacement and removal. Caller holds b.mu.
func (b *Board) removeKey(key string) {
	index := sort.Search(len(b.entries), func(i int) bool {
		return sequencer.Compare(b.entries[i].Key, key) >= 0
	})
	if index < len(b.entries) && b.entries[index].Key == key {
		b.entries = append(b.entries[:index], b.entries[index+1:]...)
	}
}

// timestamp renders the current time. Caller holds b.mu; the clock
// read is cheap and keeping it inside the lock makes timestamps agree
// with insertion order.
func (b *Board) timestamp() string {
	return b.clock.Now().UTC().Format(timestampLayout)
}

// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package board implements the message board engine: an append-mostly,
// capacity-bounded, ordered log of typed messages.
//
// Entries are keyed by sequencer-generated IDs, so insertion order and
// key order always agree and a batch marker is just the key of the
// last entry handed out. Inserting past capacity evicts the single
// oldest entry. Evicting a user message advances a discontinuity
// watermark; a later listing whose marker precedes the watermark is
// flagged as discontinuous. Evicting, replacing, or removing a system
// message never sets the flag.
//
// System messages may occupy a named mutable slot: a later system
// message with the same slot name replaces the earlier one. User
// messages never replace anything, and a system message posted
// without a slot can never be updated or removed.
//
// All methods are safe for concurrent use; a single mutex guards the
// log and is held only for the in-memory operation.
package board

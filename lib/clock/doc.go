// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock interface parameter instead of
// calling time.Now, time.After, or time.Sleep directly. In production,
// Real() provides the standard library behavior. In tests, Fake()
// provides a deterministic clock that advances only when Advance is
// called: ticket expiry and message timestamps become exact values
// instead of races against the wall clock.
//
// Add a Clock field to structs that use time:
//
//	type Manager struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	m := NewManager(ttl, actions, clock.Real())
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	m := NewManager(ttl, actions, c)
//	c.Advance(ttl + time.Second) // every live ticket is now expired
//
// Socket deadlines are the one deliberate exception: net.Conn
// deadlines are absolute wall-clock instants interpreted by the
// kernel, so the transport uses time.Now for those.
package clock

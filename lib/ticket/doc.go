// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package ticket issues, validates, and retires the bearer tokens
// that authorize message board mutations.
//
// A ticket binds a username (and optionally the client's network
// address) to an opaque token with an absolute expiry and a small
// remaining-action budget. At most one live ticket exists per
// username and per bound address; obtaining a second one is refused
// until the first expires or is returned.
//
// Expiry is evaluated lazily at lookup time. There is no background
// sweep: a ticket that expires unobserved simply fails its next
// lookup and is dropped from the index then.
//
// The only mutation a live ticket supports is Punch, which consumes
// one unit of its action budget and refuses once the budget is spent.
// Everything else about a ticket is immutable after issuance.
package ticket

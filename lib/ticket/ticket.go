// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"sync"
	"time"
)

// Ticket is a bearer credential for one username. Issued by
// [Manager.Obtain]; all fields except the action budget are immutable.
type Ticket struct {
	username string
	address  string
	token    string
	expiry   time.Time

	mu          sync.Mutex
	actionsLeft int
}

// Username returns the username the ticket was issued for.
func (t *Ticket) Username() string { return t.username }

// Address returns the bound network identity, or "" when the ticket
// was issued without one.
func (t *Ticket) Address() string { return t.address }

// Token returns the opaque bearer token.
func (t *Ticket) Token() string { return t.token }

// ExpiresAt returns the absolute expiry instant.
func (t *Ticket) ExpiresAt() time.Time { return t.expiry }

// ActionsLeft returns the remaining action budget.
func (t *Ticket) ActionsLeft() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.actionsLeft
}

// Punch consumes one unit of the action budget. Returns false once
// the budget is spent; the budget never goes negative. Safe to call
// concurrently.
func (t *Ticket) Punch() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.actionsLeft <= 0 {
		return false
	}
	t.actionsLeft--
	return true
}

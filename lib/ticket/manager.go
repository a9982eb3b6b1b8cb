// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rolandweber/Pityoulish-sub000/lib/clock"
)

// Errors returned by Manager methods. These are application errors:
// the transport surfaces them as ERROR_RESPONSE text.
var (
	ErrEmptyUsername = errors.New("ticket: username is empty")
	ErrUsernameInUse = errors.New("ticket: a live ticket already exists for this username")
	ErrAddressInUse  = errors.New("ticket: a live ticket already exists for this address")
	ErrNotFound      = errors.New("ticket: no such ticket")
	ErrExpired       = errors.New("ticket: ticket has expired")
	ErrWrongAddress  = errors.New("ticket: ticket is bound to a different address")
	ErrForeignTicket = errors.New("ticket: ticket was not issued by this manager")
)

// tokenAlphabet supplies the random suffix appended to the username
// when minting a token. Letters and digits only, so every token stays
// inside the protocol's restricted token alphabet.
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// tokenSuffixLength is the number of random characters in a token.
// 62^8 values per username make accidental collisions negligible and
// guessing impractical for a short-lived credential.
const tokenSuffixLength = 8

// Manager issues and tracks tickets. Safe for concurrent use: a
// single mutex guards the three lookup indexes and is held only for
// the in-memory operation.
type Manager struct {
	clock   clock.Clock
	ttl     time.Duration
	actions int

	mu         sync.Mutex
	byUsername map[string]*Ticket
	byToken    map[string]*Ticket
	byAddress  map[string]*Ticket
}

// NewManager creates a manager issuing tickets with the given
// lifetime and action budget.
func NewManager(ttl time.Duration, actions int, clk clock.Clock) (*Manager, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("ticket: non-positive lifetime %v", ttl)
	}
	if actions < 1 {
		return nil, fmt.Errorf("ticket: action budget %d, must be at least 1", actions)
	}
	return &Manager{
		clock:      clk,
		ttl:        ttl,
		actions:    actions,
		byUsername: make(map[string]*Ticket),
		byToken:    make(map[string]*Ticket),
		byAddress:  make(map[string]*Ticket),
	}, nil
}

// Obtain issues a fresh ticket for username, optionally bound to the
// client's network address. Refused while a live ticket exists for
// the username or the address; an expired one is dropped and replaced.
func (m *Manager) Obtain(username, address string) (*Ticket, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if existing, ok := m.byUsername[username]; ok {
		if now.Before(existing.expiry) {
			return nil, ErrUsernameInUse
		}
		m.dropLocked(existing)
	}
	if address != "" {
		if existing, ok := m.byAddress[address]; ok {
			if now.Before(existing.expiry) {
				return nil, ErrAddressInUse
			}
			m.dropLocked(existing)
		}
	}

	ticket := &Ticket{
		username:    username,
		address:     address,
		token:       m.mintTokenLocked(username),
		expiry:      now.Add(m.ttl),
		actionsLeft: m.actions,
	}
	m.byUsername[username] = ticket
	m.byToken[ticket.token] = ticket
	if address != "" {
		m.byAddress[address] = ticket
	}
	return ticket, nil
}

// Lookup resolves a token to its live ticket. Fails with ErrNotFound
// for unknown tokens, ErrWrongAddress when the ticket is bound to a
// different address than the caller's, and ErrExpired, dropping the
// ticket, once the expiry instant has passed.
func (m *Manager) Lookup(token, address string) (*Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ticket, ok := m.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	if ticket.address != "" && address != "" && ticket.address != address {
		return nil, ErrWrongAddress
	}
	if !m.clock.Now().Before(ticket.expiry) {
		m.dropLocked(ticket)
		return nil, ErrExpired
	}
	return ticket, nil
}

// Return retires a ticket before its expiry, freeing the username and
// address for a new Obtain. The ticket must be one this manager
// issued and still tracks.
func (m *Manager) Return(ticket *Ticket) error {
	if ticket == nil {
		return ErrForeignTicket
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tracked, ok := m.byToken[ticket.token]
	if !ok || tracked != ticket {
		return ErrForeignTicket
	}
	m.dropLocked(ticket)
	return nil
}

// Live returns the number of currently tracked tickets, expired or
// not. For the admin adapter's statistics.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byToken)
}

// dropLocked removes all three index entries for ticket. Caller
// holds m.mu.
func (m *Manager) dropLocked(ticket *Ticket) {
	delete(m.byToken, ticket.token)
	if m.byUsername[ticket.username] == ticket {
		delete(m.byUsername, ticket.username)
	}
	if ticket.address != "" && m.byAddress[ticket.address] == ticket {
		delete(m.byAddress, ticket.address)
	}
}

// mintTokenLocked builds a token: the username followed by random
// token-alphabet characters. Regenerates on the (vanishingly rare)
// collision with a tracked token. Caller holds m.mu.
func (m *Manager) mintTokenLocked(username string) string {
	for {
		var builder strings.Builder
		builder.Grow(len(username) + tokenSuffixLength)
		builder.WriteString(username)
		for i := 0; i < tokenSuffixLength; i++ {
			builder.WriteByte(tokenAlphabet[rand.IntN(len(tokenAlphabet))])
		}
		token := builder.String()
		if _, taken := m.byToken[token]; !taken {
			return token
		}
	}
}

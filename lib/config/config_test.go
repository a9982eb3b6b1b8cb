// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "msgboard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Listen != ":2888" {
		t.Errorf("expected listen=:2888, got %s", cfg.Listen)
	}
	if cfg.Board.Capacity != 64 {
		t.Errorf("expected capacity=64, got %d", cfg.Board.Capacity)
	}
	if cfg.Tickets.TTL.Std() != 2*time.Minute {
		t.Errorf("expected ttl=2m, got %s", cfg.Tickets.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen: "127.0.0.1:9919"
admin_socket: "/tmp/test-admin.sock"
board:
  capacity: 8
tickets:
  ttl: 90s
  actions: 5
transport:
  read_timeout: 5s
  request_timeout: 15s
  max_pdu_size: 512
  split_writes: true
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9919" {
		t.Errorf("listen = %s", cfg.Listen)
	}
	if cfg.Board.Capacity != 8 {
		t.Errorf("capacity = %d", cfg.Board.Capacity)
	}
	if cfg.Tickets.TTL.Std() != 90*time.Second {
		t.Errorf("ttl = %s", cfg.Tickets.TTL)
	}
	if cfg.Tickets.Actions != 5 {
		t.Errorf("actions = %d", cfg.Tickets.Actions)
	}
	if !cfg.Transport.SplitWrites {
		t.Error("split_writes not applied")
	}
	if cfg.Transport.MaxPDUSize != 512 {
		t.Errorf("max_pdu_size = %d", cfg.Transport.MaxPDUSize)
	}
}

func TestLoadFilePartialOverride(t *testing.T) {
	path := writeConfig(t, "board:\n  capacity: 100\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Board.Capacity != 100 {
		t.Errorf("capacity = %d", cfg.Board.Capacity)
	}
	// Unmentioned sections keep their defaults.
	if cfg.Listen != ":2888" {
		t.Errorf("listen = %s", cfg.Listen)
	}
	if cfg.Tickets.Actions != 3 {
		t.Errorf("actions = %d", cfg.Tickets.Actions)
	}
}

func TestLoadFileRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "tickets:\n  ttl: 30\n")

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected an error for a unit-less duration")
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Listen = ""
	cfg.Board.Capacity = 0
	cfg.Tickets.Actions = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"listen", "capacity", "actions"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error does not mention %s: %v", want, err)
		}
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv("MSGBOARD_CONFIG", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without MSGBOARD_CONFIG")
	}
}

func TestLoadUsesEnvironmentVariable(t *testing.T) {
	path := writeConfig(t, "listen: \":7777\"\n")
	t.Setenv("MSGBOARD_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Listen != ":7777" {
		t.Errorf("listen = %s", cfg.Listen)
	}
}

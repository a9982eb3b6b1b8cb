// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the board daemon.
//
// Configuration is loaded from a single YAML file specified by the
// MSGBOARD_CONFIG environment variable or the --config flag. There
// are no fallbacks or automatic discovery; this keeps configuration
// deterministic and auditable.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the board daemon.
type Config struct {
	// Listen is the TCP listen address for the board protocol.
	Listen string `yaml:"listen"`

	// AdminSocket is the Unix socket path for the admin protocol.
	// Empty disables the admin adapter.
	AdminSocket string `yaml:"admin_socket"`

	// Board configures the message log.
	Board BoardConfig `yaml:"board"`

	// Tickets configures ticket issuance.
	Tickets TicketConfig `yaml:"tickets"`

	// Transport configures the TCP request handling.
	Transport TransportConfig `yaml:"transport"`
}

// BoardConfig configures the message log.
type BoardConfig struct {
	// Capacity is the maximum number of retained messages. The
	// oldest message is evicted when a new one arrives at capacity.
	Capacity int `yaml:"capacity"`
}

// TicketConfig configures ticket issuance.
type TicketConfig struct {
	// TTL is how long a ticket stays valid after issuance.
	TTL Duration `yaml:"ttl"`

	// Actions is the number of operations a ticket authorizes.
	Actions int `yaml:"actions"`
}

// TransportConfig configures the TCP request handling.
type TransportConfig struct {
	// ReadTimeout is the per-read socket deadline.
	ReadTimeout Duration `yaml:"read_timeout"`

	// RequestTimeout is the wall-clock budget for receiving one
	// complete request.
	RequestTimeout Duration `yaml:"request_timeout"`

	// MaxPDUSize caps the total request size, header included.
	MaxPDUSize int `yaml:"max_pdu_size"`

	// SplitWrites makes the server deliver every response in at
	// least two writes. Useful when exercising client reassembly.
	SplitWrites bool `yaml:"split_writes"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Listen:      ":2888",
		AdminSocket: "/run/msgboard/admin.sock",
		Board: BoardConfig{
			Capacity: 64,
		},
		Tickets: TicketConfig{
			TTL:     Duration(2 * time.Minute),
			Actions: 3,
		},
		Transport: TransportConfig{
			ReadTimeout:    Duration(10 * time.Second),
			RequestTimeout: Duration(30 * time.Second),
			MaxPDUSize:     1024,
		},
	}
}

// Load reads the configuration from the file named by the
// MSGBOARD_CONFIG environment variable.
func Load() (*Config, error) {
	path := os.Getenv("MSGBOARD_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("MSGBOARD_CONFIG environment variable not set; " +
			"point it at the daemon's YAML configuration file")
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path, applies it over the
// defaults, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run
// with. All problems are reported, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.Board.Capacity < 1 {
		errs = append(errs, fmt.Errorf("board capacity %d, must be at least 1", c.Board.Capacity))
	}
	if c.Tickets.TTL <= 0 {
		errs = append(errs, errors.New("ticket ttl must be positive"))
	}
	if c.Tickets.Actions < 1 {
		errs = append(errs, fmt.Errorf("ticket actions %d, must be at least 1", c.Tickets.Actions))
	}
	if c.Transport.ReadTimeout <= 0 {
		errs = append(errs, errors.New("transport read_timeout must be positive"))
	}
	if c.Transport.RequestTimeout <= 0 {
		errs = append(errs, errors.New("transport request_timeout must be positive"))
	}
	if c.Transport.MaxPDUSize < 8 {
		errs = append(errs, fmt.Errorf("transport max_pdu_size %d, must be at least 8", c.Transport.MaxPDUSize))
	}

	return errors.Join(errs...)
}

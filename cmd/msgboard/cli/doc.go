// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command tree framework for the msgboard
// CLI: nested subcommands, pflag flag sets, structured help output,
// and typo suggestions for unknown commands and flags.
package cli

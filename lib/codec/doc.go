// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec centralizes CBOR encoding for the admin protocol and
// snapshot files. All encoding goes through one deterministic
// configuration so identical data always produces identical bytes.
package codec

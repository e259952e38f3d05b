// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typewriter

import (
	"strings"
	"time"
)

// Default pacing parameters. BaseDelay anchors the word cadence (~28
// words/sec raw, slower in practice once punctuation pauses land).
// ProbeDelay is the idle re-check interval while the buffer is empty.
// SettleDelay is how long a boundary-less tail may wait for more text
// before it is emitted as-is.
const (
	DefaultBaseDelay   = 35 * time.Millisecond
	DefaultProbeDelay  = 15 * time.Millisecond
	DefaultSettleDelay = 50 * time.Millisecond
)

// Config holds the pacing parameters for a Buffer.
type Config struct {
	BaseDelay   time.Duration
	ProbeDelay  time.Duration
	SettleDelay time.Duration
}

// DefaultConfig returns the standard pacing configuration.
func DefaultConfig() Config {
	return Config{
		BaseDelay:   DefaultBaseDelay,
		ProbeDelay:  DefaultProbeDelay,
		SettleDelay: DefaultSettleDelay,
	}
}

// withDefaults fills zero fields so a partially specified Config works.
func (c Config) withDefaults() Config {
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.ProbeDelay <= 0 {
		c.ProbeDelay = DefaultProbeDelay
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	return c
}

// boundaryIndex returns the byte index of the first word boundary (space
// or newline) in s, or -1. Both boundary bytes are ASCII, so the index
// never lands inside a multi-byte UTF-8 sequence.
func boundaryIndex(s string) int {
	return strings.IndexAny(s, " \n")
}

// emissionDelay computes the pause that follows an emitted chunk.
//
// The punctuation tier is decided by the chunk content: sentence enders
// stretch the pause to 1.5x, clause punctuation to 1.2x, and very short
// words shrink it to 0.7x. The backlog tier then compresses the result
// when the unemitted remainder (measured after this emission) has grown
// past 100, 200, or 500 bytes, with floors so the cadence never collapses
// entirely.
func emissionDelay(chunk string, backlog int, base time.Duration) time.Duration {
	delay := base
	switch {
	case strings.ContainsAny(chunk, ".!?"):
		delay = base * 3 / 2
	case strings.ContainsAny(chunk, ",:;"):
		delay = base * 6 / 5
	case len(chunk) <= 3:
		delay = base * 7 / 10
	}

	switch {
	case backlog > 500:
		delay = max(delay*3/10, 10*time.Millisecond)
	case backlog > 200:
		delay = max(delay/2, 20*time.Millisecond)
	case backlog > 100:
		delay = max(delay*7/10, 30*time.Millisecond)
	}

	return delay
}

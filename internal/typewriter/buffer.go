// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typewriter

import (
	"strings"
	"sync"
	"time"
)

// Sink receives emitted chunks, in order. It is invoked with the buffer
// lock held: implementations must return quickly and must not call back
// into the Buffer.
type Sink func(chunk string)

// Buffer accumulates pushed text and emits it in paced, word-boundary
// chunks through its sink.
//
// Thread-safety: pushes arrive from a network goroutine while ticks fire
// on timer goroutines, so every operation takes the mutex. At most one
// timer is pending at any moment; the generation counter invalidates
// timers that Stop, Flush, or Reset have orphaned.
type Buffer struct {
	mu   sync.Mutex
	cfg  Config
	sink Sink

	text    strings.Builder // everything pushed so far
	emitted int             // bytes of text already emitted
	active  bool
	gen     uint64 // bumped on Start/Stop/Flush/Reset; stale ticks no-op
	timer   *time.Timer

	settlePending  bool
	settleSnapshot string

	// afterFunc schedules ticks; tests swap it to drive time by hand.
	afterFunc func(d time.Duration, fn func()) *time.Timer
}

// New creates a Buffer with the given pacing config. Zero fields in cfg
// fall back to defaults. A nil sink discards emissions.
func New(cfg Config, sink Sink) *Buffer {
	if sink == nil {
		sink = func(string) {}
	}
	return &Buffer{
		cfg:       cfg.withDefaults(),
		sink:      sink,
		afterFunc: time.AfterFunc,
	}
}

// Push appends streamed text to the accumulator. It never blocks on
// emission and is safe to call whether or not the buffer is running.
func (b *Buffer) Push(text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	b.text.WriteString(text)
	b.mu.Unlock()
}

// Start begins paced emission. Calling Start on a running buffer is a
// no-op. The first tick runs synchronously, so text already buffered
// starts appearing without waiting a full delay.
func (b *Buffer) Start() {
	b.mu.Lock()
	if b.active {
		b.mu.Unlock()
		return
	}
	b.active = true
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	b.tick(gen)
}

// Stop halts emission and cancels the pending timer. Accumulated text and
// the emission cursor are kept; Start resumes where Stop left off.
func (b *Buffer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
}

// Flush synchronously emits everything unemitted, mid-word included, and
// deactivates the buffer. Called when a stream completes so no text is
// left hanging behind a timer.
func (b *Buffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rest := b.text.String()[b.emitted:]; rest != "" {
		b.emitLocked(rest)
	}
	b.stopLocked()
}

// Reset stops emission and discards all state so the buffer can be reused
// for a new stream.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
	b.text.Reset()
	b.emitted = 0
}

// Active reports whether the emission loop is running.
func (b *Buffer) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Backlog returns the number of pushed bytes not yet emitted.
func (b *Buffer) Backlog() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text.Len() - b.emitted
}

// Emitted returns the number of bytes emitted so far.
func (b *Buffer) Emitted() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emitted
}

// tick is one step of the emission loop. gen identifies the scheduling
// chain this tick belongs to; a mismatch means the chain was cancelled
// after the timer fired and the tick must do nothing.
func (b *Buffer) tick(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active || gen != b.gen {
		return
	}

	remaining := b.text.String()[b.emitted:]

	// A settle wait just elapsed. If the tail is unchanged the stream has
	// gone quiet mid-word, so emit it whole rather than sitting on it
	// forever. Any new bytes mean a boundary may exist now; rescan.
	if b.settlePending {
		b.settlePending = false
		if remaining == b.settleSnapshot {
			b.emitLocked(remaining)
			b.scheduleLocked(gen, emissionDelay(remaining, 0, b.cfg.BaseDelay))
			return
		}
	}

	if remaining == "" {
		b.scheduleLocked(gen, b.cfg.ProbeDelay)
		return
	}

	i := boundaryIndex(remaining)
	if i < 0 {
		b.settlePending = true
		b.settleSnapshot = remaining
		b.scheduleLocked(gen, b.cfg.SettleDelay)
		return
	}

	chunk := remaining[:i+1]
	b.emitLocked(chunk)

	backlog := b.text.Len() - b.emitted
	b.scheduleLocked(gen, emissionDelay(chunk, backlog, b.cfg.BaseDelay))
}

// emitLocked sends a chunk through the sink and advances the cursor.
// Caller holds the lock.
func (b *Buffer) emitLocked(chunk string) {
	b.emitted += len(chunk)
	b.sink(chunk)
}

// scheduleLocked arms the single pending timer. Caller holds the lock.
func (b *Buffer) scheduleLocked(gen uint64, d time.Duration) {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = b.afterFunc(d, func() { b.tick(gen) })
}

// stopLocked cancels the tick chain. Caller holds the lock.
func (b *Buffer) stopLocked() {
	b.active = false
	b.gen++
	b.settlePending = false
	b.settleSnapshot = ""
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

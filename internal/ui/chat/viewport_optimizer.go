// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements change detection for viewport content. The repaint
// tick re-renders the transcript 30 times a second while streaming; most
// of those frames are identical whenever the typewriter is between
// emissions. The optimizer hashes rendered content and skips SetContent
// calls that would not change anything on screen.
package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// =============================================================================
// VIEWPORT OPTIMIZER
// =============================================================================

// ViewportOptimizer skips redundant viewport updates by hashing rendered
// content. A repeated hash means the frame is identical to the last one
// pushed to the viewport.
//
// Thread-safety: all operations are protected by a mutex.
type ViewportOptimizer struct {
	mu              sync.RWMutex
	lastContentHash string
	lastUpdateTime  time.Time
	dirty           bool
	updateCount     uint64 // total update attempts
	skipCount       uint64 // attempts skipped as unchanged
}

// NewViewportOptimizer creates a new viewport optimizer. It starts dirty
// so the first render always goes through.
func NewViewportOptimizer() *ViewportOptimizer {
	return &ViewportOptimizer{
		lastUpdateTime: time.Now(),
		dirty:          true,
	}
}

// ShouldUpdate reports whether newContent differs from the last rendered
// frame. Length checks alone are not enough: paced emission can replace
// text without changing its length.
func (vo *ViewportOptimizer) ShouldUpdate(newContent string) bool {
	vo.mu.Lock()
	defer vo.mu.Unlock()

	vo.updateCount++

	// First update always proceeds
	if vo.updateCount == 1 {
		vo.lastContentHash = hashContent(newContent)
		vo.lastUpdateTime = time.Now()
		vo.dirty = true
		return true
	}

	newHash := hashContent(newContent)
	if newHash == vo.lastContentHash {
		vo.skipCount++
		return false
	}

	vo.lastContentHash = newHash
	vo.lastUpdateTime = time.Now()
	vo.dirty = true

	return true
}

// MarkClean marks the viewport as up-to-date after a render.
func (vo *ViewportOptimizer) MarkClean() {
	vo.mu.Lock()
	defer vo.mu.Unlock()
	vo.dirty = false
}

// IsDirty reports whether there are unrendered changes.
func (vo *ViewportOptimizer) IsDirty() bool {
	vo.mu.RLock()
	defer vo.mu.RUnlock()
	return vo.dirty
}

// Reset clears the content hash. Used when the conversation is replaced
// or cleared. Counters survive so efficiency metrics span the session.
func (vo *ViewportOptimizer) Reset() {
	vo.mu.Lock()
	defer vo.mu.Unlock()

	vo.lastContentHash = ""
	vo.lastUpdateTime = time.Now()
	vo.dirty = true
}

// GetStats returns (totalUpdates, skippedUpdates, efficiency%).
func (vo *ViewportOptimizer) GetStats() (total, skipped uint64, efficiency float64) {
	vo.mu.RLock()
	defer vo.mu.RUnlock()

	total = vo.updateCount
	skipped = vo.skipCount

	if total > 0 {
		efficiency = float64(skipped) / float64(total) * 100.0
	}

	return
}

// ForceUpdate makes the next ShouldUpdate call return true regardless of
// content. Used after a resize, when the same content renders to a
// different width.
func (vo *ViewportOptimizer) ForceUpdate() {
	vo.mu.Lock()
	defer vo.mu.Unlock()

	vo.lastContentHash = ""
	vo.dirty = true
}

// GetLastUpdateTime returns the time of the last accepted update.
func (vo *ViewportOptimizer) GetLastUpdateTime() time.Time {
	vo.mu.RLock()
	defer vo.mu.RUnlock()
	return vo.lastUpdateTime
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// hashContent computes a SHA-256 hash of the content for change
// detection. Fast enough for transcript-sized strings (~0.5ms for 100KB).
func hashContent(content string) string {
	if content == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

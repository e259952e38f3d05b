// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"sync"
)

// =============================================================================
// CANCEL FUNCTION MANAGEMENT
// =============================================================================

// cancelManager guards the cancel function of the in-flight request.
// The Update loop stores and invokes it while the root model's stream
// goroutine may still be running. Must be held as a pointer in Model:
// Bubble Tea copies the model on every Update, and all copies have to
// share one mutex.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// newCancelManager creates an empty cancelManager.
func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// setCancelFunc stores the cancel function for a new request. Any
// previous function is invoked first so an abandoned context cannot
// leak.
func (cm *cancelManager) setCancelFunc(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
}

// cancel invokes the stored cancel function and clears it. Safe to call
// multiple times or with no function set.
func (cm *cancelManager) cancel() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}

// =============================================================================
// MODEL CONVENIENCE WRAPPERS
// =============================================================================

// SetCancelFunc stores the cancel function for the current streaming
// request. Called by the root model right before it launches the stream
// goroutine.
func (m Model) SetCancelFunc(fn context.CancelFunc) {
	m.cancelMgr.setCancelFunc(fn)
}

// cancel aborts the current streaming request if one is in flight.
func (m Model) cancel() {
	m.cancelMgr.cancel()
}

// clearCancelFunc cancels and drops the stored function once a stream
// has fully finalized.
func (m Model) clearCancelFunc() {
	m.cancelMgr.cancel()
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the lifecycle of an interactive chat session.
//
// A Manager records when the session started and when the user last did
// anything, and derives three signals from that: an idle-expiry warning,
// expiry itself, and a periodic autosave prompt for sessions with unsaved
// changes. Expiry never discards data; the TUI decides what an expired
// session means, typically saving the conversation and showing a resume
// notice.
//
// # Key Types
//
//   - Manager: session state with idle timeout and autosave tracking
//   - TickMsg: Bubble Tea message driving periodic checks
//   - TimeoutWarningMsg: Bubble Tea message sent before expiry
//   - TimeoutMsg: Bubble Tea message sent on expiry
//   - AutoSaveMsg: Bubble Tea message sent when autosave is due
//
// # Usage
//
// Create a manager from the config file's session section:
//
//	mgr := session.NewManager(session.FromConfig(cfg.Session))
//	mgr.SetAutoSaveCallback(saveConversation)
//
// Call RecordActivity on keystrokes and streaming progress, MarkDirty
// when the conversation changes, and either poll Check from a loop or
// drive the manager from Bubble Tea with TickCmd and HandleTick:
//
//	case session.TickMsg:
//	    return m, m.session.HandleTick()
//
// Callbacks passed to the Set* functions run outside the manager's lock,
// so they may call back into the manager.
package session

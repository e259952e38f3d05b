// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file contains input submission and slash-command completion.
package chat

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cadence/internal/ui/components"
)

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

// submitInput sends the typed message. Slash input goes to the command
// dispatcher; anything else becomes a user message followed by a
// streaming request for the assistant reply.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	if strings.HasPrefix(content, "/") {
		return m.handleCommand(content)
	}

	if m.state != StateReady {
		return m, nil
	}

	m.input.Reset()
	m.clearCompletions()

	m.conversation.AddUserMessage(content)
	assistant := m.conversation.AddAssistantMessage()

	// Reset the token pipeline for the new response.
	m.streamingID = assistant.ID
	m.streamDone = false
	m.pendingStats = nil
	m.tokenCount = 0
	m.firstTokenAt = time.Time{}
	m.streamStart = time.Now()
	m.typewriter.Reset()
	m.frame.Reset()

	m.setState(StateWaiting)
	m.sessionMgr.RecordActivity()
	m.sessionMgr.MarkDirty()
	m.statusBar.SetDirty(true)
	m.statusBar.SetTokenUsage(m.conversation.EstimateTokens(), m.conversation.MaxTokens)

	m.refreshViewport()
	m.viewport.GotoBottom()

	// Snapshot the request before returning: the closure runs after
	// Update has moved on.
	messageID := assistant.ID
	apiMessages := m.conversation.ToAPIMessages()
	modelID := m.client.GetModel()

	request := func() tea.Msg {
		return StreamRequestMsg{
			MessageID: messageID,
			Messages:  apiMessages,
			Model:     modelID,
		}
	}

	return m, tea.Batch(request, streamTickCmd(), m.spinner.Start())
}

// =============================================================================
// SLASH-COMMAND COMPLETION
// =============================================================================

// handleTabCompletion cycles through command-name completions for a
// partial slash command. Completion only applies before the first space.
func (m Model) handleTabCompletion() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	if !strings.HasPrefix(value, "/") || strings.Contains(value, " ") {
		return m, nil
	}

	if len(m.completions) == 0 {
		query := strings.TrimPrefix(value, "/")
		names := commandNames()

		if query == "" {
			m.completions = names
		} else {
			for _, match := range components.FuzzyFilter(query, names) {
				m.completions = append(m.completions, match.Target)
			}
		}
		if len(m.completions) == 0 {
			return m, nil
		}
		m.completionIndex = 0
	} else {
		m.completionIndex = (m.completionIndex + 1) % len(m.completions)
	}

	m.input.SetValue("/" + m.completions[m.completionIndex])
	m.input.CursorEnd()
	return m, nil
}

// clearCompletions drops the completion cycle. Called on any edit so
// stale candidates never survive typing.
func (m *Model) clearCompletions() {
	m.completions = nil
	m.completionIndex = 0
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cadence/internal/history"
	"github.com/jeranaias/cadence/internal/model"
	"github.com/jeranaias/cadence/internal/storage"
)

// errHistoryDisabled is returned by persistence commands when the store
// was never opened (history.enabled = false).
var errHistoryDisabled = errors.New("history is disabled in config")

// =============================================================================
// PERSISTENCE COMMANDS
// =============================================================================
//
// Each command snapshots the conversation synchronously inside Update,
// then does the file I/O on the command goroutine. The snapshot matters:
// the Update loop keeps mutating the conversation while the closure runs.

// saveConversationCmd saves the current conversation. An empty name keeps
// the stored title (or derives one from the first user message).
func (m Model) saveConversationCmd(name string, autosave bool) tea.Cmd {
	store := m.store
	if store == nil {
		return func() tea.Msg {
			return ConversationSavedMsg{Autosave: autosave, Error: errHistoryDisabled}
		}
	}

	stored := storage.FromConversation(m.conversation)
	if name != "" {
		stored.Title = name
	}

	return func() tea.Msg {
		id, err := store.Save(stored)
		return ConversationSavedMsg{
			ID:       id,
			Title:    stored.Title,
			Autosave: autosave,
			Error:    err,
		}
	}
}

// loadConversationCmd loads a saved conversation. Ref is a conversation
// ID, a 1-based listing index, or empty for the most recent save.
func (m Model) loadConversationCmd(ref string) tea.Cmd {
	store := m.store
	if store == nil {
		return func() tea.Msg {
			return ConversationLoadedMsg{Error: errHistoryDisabled}
		}
	}

	return func() tea.Msg {
		var (
			stored *storage.StoredConversation
			err    error
		)
		switch {
		case ref == "":
			stored, err = store.MostRecent()
		default:
			if n, convErr := strconv.Atoi(ref); convErr == nil {
				if n < 1 {
					return ConversationLoadedMsg{Error: fmt.Errorf("index starts at 1, got %d", n)}
				}
				stored, err = store.LoadByIndex(n - 1)
			} else {
				stored, err = store.Load(ref)
			}
		}
		return ConversationLoadedMsg{Conversation: stored, Error: err}
	}
}

// listConversationsCmd fetches saved-conversation metadata.
func (m Model) listConversationsCmd() tea.Cmd {
	store := m.store
	if store == nil {
		return func() tea.Msg {
			return ConversationListMsg{Error: errHistoryDisabled}
		}
	}

	return func() tea.Msg {
		metas, err := store.List()
		return ConversationListMsg{Conversations: metas, Error: err}
	}
}

// reindexHistoryCmd rebuilds the full-text index in the background. When
// history.watch is on, the first successful reindex also starts the file
// watcher that keeps the index current for the rest of the session.
func (m Model) reindexHistoryCmd() tea.Cmd {
	idx := m.history
	if idx == nil {
		return nil
	}

	return func() tea.Msg {
		return HistoryIndexedMsg{Error: idx.Reindex(context.Background())}
	}
}

// searchConversationsCmd runs a full-text search across saved messages.
// The FTS index serves the query when it is ready; otherwise the command
// falls back to scanning the conversation files directly.
func (m Model) searchConversationsCmd(query string) tea.Cmd {
	store := m.store
	idx := m.history
	if store == nil {
		return func() tea.Msg {
			return ConversationSearchResultMsg{Query: query, Error: errHistoryDisabled}
		}
	}

	return func() tea.Msg {
		if idx != nil && idx.IsIndexed() {
			matches, err := idx.Search(query, history.DefaultSearchOptions())
			if err == nil {
				return ConversationSearchResultMsg{Query: query, Matches: matches}
			}
			// Fall through to the file scan on index errors.
		}

		results, err := store.SearchMessages(query)
		return ConversationSearchResultMsg{Query: query, Results: results, Error: err}
	}
}

// exportConversationCmd writes the current conversation to a file in the
// requested format. An empty path gets a timestamped name in the working
// directory.
func (m Model) exportConversationCmd(format, path string) tea.Cmd {
	stored := storage.FromConversation(m.conversation)

	return func() tea.Msg {
		var (
			data []byte
			ext  string
			err  error
		)
		switch format {
		case "markdown", "md":
			data = []byte(stored.ExportMarkdown())
			ext = "md"
		case "json":
			data, err = stored.ExportJSON()
			ext = "json"
			if err != nil {
				return ConversationExportedMsg{Error: err}
			}
		default:
			return ConversationExportedMsg{
				Error: fmt.Errorf("unknown export format %q (use markdown or json)", format),
			}
		}

		if path == "" {
			path = fmt.Sprintf("cadence-%s.%s", time.Now().Format("20060102-150405"), ext)
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return ConversationExportedMsg{Path: path, Error: err}
		}
		return ConversationExportedMsg{Path: path}
	}
}

// =============================================================================
// PERSISTENCE RESULT HANDLERS
// =============================================================================

// handleConversationSaved reacts to a finished save.
func (m Model) handleConversationSaved(msg ConversationSavedMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		if msg.Autosave {
			m.toasts.AddWarning("Autosave failed: " + msg.Error.Error())
		} else {
			m.toasts.AddError("Save failed: " + msg.Error.Error())
		}
		return m, m.armToastTick()
	}

	m.sessionMgr.MarkClean()
	m.statusBar.SetDirty(false)

	if msg.Autosave {
		m.toasts.AddStatus("Autosaved")
	} else {
		label := msg.Title
		if label == "" {
			label = msg.ID
		}
		m.toasts.AddSuccess("Saved: " + truncatePreview(label, 40))
	}
	return m, m.armToastTick()
}

// handleConversationLoaded swaps in a loaded conversation.
func (m Model) handleConversationLoaded(msg ConversationLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("Load failed: " + msg.Error.Error())
		return m, m.armToastTick()
	}

	if m.state != StateReady {
		m.toasts.AddWarning("Busy, retry after the current response finishes")
		return m, m.armToastTick()
	}

	conv := msg.Conversation.ToConversation()
	m.conversation = conv

	if conv.Model != "" {
		m.client.SetModel(conv.Model)
		m.statusBar.SetModel(conv.Model)
		if info, ok := model.GetModelInfo(conv.Model); ok {
			conv.SetMaxTokens(info.MaxTokens)
		}
	}
	m.statusBar.SetTokenUsage(conv.EstimateTokens(), conv.MaxTokens)

	m.optimizer.Reset()
	m.refreshViewport()
	m.viewport.GotoBottom()

	m.sessionMgr.MarkClean()
	m.statusBar.SetDirty(false)

	title := msg.Conversation.Title
	if title == "" {
		title = msg.Conversation.ID
	}
	m.toasts.AddSuccess(fmt.Sprintf("Loaded %q (%d messages)", truncatePreview(title, 30), len(conv.Messages)))
	return m, m.armToastTick()
}

// handleConversationList prints the saved-conversation table into the
// transcript.
func (m Model) handleConversationList(msg ConversationListMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("List failed: " + msg.Error.Error())
		return m, m.armToastTick()
	}

	if len(msg.Conversations) == 0 {
		m.conversation.AddSystemMessage("No saved conversations yet. Use /save to create one.")
	} else {
		m.conversation.AddSystemMessage(storage.FormatConversationList(msg.Conversations))
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// handleConversationSearchResult prints full-text search hits into the
// transcript.
func (m Model) handleConversationSearchResult(msg ConversationSearchResultMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("Search failed: " + msg.Error.Error())
		return m, m.armToastTick()
	}

	switch {
	case len(msg.Matches) > 0:
		header := fmt.Sprintf("Messages matching %q:\n\n", msg.Query)
		m.conversation.AddSystemMessage(header + formatSearchMatches(msg.Matches))
	case len(msg.Results) > 0:
		header := fmt.Sprintf("Conversations matching %q:\n\n", msg.Query)
		m.conversation.AddSystemMessage(header + storage.FormatConversationList(msg.Results))
	default:
		m.conversation.AddSystemMessage(fmt.Sprintf("No saved conversations matching %q.", msg.Query))
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// formatSearchMatches renders full-text index hits with their snippets.
func formatSearchMatches(matches []history.SearchResult) string {
	var b strings.Builder
	for i, hit := range matches {
		title := hit.Title
		if title == "" {
			title = hit.ConversationID
		}
		fmt.Fprintf(&b, "%d. %s (%s, %s)\n   %s\n",
			i+1, title, hit.Role, hit.UpdatedAt.Format("2006-01-02"), hit.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}

// handleHistoryIndexed reacts to the startup reindex finishing. Failure
// is surfaced but not fatal: search degrades to the file scan.
func (m Model) handleHistoryIndexed(msg HistoryIndexedMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddWarning("History indexing failed: " + msg.Error.Error())
		return m, m.armToastTick()
	}
	return m, nil
}

// handleConversationExported reacts to a finished export.
func (m Model) handleConversationExported(msg ConversationExportedMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("Export failed: " + msg.Error.Error())
	} else {
		m.toasts.AddSuccess("Exported to " + msg.Path)
	}
	return m, m.armToastTick()
}

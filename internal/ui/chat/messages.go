// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat
// interface. Messages are organized into the following categories:
//   - Streaming: stream start, token delivery, completion, and errors
//   - Models: live model listing from the endpoint
//   - Conversation: save, load, list, search, and export
//   - Errors: error display and dismissal
//
// All message types follow Bubble Tea conventions and are immutable.
package chat

import (
	"strings"
	"time"

	"github.com/jeranaias/cadence/internal/api"
	"github.com/jeranaias/cadence/internal/history"
	"github.com/jeranaias/cadence/internal/model"
	"github.com/jeranaias/cadence/internal/storage"
	"github.com/jeranaias/cadence/internal/ui/components"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamRequestMsg asks the program owner to start a streaming completion.
// The chat model emits it from submitInput; the root model intercepts it,
// wires up a cancellable context, and hands the request to a StreamRunner
// goroutine.
type StreamRequestMsg struct {
	MessageID string
	Messages  []api.Message
	Model     string
}

// StreamStartMsg signals that the request goroutine is running.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamTokenMsg delivers one content delta from the stream.
type StreamTokenMsg struct {
	MessageID string
	Token     string
	IsFirst   bool
}

// StreamCompleteMsg signals that the network side of the stream finished.
// The typewriter may still hold unemitted text; the message is finalized
// only once the pacer drains.
type StreamCompleteMsg struct {
	MessageID string
	Stats     *model.Statistics
}

// StreamErrorMsg signals a failure during streaming. Tokens delivered
// before the failure have already been pushed into the typewriter.
type StreamErrorMsg struct {
	MessageID string
	Error     error
}

// StreamTickMsg drives the repaint loop at 30fps during streaming. Each
// tick drains the frame buffer into the conversation so the terminal
// repaints at a fixed rate no matter how fast tokens arrive.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// MODEL MESSAGES
// =============================================================================

// ModelsListedMsg delivers the live model listing from the endpoint.
type ModelsListedMsg struct {
	Models []api.ModelInfo
	Error  error
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// SaveConversationMsg requests saving the current conversation.
type SaveConversationMsg struct {
	Name string // Optional title override
}

// ConversationSavedMsg confirms a save operation.
type ConversationSavedMsg struct {
	ID       string
	Title    string
	Autosave bool
	Error    error
}

// LoadConversationMsg requests loading a saved conversation. Ref is either
// a conversation ID or a 1-based index into the most-recent-first listing.
type LoadConversationMsg struct {
	Ref string
}

// ConversationLoadedMsg delivers a loaded conversation.
type ConversationLoadedMsg struct {
	Conversation *storage.StoredConversation
	Error        error
}

// ListConversationsMsg requests the saved-conversation listing.
type ListConversationsMsg struct{}

// ConversationListMsg delivers saved-conversation metadata.
type ConversationListMsg struct {
	Conversations []storage.ConversationMeta
	Error         error
}

// SearchConversationsMsg requests a search across saved conversations.
type SearchConversationsMsg struct {
	Query string
}

// ConversationSearchResultMsg delivers saved-conversation search results.
// Matches is populated when the full-text index served the query; Results
// carries the file-scan fallback.
type ConversationSearchResultMsg struct {
	Query   string
	Matches []history.SearchResult
	Results []storage.ConversationMeta
	Error   error
}

// HistoryIndexedMsg reports the outcome of the background history reindex
// that runs at startup.
type HistoryIndexedMsg struct {
	Error error
}

// ExportConversationMsg requests exporting the current conversation.
type ExportConversationMsg struct {
	Format string // "markdown" or "json"
	Path   string
}

// ConversationExportedMsg confirms an export operation.
type ConversationExportedMsg struct {
	Path  string
	Error error
}

// =============================================================================
// ERROR MESSAGES
// =============================================================================

// ErrorMsg displays an error to the user.
type ErrorMsg struct {
	Title       string
	Message     string
	Suggestions []string
	Dismissible bool
}

// ErrorDismissMsg dismisses the current error.
type ErrorDismissMsg struct{}

// NewErrorMsg creates a new dismissible error message.
func NewErrorMsg(title, message string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Dismissible: true,
	}
}

// NewErrorMsgWithSuggestions creates an error message with actionable
// suggestions.
func NewErrorMsgWithSuggestions(title, message string, suggestions []string) ErrorMsg {
	return ErrorMsg{
		Title:       title,
		Message:     message,
		Suggestions: suggestions,
		Dismissible: true,
	}
}

// SmartErrorMsg creates an error message with pattern-matched suggestions.
// The message text is analyzed against known failure patterns; when one
// matches, its title and suggestions replace the generic ones.
func SmartErrorMsg(title, message string) ErrorMsg {
	matcher := components.GetDefaultMatcher()

	if matched := matcher.Match(message); matched != nil {
		return ErrorMsg{
			Title:       matched.GetTitle(),
			Message:     message,
			Suggestions: matched.GetSuggestions(),
			Dismissible: true,
		}
	}

	if suggestions := detectErrorSuggestions(message); suggestions != nil {
		return NewErrorMsgWithSuggestions(title, message, suggestions)
	}

	return NewErrorMsg(title, message)
}

// detectErrorSuggestions analyzes an error message and returns relevant
// suggestions. Fallback for errors the pattern matcher does not know.
func detectErrorSuggestions(errMsg string) []string {
	errLower := strings.ToLower(errMsg)

	// Network/connection errors
	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "dial tcp") ||
		strings.Contains(errLower, "no such host") {
		return []string{
			"Check your network connection",
			"Verify the endpoint URL: cadence config get api.base_url",
			"Try again in a moment",
		}
	}

	// Authentication
	if strings.Contains(errLower, "unauthorized") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "401") {
		return []string{
			"Set your key: cadence config set api.key sk-or-...",
			"Or export OPENROUTER_API_KEY",
			"Verify the key at openrouter.ai/keys",
		}
	}

	// Model not found
	if strings.Contains(errLower, "model not found") ||
		strings.Contains(errLower, "model does not exist") ||
		strings.Contains(errLower, "404") {
		return []string{
			"List available models: /models",
			"Switch models: /model <name>",
			"Check the model ID spelling",
		}
	}

	// Credits
	if strings.Contains(errLower, "credits") ||
		strings.Contains(errLower, "402") {
		return []string{
			"Add credits at openrouter.ai/credits",
			"Switch to a free model: /model free",
		}
	}

	// Context exceeded
	if strings.Contains(errLower, "context") &&
		(strings.Contains(errLower, "exceeded") || strings.Contains(errLower, "too long")) {
		return []string{
			"Start a new conversation: /new",
			"Clear history: /clear",
			"Use shorter messages",
		}
	}

	// Timeout
	if strings.Contains(errLower, "timeout") || strings.Contains(errLower, "timed out") {
		return []string{
			"Try again",
			"Raise the timeout: cadence config set api.timeout_secs 120",
		}
	}

	// Rate limit
	if strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "too many requests") ||
		strings.Contains(errLower, "429") {
		return []string{
			"Wait a moment and retry",
			"Switch to a less loaded model",
			"Check your quota at openrouter.ai",
		}
	}

	return nil
}

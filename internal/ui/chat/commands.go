// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the slash-command registry. Each command is an
// individual handler function so commands stay independently testable.
package chat

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cadence/internal/model"
	"github.com/jeranaias/cadence/internal/session"
	"github.com/jeranaias/cadence/internal/typewriter"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// CommandHandler handles one slash command. It receives the model and
// the arguments after the command name.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandInfo describes a command for /help output and tab completion.
type commandInfo struct {
	Name    string
	Aliases []string
	Args    string
	Desc    string
}

// commandIndex drives /help and completion, in display order.
var commandIndex = []commandInfo{
	{"help", []string{"h"}, "", "Show this command reference"},
	{"model", []string{"m"}, "[name]", "Show or switch the active model"},
	{"models", nil, "", "List models available on the endpoint"},
	{"speed", nil, "[off|slow|normal|fast]", "Adjust typewriter pacing"},
	{"new", []string{"n"}, "", "Start a fresh conversation"},
	{"clear", []string{"c"}, "", "Clear the transcript"},
	{"save", []string{"s"}, "[title]", "Save the conversation"},
	{"load", []string{"l"}, "[id|index]", "Load a saved conversation (most recent if no ref)"},
	{"sessions", []string{"list"}, "", "List saved conversations"},
	{"search", nil, "<query>", "Search saved conversations"},
	{"export", []string{"e"}, "[markdown|json] [path]", "Export the conversation to a file"},
	{"history", []string{"hist"}, "[n]", "Show the last n messages"},
	{"stats", []string{"tokens", "tok"}, "", "Conversation and session statistics"},
	{"copy", nil, "", "Copy the last assistant reply"},
	{"config", []string{"cfg"}, "", "Show the active configuration"},
	{"version", []string{"ver"}, "", "Version information"},
	{"quit", []string{"q", "exit"}, "", "Exit cadence"},
}

// commandHandlers maps command names and aliases to handlers.
var commandHandlers = map[string]CommandHandler{
	"help": handleHelpCommand,
	"h":    handleHelpCommand,
	"?":    handleHelpCommand,
	"quit": handleQuitCommand,
	"q":    handleQuitCommand,
	"exit": handleQuitCommand,

	"clear":    handleClearCommand,
	"c":        handleClearCommand,
	"new":      handleNewCommand,
	"n":        handleNewCommand,
	"save":     handleSaveCommand,
	"s":        handleSaveCommand,
	"load":     handleLoadCommand,
	"l":        handleLoadCommand,
	"sessions": handleSessionsCommand,
	"list":     handleSessionsCommand,
	"search":   handleSearchCommand,
	"export":   handleExportCommand,
	"e":        handleExportCommand,
	"history":  handleHistoryCommand,
	"hist":     handleHistoryCommand,

	"model":  handleModelCommand,
	"m":      handleModelCommand,
	"models": handleModelsCommand,
	"speed":  handleSpeedCommand,

	"stats":   handleStatsCommand,
	"tokens":  handleStatsCommand,
	"tok":     handleStatsCommand,
	"copy":    handleCopyCommand,
	"config":  handleConfigCommand,
	"cfg":     handleConfigCommand,
	"version": handleVersionCommand,
	"ver":     handleVersionCommand,
}

// commandNames returns the canonical command names, sorted, for tab
// completion.
func commandNames() []string {
	names := make([]string, 0, len(commandIndex))
	for _, info := range commandIndex {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	return names
}

// handleCommand dispatches a slash command through the registry.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	m.input.Reset()
	m.clearCompletions()

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}

	cmdName := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	// Transcript-writing commands would race the streaming append, so
	// only /quit runs while a response is active.
	if m.state != StateReady {
		switch cmdName {
		case "quit", "q", "exit":
			return m, tea.Quit
		default:
			m.toasts.AddWarning("Commands are available when the response finishes")
			return m, m.armToastTick()
		}
	}

	if handler, ok := commandHandlers[cmdName]; ok {
		return handler(&m, args)
	}

	m.conversation.AddSystemMessage("Unknown command '/" + cmdName + "'. Type /help for the list.")
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// HELP AND META
// =============================================================================

func handleHelpCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	left := make([]string, len(commandIndex))
	width := 0
	for i, info := range commandIndex {
		left[i] = "/" + info.Name
		if info.Args != "" {
			left[i] += " " + info.Args
		}
		if len(left[i]) > width {
			width = len(left[i])
		}
	}

	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for i, info := range commandIndex {
		fmt.Fprintf(&sb, "  %-*s  %s", width, left[i], info.Desc)
		if len(info.Aliases) > 0 {
			sb.WriteString(" (alias /" + strings.Join(info.Aliases, ", /") + ")")
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\nPress ? in normal mode for keyboard shortcuts.")

	m.conversation.AddSystemMessage(sb.String())
	m.refreshViewport()
	m.viewport.GotoBottom()
	return *m, nil
}

func handleQuitCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return *m, tea.Quit
}

// =============================================================================
// CONVERSATION MANAGEMENT
// =============================================================================

func handleClearCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.clearConversation()
}

func handleNewCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.state != StateReady {
		m.toasts.AddWarning("Finish the current response first")
		return *m, m.armToastTick()
	}

	conv := model.NewConversationWithModel(m.client.GetModel())
	if info, ok := model.GetModelInfo(conv.Model); ok {
		conv.SetMaxTokens(info.MaxTokens)
	}
	m.conversation = conv
	m.optimizer.Reset()
	m.refreshViewport()
	m.viewport.GotoTop()
	m.statusBar.SetTokenUsage(0, conv.MaxTokens)
	m.sessionMgr.MarkClean()
	m.statusBar.SetDirty(false)
	m.toasts.AddStatus("New conversation")
	return *m, m.armToastTick()
}

func handleSaveCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.conversation.IsEmpty() {
		m.conversation.AddSystemMessage("Nothing to save yet.")
		m.refreshViewport()
		m.viewport.GotoBottom()
		return *m, nil
	}

	name := strings.Join(args, " ")
	return *m, func() tea.Msg {
		return SaveConversationMsg{Name: name}
	}
}

func handleLoadCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	return *m, func() tea.Msg {
		return LoadConversationMsg{Ref: ref}
	}
}

func handleSessionsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return *m, func() tea.Msg {
		return ListConversationsMsg{}
	}
}

func handleSearchCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.conversation.AddSystemMessage("Search query required. Usage: /search <query>")
		m.refreshViewport()
		m.viewport.GotoBottom()
		return *m, nil
	}

	query := strings.Join(args, " ")
	return *m, func() tea.Msg {
		return SearchConversationsMsg{Query: query}
	}
}

func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	format := "markdown"
	path := ""
	if len(args) > 0 {
		format = strings.ToLower(args[0])
		if format == "md" {
			format = "markdown"
		}
		if format != "markdown" && format != "json" {
			m.conversation.AddSystemMessage("Invalid format '" + args[0] + "'. Usage: /export [markdown|json] [path]")
			m.refreshViewport()
			m.viewport.GotoBottom()
			return *m, nil
		}
	}
	if len(args) > 1 {
		path = args[1]
	}

	if m.conversation.IsEmpty() {
		m.conversation.AddSystemMessage("Nothing to export yet.")
		m.refreshViewport()
		m.viewport.GotoBottom()
		return *m, nil
	}

	return *m, func() tea.Msg {
		return ExportConversationMsg{Format: format, Path: path}
	}
}

func handleHistoryCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	n := 10
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			m.conversation.AddSystemMessage("Invalid number '" + args[0] + "'. Usage: /history [n]")
			m.refreshViewport()
			m.viewport.GotoBottom()
			return *m, nil
		}
		if parsed <= 0 {
			m.conversation.AddSystemMessage("Number must be positive. Usage: /history [n]")
			m.refreshViewport()
			m.viewport.GotoBottom()
			return *m, nil
		}
		if parsed > 1000 {
			m.conversation.AddSystemMessage("Number too large (max 1000). Usage: /history [n]")
			m.refreshViewport()
			m.viewport.GotoBottom()
			return *m, nil
		}
		n = parsed
	}

	m.conversation.AddSystemMessage(formatHistory(m.conversation.GetHistory(), n))
	m.refreshViewport()
	m.viewport.GotoBottom()
	return *m, nil
}

// =============================================================================
// MODEL COMMANDS
// =============================================================================

func handleModelCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		var sb strings.Builder
		sb.WriteString("Current model: " + m.client.GetModel() + "\n")
		if info, ok := model.GetModelInfo(m.client.GetModel()); ok {
			fmt.Fprintf(&sb, "  %s %s (%s), %s context, %s\n",
				info.TierIcon(), info.Name, info.Provider,
				formatNumberWithCommas(info.MaxTokens), info.CostString())
		}
		sb.WriteString("\nUsage: /model <name>\nShort names: " + strings.Join(model.ModelShortNames(), ", "))
		m.conversation.AddSystemMessage(sb.String())
		m.refreshViewport()
		m.viewport.GotoBottom()
		return *m, nil
	}

	resolved := model.ResolveModelID(strings.TrimSpace(args[0]))
	m.client.SetModel(resolved)
	m.statusBar.SetModel(resolved)
	m.conversation.Model = resolved

	if info, ok := model.GetModelInfo(resolved); ok {
		m.conversation.SetMaxTokens(info.MaxTokens)
		m.conversation.AddSystemMessage(fmt.Sprintf("Model switched to %s %s (%s)",
			info.TierIcon(), info.Name, info.ID))
	} else {
		// Unknown to the registry, but the endpoint may still serve it.
		m.conversation.AddSystemMessage("Model set to " + resolved + " (not in the built-in registry)")
	}

	m.statusBar.SetTokenUsage(m.conversation.EstimateTokens(), m.conversation.MaxTokens)
	m.refreshViewport()
	m.viewport.GotoBottom()
	return *m, nil
}

func handleModelsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	client := m.client
	m.toasts.AddStatus("Fetching model list...")
	return *m, tea.Batch(m.armToastTick(), func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		models, err := client.ListModels(ctx)
		return ModelsListedMsg{Models: models, Error: err}
	})
}

// handleModelsListed prints the endpoint's model listing into the
// transcript.
func (m Model) handleModelsListed(msg ModelsListedMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("Model listing failed: " + msg.Error.Error())
		return m, m.armToastTick()
	}

	const maxListed = 40
	shown := msg.Models
	extra := 0
	if len(shown) > maxListed {
		extra = len(shown) - maxListed
		shown = shown[:maxListed]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Available models (%d):\n\n", len(msg.Models))
	for _, info := range shown {
		fmt.Fprintf(&sb, "  %-44s %10s  %s", info.ID, formatNumberWithCommas(info.ContextSize), info.Name)
		if info.Pricing.Prompt == "0" && info.Pricing.Completion == "0" {
			sb.WriteString(" (free)")
		}
		sb.WriteByte('\n')
	}
	if extra > 0 {
		fmt.Fprintf(&sb, "  ... and %d more\n", extra)
	}
	sb.WriteString("\nSwitch with /model <id>")

	m.conversation.AddSystemMessage(sb.String())
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func handleSpeedCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		state := "off"
		if m.typingEnabled {
			state = fmt.Sprintf("on (%dms between words)", m.cfg.Typing.BaseDelayMs)
		}
		m.conversation.AddSystemMessage("Typewriter: " + state + "\nUsage: /speed <off|slow|normal|fast>")
		m.refreshViewport()
		m.viewport.GotoBottom()
		return *m, nil
	}

	// Swapping the pacer mid-response would strand its backlog.
	if m.state != StateReady {
		m.toasts.AddWarning("Speed changes apply once the response finishes")
		return *m, m.armToastTick()
	}

	preset := strings.ToLower(args[0])
	switch preset {
	case "off":
		m.typingEnabled = false
		m.cfg.Typing.Enabled = false
		m.toasts.AddStatus("Typewriter off, tokens render as they arrive")
		return *m, m.armToastTick()
	case "on", "normal":
		m.cfg.Typing.BaseDelayMs = int(typewriter.DefaultBaseDelay / time.Millisecond)
	case "slow":
		m.cfg.Typing.BaseDelayMs = 70
	case "fast":
		m.cfg.Typing.BaseDelayMs = 12
	default:
		m.conversation.AddSystemMessage("Invalid speed '" + preset + "'. Usage: /speed <off|slow|normal|fast>")
		m.refreshViewport()
		m.viewport.GotoBottom()
		return *m, nil
	}

	m.typingEnabled = true
	m.cfg.Typing.Enabled = true
	m.typewriter = typewriter.New(m.cfg.TypewriterConfig(), m.frame.Write)
	m.toasts.AddStatus(fmt.Sprintf("Typewriter %s (%dms between words)", preset, m.cfg.Typing.BaseDelayMs))
	return *m, m.armToastTick()
}

// =============================================================================
// STATUS AND INFORMATION
// =============================================================================

func handleStatsCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	used := m.conversation.EstimateTokens()
	maxTokens := m.conversation.MaxTokens
	percent := 0.0
	if maxTokens > 0 {
		percent = float64(used) / float64(maxTokens) * 100
	}

	var sb strings.Builder
	sb.WriteString("Conversation:\n")
	fmt.Fprintf(&sb, "  Messages: %s\n", formatInt(len(m.conversation.GetHistory())))
	fmt.Fprintf(&sb, "  Tokens: %s of %s (%s%%)\n",
		formatNumberWithCommas(used), formatNumberWithCommas(maxTokens), formatFloat64(percent))

	if last := m.conversation.GetLastAssistantMessage(); last != nil && last.TotalDuration > 0 {
		sb.WriteString("\nLast response:\n  ")
		sb.WriteString(last.FormatStats())
		sb.WriteByte('\n')
	}

	status := m.sessionMgr.GetStatus()
	sb.WriteString("\nSession:\n")
	sb.WriteString("  ID: " + status.SessionID + "\n")
	sb.WriteString("  Active: " + session.FormatDuration(status.Duration) + "\n")
	sb.WriteString("  Expires in: " + session.FormatDuration(status.RemainingTime) + "\n")
	sb.WriteString("  Unsaved changes: " + formatBool(status.IsDirty) + "\n")

	m.conversation.AddSystemMessage(sb.String())
	m.refreshViewport()
	m.viewport.GotoBottom()
	return *m, nil
}

func handleCopyCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m.copyLastResponse()
}

func handleConfigCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	cfg := m.cfg

	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	sb.WriteString("  api.base_url: " + cfg.API.BaseURL + "\n")
	sb.WriteString("  api.model: " + cfg.API.Model + "\n")
	sb.WriteString("  api.key: " + m.client.MaskedKey() + "\n")
	fmt.Fprintf(&sb, "  api.timeout_secs: %d\n", cfg.API.TimeoutSecs)
	sb.WriteString("  typing.enabled: " + formatBool(m.typingEnabled) + "\n")
	fmt.Fprintf(&sb, "  typing.base_delay_ms: %d\n", cfg.Typing.BaseDelayMs)
	sb.WriteString("  ui.theme: " + cfg.UI.Theme + "\n")
	sb.WriteString("  ui.markdown: " + formatBool(cfg.UI.Markdown) + "\n")
	sb.WriteString("  ui.show_stats: " + formatBool(cfg.UI.ShowStats) + "\n")
	sb.WriteString("  history.enabled: " + formatBool(cfg.History.Enabled) + "\n")
	fmt.Fprintf(&sb, "  session.idle_timeout_secs: %d\n", cfg.Session.IdleTimeoutSecs)
	sb.WriteString("\nEdit with: cadence config set <key> <value>")

	m.conversation.AddSystemMessage(sb.String())
	m.refreshViewport()
	m.viewport.GotoBottom()
	return *m, nil
}

func handleVersionCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	var sb strings.Builder
	sb.WriteString("Version Information:\n")
	sb.WriteString("  cadence: 0.1.0\n")
	sb.WriteString("  Go: ")
	sb.WriteString(runtime.Version())
	sb.WriteString("\n  Platform: ")
	sb.WriteString(runtime.GOOS)
	sb.WriteByte('/')
	sb.WriteString(runtime.GOARCH)
	sb.WriteByte('\n')

	m.conversation.AddSystemMessage(sb.String())
	m.refreshViewport()
	m.viewport.GotoBottom()
	return *m, nil
}

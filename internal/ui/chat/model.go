// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cadence/internal/api"
	"github.com/jeranaias/cadence/internal/config"
	"github.com/jeranaias/cadence/internal/history"
	"github.com/jeranaias/cadence/internal/model"
	"github.com/jeranaias/cadence/internal/session"
	"github.com/jeranaias/cadence/internal/storage"
	"github.com/jeranaias/cadence/internal/typewriter"
	"github.com/jeranaias/cadence/internal/ui/components"
	"github.com/jeranaias/cadence/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// State is the chat view's streaming lifecycle state.
type State int

const (
	// StateReady accepts input.
	StateReady State = iota
	// StateWaiting has a request in flight with no tokens yet.
	StateWaiting
	// StateStreaming is receiving tokens.
	StateStreaming
	// StateDraining means the network side finished but the typewriter
	// is still pacing out its backlog.
	StateDraining
	// StateError is showing a blocking error overlay.
	StateError
)

// String returns the state's display name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateWaiting:
		return "Waiting"
	case StateStreaming:
		return "Streaming"
	case StateDraining:
		return "Draining"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
//
// Streaming pipeline: the root model's goroutine sends StreamTokenMsg
// per content delta. Tokens go into the typewriter pacer, whose sink
// writes into the frame buffer. A 30fps tick drains the frame buffer
// into the conversation and repaints the viewport.
type Model struct {
	// Terminal dimensions
	width  int
	height int
	ready  bool

	// Bubbles
	viewport    viewport.Model
	input       textinput.Model
	searchInput textinput.Model
	spinner     components.Spinner

	// Conversation
	conversation *model.Conversation
	state        State
	inputMode    bool

	// Typewriter pipeline
	typewriter    *typewriter.Buffer
	frame         *StreamingBuffer
	typingEnabled bool
	streamingID   string
	streamDone    bool
	pendingStats  *model.Statistics
	streamStart   time.Time
	firstTokenAt  time.Time
	tokenCount    int

	// Services
	client     *api.Client
	store      *storage.ConversationStore
	history    *history.Index
	sessionMgr *session.Manager
	cancelMgr  *cancelManager
	cfg        *config.Config

	// Chrome
	theme     *styles.Theme
	keys      KeyMap
	statusBar *components.StatusBar
	toasts    *components.ToastManager
	timeout   components.SessionTimeoutOverlay
	errors    components.ErrorDisplay
	optimizer *ViewportOptimizer

	// Markdown rendering for finalized assistant messages
	markdown       *glamour.TermRenderer
	mdWidth        int
	renderMarkdown bool
	showStats      bool
	compact        bool

	// Overlays
	showHelp     bool
	toastTicking bool

	// In-conversation search
	searchMode    bool
	searchQuery   string
	searchMatches []int
	searchIndex   int

	// Slash command completion
	completions     []string
	completionIndex int
}

// New creates the chat view model. The conversation starts empty on the
// client's current model.
func New(cfg *config.Config, client *api.Client, store *storage.ConversationStore) Model {
	theme := styles.NewTheme()

	input := textinput.New()
	input.Placeholder = "Type a message, or /help for commands"
	input.CharLimit = 4096
	input.Prompt = ""
	input.Focus()

	searchInput := textinput.New()
	searchInput.Placeholder = "search..."
	searchInput.CharLimit = 64
	searchInput.Prompt = ""

	conv := model.NewConversationWithModel(client.GetModel())
	if info, ok := model.GetModelInfo(client.GetModel()); ok {
		conv.SetMaxTokens(info.MaxTokens)
	}

	frame := NewStreamingBuffer()

	sessionMgr := session.NewManager(session.FromConfig(cfg.Session))

	// The full-text index lives next to the conversations directory. When
	// history.watch is on, Reindex also starts a watcher that keeps the
	// index current as files change on disk. A broken index degrades to
	// the plain file scan rather than blocking the chat.
	var idx *history.Index
	if store != nil {
		idx, _ = history.NewIndex(&history.Config{
			ConversationsDir: store.BaseDir,
			DatabasePath:     filepath.Join(filepath.Dir(store.BaseDir), "history.db"),
			EnableWatch:      cfg.History.Watch,
			WatchDebounce:    500 * time.Millisecond,
			PollInterval:     5 * time.Second,
		})
	}

	statusBar := components.NewStatusBar(theme)
	statusBar.SetModel(client.GetModel())
	statusBar.SetTokenUsage(0, conv.MaxTokens)
	statusBar.SetSessionRemaining(sessionMgr.RemainingTime())

	m := Model{
		viewport:    viewport.New(0, 0),
		input:       input,
		searchInput: searchInput,
		spinner:     components.NewThinkingSpinner(),

		conversation: conv,
		state:        StateReady,
		inputMode:    true,

		typewriter:    typewriter.New(cfg.TypewriterConfig(), frame.Write),
		frame:         frame,
		typingEnabled: cfg.Typing.Enabled,

		client:     client,
		store:      store,
		history:    idx,
		sessionMgr: sessionMgr,
		cancelMgr:  newCancelManager(),
		cfg:        cfg,

		theme:     theme,
		keys:      DefaultKeyMap(),
		statusBar: statusBar,
		toasts:    components.NewToastManager(),
		timeout:   components.NewSessionTimeoutOverlay(),
		errors:    components.NewErrorDisplay(),
		optimizer: NewViewportOptimizer(),

		renderMarkdown: cfg.UI.Markdown,
		showStats:      cfg.UI.ShowStats,
		compact:        cfg.UI.CompactMode,
	}

	return m
}

// Init starts the cursor blink, the session clock, and the background
// history reindex.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, session.TickCmd(), m.reindexHistoryCmd())
}

// Close releases the history index, stopping its watcher if one is
// running. Safe to call when history is disabled.
func (m Model) Close() error {
	if m.history == nil {
		return nil
	}
	return m.history.Close()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages for the chat view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	// Streaming lifecycle
	case StreamStartMsg:
		return m.handleStreamStart(msg)
	case StreamTokenMsg:
		return m.handleStreamToken(msg)
	case StreamTickMsg:
		return m.handleStreamTick()
	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)
	case StreamErrorMsg:
		return m.handleStreamError(msg)

	// Session lifecycle
	case session.TickMsg:
		return m.handleSessionTick()
	case session.TimeoutWarningMsg:
		m.timeout.Show(msg.Remaining)
		return m, nil
	case session.TimeoutMsg:
		return m.handleSessionTimeout()
	case session.AutoSaveMsg:
		return m.handleAutoSave()
	case components.SessionExtendedMsg:
		return m.handleSessionExtended()

	// Toasts
	case components.ToastTickMsg:
		m.toasts.TickToasts()
		if m.toasts.HasToasts() {
			return m, components.ToastTickCmd()
		}
		m.toastTicking = false
		return m, nil

	// Conversation persistence
	case SaveConversationMsg:
		return m, m.saveConversationCmd(msg.Name, false)
	case ConversationSavedMsg:
		return m.handleConversationSaved(msg)
	case LoadConversationMsg:
		return m, m.loadConversationCmd(msg.Ref)
	case ConversationLoadedMsg:
		return m.handleConversationLoaded(msg)
	case ListConversationsMsg:
		return m, m.listConversationsCmd()
	case ConversationListMsg:
		return m.handleConversationList(msg)
	case SearchConversationsMsg:
		return m, m.searchConversationsCmd(msg.Query)
	case ConversationSearchResultMsg:
		return m.handleConversationSearchResult(msg)
	case HistoryIndexedMsg:
		return m.handleHistoryIndexed(msg)
	case ExportConversationMsg:
		return m, m.exportConversationCmd(msg.Format, msg.Path)
	case ConversationExportedMsg:
		return m.handleConversationExported(msg)

	// Models
	case ModelsListedMsg:
		return m.handleModelsListed(msg)

	// Errors
	case ErrorMsg:
		return m.handleErrorMsg(msg)
	case ErrorDismissMsg:
		m.errors.Hide()
		if m.state == StateError {
			m.setState(StateReady)
		}
		return m, nil
	}

	// Everything else: cursor blinks, spinner frames.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if m.state == StateWaiting {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.searchMode {
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// RESIZE
// =============================================================================

// handleResize recomputes component dimensions for a new terminal size.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.recalcLayout()
	m.statusBar.SetWidth(msg.Width)
	m.timeout.SetSize(msg.Width, msg.Height)
	m.errors.SetSize(msg.Width, msg.Height)
	m.ensureMarkdown()

	// Same content renders differently at a new width
	m.optimizer.ForceUpdate()
	m.refreshViewport()

	return m, nil
}

// recalcLayout sizes the viewport from nominal chrome heights. The view
// trues this up against measured heights on each render.
func (m *Model) recalcLayout() {
	const (
		headerHeight = 1
		inputHeight  = 3
		statusHeight = 1
	)

	searchHeight := 0
	if m.searchMode {
		searchHeight = 1
	}

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - searchHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}

	inputWidth := m.width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	searchWidth := m.width - 30
	if searchWidth < 10 {
		searchWidth = 10
	}
	m.searchInput.Width = searchWidth
}

// ensureMarkdown (re)builds the glamour renderer for the current width.
// A nil renderer falls back to the plain code-block pipeline.
func (m *Model) ensureMarkdown() {
	if !m.renderMarkdown || m.width == 0 {
		m.markdown = nil
		return
	}

	wrap := minInt(m.width-8, 100)
	if wrap < 20 {
		wrap = 20
	}
	if m.markdown != nil && wrap == m.mdWidth {
		return
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.markdown = nil
		return
	}
	m.markdown = renderer
	m.mdWidth = wrap
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKeyPress routes key events by overlay and mode priority.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.sessionMgr.RecordActivity()

	// Overlays eat keys first.
	if m.timeout.IsVisible() {
		var cmd tea.Cmd
		m.timeout, cmd = m.timeout.Update(msg)
		return m, cmd
	}

	if m.errors.IsVisible() {
		switch msg.String() {
		case "esc", "enter", "q":
			m.errors.Hide()
			if m.state == StateError {
				m.setState(StateReady)
			}
		}
		return m, nil
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.searchMode {
		return m.handleSearchKeys(msg)
	}

	// Global bindings.
	switch msg.String() {
	case "ctrl+c":
		switch m.state {
		case StateWaiting, StateStreaming:
			return m.cancelStreaming()
		case StateDraining:
			return m.skipTypewriter()
		default:
			return m, tea.Quit
		}
	case "ctrl+q":
		return m, tea.Quit
	}

	if m.inputMode {
		return m.handleInputModeKeys(msg)
	}
	return m.handleNormalModeKeys(msg)
}

// handleInputModeKeys handles keys while the text input is focused.
func (m Model) handleInputModeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		switch m.state {
		case StateDraining:
			return m.skipTypewriter()
		case StateReady:
			return m.submitInput()
		default:
			return m, nil // request in flight
		}

	case key.Matches(msg, m.keys.Cancel):
		m.inputMode = false
		m.input.Blur()
		m.clearCompletions()
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		return m.handleTabCompletion()

	case key.Matches(msg, m.keys.Clear):
		return m.clearConversation()

	case msg.String() == "ctrl+f":
		return m.enterSearchMode()

	case msg.Type == tea.KeyPgUp:
		m.viewport.HalfViewUp()
		return m, nil

	case msg.Type == tea.KeyPgDown:
		m.viewport.HalfViewDown()
		return m, nil
	}

	// Regular typing invalidates the completion cycle.
	m.clearCompletions()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleNormalModeKeys handles keys in scroll/navigation mode.
func (m Model) handleNormalModeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.state == StateDraining {
			return m.skipTypewriter()
		}
		return m.enterInputMode()

	case key.Matches(msg, m.keys.InsertMode):
		return m.enterInputMode()

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Search):
		return m.enterSearchMode()

	case key.Matches(msg, m.keys.Copy):
		return m.copyLastResponse()

	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.DismissNewest()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		return m.clearConversation()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case msg.String() == "n":
		return m.nextSearchMatch()

	case msg.String() == "N":
		return m.prevSearchMatch()
	}

	return m, nil
}

// enterInputMode focuses the text input.
func (m Model) enterInputMode() (tea.Model, tea.Cmd) {
	m.inputMode = true
	m.input.Focus()
	return m, textinput.Blink
}

// =============================================================================
// IN-CONVERSATION SEARCH
// =============================================================================

// enterSearchMode opens the search bar.
func (m Model) enterSearchMode() (tea.Model, tea.Cmd) {
	m.searchMode = true
	m.searchInput.Reset()
	m.searchInput.Focus()
	m.input.Blur()
	m.recalcLayout()
	return m, textinput.Blink
}

// exitSearchMode closes the search bar and clears highlights.
func (m Model) exitSearchMode() (tea.Model, tea.Cmd) {
	m.searchMode = false
	m.searchQuery = ""
	m.searchMatches = nil
	m.searchIndex = 0
	m.searchInput.Blur()
	if m.inputMode {
		m.input.Focus()
	}
	m.recalcLayout()
	m.optimizer.ForceUpdate()
	m.refreshViewport()
	return m, nil
}

// handleSearchKeys handles keys while the search bar is open.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.exitSearchMode()
	case "enter", "down":
		return m.nextSearchMatch()
	case "up":
		return m.prevSearchMatch()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if query := m.searchInput.Value(); query != m.searchQuery {
		m.searchQuery = query
		m.performSearch()
	}
	return m, cmd
}

// performSearch recomputes the set of messages matching the query and
// jumps to the first match.
func (m *Model) performSearch() {
	m.searchMatches = m.searchMatches[:0]
	m.searchIndex = 0

	if m.searchQuery != "" {
		q := strings.ToLower(m.searchQuery)
		for i, msg := range m.conversation.GetHistory() {
			if strings.Contains(strings.ToLower(msg.GetDisplayContent()), q) {
				m.searchMatches = append(m.searchMatches, i)
			}
		}
	}

	// Highlights change the rendered frame even when text didn't
	m.optimizer.ForceUpdate()
	m.refreshViewport()

	if len(m.searchMatches) > 0 {
		m.jumpToMatch(0)
	}
}

// jumpToMatch scrolls the viewport so the idx-th matching message is at
// the top. idx wraps in both directions.
func (m *Model) jumpToMatch(idx int) {
	if len(m.searchMatches) == 0 {
		return
	}

	n := len(m.searchMatches)
	idx = ((idx % n) + n) % n
	m.searchIndex = idx
	target := m.searchMatches[idx]

	blocks := m.renderMessageBlocks()
	offset := 0
	for i := 0; i < target && i < len(blocks); i++ {
		offset += lipgloss.Height(blocks[i])
	}
	m.viewport.SetYOffset(offset)
}

// nextSearchMatch advances to the next match.
func (m Model) nextSearchMatch() (tea.Model, tea.Cmd) {
	if len(m.searchMatches) == 0 {
		return m, nil
	}
	m.jumpToMatch(m.searchIndex + 1)
	return m, nil
}

// prevSearchMatch goes back to the previous match.
func (m Model) prevSearchMatch() (tea.Model, tea.Cmd) {
	if len(m.searchMatches) == 0 {
		return m, nil
	}
	m.jumpToMatch(m.searchIndex - 1)
	return m, nil
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// handleSessionTick advances the session clock and refreshes the
// remaining-time display.
func (m Model) handleSessionTick() (tea.Model, tea.Cmd) {
	cmd := m.sessionMgr.HandleTick()
	m.statusBar.SetSessionRemaining(m.sessionMgr.RemainingTime())
	if m.timeout.IsVisible() && !m.timeout.IsExpired() {
		m.timeout.UpdateTime(m.sessionMgr.RemainingTime())
	}
	return m, cmd
}

// handleSessionTimeout marks the session expired and saves any unsaved
// work.
func (m Model) handleSessionTimeout() (tea.Model, tea.Cmd) {
	m.timeout.MarkExpired()
	if m.sessionMgr.IsDirty() && !m.conversation.IsEmpty() {
		return m, m.saveConversationCmd("", true)
	}
	return m, nil
}

// handleAutoSave saves the conversation if there are unsaved changes.
func (m Model) handleAutoSave() (tea.Model, tea.Cmd) {
	if !m.sessionMgr.IsDirty() || m.conversation.IsEmpty() {
		return m, nil
	}
	return m, m.saveConversationCmd("", true)
}

// handleSessionExtended renews the session after the user answered the
// timeout warning.
func (m Model) handleSessionExtended() (tea.Model, tea.Cmd) {
	m.sessionMgr.Renew()
	m.timeout.Hide()
	m.statusBar.SetSessionRemaining(m.sessionMgr.RemainingTime())
	return m, nil
}

// =============================================================================
// ERRORS AND ACTIONS
// =============================================================================

// handleErrorMsg shows a dismissible error overlay.
func (m Model) handleErrorMsg(msg ErrorMsg) (tea.Model, tea.Cmd) {
	if len(msg.Suggestions) > 0 {
		m.errors = components.NewErrorWithSuggestions(msg.Title, msg.Message, msg.Suggestions)
	} else {
		m.errors = components.NewError(msg.Title, msg.Message)
	}
	m.errors.SetDismissible(msg.Dismissible)
	m.errors.SetSize(m.width, m.height)
	m.errors.Show()
	return m, nil
}

// clearConversation wipes the transcript. Ignored while a response is
// still in flight.
func (m Model) clearConversation() (tea.Model, tea.Cmd) {
	if m.state != StateReady {
		return m, nil
	}

	m.conversation.ClearHistory()
	m.optimizer.Reset()
	m.refreshViewport()
	m.viewport.GotoTop()
	m.statusBar.SetTokenUsage(m.conversation.EstimateTokens(), m.conversation.MaxTokens)
	m.toasts.AddStatus("Conversation cleared")
	return m, m.armToastTick()
}

// copyLastResponse copies the newest assistant message to the clipboard.
func (m Model) copyLastResponse() (tea.Model, tea.Cmd) {
	history := m.conversation.GetHistory()
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role != model.RoleAssistant || msg.IsEmpty() {
			continue
		}

		content := msg.GetDisplayContent()
		if err := copyToClipboard(content); err != nil {
			m.toasts.AddError("Copy failed: " + err.Error())
		} else if chars := len([]rune(content)); chars >= 1000 {
			m.toasts.AddSuccess(fmt.Sprintf("Copied %.1fK chars", float64(chars)/1000))
		} else {
			m.toasts.AddSuccess(fmt.Sprintf("Copied %d chars", chars))
		}
		return m, m.armToastTick()
	}

	m.toasts.AddWarning("Nothing to copy yet")
	return m, m.armToastTick()
}

// armToastTick starts the toast expiry loop if it is not running.
func (m *Model) armToastTick() tea.Cmd {
	if m.toastTicking {
		return nil
	}
	m.toastTicking = true
	return components.ToastTickCmd()
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// setState transitions the lifecycle state and mirrors it on the status
// bar.
func (m *Model) setState(s State) {
	m.state = s
	switch s {
	case StateReady:
		m.statusBar.SetStatus(components.StatusReady)
	case StateWaiting:
		m.statusBar.SetStatus(components.StatusWaiting)
	case StateStreaming:
		m.statusBar.SetStatus(components.StatusStreaming)
	case StateDraining:
		m.statusBar.SetStatus(components.StatusDraining)
	case StateError:
		m.statusBar.SetStatus(components.StatusError)
	}
}

// refreshViewport re-renders the transcript if it changed since the
// last frame.
func (m *Model) refreshViewport() {
	content := m.renderMessages()
	if m.optimizer.ShouldUpdate(content) {
		m.viewport.SetContent(content)
		m.optimizer.MarkClean()
	}
}

// GetCurrentContext reports which help context applies right now.
func (m Model) GetCurrentContext() HelpContext {
	switch {
	case m.searchMode:
		return ContextSearch
	case m.errors.IsVisible() || m.state == StateError:
		return ContextError
	case m.state == StateDraining:
		return ContextDraining
	case m.state == StateWaiting || m.state == StateStreaming:
		return ContextStreaming
	case m.inputMode:
		return ContextInput
	default:
		return ContextNormal
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current lifecycle state.
func (m Model) State() State {
	return m.state
}

// IsStreaming reports whether a response is in progress, including the
// draining window.
func (m Model) IsStreaming() bool {
	return m.state == StateWaiting || m.state == StateStreaming || m.state == StateDraining
}

// GetConversation returns the active conversation.
func (m Model) GetConversation() *model.Conversation {
	return m.conversation
}

// SetConversation replaces the active conversation. Nil is ignored.
func (m Model) SetConversation(conv *model.Conversation) Model {
	if conv == nil {
		return m
	}
	m.conversation = conv
	m.optimizer.Reset()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m
}

// ModelName returns the model the next request will use.
func (m Model) ModelName() string {
	return m.client.GetModel()
}

// TypingEnabled reports whether the typewriter pacer is on.
func (m Model) TypingEnabled() bool {
	return m.typingEnabled
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cadence/internal/model"
	"github.com/jeranaias/cadence/internal/ui/components"
	"github.com/jeranaias/cadence/internal/ui/styles"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the complete chat view.
//
// Layout: header (1 line) + [search bar] + viewport + input (3 lines) +
// status bar (1 line). The viewport height is pre-computed in
// recalcLayout() from nominal chrome heights; this function measures the
// real heights with lipgloss.Height and pads or clamps the viewport if
// they disagree, so the frame always fills the terminal exactly.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelpOverlay()
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.statusBar.View()

	var searchBar string
	if m.searchMode {
		searchBar = m.renderSearchBar()
	}

	chromeHeight := lipgloss.Height(header) + lipgloss.Height(input) + lipgloss.Height(status)
	if m.searchMode {
		chromeHeight += lipgloss.Height(searchBar)
	}

	available := m.height - chromeHeight
	if available < 1 {
		available = 1
	}

	messages := m.viewport.View()
	if lipgloss.Height(messages) != available {
		messages = lipgloss.NewStyle().
			Height(available).
			MaxHeight(available).
			Width(m.width).
			Render(messages)
	}

	sections := []string{header}
	if m.searchMode {
		sections = append(sections, searchBar)
	}
	sections = append(sections, messages, input, status)
	baseView := lipgloss.JoinVertical(lipgloss.Left, sections...)

	// Blocking overlays replace the frame; toasts layer onto it.
	if m.timeout.IsVisible() {
		return m.timeout.View()
	}
	if m.errors.IsVisible() {
		return m.errors.View()
	}
	if m.toasts.HasToasts() {
		overlay := components.RenderToastStack(m.toasts.GetToasts(), m.width, m.height)
		return m.overlayToasts(baseView, overlay)
	}

	return baseView
}

// overlayToasts layers the toast stack into the bottom-right corner of
// the base view without disturbing the rest of the frame.
func (m Model) overlayToasts(baseView, toastView string) string {
	baseLines := strings.Split(baseView, "\n")
	toastLines := strings.Split(toastView, "\n")

	// Leave the status bar visible below the stack.
	startRow := m.height - len(toastLines) - 2
	if startRow < 0 {
		startRow = 0
	}

	result := make([]string, len(baseLines))
	for i, baseLine := range baseLines {
		idx := i - startRow
		if idx < 0 || idx >= len(toastLines) || lipgloss.Width(toastLines[idx]) == 0 {
			result[i] = baseLine
			continue
		}

		toastLine := toastLines[idx]
		avail := m.width - lipgloss.Width(toastLine) - 1
		if avail < 0 {
			avail = 0
		}
		if lipgloss.Width(baseLine) > avail {
			baseLine = truncateToWidth(baseLine, avail)
		}
		if pad := avail - lipgloss.Width(baseLine); pad > 0 {
			baseLine += strings.Repeat(" ", pad)
		}
		result[i] = baseLine + toastLine
	}

	return strings.Join(result, "\n")
}

// truncateToWidth cuts a string to the given visible width.
func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}

	current := 0
	var b strings.Builder
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if current+w > width {
			break
		}
		b.WriteRune(r)
		current += w
	}
	return b.String()
}

// =============================================================================
// CHROME
// =============================================================================

// renderHeader renders the one-line title bar: app name, model, state
// indicator.
func (m Model) renderHeader() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Purple).
		Render("cadence")

	modelInfo := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" | " + m.client.GetModel())

	var statusIcon string
	switch m.state {
	case StateStreaming, StateDraining:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Render(" " + styles.StatusIndicators.Active)
	case StateError:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Render(" " + styles.StatusIndicators.Error)
	default:
		statusIcon = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Render(" " + styles.StatusIndicators.Success)
	}

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(width).
		Padding(0, 1).
		Render(title + modelInfo + statusIcon)
}

// renderSearchBar renders the search input with a match counter.
func (m Model) renderSearchBar() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var matchInfo string
	if m.searchQuery != "" {
		if len(m.searchMatches) == 0 {
			matchInfo = lipgloss.NewStyle().
				Foreground(styles.Rose).
				Render(" no matches")
		} else {
			matchInfo = lipgloss.NewStyle().
				Foreground(styles.Emerald).
				Render(fmt.Sprintf(" %d/%d", m.searchIndex+1, len(m.searchMatches)))
		}
	}

	help := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" | enter=next  up=prev  esc=close")

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.Amber).
		Width(width).
		Padding(0, 1).
		Render(m.searchInput.View() + matchInfo + help)
}

// renderInput renders the three-line input area: top rule, input line,
// hint line.
func (m Model) renderInput() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	borderColor := styles.FocusRing
	if !m.input.Focused() {
		borderColor = styles.OverlayDim
	}
	rule := lipgloss.NewStyle().
		Foreground(borderColor).
		Render(strings.Repeat("─", width))

	var trailer string
	switch m.state {
	case StateWaiting:
		trailer = " " + m.spinner.View()
	case StateStreaming:
		trailer = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Render(" (streaming...)")
	case StateDraining:
		trailer = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Render(" (typing... enter to skip)")
	}

	inputLine := lipgloss.NewStyle().
		Width(width).
		MaxHeight(1).
		Padding(0, 1).
		Render(m.input.View() + trailer)

	return rule + "\n" + inputLine + "\n" + m.renderHintLine(width)
}

// renderHintLine shows completion candidates while tab-cycling, or the
// character count, on the line under the input.
func (m Model) renderHintLine(width int) string {
	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(width).
		Padding(0, 1)

	if len(m.completions) > 0 {
		var parts []string
		for i, name := range m.completions {
			if i == m.completionIndex {
				parts = append(parts, lipgloss.NewStyle().
					Foreground(styles.Amber).
					Bold(true).
					Render("/"+name))
			} else {
				parts = append(parts, "/"+name)
			}
		}
		return hintStyle.MaxHeight(1).Render(strings.Join(parts, "  "))
	}

	count := len([]rune(m.input.Value()))
	if count == 0 {
		return hintStyle.Render("? for help")
	}
	return hintStyle.Render(fmt.Sprintf("%d/%d", count, m.input.CharLimit))
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages renders the full transcript for the viewport.
func (m *Model) renderMessages() string {
	blocks := m.renderMessageBlocks()
	if len(blocks) == 0 {
		return m.renderEmptyState()
	}

	if m.state == StateWaiting {
		blocks = append(blocks, lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1).
			Render(m.spinner.View()))
	}

	return strings.Join(blocks, "\n")
}

// renderMessageBlocks renders each message to its own block. Search
// navigation sums block heights to find scroll offsets, so every
// message gets exactly one entry.
func (m *Model) renderMessageBlocks() []string {
	if m.conversation == nil || m.conversation.IsEmpty() {
		return nil
	}

	history := m.conversation.GetHistory()
	blocks := make([]string, 0, len(history))
	for i, msg := range history {
		blocks = append(blocks, m.renderMessage(msg, i == len(history)-1, i))
	}
	return blocks
}

// renderMessage dispatches on role.
func (m *Model) renderMessage(msg *model.Message, isLast bool, msgIndex int) string {
	switch msg.Role {
	case model.RoleUser:
		return m.renderUserMessage(msg, msgIndex)
	case model.RoleAssistant:
		return m.renderAssistantMessage(msg, isLast, msgIndex)
	case model.RoleSystem:
		return m.renderSystemMessage(msg, msgIndex)
	default:
		return m.highlightSearchTerms(msg.GetDisplayContent(), msgIndex)
	}
}

// highlightSearchTerms wraps query occurrences in highlight styling.
// Messages in the match set get every occurrence marked; the message the
// search cursor is on gets the brighter treatment. Positions are
// computed over runes so multi-byte text highlights cleanly.
func (m *Model) highlightSearchTerms(text string, msgIndex int) string {
	if !m.searchMode || m.searchQuery == "" {
		return text
	}

	isMatch := false
	isCurrent := false
	for i, idx := range m.searchMatches {
		if idx == msgIndex {
			isMatch = true
			isCurrent = i == m.searchIndex
			break
		}
	}
	if !isMatch {
		return text
	}

	style := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.Amber)
	if isCurrent {
		style = lipgloss.NewStyle().
			Background(styles.Amber).
			Foreground(styles.TextInverse).
			Bold(true)
	}

	textRunes := []rune(text)
	queryRunes := []rune(strings.ToLower(m.searchQuery))
	lowerRunes := []rune(strings.ToLower(text))
	n := len(queryRunes)
	if n == 0 || len(lowerRunes) < n {
		return text
	}

	var b strings.Builder
	last := 0
	for i := 0; i+n <= len(lowerRunes); i++ {
		if string(lowerRunes[i:i+n]) != string(queryRunes) {
			continue
		}
		b.WriteString(string(textRunes[last:i]))
		b.WriteString(style.Render(string(textRunes[i : i+n])))
		last = i + n
		i = last - 1
	}
	b.WriteString(string(textRunes[last:]))
	return b.String()
}

// renderUserMessage renders a right-aligned blue bubble.
func (m *Model) renderUserMessage(msg *model.Message, msgIndex int) string {
	maxWidth := m.bubbleWidth()
	content := m.highlightSearchTerms(msg.GetDisplayContent(), msgIndex)

	bubble := lipgloss.NewStyle().
		Foreground(styles.UserBubbleFg).
		Background(styles.UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.UserBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth)

	rendered := bubble.Render(wrapText(content, wrapWidthFor(maxWidth)))

	marginLeft := m.width - lipgloss.Width(rendered) - 4
	if marginLeft < 0 {
		marginLeft = 0
	}
	return lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(1).
		MarginBottom(1).
		Render(rendered)
}

// renderAssistantMessage renders an assistant reply. In-flight messages
// show raw paced text with a cursor; finalized messages go through
// glamour when markdown rendering is on, with the code-block pipeline as
// the fallback.
func (m *Model) renderAssistantMessage(msg *model.Message, isLast bool, msgIndex int) string {
	maxWidth := m.bubbleWidth()
	content := msg.GetDisplayContent()

	streaming := msg.IsStreaming && isLast && m.IsStreaming()
	if strings.TrimSpace(content) == "" && !streaming {
		return ""
	}

	content = m.highlightSearchTerms(content, msgIndex)

	if streaming {
		cursor := lipgloss.NewStyle().
			Foreground(styles.Purple).
			Blink(true).
			Render("_")
		if content == "" {
			content = cursor
		} else {
			content += cursor
		}
	}

	var body string
	if !streaming && m.markdown != nil && !m.searchMode {
		if rendered, err := m.markdown.Render(content); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	if body == "" {
		body = m.renderContentWithCodeBlocks(content, maxWidth)
	}

	var statsLine string
	if m.showStats && !msg.IsStreaming && msg.TotalDuration > 0 {
		statsLine = "\n" + lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			PaddingLeft(2).
			Render(msg.FormatStats())
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginBottom(1).
		MarginLeft(2).
		Render(body + statsLine)
}

// renderContentWithCodeBlocks splits fenced code out of the content and
// renders each piece: prose in the assistant bubble, code through the
// highlighting code block component.
func (m *Model) renderContentWithCodeBlocks(content string, maxWidth int) string {
	wrapWidth := wrapWidthFor(maxWidth)

	bubble := lipgloss.NewStyle().
		Foreground(styles.AssistantBubbleFg).
		Background(styles.AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.AssistantBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth)

	if !strings.Contains(content, "```") {
		return bubble.Render(wrapText(content, wrapWidth))
	}

	var parts []string
	var prose []string
	var code []string
	var language string
	inCode := false

	flushProse := func() {
		if len(prose) == 0 {
			return
		}
		text := strings.Join(prose, "\n")
		prose = nil
		if strings.TrimSpace(text) != "" {
			parts = append(parts, bubble.Render(wrapText(text, wrapWidth)))
		}
	}
	flushCode := func() {
		cb := components.NewCodeBlock(language, strings.Join(code, "\n"))
		cb.SetMaxWidth(maxWidth)
		parts = append(parts, cb.Render())
		code = nil
		language = ""
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "```") && inCode:
			flushCode()
			inCode = false
		case strings.HasPrefix(line, "```"):
			flushProse()
			language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
			inCode = true
		case inCode:
			code = append(code, line)
		default:
			prose = append(prose, line)
		}
	}
	flushProse()
	if inCode {
		if len(code) > 0 {
			flushCode()
		} else {
			// Opening fence with nothing after it yet, common
			// mid-stream. Show it as text.
			parts = append(parts, bubble.Render("```"+language))
		}
	}

	return strings.Join(parts, "\n")
}

// renderSystemMessage renders a centered amber notice.
func (m *Model) renderSystemMessage(msg *model.Message, msgIndex int) string {
	maxWidth := m.bubbleWidth()
	content := m.highlightSearchTerms(msg.GetDisplayContent(), msgIndex)

	bubble := lipgloss.NewStyle().
		Foreground(styles.SystemBubbleFg).
		Background(styles.SystemBubbleBg).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.SystemBubbleBorder).
		Padding(0, 2).
		MaxWidth(maxWidth).
		Align(lipgloss.Center)

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginBottom(1).
		Render(bubble.Render(wrapText(content, wrapWidthFor(maxWidth))))
}

// bubbleWidth is the widest a message bubble may render.
func (m *Model) bubbleWidth() int {
	maxWidth := m.width - 8
	if maxWidth > m.width-2 {
		maxWidth = m.width - 2
	}
	if maxWidth < 10 {
		maxWidth = 10
	}
	return maxWidth
}

// wrapWidthFor leaves room for the bubble's padding.
func wrapWidthFor(maxWidth int) int {
	w := maxWidth - 4
	if w < 10 {
		w = 10
	}
	return w
}

// =============================================================================
// EMPTY STATE AND HELP
// =============================================================================

// renderEmptyState fills the viewport before the first message.
func (m *Model) renderEmptyState() string {
	width := m.width - 8
	if width < 40 {
		width = 40
	}
	if width > 80 {
		width = 80
	}

	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)

	var sb strings.Builder
	sb.WriteString(center.Foreground(styles.Purple).Bold(true).Render("cadence"))
	sb.WriteString("\n\n")
	sb.WriteString(center.Foreground(styles.TextSecondary).Render("Model: " + m.client.GetModel()))
	sb.WriteString("\n\n")
	sb.WriteString(center.Foreground(styles.Overlay).Render(strings.Repeat("-", 40)))
	sb.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	tips := []struct{ key, desc string }{
		{"Type a message", "start the conversation"},
		{"?", "keyboard shortcuts"},
		{"/help", "slash commands"},
		{"/model", "switch models"},
		{"enter", "skip the typewriter while it is typing"},
	}
	for _, tip := range tips {
		sb.WriteString(fmt.Sprintf("  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-16s", tip.key)),
			descStyle.Render(tip.desc)))
	}

	if !m.typingEnabled {
		sb.WriteString("\n")
		sb.WriteString(descStyle.Render("  typewriter pacing is off (/speed to adjust)"))
		sb.WriteString("\n")
	}

	return lipgloss.NewStyle().
		PaddingTop(2).
		PaddingLeft(4).
		Render(sb.String())
}

// renderHelpOverlay renders the full-screen keyboard help, grouped by
// category and filtered to the active context.
func (m Model) renderHelpOverlay() string {
	ctx := m.GetCurrentContext()
	grouped := GetHelpItemsByCategory(ctx)

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Bold(true)
	catStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Amber)
	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Keyboard Shortcuts"))
	sb.WriteString(descStyle.Render("  (" + ctx.String() + " mode)"))
	sb.WriteString("\n\n")

	for _, cat := range GetCategoryOrder() {
		items := grouped[cat]
		if len(items) == 0 {
			continue
		}
		sb.WriteString(catStyle.Render(cat.String()))
		sb.WriteString("\n")
		for _, item := range items {
			sb.WriteString(fmt.Sprintf("  %s %s\n",
				keyStyle.Render(fmt.Sprintf("%-14s", item.Key)),
				descStyle.Render(item.Desc)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("press ? or esc to close"))

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Purple).
		Padding(1, 3).
		Render(sb.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

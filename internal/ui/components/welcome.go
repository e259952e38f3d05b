// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cadence/internal/ui/styles"
)

// =============================================================================
// WELCOME SCREEN MODEL
// =============================================================================

// Welcome is the welcome screen component.
type Welcome struct {
	// Display info
	version   string
	modelName string
	keyMasked string // Masked API key, empty when not configured
	typingOn  bool   // Typewriter reveal enabled

	// Dimensions
	width  int
	height int

	// Theme
	theme *styles.Theme
}

// NewWelcome creates a new welcome screen.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{
		version:   "dev",
		modelName: "anthropic/claude-3.5-sonnet",
		typingOn:  true,
		theme:     theme,
	}
}

// SetVersion sets the version string.
func (w *Welcome) SetVersion(version string) {
	w.version = version
}

// SetModelName sets the model name.
func (w *Welcome) SetModelName(name string) {
	w.modelName = name
}

// SetKeyStatus sets the masked API key display.
// Pass an empty string when no key is configured.
func (w *Welcome) SetKeyStatus(masked string) {
	w.keyMasked = masked
}

// SetTypingEnabled sets whether the typewriter reveal is on.
func (w *Welcome) SetTypingEnabled(on bool) {
	w.typingOn = on
}

// SetSize updates the dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the welcome screen.
func (w Welcome) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (w Welcome) Update(msg tea.Msg) (Welcome, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
	}
	return w, nil
}

// View renders the welcome screen.
// Responsive: adapts to terminal size, minimum 80x24 supported.
func (w Welcome) View() string {
	width := w.width
	if width == 0 {
		width = 80
	}
	height := w.height
	if height == 0 {
		height = 24
	}

	// Calculate box width - responsive to terminal width
	boxWidth := 62
	if width < 70 {
		boxWidth = width - 8
	}
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	// Adjust padding for narrow terminals
	horizontalPadding := 4
	verticalPadding := 1
	if width < 70 {
		horizontalPadding = 2
	}

	// Box overhead: 2 (border top/bottom) + 2*verticalPadding
	boxOverhead := 2 + 2*verticalPadding

	// Available lines for content inside the box
	availableContentLines := height - boxOverhead

	// Build the content based on available space
	// Logo: 5 lines
	// Version: 1 line
	// System info: 3 lines (Model, Key, Typing)
	// Quick start: 5 lines (title + 4 tips)
	// Press key: 1 line

	var content string
	var contentLines int

	if availableContentLines >= 20 {
		// Full layout with quick start tips
		content = w.renderLogo()
		content += "\n\n" + w.renderVersion()
		content += "\n\n" + w.renderSystemInfo()
		content += "\n\n" + w.renderQuickStart()
		content += "\n\n" + w.renderPressKey()
		contentLines = 5 + 2 + 1 + 2 + 3 + 2 + 5 + 2 + 1 // 19 (blank lines count once)
	} else if availableContentLines >= 14 {
		// Standard layout without quick start
		content = w.renderLogo()
		content += "\n\n" + w.renderVersion()
		content += "\n\n" + w.renderSystemInfo()
		content += "\n\n" + w.renderPressKey()
		contentLines = 5 + 1 + 1 + 1 + 3 + 1 + 1 // 13
	} else if availableContentLines >= 10 {
		// Compact: single newlines between sections
		content = w.renderLogo()
		content += "\n" + w.renderVersion()
		content += "\n" + w.renderSystemInfo()
		content += "\n" + w.renderPressKey()
		contentLines = 5 + 1 + 3 + 1 // 10
	} else {
		// Ultra compact: minimal content
		content = w.renderLogoCompact()
		content += "\n" + w.renderSystemInfoCompact()
		content += "\n" + w.renderPressKey()
		contentLines = 3 + 1 + 1 + 1 // 6
	}

	// If still too tight, remove vertical padding
	if contentLines+boxOverhead > height {
		verticalPadding = 0
		boxOverhead = 2
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Purple).
		Padding(verticalPadding, horizontalPadding).
		Width(boxWidth).
		Align(lipgloss.Center).
		Render(content)

	boxHeight := lipgloss.Height(box)

	// Don't center if box is taller than available space.
	// Align to top so the logo stays visible instead of being clipped.
	if boxHeight >= height {
		return lipgloss.Place(
			width, height,
			lipgloss.Center, lipgloss.Top,
			box,
		)
	}

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

// renderLogo renders the ASCII art logo (5 lines).
// Responsive: uses compact or simple logo for narrow terminals.
func (w Welcome) renderLogo() string {
	logoStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	// Full ASCII art is ~51 chars wide, needs ~55 with box padding
	if w.width >= 60 {
		// Full ASCII art logo - 5 lines using pure ASCII characters
		logo := `  ____    _    ____  _____ _   _  ____ _____
 / ___|  / \  |  _ \| ____| \ | |/ ___| ____|
| |     / _ \ | | | |  _| |  \| | |   |  _|
| |___ / ___ \| |_| | |___| |\  | |___| |___
 \____/_/   \_\____/|_____|_| \_|\____|_____|`
		return logoStyle.Render(logo)
	}

	// For narrow terminals, use compact logo
	return w.renderLogoCompact()
}

// renderLogoCompact renders a compact text-based logo (3 lines).
func (w Welcome) renderLogoCompact() string {
	logoStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	if w.width >= 40 {
		// Compact box logo for narrow terminals - 3 lines
		// Uses standard ASCII box drawing for maximum compatibility
		return logoStyle.Render(`+--------------------+
|      cadence       |
+--------------------+`)
	}

	// Simple text logo for very narrow terminals - 1 line
	return logoStyle.Render("cadence - OpenRouter Chat Client")
}

// renderVersion renders the version subtitle.
func (w Welcome) renderVersion() string {
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render("OpenRouter Chat Client v" + w.version)
}

// renderSystemInfo renders model, key, and typing info (3 lines).
func (w Welcome) renderSystemInfo() string {
	labelStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(8)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	lines := []string{
		labelStyle.Render("Model: ") + valueStyle.Render(w.modelName),
		labelStyle.Render("Key:   ") + w.renderKeyIndicator(),
		labelStyle.Render("Typing:") + " " + w.renderTypingIndicator(),
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderSystemInfoCompact renders a single-line system info (1 line).
func (w Welcome) renderSystemInfoCompact() string {
	valueStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	return valueStyle.Render(w.modelName) + " | " + w.renderTypingIndicator()
}

// renderKeyIndicator renders the API key status with appropriate color.
func (w Welcome) renderKeyIndicator() string {
	if w.keyMasked == "" {
		return lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true).
			Render("not configured")
	}
	return lipgloss.NewStyle().
		Foreground(styles.Emerald).
		Render(w.keyMasked)
}

// renderTypingIndicator renders the typewriter state with appropriate color.
func (w Welcome) renderTypingIndicator() string {
	if w.typingOn {
		return lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true).
			Render("on")
	}
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("off")
}

// renderQuickStart renders the quick start tips.
func (w Welcome) renderQuickStart() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Bold(true)

	bulletStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	tipStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary)

	tips := []string{
		bulletStyle.Render("-") + tipStyle.Render(" Type a message and press Enter"),
		bulletStyle.Render("-") + tipStyle.Render(" Use /help to see all commands"),
		bulletStyle.Render("-") + tipStyle.Render(" Press Enter to skip the typewriter reveal"),
		bulletStyle.Render("-") + tipStyle.Render(" Press Ctrl+C to stop generation"),
	}

	title := titleStyle.Render("Quick Start:")

	return title + "\n" + lipgloss.JoinVertical(lipgloss.Left, tips...)
}

// renderPressKey renders the "press any key" prompt.
func (w Welcome) renderPressKey() string {
	return lipgloss.NewStyle().
		Foreground(styles.Purple).
		Render("Press any key to continue...")
}

// =============================================================================
// KEYBOARD SHORTCUT HELP
// =============================================================================

// KeyboardShortcuts returns a formatted list of keyboard shortcuts.
func KeyboardShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary)

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send / skip reveal"},
		{"Ctrl+C", "Cancel/Quit"},
		{"Ctrl+L", "Clear conversation"},
		{"Tab", "Complete command"},
		{"Up/Down", "Scroll messages"},
		{"PgUp/PgDn", "Page scroll"},
		{"Esc", "Dismiss overlay"},
	}

	lines := make([]string, len(shortcuts))
	for i, s := range shortcuts {
		lines[i] = keyStyle.Render(s.key) + descStyle.Render(s.desc)
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Bold(true)

	return titleStyle.Render("Keyboard Shortcuts") + "\n" +
		lipgloss.JoinVertical(lipgloss.Left, lines...)
}

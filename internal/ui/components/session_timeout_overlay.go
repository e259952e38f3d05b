// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the cadence TUI.
package components

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cadence/internal/ui/styles"
)

// =============================================================================
// SESSION TIMEOUT OVERLAY
// =============================================================================

// SessionTimeoutOverlay warns when the idle timeout is about to fire.
// When the timeout does fire the conversation is autosaved and the session
// pauses; any key press resumes with a fresh idle clock.
type SessionTimeoutOverlay struct {
	// State
	visible       bool
	timeRemaining time.Duration
	expired       bool

	// Configuration
	warningThreshold time.Duration // Default: 2 minutes

	// Dimensions
	width  int
	height int
}

// DefaultWarningThreshold is when to show the warning overlay (2 minutes before timeout).
const DefaultWarningThreshold = 2 * time.Minute

// NewSessionTimeoutOverlay creates a new session timeout overlay.
func NewSessionTimeoutOverlay() SessionTimeoutOverlay {
	return SessionTimeoutOverlay{
		visible:          false,
		warningThreshold: DefaultWarningThreshold,
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetSize sets the overlay dimensions.
func (o *SessionTimeoutOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// SetWarningThreshold sets when to show the warning (default: 2 minutes).
// The countdown bar drains across this window.
func (o *SessionTimeoutOverlay) SetWarningThreshold(threshold time.Duration) {
	if threshold > 0 {
		o.warningThreshold = threshold
	}
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// Show displays the overlay with the given time remaining.
func (o *SessionTimeoutOverlay) Show(remaining time.Duration) {
	o.visible = true
	o.timeRemaining = remaining
	o.expired = remaining <= 0
}

// Hide hides the overlay.
func (o *SessionTimeoutOverlay) Hide() {
	o.visible = false
	o.expired = false
}

// UpdateTime updates the countdown timer.
func (o *SessionTimeoutOverlay) UpdateTime(remaining time.Duration) {
	o.timeRemaining = remaining
	if remaining <= 0 {
		o.expired = true
	}
}

// MarkExpired switches the overlay to the paused state.
func (o *SessionTimeoutOverlay) MarkExpired() {
	o.visible = true
	o.expired = true
	o.timeRemaining = 0
}

// IsVisible returns whether the overlay is currently visible.
func (o *SessionTimeoutOverlay) IsVisible() bool {
	return o.visible
}

// IsExpired returns whether the session has hit its idle timeout.
func (o *SessionTimeoutOverlay) IsExpired() bool {
	return o.expired
}

// TimeRemaining returns the current time remaining.
func (o *SessionTimeoutOverlay) TimeRemaining() time.Duration {
	return o.timeRemaining
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// SessionExtendedMsg signals the user pressed a key to keep working.
// The receiving model should renew the session manager and hide the overlay.
type SessionExtendedMsg struct{}

// Init initializes the overlay (no-op for overlays).
func (o SessionTimeoutOverlay) Init() tea.Cmd {
	return nil
}

// Update handles messages for the overlay.
func (o SessionTimeoutOverlay) Update(msg tea.Msg) (SessionTimeoutOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case tea.KeyMsg:
		// Any key press extends a warned session or resumes a paused one
		if o.visible {
			o.Hide()
			return o, func() tea.Msg {
				return SessionExtendedMsg{}
			}
		}
	}

	return o, nil
}

// View renders the session timeout overlay.
func (o SessionTimeoutOverlay) View() string {
	if !o.visible {
		return ""
	}

	if o.expired {
		return o.viewPaused()
	}
	return o.viewWarning()
}

// =============================================================================
// RENDER METHODS
// =============================================================================

// viewWarning renders the countdown overlay before the idle timeout fires.
func (o SessionTimeoutOverlay) viewWarning() string {
	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}

	// Calculate max content width
	maxWidth := width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 60 {
		maxWidth = 60
	}

	// Format remaining time as M:SS
	timeStr := formatTimeRemaining(o.timeRemaining)

	// Build content
	var parts []string

	// Warning icon and title
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)
	parts = append(parts, titleStyle.Render(styles.StatusIndicators.Warning+" Idle Timeout Warning"))

	// Empty line
	parts = append(parts, "")

	// Main message with countdown
	timeStyle := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true)

	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center)

	parts = append(parts, msgStyle.Render(
		"Session pauses in "+timeStyle.Render(timeStr)))

	// Countdown bar drains as the timeout approaches
	barWidth := 30
	if barWidth > maxWidth-10 {
		barWidth = maxWidth - 10
	}
	percent := 0.0
	if o.warningThreshold > 0 {
		percent = float64(o.timeRemaining) / float64(o.warningThreshold) * 100
	}
	barStyle := lipgloss.NewStyle().
		Foreground(styles.Amber)
	parts = append(parts, barStyle.Render(styles.RenderProgressBar(barWidth, percent)))

	// Empty line
	parts = append(parts, "")

	// Instruction
	hintStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true).
		Align(lipgloss.Center)
	parts = append(parts, hintStyle.Render("Press any key to keep working"))

	// Empty line
	parts = append(parts, "")

	// Autosave notice
	saveStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Align(lipgloss.Center)
	parts = append(parts, saveStyle.Render("Your conversation autosaves before pausing"))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	// Create warning box with amber/yellow border
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Amber).
		Padding(1, 3).
		Width(maxWidth).
		Align(lipgloss.Center)

	box := boxStyle.Render(content)

	// Center the box
	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// viewPaused renders the paused session message after the timeout fires.
func (o SessionTimeoutOverlay) viewPaused() string {
	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}

	// Calculate max content width
	maxWidth := width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 60 {
		maxWidth = 60
	}

	// Build content
	var parts []string

	// Icon and title
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Rose).
		Bold(true)
	parts = append(parts, titleStyle.Render(styles.StatusIndicators.Pending+" Session Paused"))

	// Empty line
	parts = append(parts, "")

	// Main message
	msgStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center)
	parts = append(parts, msgStyle.Render(
		"Paused after inactivity. Your conversation was saved."))

	// Empty line
	parts = append(parts, "")

	// Resume notice
	resumeStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true).
		Align(lipgloss.Center)
	parts = append(parts, resumeStyle.Render("Press any key to resume"))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	// Create paused box with rose border
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.Rose).
		Padding(1, 3).
		Width(maxWidth).
		Align(lipgloss.Center)

	box := boxStyle.Render(content)

	// Center the box
	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimeRemaining formats a duration as M:SS for display.
func formatTimeRemaining(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}

	totalSecs := int(d.Seconds())
	mins := totalSecs / 60
	secs := totalSecs % 60

	return fmt.Sprintf("%d:%02d", mins, secs)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/cadence/internal/model"
	"github.com/jeranaias/cadence/internal/session"
	"github.com/jeranaias/cadence/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT - Beautiful bottom status bar
// =============================================================================

// Status represents the current application status
type Status int

const (
	StatusReady Status = iota
	StatusWaiting
	StatusStreaming
	StatusDraining
	StatusError
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusWaiting:
		return "Waiting..."
	case StatusStreaming:
		return "Streaming..."
	case StatusDraining:
		return "Draining..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success // Checkmark for ready
	case StatusWaiting:
		return styles.StatusIndicators.Pending // Empty circle while waiting for first token
	case StatusStreaming:
		return "~"
	case StatusDraining:
		return styles.StatusIndicators.Active // Reveal still in progress
	case StatusError:
		return styles.StatusIndicators.Error // X mark for error
	default:
		return "?"
	}
}

// StatusBar represents the beautiful bottom status bar
type StatusBar struct {
	ModelName     string // Display name of the current model
	TokenCount    int    // Tokens used in current context
	MaxTokens     int    // Maximum context tokens
	Status        Status // Current status
	Width         int    // Available width
	ShowShortcuts bool   // Show keyboard shortcuts
	theme         *styles.Theme

	// Streaming telemetry
	TokensPerSec float64 // Live token rate while a response streams
	Backlog      int     // Runes received but not yet revealed by the typewriter

	// Session state
	SessionRemaining time.Duration // Time until idle timeout (0 hides the display)
	Dirty            bool          // Conversation has unsaved changes

	// Registry ID kept separately so display formatting does not break lookups
	modelID string
}

// NewStatusBar creates a new StatusBar component
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		ModelName:     "",
		TokenCount:    0,
		MaxTokens:     4096,
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetTokenUsage updates the token count display
func (s *StatusBar) SetTokenUsage(used, max int) {
	s.TokenCount = used
	s.MaxTokens = max
}

// SetStatus updates the current status
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetTokensPerSec updates the live streaming rate display.
// Pass 0 to hide the rate when no response is streaming.
func (s *StatusBar) SetTokensPerSec(rate float64) {
	s.TokensPerSec = rate
}

// SetBacklog updates the count of runes buffered behind the typewriter reveal.
// Shown while draining so users can see how much text is still queued.
func (s *StatusBar) SetBacklog(n int) {
	s.Backlog = n
}

// SetSessionRemaining updates the countdown to the idle timeout.
// Pass 0 to hide the countdown outside the warning window.
func (s *StatusBar) SetSessionRemaining(d time.Duration) {
	s.SessionRemaining = d
}

// SetDirty updates the unsaved-changes indicator
func (s *StatusBar) SetDirty(dirty bool) {
	s.Dirty = dirty
}

// SetModel updates the model name with optional registry lookup.
// If the model is found in the registry, displays the friendly name with tier icon.
func (s *StatusBar) SetModel(modelName string) {
	s.modelID = modelName
	if info, ok := model.GetModelInfo(modelName); ok {
		// Use display name with tier icon
		s.ModelName = fmt.Sprintf("%s %s", info.TierIcon(), info.Name)
		// Update max tokens from model info
		if info.MaxTokens > 0 {
			s.MaxTokens = info.MaxTokens
		}
	} else {
		// Unknown model - display as-is
		s.ModelName = modelName
	}
}

// GetModelInfo returns information about the current model if available.
// Returns nil if the model is not in the registry.
func (s *StatusBar) GetModelInfo() *model.ModelInfo {
	if info, ok := model.GetModelInfo(s.modelID); ok {
		return &info
	}
	return nil
}

// View renders the status bar
func (s *StatusBar) View() string {
	// Choose layout based on width
	if s.Width < 60 {
		return s.viewNarrow()
	}
	if s.Width < 100 {
		return s.viewMedium()
	}
	return s.viewWide()
}

// viewNarrow renders a compact status bar for narrow terminals
// Format: [icon] ContextBar +backlog *
func (s *StatusBar) viewNarrow() string {
	parts := []string{}

	// Status icon
	statusStyle := s.getStatusStyle()
	parts = append(parts, statusStyle.Render(s.Status.Icon()))

	// Context bar (smaller)
	parts = append(parts, s.renderContextBarSmall())

	// Backlog counter while text is still queued behind the reveal
	if s.Status == StatusDraining && s.Backlog > 0 {
		backlogStyle := lipgloss.NewStyle().Foreground(styles.Amber)
		parts = append(parts, backlogStyle.Render("+"+fmtNumber(s.Backlog)))
	}

	// Unsaved marker
	if s.Dirty {
		dirtyStyle := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
		parts = append(parts, dirtyStyle.Render("*"))
	}

	separator := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" ")
	result := strings.Join(parts, separator)

	// Apply background
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Width(s.Width).
		Render(result)
}

// viewMedium renders a medium-width status bar
// Format: model | Ctx: ContextBar | rate | Status
func (s *StatusBar) viewMedium() string {
	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	parts := []string{}

	// Model (truncated if needed)
	if s.ModelName != "" {
		modelName := s.ModelName
		// Use rune-based truncation to handle Unicode correctly
		modelRunes := []rune(modelName)
		if len(modelRunes) > 15 {
			modelName = string(modelRunes[:12]) + "..."
		}
		if s.Dirty {
			modelName += " *"
		}
		modelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		parts = append(parts, modelStyle.Render(modelName))
	}

	// Context bar with label
	contextLabel := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("Ctx:")
	contextBar := s.renderContextBar()
	parts = append(parts, contextLabel+" "+contextBar)

	// Token rate while streaming
	if s.TokensPerSec > 0 {
		rateStyle := lipgloss.NewStyle().Foreground(styles.Cyan)
		parts = append(parts, rateStyle.Render(s.formatRate()))
	}

	// Status
	statusStyle := s.getStatusStyle()
	parts = append(parts, statusStyle.Render(s.Status.String()))

	result := strings.Join(parts, separator)

	// Apply background
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// viewWide renders a full-featured status bar for wide terminals
// Format: ~ Claude 3.5 Sonnet | 1,234 tok | 42.3 tok/s .. Ctx: [###-------] 1,234/4,096 (30.1%) .. Ready /help cmds ^C stop
func (s *StatusBar) viewWide() string {
	// Left section: Model, token count, telemetry
	leftParts := []string{}

	// Model name
	if s.ModelName != "" {
		name := s.ModelName
		if s.Dirty {
			name += " *"
		}
		modelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		leftParts = append(leftParts, modelStyle.Render(name))
	}

	// Token count
	tokenStr := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(fmtNumber(s.TokenCount) + " tok")
	leftParts = append(leftParts, tokenStr)

	// Token rate (if streaming)
	if s.TokensPerSec > 0 {
		rateStr := lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Render(s.formatRate())
		leftParts = append(leftParts, rateStr)
	}

	// Typewriter backlog while draining
	if s.Status == StatusDraining && s.Backlog > 0 {
		backlogStr := lipgloss.NewStyle().
			Foreground(styles.Amber).
			Render("queued: " + fmtNumber(s.Backlog))
		leftParts = append(leftParts, backlogStr)
	}

	// Idle timeout countdown (only inside the warning window)
	if s.SessionRemaining > 0 {
		remainStr := lipgloss.NewStyle().
			Foreground(styles.WarningHighContrast).
			Bold(true).
			Render(styles.StatusIndicators.Warning + " idle in " + session.FormatDuration(s.SessionRemaining))
		leftParts = append(leftParts, remainStr)
	}

	leftSep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	leftSection := strings.Join(leftParts, leftSep)

	// Center section: Context bar
	contextLabel := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("Ctx: ")
	contextBar := s.renderContextBar()
	contextPercent := s.renderContextPercent()
	centerSection := contextLabel + contextBar + " " + contextPercent

	// Right section: Status and shortcuts
	rightParts := []string{}

	// Status
	statusStyle := s.getStatusStyle()
	rightParts = append(rightParts, statusStyle.Render(s.Status.String()))

	// Keyboard shortcuts (if enabled)
	if s.ShowShortcuts {
		rightParts = append(rightParts, s.renderShortcuts())
	}

	rightSection := strings.Join(rightParts, " ")

	// Calculate spacing
	leftWidth := lipgloss.Width(leftSection)
	centerWidth := lipgloss.Width(centerSection)
	rightWidth := lipgloss.Width(rightSection)
	totalContent := leftWidth + centerWidth + rightWidth

	// Add spacing between sections
	spacing := s.Width - totalContent - 4 // Account for padding
	if spacing < 4 {
		spacing = 4
	}

	leftSpace := strings.Repeat(" ", spacing/2)
	rightSpace := strings.Repeat(" ", spacing-spacing/2)

	result := leftSection + leftSpace + centerSection + rightSpace + rightSection

	// Apply styled border for wide view
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(styles.Overlay).
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// ==========================================================================
// HELPER RENDER METHODS
// ==========================================================================

// renderContextBar renders the context usage bar
// Format: [##########] (10 blocks)
func (s *StatusBar) renderContextBar() string {
	percent := 0.0
	if s.MaxTokens > 0 {
		percent = float64(s.TokenCount) / float64(s.MaxTokens) * 100
	}

	filled := int(percent / 10)
	if filled > 10 {
		filled = 10
	}
	empty := 10 - filled

	// Choose color based on percentage
	barColor := styles.Cyan
	if percent >= 90 {
		barColor = styles.Rose
	} else if percent >= 75 {
		barColor = styles.Amber
	} else if percent >= 50 {
		barColor = styles.Emerald
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor)
	emptyStyle := lipgloss.NewStyle().Foreground(styles.Overlay)

	filledPart := filledStyle.Render(strings.Repeat("#", filled))
	emptyPart := emptyStyle.Render(strings.Repeat("-", empty))

	return "[" + filledPart + emptyPart + "]"
}

// renderContextBarSmall renders a smaller context bar for narrow view
// Format: ####-- (6 blocks)
func (s *StatusBar) renderContextBarSmall() string {
	percent := 0.0
	if s.MaxTokens > 0 {
		percent = float64(s.TokenCount) / float64(s.MaxTokens) * 100
	}

	filled := int(percent / 100 * 6)
	if filled > 6 {
		filled = 6
	}
	empty := 6 - filled

	// Choose color based on percentage
	barColor := styles.Cyan
	if percent >= 90 {
		barColor = styles.Rose
	} else if percent >= 75 {
		barColor = styles.Amber
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor)
	emptyStyle := lipgloss.NewStyle().Foreground(styles.Overlay)

	return filledStyle.Render(strings.Repeat("#", filled)) +
		emptyStyle.Render(strings.Repeat("-", empty))
}

// renderContextPercent renders the context percentage with token counts
func (s *StatusBar) renderContextPercent() string {
	percent := 0.0
	if s.MaxTokens > 0 {
		percent = float64(s.TokenCount) / float64(s.MaxTokens) * 100
	}

	// Choose color based on percentage
	color := styles.TextMuted
	if percent >= 90 {
		color = styles.Rose
	} else if percent >= 75 {
		color = styles.Amber
	}

	percentStyle := lipgloss.NewStyle().Foreground(color)

	// Format: 2,048/4,096 (50%)
	return percentStyle.Render(
		fmtNumber(s.TokenCount) + "/" + fmtNumber(s.MaxTokens) +
			" (" + fmtPercent(percent) + ")",
	)
}

// renderShortcuts renders keyboard shortcut hints
func (s *StatusBar) renderShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	shortcuts := []string{
		keyStyle.Render("/help") + descStyle.Render(" cmds"),
		keyStyle.Render("^C") + descStyle.Render(" stop"),
	}

	// Offer the skip hint only while text is queued behind the reveal
	if s.Status == StatusDraining {
		shortcuts = append([]string{
			keyStyle.Render("Enter") + descStyle.Render(" skip"),
		}, shortcuts...)
	}

	return strings.Join(shortcuts, " ")
}

// getStatusStyle returns the style for the current status
// ACCESSIBILITY: Uses high contrast colors with bold for colorblind users
func (s *StatusBar) getStatusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	case StatusWaiting, StatusStreaming:
		return lipgloss.NewStyle().Foreground(styles.InfoHighContrast).Bold(true)
	case StatusDraining:
		return lipgloss.NewStyle().Foreground(styles.WarningHighContrast).Bold(true)
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
}

// formatRate formats the live token rate for display
func (s *StatusBar) formatRate() string {
	return fmt.Sprintf("%.1f tok/s", s.TokensPerSec)
}

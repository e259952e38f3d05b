// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/jeranaias/cadence/internal/model"
)

// =============================================================================
// FORMATTING UTILITIES
// =============================================================================

// formatTimestamp formats a timestamp for display:
//   - Today: just time (e.g., "15:04")
//   - This week: day and time (e.g., "Mon 15:04")
//   - Older: date and time (e.g., "Jan 2 15:04")
func formatTimestamp(t time.Time) string {
	now := time.Now()

	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}

	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}

	return t.Format("Jan 2 15:04")
}

// formatBool formats a boolean as an enabled/disabled string.
func formatBool(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// formatFloat64 formats a float with one decimal place.
// Examples: 45.9 -> "45.9", 123.456 -> "123.5", -5.3 -> "-5.3"
func formatFloat64(f float64) string {
	if f != f { // NaN
		return "NaN"
	}
	if f > 9223372036854775807 {
		return "Inf"
	}
	if f < -9223372036854775808 {
		return "-Inf"
	}

	neg := f < 0
	if neg {
		f = -f
	}

	// Round to one decimal
	f += 0.05
	whole := int64(f)
	frac := int64((f - float64(whole)) * 10)

	result := formatInt(int(whole)) + "." + string(rune('0'+frac))
	if neg {
		result = "-" + result
	}
	return result
}

// formatInt converts an int to its decimal string.
func formatInt(n int) string {
	if n == 0 {
		return "0"
	}

	neg := n < 0
	if neg {
		n = -n
	}

	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// formatNumberWithCommas formats an int with thousands separators.
// Example: 1234567 -> "1,234,567"
func formatNumberWithCommas(n int) string {
	s := formatInt(n)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// truncatePreview shortens a string to maxLen runes with an ellipsis.
func truncatePreview(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// CLIPBOARD
// =============================================================================

// copyToClipboard writes text to the system clipboard.
func copyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// =============================================================================
// TEXT WRAPPING
// =============================================================================

// wrapText wraps text at word boundaries to fit within maxWidth runes
// per line. Words longer than maxWidth are broken mid-word.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteByte('\n')
		}
		result.WriteString(wrapLine(line, maxWidth))
	}
	return result.String()
}

// wrapLine wraps a single line at word boundaries.
func wrapLine(line string, maxWidth int) string {
	runes := []rune(line)
	if len(runes) <= maxWidth {
		return line
	}

	var result strings.Builder
	for len(runes) > maxWidth {
		// Scan backward for the last space within the width
		cut := maxWidth
		for cut > 0 && runes[cut] != ' ' {
			cut--
		}
		if cut == 0 {
			// No space found, hard break
			cut = maxWidth
			result.WriteString(string(runes[:cut]))
			runes = runes[cut:]
		} else {
			result.WriteString(string(runes[:cut]))
			runes = runes[cut+1:] // skip the space
		}
		result.WriteByte('\n')
	}
	result.WriteString(string(runes))
	return result.String()
}

// =============================================================================
// HISTORY FORMATTING
// =============================================================================

// historyPreviewRunes caps each message's contribution to /history output.
const historyPreviewRunes = 100

// formatHistory renders the last count messages as a compact transcript
// for the /history command.
func formatHistory(messages []*model.Message, count int) string {
	if len(messages) == 0 {
		return "No messages yet."
	}

	start := 0
	if count > 0 && len(messages) > count {
		start = len(messages) - count
	}
	recent := messages[start:]

	var b strings.Builder
	b.Grow(len(recent) * 128)

	for i, msg := range recent {
		if i > 0 {
			b.WriteByte('\n')
		}

		switch msg.Role {
		case model.RoleUser:
			b.WriteString("You: ")
		case model.RoleAssistant:
			b.WriteString("Assistant: ")
		case model.RoleSystem:
			b.WriteString("System: ")
		default:
			b.WriteString(msg.Role.String() + ": ")
		}

		content := strings.TrimSpace(msg.Content)
		content = strings.ReplaceAll(content, "\n", " ")
		b.WriteString(truncatePreview(content, historyPreviewRunes))

		if !msg.Timestamp.IsZero() {
			b.WriteString("  [" + formatTimestamp(msg.Timestamp) + "]")
		}
	}

	return b.String()
}

// minInt returns the smaller of two ints.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// maxInt returns the larger of two ints.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

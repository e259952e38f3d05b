// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/cadence/internal/ui/styles"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusReady, "Ready"},
		{StatusWaiting, "Waiting..."},
		{StatusStreaming, "Streaming..."},
		{StatusDraining, "Draining..."},
		{StatusError, "Error"},
		{Status(99), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.expected {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.expected)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	statuses := []Status{StatusReady, StatusWaiting, StatusStreaming, StatusDraining, StatusError}
	for _, s := range statuses {
		if s.Icon() == "" {
			t.Errorf("Status(%d).Icon() should not be empty", s)
		}
	}

	if StatusStreaming.Icon() != "~" {
		t.Errorf("Streaming icon = %q, want ~", StatusStreaming.Icon())
	}
	if StatusDraining.Icon() != styles.StatusIndicators.Active {
		t.Errorf("Draining icon = %q, want %q", StatusDraining.Icon(), styles.StatusIndicators.Active)
	}
}

func TestNewStatusBar(t *testing.T) {
	theme := styles.NewTheme()
	bar := NewStatusBar(theme)

	if bar.Status != StatusReady {
		t.Errorf("Default status = %v, want StatusReady", bar.Status)
	}
	if bar.MaxTokens != 4096 {
		t.Errorf("Default max tokens = %d, want 4096", bar.MaxTokens)
	}
	if bar.Width != 80 {
		t.Errorf("Default width = %d, want 80", bar.Width)
	}
	if !bar.ShowShortcuts {
		t.Error("Shortcuts should be shown by default")
	}
}

func TestStatusBarSetModel(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())

	// Known alias resolves to friendly name with tier icon
	bar.SetModel("sonnet")
	if !strings.Contains(bar.ModelName, "Claude 3.5 Sonnet") {
		t.Errorf("ModelName = %q, want friendly name", bar.ModelName)
	}
	if !strings.HasPrefix(bar.ModelName, "~") {
		t.Errorf("ModelName = %q, want balanced tier icon prefix", bar.ModelName)
	}
	if bar.MaxTokens != 200000 {
		t.Errorf("MaxTokens = %d, want 200000 from registry", bar.MaxTokens)
	}

	// Registry lookup keeps working after the display name is formatted
	info := bar.GetModelInfo()
	if info == nil {
		t.Fatal("GetModelInfo() = nil for known model")
	}
	if info.ID != "anthropic/claude-3.5-sonnet" {
		t.Errorf("GetModelInfo().ID = %q, want anthropic/claude-3.5-sonnet", info.ID)
	}

	// Unknown models display verbatim
	bar.SetModel("custom/experimental-model")
	if bar.ModelName != "custom/experimental-model" {
		t.Errorf("ModelName = %q, want verbatim unknown ID", bar.ModelName)
	}
	if bar.GetModelInfo() != nil {
		t.Error("GetModelInfo() should be nil for unknown model")
	}
}

func TestStatusBarViewNarrow(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(40)

	view := bar.View()
	if view == "" {
		t.Fatal("Narrow view should not be empty")
	}

	// Backlog counter appears while draining
	bar.SetStatus(StatusDraining)
	bar.SetBacklog(42)
	view = bar.View()
	if !strings.Contains(view, "+42") {
		t.Error("Narrow draining view should show +42 backlog")
	}

	// Dirty marker
	bar.SetStatus(StatusReady)
	bar.SetBacklog(0)
	bar.SetDirty(true)
	view = bar.View()
	if !strings.Contains(view, "*") {
		t.Error("Narrow view should show dirty marker")
	}
}

func TestStatusBarViewMedium(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(80)
	bar.SetModel("custom/very-long-experimental-model-name")

	view := bar.View()
	if !strings.Contains(view, "Ctx:") {
		t.Error("Medium view should show context label")
	}
	if !strings.Contains(view, "Ready") {
		t.Error("Medium view should show status text")
	}
	// Long model names get truncated
	if !strings.Contains(view, "...") {
		t.Error("Medium view should truncate long model names")
	}
}

func TestStatusBarViewWide(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(120)
	bar.SetModel("sonnet")
	bar.SetTokenUsage(2048, 4096)

	view := bar.View()
	if !strings.Contains(view, "Claude 3.5 Sonnet") {
		t.Error("Wide view should show model name")
	}
	if !strings.Contains(view, "2,048/4,096") {
		t.Error("Wide view should show token counts with separators")
	}
	if !strings.Contains(view, "(50.0%)") {
		t.Error("Wide view should show context percentage")
	}
	if !strings.Contains(view, "Ready") {
		t.Error("Wide view should show status")
	}
	if !strings.Contains(view, "/help") {
		t.Error("Wide view should show shortcut hints")
	}
}

func TestStatusBarStreamingTelemetry(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(120)
	bar.SetStatus(StatusStreaming)
	bar.SetTokensPerSec(12.5)

	view := bar.View()
	if !strings.Contains(view, "12.5 tok/s") {
		t.Error("Wide view should show live token rate")
	}
	if !strings.Contains(view, "Streaming...") {
		t.Error("Wide view should show streaming status")
	}

	// Rate hidden when zero
	bar.SetTokensPerSec(0)
	view = bar.View()
	if strings.Contains(view, "tok/s") {
		t.Error("Token rate should be hidden when zero")
	}
}

func TestStatusBarDraining(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(120)
	bar.SetStatus(StatusDraining)
	bar.SetBacklog(1234)

	view := bar.View()
	if !strings.Contains(view, "queued: 1,234") {
		t.Error("Draining view should show queued backlog")
	}
	if !strings.Contains(view, "Draining...") {
		t.Error("Draining view should show status")
	}
	if !strings.Contains(view, "skip") {
		t.Error("Draining view should hint Enter to skip the reveal")
	}

	// Skip hint disappears once the backlog is gone
	bar.SetStatus(StatusReady)
	bar.SetBacklog(0)
	view = bar.View()
	if strings.Contains(view, "queued:") {
		t.Error("Backlog should be hidden outside draining")
	}
	if strings.Contains(view, "skip") {
		t.Error("Skip hint should be hidden outside draining")
	}
}

func TestStatusBarSessionCountdown(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(120)
	bar.SetSessionRemaining(4*time.Minute + 59*time.Second)

	view := bar.View()
	if !strings.Contains(view, "idle in 4m 59s") {
		t.Error("Wide view should show idle countdown inside warning window")
	}

	bar.SetSessionRemaining(0)
	view = bar.View()
	if strings.Contains(view, "idle in") {
		t.Error("Countdown should be hidden outside warning window")
	}
}

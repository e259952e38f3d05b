// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared output and client plumbing for cadence CLI
// commands.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/cadence/internal/api"
	"github.com/jeranaias/cadence/internal/config"
)

// NewClientFromConfig builds an API client from the active config,
// applying the CLI model override when set.
func NewClientFromConfig(cfg *config.Config, args Args) *api.Client {
	client := api.New(cfg.API.Key).
		WithBaseURL(cfg.API.BaseURL).
		WithModel(cfg.API.Model).
		WithTimeout(cfg.API.Timeout()).
		WithMaxTokens(cfg.API.MaxTokens)

	if args.Model != "" {
		client.SetModel(args.Model)
	}

	return client
}

// RequireConfigured returns ErrNotConfigured with a setup hint when the
// client has no API key.
func RequireConfigured(client *api.Client) error {
	if client.IsConfigured() {
		return nil
	}
	return fmt.Errorf("%w\nSet one with: cadence config set api.key sk-or-... (or export CADENCE_API_KEY)", api.ErrNotConfigured)
}

// buildMessages prepends the configured system prompt, if any.
func buildMessages(cfg *config.Config, history []api.Message, input string) []api.Message {
	var msgs []api.Message
	if cfg.API.SystemPrompt != "" {
		msgs = append(msgs, api.NewSystemMessage(cfg.API.SystemPrompt))
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, api.NewUserMessage(input))
	return msgs
}

// =============================================================================
// OUTPUT
// =============================================================================

// RenderMarkdown renders markdown for terminal display. Falls back to
// the raw text when rendering fails or colors are disabled.
func RenderMarkdown(content string) string {
	if !ColorsEnabled() {
		return content
	}

	wrap := GetTerminalWidth()
	if wrap > 100 {
		wrap = 100
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return content
	}

	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// formatNumber formats an integer with thousands separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, ",")
	if n < 0 {
		out = "-" + out
	}
	return out
}

// ReadFileForPrompt reads a file and formats it for inclusion in a
// prompt, fenced so the model sees it as a distinct block.
func ReadFileForPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", WrapError(err, "cannot read file")
	}

	const maxFileSize = 256 * 1024
	if len(data) > maxFileSize {
		return "", NewValidationError("file", path, fmt.Sprintf("file too large (%d bytes, max %d)", len(data), maxFileSize))
	}

	return fmt.Sprintf("\n\n```\n%s\n```", strings.TrimRight(string(data), "\n")), nil
}

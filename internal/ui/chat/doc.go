// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view component for the cadence TUI.

The chat package implements an interactive conversation view on Bubble
Tea, with streamed responses paced through the typewriter buffer for a
natural typing rhythm.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model:
  - Conversation history and message management
  - Input handling and slash-command completion
  - Viewport scrollback with in-conversation search
  - Streaming lifecycle state (ready, waiting, streaming, draining)

## Streaming pipeline (streaming.go)

Tokens arrive from the network goroutine as StreamTokenMsg values and
flow through two stages:

  - the typewriter.Buffer paces raw deltas into word-sized chunks
  - the StreamingBuffer batches those chunks between repaint ticks so
    the viewport re-renders at a capped frame rate

When the network side finishes before the typewriter has drained, the
view enters the Draining state and the tick loop finalizes the message
once the backlog empties. Enter skips the animation.

## View Rendering (view.go)

  - Header with model name and state indicator
  - Message bubbles with role-specific styling
  - Markdown rendering of finalized replies via glamour, with a fenced
    code block fallback pipeline
  - Search term highlighting with Unicode support
  - Status bar with token usage, pacing backlog, and session time

## Commands (commands.go)

Slash command registry: /help, /clear, /new, /save, /load, /sessions,
/search, /export, /history, /model, /models, /speed, /stats, /copy,
/quit.

# Usage

	client := api.New(apiKey)
	m := chat.New(cfg, client, store)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat

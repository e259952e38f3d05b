// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the cadence TUI.

This package contains a collection of styled, interactive components built on
top of the Bubble Tea and Lip Gloss libraries. Each component is designed to
be visually polished and consistent with the cadence design language.

# Components

## Display

StatusBar (statusbar.go) - Bottom status bar with model name, stream state,
typewriter backlog, token usage, and session countdown.
CodeBlock (codeblock.go) - Syntax-highlighted code blocks using Chroma.
Welcome (welcome.go) - Startup screen with logo, model, key status, and
quick-start hints.

## Progress and Feedback

Spinner (spinner.go) - Animated spinner shown while waiting for the first
token.
ErrorDisplay (error.go) - Smart error messages with recovery suggestions.
Error toasts (error_toast.go) - Transient notifications stacked in the top
right corner.
Error patterns (error_patterns.go) - Classification of API and network
failures into user-facing guidance.

## Session

SessionTimeoutOverlay (session_timeout_overlay.go) - Idle timeout warning
with extend/save choices.

## Matching

Fuzzy matcher (fuzzy.go) - Scored fuzzy filtering used for command and
model-name completion.

# Design Principles

1. Self-contained: components own their state and expose Set* methods
2. Theme-aware: colors come from the styles package, never hard-coded
3. Size-adaptive: components degrade gracefully at narrow widths
4. Message-driven: interactive components follow the Bubble Tea
   Update/View contract

Components receive their dimensions from the parent model on
tea.WindowSizeMsg; none of them query the terminal directly.
*/
package components

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the cadence command line interface.

The package parses arguments, dispatches subcommands, and implements the
non-TUI command handlers:

  - ask: one-shot question, optionally streamed through the typewriter
  - chat: plain-terminal REPL with line editing and input history
  - models: list the models the endpoint offers
  - config: get/set/list configuration values
  - history: full-text search over saved conversations
  - version, help

Output adapts to the environment: colors and the typewriter effect are
disabled when stdout is not a terminal or NO_COLOR is set, so piped
output stays clean.
*/
package cli

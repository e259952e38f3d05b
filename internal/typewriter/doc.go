// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package typewriter paces streamed text into a natural typing rhythm.
//
// LLM endpoints deliver tokens in network bursts: a second of silence,
// then forty tokens at once. Rendering arrivals directly looks mechanical
// and jittery. The Buffer in this package decouples the two rhythms: the
// network side pushes text as fast as it arrives, a timer-driven loop
// emits it word by word with punctuation-aware pauses, and a backlog
// governor compresses the pauses whenever the display falls too far
// behind the stream.
//
// Emission rules per tick:
//
//   - chunks end at the first space or newline (boundary included)
//   - sentence punctuation stretches the following pause, clause
//     punctuation stretches it less, very short words shrink it
//   - a backlog past 100/200/500 unemitted bytes scales the pause down
//     progressively so the display catches up
//   - a tail with no boundary waits one settle period; if nothing new
//     arrived it is emitted whole, otherwise scanning resumes
//
// Concatenated emissions are always, at every instant, a prefix of the
// pushed text: nothing is reordered, dropped, or emitted twice.
package typewriter

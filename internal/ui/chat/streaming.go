// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the streaming render pipeline. Tokens from the
// network goroutine are pushed into the typewriter pacer, whose emissions
// land in a StreamingBuffer. A 30fps tick drains that buffer into the
// conversation so the terminal repaints at a fixed rate no matter how
// fast the pacer or the network produce text.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/cadence/internal/api"
	"github.com/jeranaias/cadence/internal/model"
	"github.com/jeranaias/cadence/internal/ui/components"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer collects text between repaint ticks. Writers are the
// typewriter sink (which runs on the pacer's timer goroutine) or, when
// the typewriter is disabled, the Update loop itself. The reader is the
// 30fps stream tick.
//
// Content is released either when the write count reaches the batch
// threshold or when enough time has passed since the last flush. This
// keeps repaints at a sane rate (>1000fps raw token rates cause flicker
// and high CPU) while staying responsive on slow streams.
//
// Thread-safety: all operations are protected by a mutex since writes
// happen off the main Bubble Tea loop.
type StreamingBuffer struct {
	mu        sync.Mutex
	buffer    strings.Builder
	writes    int
	lastFlush time.Time

	// Configuration
	batchSize  int           // Writes per batch (default: 15)
	maxFPS     int           // Max frames per second (default: 30)
	minFlushMs time.Duration // Min time between flushes (1000/maxFPS)
}

// NewStreamingBuffer creates a streaming buffer with default settings:
// batch size 15 and a 30fps flush cap (~33ms between flushes).
func NewStreamingBuffer() *StreamingBuffer {
	const (
		defaultBatchSize = 15
		defaultMaxFPS    = 30
	)

	return &StreamingBuffer{
		batchSize:  defaultBatchSize,
		maxFPS:     defaultMaxFPS,
		minFlushMs: time.Duration(1000/defaultMaxFPS) * time.Millisecond,
		lastFlush:  time.Now(),
	}
}

// NewStreamingBufferWithConfig creates a streaming buffer with custom
// settings. Out-of-range values fall back to the defaults.
func NewStreamingBufferWithConfig(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = 15
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}

	return &StreamingBuffer{
		batchSize:  batchSize,
		maxFPS:     maxFPS,
		minFlushMs: time.Duration(1000/maxFPS) * time.Millisecond,
		lastFlush:  time.Now(),
	}
}

// Write appends text to the buffer. Safe to call from the typewriter's
// timer goroutine; the text is held until the next qualifying flush.
func (sb *StreamingBuffer) Write(text string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.WriteString(text)
	sb.writes++
}

// Flush returns accumulated content if a flush threshold has been
// reached. Returns (content, true) when content was released, ("", false)
// when the buffer is empty or neither the size nor the time threshold
// has been hit yet.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}

	if !sb.shouldFlushLocked() {
		return "", false
	}

	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.writes = 0
	sb.lastFlush = time.Now()

	return content, true
}

// ShouldFlush reports whether a flush threshold has been reached.
func (sb *StreamingBuffer) ShouldFlush() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.shouldFlushLocked()
}

// shouldFlushLocked checks flush conditions. Caller must hold the lock.
func (sb *StreamingBuffer) shouldFlushLocked() bool {
	if sb.buffer.Len() == 0 {
		return false
	}

	if sb.writes >= sb.batchSize {
		return true
	}

	// Time-based flush keeps slow streams visibly moving
	return time.Since(sb.lastFlush) >= sb.minFlushMs
}

// ForceFlush releases all buffered content regardless of thresholds.
// Used when a stream finishes or is cancelled so no text is left behind.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}

	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.writes = 0
	sb.lastFlush = time.Now()

	return content, true
}

// Reset clears the buffer without flushing. Used when cancelling a stream
// or starting a new message.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.Reset()
	sb.writes = 0
	sb.lastFlush = time.Now()
}

// Pending returns the number of writes waiting to be flushed.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.writes
}

// GetConfig returns the current buffer configuration.
func (sb *StreamingBuffer) GetConfig() (batchSize, maxFPS int, minFlushMs time.Duration) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.batchSize, sb.maxFPS, sb.minFlushMs
}

// SetBatchSize updates the batch size threshold.
func (sb *StreamingBuffer) SetBatchSize(size int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if size > 0 {
		sb.batchSize = size
	}
}

// SetMaxFPS updates the maximum flush rate.
func (sb *StreamingBuffer) SetMaxFPS(fps int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if fps > 0 && fps <= 60 {
		sb.maxFPS = fps
		sb.minFlushMs = time.Duration(1000/fps) * time.Millisecond
	}
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd creates a tea.Cmd that sends StreamTickMsg at 30fps.
// Armed when a request starts; re-armed by handleStreamTick until the
// stream finalizes.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner executes streaming completions against the endpoint and
// delivers results to a Bubble Tea program. Run is meant to be called in
// its own goroutine; every result crosses back into the Update loop via
// Program.Send.
type StreamRunner struct {
	program *tea.Program
	client  *api.Client
}

// NewStreamRunner creates a stream runner bound to a program and client.
func NewStreamRunner(program *tea.Program, client *api.Client) *StreamRunner {
	return &StreamRunner{
		program: program,
		client:  client,
	}
}

// Run executes one streaming chat completion and sends stream lifecycle
// messages to the program. Cancelling ctx stops the request silently;
// the Update loop has already cleaned up by the time the transport
// notices.
func (r *StreamRunner) Run(ctx context.Context, messages []api.Message, messageID string) {
	if r.program == nil {
		return
	}
	if r.client == nil {
		r.program.Send(StreamErrorMsg{
			MessageID: messageID,
			Error:     api.ErrNotConfigured,
		})
		return
	}

	r.program.Send(StreamStartMsg{
		MessageID: messageID,
		StartTime: time.Now(),
	})

	stats := model.NewStatistics()
	tokens := 0

	apiStats, err := r.client.ChatStreamWithStats(ctx, messages, func(chunk string) {
		tokens++
		if tokens == 1 {
			stats.RecordFirstToken()
		}
		r.program.Send(StreamTokenMsg{
			MessageID: messageID,
			Token:     chunk,
			IsFirst:   tokens == 1,
		})
	}, nil)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.program.Send(StreamErrorMsg{
			MessageID: messageID,
			Error:     err,
		})
		return
	}

	stats.Finalize(apiStats.ChunkCount)
	r.program.Send(StreamCompleteMsg{
		MessageID: messageID,
		Stats:     stats,
	})
}

// =============================================================================
// STREAM MESSAGE HANDLERS
// =============================================================================

// handleStreamStart marks the request goroutine as running. The state
// stays Waiting until the first token lands.
func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingID {
		return m, nil
	}
	m.streamStart = msg.StartTime
	return m, nil
}

// handleStreamToken feeds one content delta into the render pipeline.
// With the typewriter enabled the token joins the pacer's backlog; with
// it disabled the token goes straight to the frame buffer.
func (m Model) handleStreamToken(msg StreamTokenMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingID {
		return m, nil // stale stream
	}

	if msg.IsFirst {
		m.firstTokenAt = time.Now()
		m.spinner.Stop()
		m.setState(StateStreaming)
	}
	m.tokenCount++

	if m.typingEnabled {
		m.typewriter.Push(msg.Token)
		m.typewriter.Start()
	} else {
		m.frame.Write(msg.Token)
	}

	return m, nil
}

// handleStreamTick drains the frame buffer into the conversation and
// repaints. When the network side is done and the pacer's backlog is
// empty, the message finalizes here; otherwise the tick re-arms.
func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != StateWaiting && m.state != StateStreaming && m.state != StateDraining {
		return m, nil // tick outlived the stream
	}

	if chunk, ok := m.frame.Flush(); ok {
		m.conversation.AppendToLast(chunk)
		m.refreshViewport()
		m.viewport.GotoBottom()
	}

	m.statusBar.SetBacklog(m.typewriter.Backlog())
	if !m.firstTokenAt.IsZero() {
		if elapsed := time.Since(m.firstTokenAt).Seconds(); elapsed > 0 {
			m.statusBar.SetTokensPerSec(float64(m.tokenCount) / elapsed)
		}
	}

	if m.streamDone && m.typewriter.Backlog() == 0 {
		if rest, ok := m.frame.ForceFlush(); ok {
			m.conversation.AppendToLast(rest)
		}
		return m.finalizeStream()
	}

	return m, streamTickCmd()
}

// handleStreamComplete records that the network side finished. The
// assistant message is not finalized yet: the typewriter may still be
// pacing out its backlog, so the state moves to Draining and the tick
// loop finishes the job.
func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingID {
		return m, nil
	}

	m.streamDone = true
	m.pendingStats = msg.Stats
	m.spinner.Stop()
	m.setState(StateDraining)
	return m, nil
}

// finalizeStream completes the assistant message once every buffered
// byte has reached the conversation.
func (m Model) finalizeStream() (tea.Model, tea.Cmd) {
	m.typewriter.Stop()
	m.conversation.FinalizeLast(m.pendingStats)
	m.clearCancelFunc()

	m.streamDone = false
	m.pendingStats = nil
	m.streamingID = ""
	m.setState(StateReady)

	m.statusBar.SetBacklog(0)
	m.statusBar.SetTokensPerSec(0)
	m.statusBar.SetTokenUsage(m.conversation.EstimateTokens(), m.conversation.MaxTokens)
	m.statusBar.SetDirty(true)
	m.sessionMgr.MarkDirty()

	m.input.Focus()
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, textinput.Blink
}

// handleStreamError surfaces a mid-stream failure. Text the pacer
// already held is kept and the partial message is marked interrupted.
func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != "" && msg.MessageID != m.streamingID {
		return m, nil
	}

	m.typewriter.Flush()
	if rest, ok := m.frame.ForceFlush(); ok {
		m.conversation.AppendToLast(rest)
	}
	m.typewriter.Stop()
	m.spinner.Stop()

	if last := m.conversation.GetLastAssistantMessage(); last != nil {
		if last.IsEmpty() {
			m.conversation.RemoveMessage(last.ID)
		} else {
			m.conversation.AppendToLast(" [interrupted]")
			m.conversation.FinalizeLast(nil)
		}
	}

	m.streamDone = false
	m.pendingStats = nil
	m.streamingID = ""
	m.clearCancelFunc()
	m.setState(StateError)

	m.errors = streamErrorDisplay(msg.Error, m.client.GetModel())
	m.errors.SetSize(m.width, m.height)
	m.errors.Show()

	m.input.Focus()
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, nil
}

// skipTypewriter dumps the pacer's remaining backlog into the frame
// buffer so the next tick renders everything at once. Bound to Enter
// while draining.
func (m Model) skipTypewriter() (tea.Model, tea.Cmd) {
	m.typewriter.Flush()
	return m, nil
}

// cancelStreaming aborts an in-flight request. Whatever was already
// paced out stays in the conversation, marked as cancelled.
func (m Model) cancelStreaming() (tea.Model, tea.Cmd) {
	m.cancel()
	m.typewriter.Flush()
	if rest, ok := m.frame.ForceFlush(); ok {
		m.conversation.AppendToLast(rest)
	}
	m.typewriter.Stop()
	m.spinner.Stop()

	if last := m.conversation.GetLastAssistantMessage(); last != nil {
		if last.IsEmpty() {
			m.conversation.AppendToLast("[cancelled]")
		} else {
			m.conversation.AppendToLast(" [incomplete - cancelled]")
		}
		m.conversation.FinalizeLast(nil)
	}

	m.streamDone = false
	m.pendingStats = nil
	m.streamingID = ""
	m.setState(StateReady)

	m.statusBar.SetBacklog(0)
	m.statusBar.SetTokensPerSec(0)

	m.input.Focus()
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, nil
}

// streamErrorDisplay builds the error overlay for a stream failure,
// mapping the client's sentinel errors to their dedicated displays.
func streamErrorDisplay(err error, modelID string) components.ErrorDisplay {
	switch {
	case errors.Is(err, api.ErrNotConfigured):
		return components.NewErrorWithSuggestions(
			"API Key Required",
			err.Error(),
			[]string{
				"Set your key: cadence config set api.key sk-or-...",
				"Or export OPENROUTER_API_KEY",
				"Get a key at openrouter.ai/keys",
			},
		)
	case errors.Is(err, api.ErrAuthFailed):
		return components.AuthenticationError()
	case errors.Is(err, api.ErrRateLimited):
		return components.RateLimitError()
	case errors.Is(err, api.ErrModelNotFound):
		return components.ModelNotFoundError(modelID)
	case errors.Is(err, api.ErrInsufficientCredits):
		return components.NewErrorWithSuggestions(
			"Out of Credits",
			err.Error(),
			[]string{
				"Add credits at openrouter.ai/credits",
				"Switch to a free model: /model free",
			},
		)
	case errors.Is(err, context.DeadlineExceeded):
		return components.TimeoutError()
	default:
		return components.SmartErrorFromError("Stream Failed", err)
	}
}

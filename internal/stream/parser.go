// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
)

// =============================================================================
// STREAM CONSTANTS
// =============================================================================

// dataPrefix marks SSE payload lines; everything else (comments, event and
// id fields, blank keep-alives) is ignored.
const dataPrefix = "data: "

// doneMarker is the sentinel payload OpenAI-compatible endpoints send after
// the final chunk.
const doneMarker = "[DONE]"

// readBufSize is the read granularity of the pull loop.
const readBufSize = 4096

// =============================================================================
// CHUNK EVENT
// =============================================================================

// ChunkEvent mirrors a single streaming chat-completion chunk.
type ChunkEvent struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Content returns the content delta from the first choice.
func (c *ChunkEvent) Content() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// FinishReason returns the finish reason from the first choice, if any.
func (c *ChunkEvent) FinishReason() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].FinishReason
	}
	return ""
}

// Done reports whether this chunk carries a finish reason. Any non-empty
// value is terminal, whatever the reason.
func (c *ChunkEvent) Done() bool {
	return c.FinishReason() != ""
}

// =============================================================================
// PARSER
// =============================================================================

// Parser consumes an SSE chat-completion stream and drives two callbacks:
// onChunk for every non-empty content delta, onComplete exactly once when
// the stream ends. A parser handles one stream; create a new one per
// request.
type Parser struct {
	onChunk    func(content string)
	onComplete func()

	dec        LineDecoder
	completed  bool
	parseFails int
}

// New creates a parser. Either callback may be nil.
func New(onChunk func(string), onComplete func()) *Parser {
	if onChunk == nil {
		onChunk = func(string) {}
	}
	if onComplete == nil {
		onComplete = func() {}
	}
	return &Parser{onChunk: onChunk, onComplete: onComplete}
}

// Run pulls from r until a terminal marker, EOF, a read error, or context
// cancellation. Completion fires on terminal markers and on EOF, never on
// error paths. After a terminal marker the reader is not consumed further.
func (p *Parser) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, readBufSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			lines, decErr := p.dec.Feed(buf[:n])
			for _, line := range lines {
				if p.processLine(line) {
					p.complete()
					return nil
				}
			}
			if decErr != nil {
				return decErr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// A peer that closes without [DONE] still ends the
				// message; process any unterminated trailing line first.
				if line, ok := p.dec.Rest(); ok {
					p.processLine(line)
				}
				p.complete()
				return nil
			}
			return err
		}
	}
}

// processLine handles one decoded line and reports whether the stream is
// finished. Content, if present, is emitted before the terminal check so a
// final chunk that carries both text and a finish reason loses nothing.
func (p *Parser) processLine(line string) bool {
	if !strings.HasPrefix(line, dataPrefix) {
		return false
	}
	payload := strings.TrimSpace(line[len(dataPrefix):])

	if payload == doneMarker {
		return true
	}

	var chunk ChunkEvent
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// One log line per stream; a flood of bad frames should not
		// drown the log.
		if p.parseFails == 0 {
			log.Printf("[stream] skipping malformed chunk: %v", err)
		}
		p.parseFails++
		return false
	}

	if content := chunk.Content(); content != "" {
		p.onChunk(content)
	}
	return chunk.Done()
}

// complete fires onComplete at most once.
func (p *Parser) complete() {
	if p.completed {
		return
	}
	p.completed = true
	p.onComplete()
}

// ParseFailures returns how many malformed payload lines were skipped.
func (p *Parser) ParseFailures() int {
	return p.parseFails
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jeranaias/cadence/internal/stream"
)

// StreamStats holds statistics collected during one streaming request.
type StreamStats struct {
	TTFT       time.Duration // Request start to first content chunk
	Total      time.Duration // Request start to stream end
	ChunkCount int           // Content-carrying chunks received
}

// StreamError wraps a mid-stream failure. Chunks delivered before the
// failure have already reached the caller's callback; Received says how
// many bytes those were.
type StreamError struct {
	Received int
	Err      error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Received > 0 {
		return fmt.Sprintf("stream failed after %d bytes: %v", e.Received, e.Err)
	}
	return fmt.Sprintf("stream failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// ChatStream performs a streaming chat completion request.
//
// onChunk is called for each content delta as it arrives; onComplete is
// called exactly once when the stream ends normally, whether by a
// [DONE] marker, a finish reason, or the server closing the connection.
// Neither fires after an error return. Either callback may be nil.
//
// The request runs until the stream ends or ctx is canceled; the
// streaming HTTP client carries no timeout of its own.
func (c *Client) ChatStream(ctx context.Context, messages []Message, onChunk func(string), onComplete func()) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if onChunk == nil {
		onChunk = func(string) {}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqBody := ChatRequest{
		Model:     c.requestModel(),
		Messages:  messages,
		Stream:    true,
		MaxTokens: c.maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	c.logRequest(req)
	start := time.Now()
	resp, err := c.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := readResponse(resp)
		return c.handleErrorResponse(resp.StatusCode, body)
	}

	received := 0
	counted := func(content string) {
		received += len(content)
		onChunk(content)
	}

	if err := stream.New(counted, onComplete).Run(ctx, resp.Body); err != nil {
		return &StreamError{Received: received, Err: err}
	}
	return nil
}

// ChatStreamWithStats streams like ChatStream and reports timing stats
// for the request. Stats are valid even when an error is returned; they
// cover whatever part of the stream arrived.
func (c *Client) ChatStreamWithStats(ctx context.Context, messages []Message, onChunk func(string), onComplete func()) (*StreamStats, error) {
	if onChunk == nil {
		onChunk = func(string) {}
	}

	stats := &StreamStats{}
	start := time.Now()
	var firstAt time.Time

	timed := func(content string) {
		stats.ChunkCount++
		if firstAt.IsZero() {
			firstAt = time.Now()
			stats.TTFT = firstAt.Sub(start)
		}
		onChunk(content)
	}

	err := c.ChatStream(ctx, messages, timed, onComplete)
	stats.Total = time.Since(start)
	return stats, err
}

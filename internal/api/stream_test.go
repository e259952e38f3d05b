// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// sseServer returns a test server that writes the given SSE lines, each
// followed by a blank line and a flush, then closes the connection.
func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fl, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("Test server does not support flushing")
		}
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
			fl.Flush()
		}
	}))
}

// contentChunk builds one SSE data line carrying a content delta.
func contentChunk(content string) string {
	payload, _ := json.Marshal(map[string]any{
		"id": "gen-test",
		"choices": []map[string]any{
			{"delta": map[string]any{"content": content}, "finish_reason": nil},
		},
	})
	return "data: " + string(payload)
}

// finishChunk builds one SSE data line carrying a finish reason.
func finishChunk(reason string) string {
	payload, _ := json.Marshal(map[string]any{
		"id": "gen-test",
		"choices": []map[string]any{
			{"delta": map[string]any{}, "finish_reason": reason},
		},
	})
	return "data: " + string(payload)
}

// =============================================================================
// STREAMING TESTS
// =============================================================================

// TestChatStream verifies a full stream: content arrives in order, the
// request carries the streaming wire format, and completion fires once.
func TestChatStream(t *testing.T) {
	var gotReq ChatRequest
	var gotAccept string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fl := w.(http.Flusher)
		for _, line := range []string{
			contentChunk("Hel"),
			contentChunk("lo, "),
			contentChunk("world"),
			"data: [DONE]",
		} {
			fmt.Fprintf(w, "%s\n\n", line)
			fl.Flush()
		}
	}))
	defer server.Close()

	client := New(testKey).WithBaseURL(server.URL).WithRateLimit(0, 0)

	var chunks []string
	completions := 0
	err := client.ChatStream(context.Background(), []Message{NewUserMessage("hi")},
		func(content string) { chunks = append(chunks, content) },
		func() { completions++ })

	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if got := strings.Join(chunks, ""); got != "Hello, world" {
		t.Errorf("Accumulated content = %q, expected %q", got, "Hello, world")
	}
	if completions != 1 {
		t.Errorf("onComplete fired %d times, expected exactly 1", completions)
	}
	if !gotReq.Stream {
		t.Error("Streaming request should send stream=true")
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("Accept = %q, expected text/event-stream", gotAccept)
	}
}

// TestChatStream_FinishReason verifies a finish reason ends the stream
// even when no [DONE] marker follows.
func TestChatStream_FinishReason(t *testing.T) {
	server := sseServer(t,
		contentChunk("partial"),
		finishChunk("stop"),
		contentChunk("never delivered"),
	)
	defer server.Close()

	client := New(testKey).WithBaseURL(server.URL).WithRateLimit(0, 0)

	var chunks []string
	completions := 0
	err := client.ChatStream(context.Background(), []Message{NewUserMessage("hi")},
		func(content string) { chunks = append(chunks, content) },
		func() { completions++ })

	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if got := strings.Join(chunks, ""); got != "partial" {
		t.Errorf("Content after finish reason should be dropped, got %q", got)
	}
	if completions != 1 {
		t.Errorf("onComplete fired %d times, expected exactly 1", completions)
	}
}

// TestChatStream_EOFWithoutDone verifies a server that just closes the
// connection still completes the message.
func TestChatStream_EOFWithoutDone(t *testing.T) {
	server := sseServer(t,
		contentChunk("all "),
		contentChunk("there is"),
	)
	defer server.Close()

	client := New(testKey).WithBaseURL(server.URL).WithRateLimit(0, 0)

	var chunks []string
	completions := 0
	err := client.ChatStream(context.Background(), []Message{NewUserMessage("hi")},
		func(content string) { chunks = append(chunks, content) },
		func() { completions++ })

	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if got := strings.Join(chunks, ""); got != "all there is" {
		t.Errorf("Accumulated content = %q, expected %q", got, "all there is")
	}
	if completions != 1 {
		t.Errorf("onComplete fired %d times, expected exactly 1", completions)
	}
}

// TestChatStream_ErrorStatus verifies pre-stream HTTP errors map to
// sentinels and never touch the callbacks.
func TestChatStream_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": "rate_limit", "message": "slow down"}}`))
	}))
	defer server.Close()

	client := New(testKey).WithBaseURL(server.URL).WithRateLimit(0, 0)

	chunkCalls := 0
	completions := 0
	err := client.ChatStream(context.Background(), []Message{NewUserMessage("hi")},
		func(string) { chunkCalls++ },
		func() { completions++ })

	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
	if chunkCalls != 0 || completions != 0 {
		t.Errorf("Callbacks fired on error path: chunks=%d completions=%d", chunkCalls, completions)
	}
}

// TestChatStream_NotConfigured verifies the unconfigured client fails fast.
func TestChatStream_NotConfigured(t *testing.T) {
	client := New("")
	err := client.ChatStream(context.Background(), []Message{NewUserMessage("hi")}, nil, nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

// TestChatStream_CancelMidStream verifies cancellation surfaces a
// StreamError carrying the byte count delivered so far, and that
// completion never fires.
func TestChatStream_CancelMidStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fl := w.(http.Flusher)
		fmt.Fprintf(w, "%s\n\n", contentChunk("Hel"))
		fl.Flush()
		// Hold the stream open until the client gives up.
		<-r.Context().Done()
	}))
	defer server.Close()

	client := New(testKey).WithBaseURL(server.URL).WithRateLimit(0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan struct{})
	completions := 0

	var cancelOnce bool
	err := client.ChatStream(ctx, []Message{NewUserMessage("hi")},
		func(content string) {
			if !cancelOnce {
				cancelOnce = true
				close(received)
				cancel()
			}
		},
		func() { completions++ })

	select {
	case <-received:
	default:
		t.Fatal("First chunk never arrived")
	}
	if err == nil {
		t.Fatal("Canceled stream should return an error")
	}

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("Expected *StreamError, got %T: %v", err, err)
	}
	if streamErr.Received != len("Hel") {
		t.Errorf("StreamError.Received = %d, expected %d", streamErr.Received, len("Hel"))
	}
	if !strings.Contains(streamErr.Error(), "after 3 bytes") {
		t.Errorf("StreamError message should mention delivered bytes, got %q", streamErr.Error())
	}
	if completions != 0 {
		t.Errorf("onComplete fired %d times on canceled stream, expected 0", completions)
	}
}

// TestStreamError_Unwrap verifies sentinel matching through the wrapper.
func TestStreamError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	wrapped := &StreamError{Received: 42, Err: inner}
	if !errors.Is(wrapped, inner) {
		t.Error("errors.Is should see through StreamError")
	}

	bare := &StreamError{Err: inner}
	if strings.Contains(bare.Error(), "after") {
		t.Errorf("Zero-byte StreamError should not mention a byte count, got %q", bare.Error())
	}
}

// TestChatStreamWithStats verifies timing stats cover the stream.
func TestChatStreamWithStats(t *testing.T) {
	server := sseServer(t,
		contentChunk("a"),
		contentChunk("b"),
		contentChunk("c"),
		"data: [DONE]",
	)
	defer server.Close()

	client := New(testKey).WithBaseURL(server.URL).WithRateLimit(0, 0)

	var chunks []string
	stats, err := client.ChatStreamWithStats(context.Background(), []Message{NewUserMessage("hi")},
		func(content string) { chunks = append(chunks, content) },
		nil)

	if err != nil {
		t.Fatalf("ChatStreamWithStats failed: %v", err)
	}
	if stats.ChunkCount != 3 {
		t.Errorf("ChunkCount = %d, expected 3", stats.ChunkCount)
	}
	if stats.TTFT <= 0 {
		t.Errorf("TTFT = %v, expected positive", stats.TTFT)
	}
	if stats.Total < stats.TTFT {
		t.Errorf("Total (%v) should be at least TTFT (%v)", stats.Total, stats.TTFT)
	}
	if len(chunks) != 3 {
		t.Errorf("Caller callback saw %d chunks, expected 3", len(chunks))
	}
}

// BenchmarkChatStream benchmarks a short stream end to end.
func BenchmarkChatStream(b *testing.B) {
	lines := make([]string, 0, 21)
	for i := 0; i < 20; i++ {
		lines = append(lines, contentChunk("token "))
	}
	lines = append(lines, "data: [DONE]")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fl := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
		}
		fl.Flush()
	}))
	defer server.Close()

	client := New(testKey).WithBaseURL(server.URL).WithRateLimit(0, 0)
	messages := []Message{NewUserMessage("test")}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.ChatStream(ctx, messages, func(string) {}, nil)
		cancel()
		if err != nil {
			b.Fatal(err)
		}
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// collectStream runs a parser over input and returns what it emitted.
func collectStream(t *testing.T, input string) (chunks []string, completes int, err error) {
	t.Helper()
	p := New(
		func(content string) { chunks = append(chunks, content) },
		func() { completes++ },
	)
	err = p.Run(context.Background(), strings.NewReader(input))
	return chunks, completes, err
}

// lineReader yields exactly one line per Read call and counts calls, so
// tests can observe whether the parser kept reading past a terminal marker.
type lineReader struct {
	lines []string
	pos   int
	reads int
}

func (r *lineReader) Read(p []byte) (int, error) {
	r.reads++
	if r.pos >= len(r.lines) {
		return 0, io.EOF
	}
	line := r.lines[r.pos]
	r.pos++
	n := copy(p, line)
	return n, nil
}

// chunkedReader yields the input in fixed-size chunks, simulating TCP
// segmentation.
type chunkedReader struct {
	data []byte
	pos  int
	size int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	end := r.pos + r.size
	if end > len(r.data) {
		end = len(r.data)
	}
	n := copy(p, r.data[r.pos:end])
	r.pos += n
	return n, nil
}

// errReader returns its payload once, then a read error.
type errReader struct {
	data []byte
	err  error
	done bool
}

func (r *errReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, r.err
	}
	r.done = true
	return copy(p, r.data), nil
}

func contentLine(s string) string {
	return `data: {"choices":[{"delta":{"content":"` + s + `"},"finish_reason":""}]}` + "\n"
}

// =============================================================================
// BASIC STREAM TESTS
// =============================================================================

func TestParser_BasicStream(t *testing.T) {
	input := contentLine("Hello") +
		contentLine(", ") +
		contentLine("world") +
		"data: [DONE]\n"

	chunks, completes, err := collectStream(t, input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if completes != 1 {
		t.Errorf("Expected 1 completion, got %d", completes)
	}
	if got := strings.Join(chunks, ""); got != "Hello, world" {
		t.Errorf("Accumulated content = %q, want %q", got, "Hello, world")
	}
}

func TestParser_EmptyDeltasSkipped(t *testing.T) {
	input := contentLine("a") +
		`data: {"choices":[{"delta":{"content":""},"finish_reason":""}]}` + "\n" +
		`data: {"choices":[{"delta":{"role":"assistant"},"finish_reason":""}]}` + "\n" +
		contentLine("b") +
		"data: [DONE]\n"

	chunks, completes, err := collectStream(t, input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Errorf("Expected 2 content chunks, got %d: %q", len(chunks), chunks)
	}
	if completes != 1 {
		t.Errorf("Expected 1 completion, got %d", completes)
	}
}

func TestParser_IgnoresNonDataLines(t *testing.T) {
	input := ": keep-alive comment\n" +
		"event: message\n" +
		"id: 42\n" +
		"\n" +
		contentLine("only this") +
		"data: [DONE]\n"

	chunks, completes, err := collectStream(t, input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "only this" {
		t.Errorf("Expected only the data line content, got %q", chunks)
	}
	if completes != 1 {
		t.Errorf("Expected 1 completion, got %d", completes)
	}
}

// =============================================================================
// TERMINAL MARKER TESTS
// =============================================================================

func TestParser_DoneStopsReading(t *testing.T) {
	r := &lineReader{lines: []string{
		contentLine("before"),
		"data: [DONE]\n",
		contentLine("after"), // must never be read
	}}

	var chunks []string
	completes := 0
	p := New(
		func(content string) { chunks = append(chunks, content) },
		func() { completes++ },
	)

	if err := p.Run(context.Background(), r); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(chunks) != 1 || chunks[0] != "before" {
		t.Errorf("Content after [DONE] leaked: %q", chunks)
	}
	if completes != 1 {
		t.Errorf("Expected 1 completion, got %d", completes)
	}
	if r.reads > 2 {
		t.Errorf("Parser kept reading after [DONE]: %d reads", r.reads)
	}
}

func TestParser_FinishReasonCompletes(t *testing.T) {
	// The final chunk carries both content and a finish reason; the
	// content must be emitted before completion fires.
	var events []string
	p := New(
		func(content string) { events = append(events, "chunk:"+content) },
		func() { events = append(events, "complete") },
	)

	input := contentLine("almost") +
		`data: {"choices":[{"delta":{"content":" done"},"finish_reason":"stop"}]}` + "\n" +
		contentLine("never seen")

	r := &lineReader{lines: strings.SplitAfter(strings.TrimSuffix(input, "\n"), "\n")}
	if err := p.Run(context.Background(), r); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"chunk:almost", "chunk: done", "complete"}
	if len(events) != len(want) {
		t.Fatalf("Events = %q, want %q", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("Event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestParser_FinishReasonVariants(t *testing.T) {
	// Any non-empty finish reason is terminal, whatever its value.
	reasons := []string{"stop", "length", "content_filter", "tool_calls", "error"}

	for _, reason := range reasons {
		t.Run(reason, func(t *testing.T) {
			input := contentLine("x") +
				`data: {"choices":[{"delta":{"content":""},"finish_reason":"` + reason + `"}]}` + "\n" +
				contentLine("unreachable")

			chunks, completes, err := collectStream(t, input)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if completes != 1 {
				t.Errorf("finish_reason %q: expected 1 completion, got %d", reason, completes)
			}
			for _, c := range chunks {
				if c == "unreachable" {
					t.Errorf("finish_reason %q: content after terminal chunk leaked", reason)
				}
			}
		})
	}
}

func TestParser_EOFWithoutDone(t *testing.T) {
	input := contentLine("partial") + contentLine("response")

	chunks, completes, err := collectStream(t, input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if completes != 1 {
		t.Errorf("EOF must still complete the stream, got %d completions", completes)
	}
	if got := strings.Join(chunks, ""); got != "partialresponse" {
		t.Errorf("Content = %q", got)
	}
}

func TestParser_TrailingLineAtEOF(t *testing.T) {
	// Final line has no newline; its content must still come through.
	input := contentLine("first") +
		`data: {"choices":[{"delta":{"content":"last"},"finish_reason":""}]}`

	chunks, completes, err := collectStream(t, input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := strings.Join(chunks, ""); got != "firstlast" {
		t.Errorf("Trailing line lost: content = %q", got)
	}
	if completes != 1 {
		t.Errorf("Expected 1 completion, got %d", completes)
	}
}

// =============================================================================
// MALFORMED INPUT TESTS
// =============================================================================

func TestParser_MalformedLinesSkipped(t *testing.T) {
	input := contentLine("good") +
		"data: {not json at all\n" +
		"data: \n" +
		contentLine("still good") +
		"data: [DONE]\n"

	var chunks []string
	completes := 0
	p := New(
		func(content string) { chunks = append(chunks, content) },
		func() { completes++ },
	)

	if err := p.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Malformed lines must not abort the stream: %v", err)
	}

	if got := strings.Join(chunks, ""); got != "goodstill good" {
		t.Errorf("Content = %q", got)
	}
	if completes != 1 {
		t.Errorf("Expected 1 completion, got %d", completes)
	}
	if p.ParseFailures() != 2 {
		t.Errorf("Expected 2 parse failures recorded, got %d", p.ParseFailures())
	}
}

func TestParser_MalformedJSONTypes(t *testing.T) {
	// Wrong shapes that parse as JSON but not as chunk objects should not
	// panic; absent fields just mean no content.
	input := "data: []\n" +
		"data: 42\n" +
		`data: {"choices":[]}` + "\n" +
		`data: {"choices":null}` + "\n" +
		contentLine("ok") +
		"data: [DONE]\n"

	chunks, completes, err := collectStream(t, input)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "ok" {
		t.Errorf("Chunks = %q", chunks)
	}
	if completes != 1 {
		t.Errorf("Expected 1 completion, got %d", completes)
	}
}

// =============================================================================
// ERROR PROPAGATION TESTS
// =============================================================================

func TestParser_ReaderErrorPropagates(t *testing.T) {
	readErr := errors.New("connection reset")
	r := &errReader{data: []byte(contentLine("partial")), err: readErr}

	var chunks []string
	completes := 0
	p := New(
		func(content string) { chunks = append(chunks, content) },
		func() { completes++ },
	)

	err := p.Run(context.Background(), r)
	if !errors.Is(err, readErr) {
		t.Errorf("Expected read error to propagate, got %v", err)
	}
	if completes != 0 {
		t.Error("onComplete must not fire on a read error")
	}
	if len(chunks) != 1 || chunks[0] != "partial" {
		t.Errorf("Content before the error should be delivered: %q", chunks)
	}
}

func TestParser_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	completes := 0
	p := New(nil, func() { completes++ })

	err := p.Run(ctx, strings.NewReader(contentLine("never")))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if completes != 0 {
		t.Error("onComplete must not fire on cancellation")
	}
}

func TestParser_NilCallbacks(t *testing.T) {
	p := New(nil, nil)

	input := contentLine("content") + "data: [DONE]\n"
	if err := p.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run with nil callbacks failed: %v", err)
	}
}

// =============================================================================
// FRAGMENTATION TESTS
// =============================================================================

func TestParser_FragmentedStream(t *testing.T) {
	// Feed the stream 3 bytes at a time; every line and every multi-byte
	// character gets split somewhere.
	input := contentLine("Hello 世界") +
		contentLine(", how are you?") +
		"data: [DONE]\n"

	for _, size := range []int{1, 2, 3, 7, 16} {
		r := &chunkedReader{data: []byte(input), size: size}

		var chunks []string
		completes := 0
		p := New(
			func(content string) { chunks = append(chunks, content) },
			func() { completes++ },
		)

		if err := p.Run(context.Background(), r); err != nil {
			t.Fatalf("size %d: Run failed: %v", size, err)
		}
		if got := strings.Join(chunks, ""); got != "Hello 世界, how are you?" {
			t.Errorf("size %d: content = %q", size, got)
		}
		if completes != 1 {
			t.Errorf("size %d: expected 1 completion, got %d", size, completes)
		}
	}
}

// =============================================================================
// CHUNK EVENT TESTS
// =============================================================================

func TestChunkEvent_Accessors(t *testing.T) {
	var empty ChunkEvent
	if empty.Content() != "" || empty.Done() || empty.FinishReason() != "" {
		t.Error("Zero chunk should have no content and not be done")
	}
}

// =============================================================================
// BENCHMARK TESTS
// =============================================================================

func BenchmarkParserRun(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString(contentLine("the quick brown fox "))
	}
	sb.WriteString("data: [DONE]\n")
	input := sb.String()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p := New(func(string) {}, func() {})
		if err := p.Run(context.Background(), strings.NewReader(input)); err != nil {
			b.Fatal(err)
		}
	}
}

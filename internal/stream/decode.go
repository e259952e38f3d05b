// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"errors"
)

// MaxLineSize is the largest line the decoder will assemble before giving
// up on the stream (1MB). Completion deltas are tiny; a pending line this
// large means the peer is not speaking SSE.
const MaxLineSize = 1024 * 1024

// ErrLineTooLong is returned when a single line exceeds MaxLineSize
// without a terminating newline.
var ErrLineTooLong = errors.New("stream: line exceeds maximum size")

// LineDecoder assembles complete text lines from a stream of byte chunks.
// Chunks may split lines and multi-byte UTF-8 sequences at arbitrary byte
// positions; bytes are held until the newline that completes them arrives,
// so emitted lines always carry intact characters.
//
// Not safe for concurrent use. The zero value is ready.
type LineDecoder struct {
	buf []byte
}

// Feed appends raw bytes and returns the complete lines they finish, in
// order. Lines are terminated by '\n'; a preceding '\r' is dropped so CRLF
// streams decode the same as LF streams.
func (d *LineDecoder) Feed(p []byte) ([]string, error) {
	d.buf = append(d.buf, p...)

	var lines []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			if len(d.buf) > MaxLineSize {
				return lines, ErrLineTooLong
			}
			return lines, nil
		}
		line := d.buf[:i]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		lines = append(lines, string(line))
		d.buf = d.buf[i+1:]
	}
}

// Rest returns any buffered bytes that were never terminated by a newline
// and clears the buffer. Called at EOF so a final unterminated line is not
// lost.
func (d *LineDecoder) Rest() (string, bool) {
	if len(d.buf) == 0 {
		return "", false
	}
	line := string(d.buf)
	d.buf = nil
	return line, true
}

// Pending returns the number of buffered bytes awaiting a newline.
func (d *LineDecoder) Pending() int {
	return len(d.buf)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream parses Server-Sent-Events chat completion streams.
//
// The package splits the problem in two:
//
//   - LineDecoder assembles complete text lines from raw network reads.
//     TCP hands the HTTP body to us in arbitrary chunks, so a single SSE
//     line (or a single multi-byte UTF-8 character) routinely arrives
//     split across reads. The decoder buffers bytes until the newline
//     that completes them shows up.
//
//   - Parser pulls from an io.Reader through a LineDecoder and interprets
//     the lines: "data: " payloads become content callbacks, the [DONE]
//     sentinel or a finish_reason ends the stream, and everything else is
//     ignored. Malformed payloads are skipped, never fatal.
//
// The parser guarantees onComplete fires exactly once per stream on every
// non-error path, including a peer that closes the connection without a
// terminal marker.
//
// # Usage
//
//	p := stream.New(
//		func(content string) { buffer.Push(content) },
//		func() { buffer.Flush() },
//	)
//	if err := p.Run(ctx, resp.Body); err != nil {
//		// read error or cancellation; onComplete did not fire
//	}
package stream

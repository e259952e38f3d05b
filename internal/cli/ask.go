// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command handler.
//
// Handles "cadence ask" which sends a single question and prints the
// answer.
//
// Examples:
//   cadence ask "What is a goroutine?"
//   cadence ask "Review this:" --file main.go
//   cadence ask --stream "Tell me a story"
//   echo "question" | cadence ask
//
// Output modes:
//   - TTY without --stream: blocking request, markdown-rendered answer
//   - TTY with --stream: streamed response paced through the typewriter
//   - piped: plain text, no colors, no pacing

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/cadence/internal/api"
	"github.com/jeranaias/cadence/internal/config"
	"github.com/jeranaias/cadence/internal/typewriter"
)

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) error {
	cfg := config.Global()

	query := strings.TrimSpace(args.Query)

	// Piped stdin becomes the query (or is appended to it)
	if !IsTTY() {
		piped, err := io.ReadAll(io.LimitReader(os.Stdin, 1<<20))
		if err == nil && len(piped) > 0 {
			if query == "" {
				query = strings.TrimSpace(string(piped))
			} else {
				query += "\n\n" + strings.TrimSpace(string(piped))
			}
		}
	}

	if args.File != "" {
		attachment, err := ReadFileForPrompt(args.File)
		if err != nil {
			return err
		}
		query += attachment
	}

	if query == "" {
		return ErrMissingArgument("question", `cadence ask "What is a goroutine?"`)
	}

	client := NewClientFromConfig(cfg, args)
	if err := RequireConfigured(client); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.Timeout())
	defer cancel()

	messages := buildMessages(cfg, nil, query)

	if args.Stream && IsStdoutTTY() {
		return askStreaming(ctx, client, cfg, messages, args)
	}
	return askBlocking(ctx, client, messages, args)
}

// askBlocking sends a single request and prints the full answer.
func askBlocking(ctx context.Context, client *api.Client, messages []api.Message, args Args) error {
	start := time.Now()

	resp, err := client.Chat(ctx, messages)
	if err != nil {
		return WrapError(err, "request failed")
	}

	content := resp.GetContent()
	if IsStdoutTTY() {
		fmt.Println(RenderMarkdown(content))
	} else {
		fmt.Println(content)
	}

	if args.Verbose {
		fmt.Fprintf(os.Stderr, "%s %s | %s tokens | %s\n",
			DimStyle.Render("[stats]"),
			client.GetModel(),
			formatNumber(resp.Usage.TotalTokens),
			time.Since(start).Round(time.Millisecond))
	}

	return nil
}

// askStreaming streams the response through the typewriter so the
// answer types out at the configured cadence.
func askStreaming(ctx context.Context, client *api.Client, cfg *config.Config, messages []api.Message, args Args) error {
	tw := typewriter.New(cfg.TypewriterConfig(), func(chunk string) {
		fmt.Print(chunk)
	})
	tw.Start()
	defer tw.Stop()

	stats, err := client.ChatStreamWithStats(ctx, messages,
		func(chunk string) { tw.Push(chunk) },
		func() {},
	)
	if err != nil {
		tw.Flush()
		fmt.Println()
		return WrapError(err, "stream failed")
	}

	// Network is done; let the animation drain before returning
	for tw.Backlog() > 0 {
		select {
		case <-ctx.Done():
			tw.Flush()
			fmt.Println()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	fmt.Println()

	if args.Verbose && stats != nil {
		fmt.Fprintf(os.Stderr, "%s first token %s | total %s | %d chunks\n",
			DimStyle.Render("[stats]"),
			stats.TTFT.Round(time.Millisecond),
			stats.Total.Round(time.Millisecond),
			stats.ChunkCount)
	}

	return nil
}

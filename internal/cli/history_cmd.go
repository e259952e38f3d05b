// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Conversation history search command handler.
//
// Handles "cadence history" which runs a full-text search over saved
// conversations using the SQLite FTS index.
//
// Examples:
//   cadence history "rust lifetimes"
//   cadence history --limit 5 "sorting"
//   cadence history --role user "deploy"
//   cadence history --stats

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/cadence/internal/history"
)

// HandleHistory handles the "history" command.
func HandleHistory(args Args) error {
	parser := NewArgParser(args.Raw)

	cfg, err := history.DefaultConfig()
	if err != nil {
		return WrapError(err, "cannot locate history database")
	}
	// One-shot command; no point keeping a watcher alive
	cfg.EnableWatch = false

	idx, err := history.NewIndex(cfg)
	if err != nil {
		return WrapError(err, "cannot open history index")
	}
	defer idx.Close()

	if parser.BoolFlag("stats") {
		return historyStats(idx)
	}

	query := strings.TrimSpace(args.Query)
	if query == "" {
		return ErrMissingArgument("query", `cadence history "rust lifetimes"`)
	}

	// First run (or stale index) needs a reindex before searching
	if !idx.IsIndexed() || parser.BoolFlag("reindex") {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := idx.Reindex(ctx); err != nil {
			return WrapError(err, "cannot index conversations")
		}
	}

	opts := history.DefaultSearchOptions()
	opts.MaxResults = parser.FlagIntOrDefault("limit", 20)
	if role := parser.Flag("role"); role != "" {
		opts.Roles = []string{strings.ToLower(role)}
	}

	results, err := idx.Search(query, opts)
	if err != nil {
		return WrapError(err, "search failed")
	}

	if len(results) == 0 {
		fmt.Println(DimStyle.Render("No matches."))
		return nil
	}

	if !args.Quiet {
		fmt.Println(TitleStyle.Render(fmt.Sprintf("Matches for %q", query)))
	}

	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.ConversationID
		}

		fmt.Printf("%s %s %s\n",
			HighlightStyle.Render(fmt.Sprintf("%2d.", i+1)),
			ValueStyle.Render(title),
			DimStyle.Render(fmt.Sprintf("(%s, %s)", r.Role, r.UpdatedAt.Format("2006-01-02"))))
		fmt.Printf("    %s\n", r.Snippet)
	}

	if !args.Quiet {
		fmt.Println()
		fmt.Printf("%s %d matches | load one with: cadence, then /load <title>\n",
			DimStyle.Render("[info]"), len(results))
	}

	return nil
}

// historyStats prints index statistics.
func historyStats(idx *history.Index) error {
	stats := idx.Stats()

	fmt.Println(TitleStyle.Render("History index"))
	fmt.Printf("  %s %d\n", RenderLabel("Conversations:"), stats.Conversations)
	fmt.Printf("  %s %d\n", RenderLabel("Messages:"), stats.Messages)
	fmt.Printf("  %s %s\n", RenderLabel("Database size:"), formatBytes(stats.DatabaseSize))
	if !stats.LastIndexed.IsZero() {
		fmt.Printf("  %s %s\n", RenderLabel("Last indexed:"), stats.LastIndexed.Format(time.RFC1123))
	} else {
		fmt.Printf("  %s %s\n", RenderLabel("Last indexed:"), DimStyle.Render("never"))
	}

	return nil
}

// formatBytes renders a byte count as B/KB/MB.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

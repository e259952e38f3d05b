// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides full-text search over saved conversations.
//
// The conversation store owns the JSON files on disk; this package keeps
// a derived SQLite index (FTS5) next to them so search stays fast as
// history grows. The index can always be rebuilt from the files, so
// deleting history.db never loses data.
//
// # Key Types
//
//   - Index: SQLite-backed search index over conversation files
//   - SearchResult: message hit with conversation, role, and snippet
//   - SearchOptions: result limits and role filters
//   - FileWatcher: keeps the index fresh as conversation files change
//
// # Usage
//
// Open the index and build it:
//
//	idx, err := history.NewIndex(nil)
//	err = idx.Reindex(ctx)
//
// Search indexed messages:
//
//	results, err := idx.Search("deployment", nil)
//	for _, r := range results {
//	    fmt.Printf("%s  %s\n", r.Title, r.Snippet)
//	}
//
// Message text and queries are both normalized to NFC before they reach
// the index, so composed and decomposed forms of the same text find each
// other.
package history

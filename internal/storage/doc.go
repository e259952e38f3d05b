// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations to disk.
//
// Each conversation is one JSON file under ~/.cadence/conversations/,
// written atomically so a crash mid-save never corrupts history. The
// store is the source of truth; the history package builds its search
// index from these files.
//
// # Key Types
//
//   - ConversationStore: save, load, list, search, delete
//   - StoredConversation: serializable conversation with metadata
//   - ConversationMeta: lightweight metadata for listing
//
// # Usage
//
// Snapshot a live conversation and save it:
//
//	store, err := storage.NewConversationStore()
//	id, err := store.Save(storage.FromConversation(conv))
//
// Resume the most recent one:
//
//	stored, err := store.MostRecent()
//	conv := stored.ToConversation()
package storage

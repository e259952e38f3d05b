// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations, messages, and model metadata.
//
// # Key Types
//
//   - Conversation: Container for a chat session with messages and metadata
//   - Message: Single message with role, content, timestamp, and streaming state
//   - Statistics: Timing and token counts for one generation
//   - ModelInfo: Metadata about a chat model (ID, provider, pricing, context)
//   - Role: Message role enumeration (user, assistant, system)
//
// # Usage
//
// Create a conversation and stream into it:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("Hello!")
//	conv.AddAssistantMessage()
//	conv.AppendToLast("Hi ")
//	conv.AppendToLast("there.")
//	conv.FinalizeLast(stats)
//
// Resolve a model alias:
//
//	info, ok := model.GetModelInfo("sonnet")
//	// info.ID == "anthropic/claude-3.5-sonnet"
package model

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the OpenRouter chat-completions client.
//
// OpenRouter exposes many LLM providers behind one OpenAI-compatible API.
// This package implements the HTTP client for that API: blocking
// completions, SSE streaming (decoded by the stream package), the model
// catalogue endpoint, and an auth check for API keys.
//
// # Key Types
//
//   - Client: HTTP client with pooled transport and request pacing
//   - Message: chat message in the wire format the API expects
//   - ChatResponse: parsed completion with choices and token usage
//   - APIError: typed error carrying the HTTP status and API error code
//
// # Usage
//
// Create a client and send a chat request:
//
//	client := api.New(apiKey).WithModel("anthropic/claude-3.5-sonnet")
//	resp, err := client.Chat(ctx, []api.Message{api.NewUserMessage("Hello")})
//
// Or stream the reply token by token:
//
//	err := client.ChatStream(ctx, messages,
//	    func(chunk string) { fmt.Print(chunk) },
//	    func() { fmt.Println() })
//
// # Errors
//
// Failures map to sentinel errors (ErrAuthFailed, ErrRateLimited,
// ErrModelNotFound, ErrInsufficientCredits) that callers test with
// errors.Is. Requests are never retried; a failed call surfaces its
// error immediately and the caller decides what to do.
//
// API keys are never logged. Use MaskKey for anything user-visible.
package api

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the cadence TUI.
package components

import (
	"runtime"
	"strings"
	"sync"
)

// =============================================================================
// ERROR CATEGORIES
// =============================================================================

// ErrorCategory represents the type of error for better organization and display.
type ErrorCategory string

const (
	// CategoryNetwork represents network and connectivity errors
	CategoryNetwork ErrorCategory = "Network"
	// CategoryAPI represents OpenRouter API errors (rate limits, credits, providers)
	CategoryAPI ErrorCategory = "API"
	// CategoryModel represents model-related errors (not found, unavailable)
	CategoryModel ErrorCategory = "Model"
	// CategoryAuth represents authentication and API key errors
	CategoryAuth ErrorCategory = "Auth"
	// CategoryConfig represents configuration and settings errors
	CategoryConfig ErrorCategory = "Config"
	// CategoryContext represents context window and token limit errors
	CategoryContext ErrorCategory = "Context"
	// CategoryTimeout represents timeout and performance errors
	CategoryTimeout ErrorCategory = "Timeout"
	// CategoryStream represents interrupted or malformed response streams
	CategoryStream ErrorCategory = "Stream"
	// CategoryStorage represents disk and history database errors
	CategoryStorage ErrorCategory = "Storage"
	// CategoryParse represents parsing and format errors
	CategoryParse ErrorCategory = "Parse"
	// CategoryUnknown represents unclassified errors
	CategoryUnknown ErrorCategory = "Error"
)

// =============================================================================
// ERROR PATTERN MATCHER
// =============================================================================

// ErrorPattern defines a pattern to match against error strings and provide suggestions.
type ErrorPattern struct {
	// Keywords to match in the error message (case-insensitive, any match triggers)
	Keywords []string

	// Category classifies the error type
	Category ErrorCategory

	// Title for the error display
	Title string

	// Suggestions to help resolve the error
	Suggestions []string

	// DocsURL links to documentation for complex errors (optional)
	DocsURL string

	// LogHint tells users what to look for in logs (optional)
	LogHint string
}

// ErrorPatternMatcher analyzes error strings and provides smart suggestions.
type ErrorPatternMatcher struct {
	mu       sync.RWMutex
	patterns []ErrorPattern
}

// Singleton instance for default pattern matcher
var (
	defaultMatcher     *ErrorPatternMatcher
	defaultMatcherOnce sync.Once
)

// GetDefaultMatcher returns the singleton pattern matcher instance.
// This is thread-safe and avoids re-creating the matcher on every error.
func GetDefaultMatcher() *ErrorPatternMatcher {
	defaultMatcherOnce.Do(func() {
		defaultMatcher = NewErrorPatternMatcher()
	})
	return defaultMatcher
}

// NewErrorPatternMatcher creates a new error pattern matcher with default patterns.
func NewErrorPatternMatcher() *ErrorPatternMatcher {
	matcher := &ErrorPatternMatcher{
		patterns: make([]ErrorPattern, 0),
	}

	// Register default patterns
	matcher.registerDefaultPatterns()

	return matcher
}

// registerDefaultPatterns registers common error patterns with actionable suggestions.
// IMPORTANT: Patterns are registered from MOST SPECIFIC to LEAST SPECIFIC.
// The first matching pattern wins, so specific patterns must come before general ones.
func (m *ErrorPatternMatcher) registerDefaultPatterns() {
	// =========================================================================
	// MOST SPECIFIC PATTERNS FIRST
	// =========================================================================

	// API key / authentication errors (must be before general permission errors)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"invalid api key", "api key not", "no api key",
			"401", "unauthorized", "authentication failed",
			"no auth credentials", "invalid token",
		},
		Category: CategoryAuth,
		Title:    "Authentication Failed",
		Suggestions: []string{
			"Set your key: cadence config set api.key <key>",
			"Or export CADENCE_API_KEY in your shell",
			"Create a key at https://openrouter.ai/keys",
		},
		DocsURL: "https://openrouter.ai/docs/api-reference/authentication",
		LogHint: "Look for 401 responses from the API",
	})

	// Credit / payment errors (specific OpenRouter status)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"insufficient credits", "payment required", "402",
			"negative credit", "account balance",
		},
		Category: CategoryAPI,
		Title:    "Out of Credits",
		Suggestions: []string{
			"Add credits at https://openrouter.ai/credits",
			"Switch to a free model variant: /models",
			"Check your usage on the OpenRouter dashboard",
		},
		DocsURL: "https://openrouter.ai/docs/faq",
		LogHint: "Look for 402 responses from the API",
	})

	// Rate limiting errors (specific)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"rate limit", "too many requests",
			"quota exceeded", "429",
			"throttled", "rate exceeded",
		},
		Category: CategoryAPI,
		Title:    "Rate Limit Exceeded",
		Suggestions: []string{
			"Wait a moment and retry",
			"Free model variants have tighter limits",
			"Add credits to raise your rate limits",
		},
		DocsURL: "https://openrouter.ai/docs/api-reference/limits",
		LogHint: "Check request frequency and Retry-After headers",
	})

	// Model not found errors (specific)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"model not found", "model does not exist",
			"no such model", "unknown model", "not a valid model",
			"' not found", // Matches "model 'xyz' not found"
		},
		Category: CategoryModel,
		Title:    "Model Not Found",
		Suggestions: []string{
			"List available models: /models",
			"Short aliases work too: /model sonnet",
			"Use the full ID, e.g. anthropic/claude-3.5-sonnet",
		},
		DocsURL: "https://openrouter.ai/models",
		LogHint: "Check the model ID sent with the request",
	})

	// Context/token limit errors (specific)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"context length", "context exceeded",
			"maximum context", "context window",
			"token limit", "max_tokens",
		},
		Category: CategoryContext,
		Title:    "Context Exceeded",
		Suggestions: []string{
			"Start new conversation: /new",
			"Clear history: /clear",
			"Use shorter messages or reduce context",
		},
		DocsURL: "https://openrouter.ai/models",
		LogHint: "Check conversation length and token counts",
	})

	// Request Timeout (must be before general network errors)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"request timeout", "operation timed out",
			"context deadline exceeded",
		},
		Category: CategoryTimeout,
		Title:    "Request Timeout",
		Suggestions: []string{
			"Try again - the service may be temporarily busy",
			"Raise api.timeout_secs in your config",
			"Check your network latency",
		},
		DocsURL: "https://github.com/jeranaias/cadence#configuration",
		LogHint: "Look for timeout duration and server response times",
	})

	// Interrupted response streams (specific)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"stream interrupted", "stream closed",
			"unexpected eof", "incomplete stream",
			"stream error",
		},
		Category: CategoryStream,
		Title:    "Stream Interrupted",
		Suggestions: []string{
			"Retry the request - partial text was kept",
			"Check network stability",
			"Long replies are more exposed to drops; try a shorter prompt",
		},
		DocsURL: "https://github.com/jeranaias/cadence#streaming",
		LogHint: "Look for [stream] entries with the disconnect reason",
	})

	// Permission errors on local files (config, conversations)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"permission denied", "access denied",
			"forbidden", "403",
		},
		Category:    CategoryAuth,
		Title:       "Permission Denied",
		Suggestions: getPlatformSpecificPermissionSuggestions(),
		DocsURL:     "https://github.com/jeranaias/cadence#configuration",
		LogHint:     "Check file permissions and authentication status",
	})

	// File not found errors (specific)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"file not found", "no such file",
			"cannot find file", "path not found", "enoent",
		},
		Category: CategoryConfig,
		Title:    "File Not Found",
		Suggestions: []string{
			"Check the file path spelling",
			"Use an absolute path instead of relative",
			"Verify the file exists in the expected location",
		},
		DocsURL: "https://github.com/jeranaias/cadence#configuration",
		LogHint: "Check the full path being accessed",
	})

	// History database errors (specific)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"database is locked", "sqlite", "fts5",
			"history index",
		},
		Category: CategoryStorage,
		Title:    "History Database Error",
		Suggestions: []string{
			"Close other cadence instances",
			"Rebuild the index: cadence history --rebuild",
			"Delete ~/.cadence/history.db to start fresh",
		},
		DocsURL: "https://github.com/jeranaias/cadence#history",
		LogHint: "Look for [history] entries with the SQLite error",
	})

	// Disk space errors (specific)
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"no space left", "disk full",
			"out of disk space", "enospc",
		},
		Category: CategoryStorage,
		Title:    "Disk Space Error",
		Suggestions: []string{
			"Free up disk space on your system",
			"Remove old conversations from ~/.cadence/conversations",
			"Clear temporary files and caches",
		},
		DocsURL: "https://github.com/jeranaias/cadence#storage",
		LogHint: "Check available disk space",
	})

	// =========================================================================
	// MEDIUM SPECIFICITY PATTERNS
	// =========================================================================

	// Configuration errors
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"invalid config", "missing config", "parse config",
			"configuration error", "toml",
		},
		Category: CategoryConfig,
		Title:    "Configuration Error",
		Suggestions: []string{
			"Check ~/.cadence/config.toml syntax",
			"List current values: cadence config list",
			"Verify all required fields are present",
		},
		DocsURL: "https://github.com/jeranaias/cadence#configuration",
		LogHint: "Check config file path and validation errors",
	})

	// JSON/SSE parse errors
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"unmarshal", "parse error",
			"invalid json", "syntax error",
			"malformed event",
		},
		Category: CategoryParse,
		Title:    "Parse Error",
		Suggestions: []string{
			"Retry the request",
			"Malformed stream chunks are skipped automatically",
			"Report persistent failures with the log excerpt",
		},
		DocsURL: "https://github.com/jeranaias/cadence#troubleshooting",
		LogHint: "Check for the offending payload in [stream] entries",
	})

	// =========================================================================
	// GENERAL/FALLBACK PATTERNS (LEAST SPECIFIC - LAST)
	// =========================================================================

	// General network/connection errors (fallback - must be LAST)
	// NOTE: Does NOT include "timeout" - that's handled by Request Timeout above
	m.AddPattern(ErrorPattern{
		Keywords: []string{
			"connection refused", "connect: connection refused",
			"dial tcp", "no such host", "network unreachable",
			"connection reset", "broken pipe",
			"cannot connect", "failed to connect", "tls handshake",
		},
		Category: CategoryNetwork,
		Title:    "Connection Error",
		Suggestions: []string{
			"Check your network connection",
			"Verify https://openrouter.ai is reachable",
			"Retry in a few seconds",
		},
		DocsURL: "https://github.com/jeranaias/cadence#troubleshooting",
		LogHint: "Check network connectivity and DNS resolution",
	})
}

// AddPattern adds a custom error pattern to the matcher.
// This allows extending the pattern matcher with application-specific patterns.
// Thread-safe.
func (m *ErrorPatternMatcher) AddPattern(pattern ErrorPattern) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
}

// Match analyzes an error string and returns an ErrorDisplay with smart suggestions.
// Returns nil if no pattern matches. Thread-safe.
func (m *ErrorPatternMatcher) Match(errMsg string) *ErrorDisplay {
	if errMsg == "" {
		return nil
	}

	errLower := strings.ToLower(errMsg)

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Try each pattern in order (most specific first)
	for _, pattern := range m.patterns {
		if m.matchesPattern(errLower, pattern) {
			// Create enhanced error display with all details
			display := NewEnhancedError(pattern, errMsg)
			return &display
		}
	}

	// No pattern matched - return generic error
	return nil
}

// MatchOrDefault analyzes an error string and returns an ErrorDisplay with smart suggestions.
// If no pattern matches, returns a generic error display with the given title and message.
func (m *ErrorPatternMatcher) MatchOrDefault(title, errMsg string) ErrorDisplay {
	if matched := m.Match(errMsg); matched != nil {
		return *matched
	}

	// No pattern matched - return default error
	return NewError(title, errMsg)
}

// matchesPattern checks if an error message matches a pattern's keywords.
func (m *ErrorPatternMatcher) matchesPattern(errMsg string, pattern ErrorPattern) bool {
	for _, keyword := range pattern.Keywords {
		if strings.Contains(errMsg, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// =============================================================================
// PLATFORM-SPECIFIC HELPERS
// =============================================================================

// getPlatformSpecificPermissionSuggestions returns permission suggestions based on the OS.
func getPlatformSpecificPermissionSuggestions() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			"Check file permissions in Properties > Security",
			"Run as Administrator if needed",
			"Verify your API key is set",
		}
	case "darwin": // macOS
		return []string{
			"Check file permissions: ls -l ~/.cadence",
			"The config file is written with mode 0600",
			"Verify your API key is set",
		}
	default: // Linux and others
		return []string{
			"Check file permissions: ls -l ~/.cadence",
			"The config file is written with mode 0600",
			"Verify your API key is set",
		}
	}
}

// =============================================================================
// SMART ERROR CREATION
// =============================================================================

// SmartError creates an error display with auto-detected pattern matching.
// This is the recommended way to create errors with intelligent suggestions.
func SmartError(title, message string) ErrorDisplay {
	matcher := GetDefaultMatcher()
	return matcher.MatchOrDefault(title, message)
}

// SmartErrorFromError creates an error display from a Go error with pattern matching.
func SmartErrorFromError(title string, err error) ErrorDisplay {
	if err == nil {
		return NewError(title, "Unknown error")
	}
	return SmartError(title, err.Error())
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"fmt"
)

func ExampleErrorPatternMatcher_Match() {
	matcher := NewErrorPatternMatcher()

	display := matcher.Match("API error 401: invalid api key")
	fmt.Println(display.title)

	display = matcher.Match("model 'gpt-9' not found")
	fmt.Println(display.title)

	// Output:
	// Authentication Failed
	// Model Not Found
}

func ExampleErrorPatternMatcher_MatchOrDefault() {
	matcher := NewErrorPatternMatcher()

	// Unrecognized errors fall back to a plain display with the given title.
	display := matcher.MatchOrDefault("Request Failed", "something nobody anticipated")
	fmt.Println(display.title)

	// Output: Request Failed
}

func ExampleSmartErrorFromError() {
	err := errors.New("rate limit exceeded: too many requests")

	display := SmartErrorFromError("Send Failed", err)
	fmt.Println(display.title)
	fmt.Println(display.category)

	// Output:
	// Rate Limit Exceeded
	// API
}

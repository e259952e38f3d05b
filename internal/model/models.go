// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains detailed information about a model.
// This is used for model selection and display in the UI.
type ModelInfo struct {
	// ID is the model identifier used in API calls (provider/slug form)
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Provider identifies who serves the model (Anthropic, OpenAI, Google, ...)
	Provider string `json:"provider"`

	// Tier categorizes the model's capability level
	Tier string `json:"tier"`

	// CostPer1K is the prompt cost per 1000 tokens in dollars (0 for free variants)
	CostPer1K float64 `json:"cost_per_1k"`

	// MaxTokens is the maximum context window size
	MaxTokens int `json:"max_tokens"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the registry of well-known models keyed by short alias.
// The registry is a convenience for tab completion and the /model command;
// any ID the endpoint accepts works even when absent here.
var Models = map[string]ModelInfo{
	// Anthropic Claude models
	"haiku": {
		ID:          "anthropic/claude-3-haiku",
		Name:        "Claude 3 Haiku",
		Provider:    "Anthropic",
		Tier:        "Fast",
		CostPer1K:   0.00025,
		MaxTokens:   200000,
		Description: "Fast and efficient for simple tasks",
	},
	"sonnet": {
		ID:          "anthropic/claude-3.5-sonnet",
		Name:        "Claude 3.5 Sonnet",
		Provider:    "Anthropic",
		Tier:        "Balanced",
		CostPer1K:   0.003,
		MaxTokens:   200000,
		Description: "Best balance of speed and capability",
	},
	"opus": {
		ID:          "anthropic/claude-3-opus",
		Name:        "Claude 3 Opus",
		Provider:    "Anthropic",
		Tier:        "Powerful",
		CostPer1K:   0.015,
		MaxTokens:   200000,
		Description: "Most capable for complex reasoning",
	},

	// OpenAI models
	"gpt-4o": {
		ID:          "openai/gpt-4o",
		Name:        "GPT-4o",
		Provider:    "OpenAI",
		Tier:        "Balanced",
		CostPer1K:   0.0025,
		MaxTokens:   128000,
		Description: "Fast multimodal model with vision",
	},
	"gpt-4o-mini": {
		ID:          "openai/gpt-4o-mini",
		Name:        "GPT-4o Mini",
		Provider:    "OpenAI",
		Tier:        "Fast",
		CostPer1K:   0.00015,
		MaxTokens:   128000,
		Description: "Cost-effective for simple tasks",
	},

	// Google models
	"gemini-flash": {
		ID:          "google/gemini-flash-1.5",
		Name:        "Gemini 1.5 Flash",
		Provider:    "Google",
		Tier:        "Fast",
		CostPer1K:   0.000075,
		MaxTokens:   1000000,
		Description: "Very long context at low cost",
	},
	"gemini-pro": {
		ID:          "google/gemini-pro-1.5",
		Name:        "Gemini 1.5 Pro",
		Provider:    "Google",
		Tier:        "Powerful",
		CostPer1K:   0.00125,
		MaxTokens:   2000000,
		Description: "Longest context window available",
	},

	// Meta models
	"llama-70b": {
		ID:          "meta-llama/llama-3.1-70b-instruct",
		Name:        "Llama 3.1 70B",
		Provider:    "Meta",
		Tier:        "Balanced",
		CostPer1K:   0.0004,
		MaxTokens:   131072,
		Description: "Strong open-weights generalist",
	},
	"llama-8b": {
		ID:          "meta-llama/llama-3.1-8b-instruct",
		Name:        "Llama 3.1 8B",
		Provider:    "Meta",
		Tier:        "Fast",
		CostPer1K:   0.00005,
		MaxTokens:   131072,
		Description: "Cheap and quick for light work",
	},
	"llama-8b-free": {
		ID:          "meta-llama/llama-3.1-8b-instruct:free",
		Name:        "Llama 3.1 8B (free)",
		Provider:    "Meta",
		Tier:        "Fast",
		CostPer1K:   0.0,
		MaxTokens:   131072,
		Description: "Rate-limited free variant",
	},

	// Mistral models
	"mistral-large": {
		ID:          "mistralai/mistral-large",
		Name:        "Mistral Large",
		Provider:    "Mistral",
		Tier:        "Powerful",
		CostPer1K:   0.003,
		MaxTokens:   128000,
		Description: "Mistral's flagship reasoning model",
	},
	"mistral-7b": {
		ID:          "mistralai/mistral-7b-instruct",
		Name:        "Mistral 7B",
		Provider:    "Mistral",
		Tier:        "Fast",
		CostPer1K:   0.00006,
		MaxTokens:   32768,
		Description: "Fast and efficient general purpose",
	},

	// Specialists
	"deepseek": {
		ID:          "deepseek/deepseek-chat",
		Name:        "DeepSeek Chat",
		Provider:    "DeepSeek",
		Tier:        "Balanced",
		CostPer1K:   0.00014,
		MaxTokens:   64000,
		Description: "Strong code understanding",
	},
	"qwen-coder": {
		ID:          "qwen/qwen-2.5-coder-32b-instruct",
		Name:        "Qwen 2.5 Coder 32B",
		Provider:    "Qwen",
		Tier:        "Balanced",
		CostPer1K:   0.00018,
		MaxTokens:   32768,
		Description: "Optimized for code generation",
	},
}

// =============================================================================
// MODEL INFO METHODS
// =============================================================================

// CapabilitiesString returns a comma-separated list of model capabilities.
// Infers capabilities from model properties like context size and tier.
func (m ModelInfo) CapabilitiesString() string {
	caps := []string{}

	// Context window capability
	if m.MaxTokens >= 100000 {
		caps = append(caps, "Long context")
	} else if m.MaxTokens >= 32000 {
		caps = append(caps, "Extended context")
	}

	// Speed/latency capability
	if m.Tier == "Fast" {
		caps = append(caps, "Low latency")
	}

	// Cost capability
	if m.CostPer1K == 0 {
		caps = append(caps, "Free")
	} else if m.CostPer1K < 0.001 {
		caps = append(caps, "Low cost")
	}

	// Code-focused models
	if strings.Contains(strings.ToLower(m.Name), "code") ||
		strings.Contains(strings.ToLower(m.ID), "coder") {
		caps = append(caps, "Code optimized")
	}

	// Reasoning capability
	if m.Tier == "Powerful" || m.Tier == "Balanced" {
		caps = append(caps, "Complex reasoning")
	}

	if len(caps) == 0 {
		return "General purpose"
	}

	return strings.Join(caps, ", ")
}

// TierIcon returns an icon character for the model tier.
func (m ModelInfo) TierIcon() string {
	switch m.Tier {
	case "Fast":
		return "z"
	case "Balanced":
		return "~"
	case "Powerful":
		return "&"
	default:
		return "?"
	}
}

// CostString returns a formatted cost string.
// Returns "Free" for free variants, otherwise shows cost per 1K tokens.
func (m ModelInfo) CostString() string {
	if m.CostPer1K == 0 {
		return "Free"
	}
	if m.CostPer1K < 0.001 {
		return fmt.Sprintf("$%.5f/1K", m.CostPer1K)
	}
	return fmt.Sprintf("$%.4f/1K", m.CostPer1K)
}

// ContextString returns a formatted context window string.
func (m ModelInfo) ContextString() string {
	if m.MaxTokens >= 1000000 {
		return fmt.Sprintf("%.1fM tokens", float64(m.MaxTokens)/1000000)
	}
	if m.MaxTokens >= 1000 {
		return fmt.Sprintf("%dK tokens", m.MaxTokens/1000)
	}
	return fmt.Sprintf("%d tokens", m.MaxTokens)
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// GetModelInfo looks up a model by short alias or full ID.
// Returns the ModelInfo and true if found, otherwise empty ModelInfo and false.
func GetModelInfo(nameOrID string) (ModelInfo, bool) {
	// Try direct lookup by short alias
	if info, ok := Models[nameOrID]; ok {
		return info, true
	}

	// Try lookup by full ID
	for _, info := range Models {
		if info.ID == nameOrID {
			return info, true
		}
	}

	// Try partial match on name or ID
	lowerName := strings.ToLower(nameOrID)
	for _, info := range Models {
		if strings.Contains(strings.ToLower(info.Name), lowerName) {
			return info, true
		}
		if strings.Contains(strings.ToLower(info.ID), lowerName) {
			return info, true
		}
	}

	return ModelInfo{}, false
}

// ResolveModelID expands a short alias to its full API model ID.
// Unknown names pass through unchanged so users can request any model the
// endpoint serves, not just registry entries.
func ResolveModelID(nameOrID string) string {
	if info, ok := Models[nameOrID]; ok {
		return info.ID
	}
	return nameOrID
}

// GetModelsByProvider returns all models from a specific provider.
func GetModelsByProvider(provider string) []ModelInfo {
	result := []ModelInfo{}
	lowerProvider := strings.ToLower(provider)

	for _, info := range Models {
		if strings.ToLower(info.Provider) == lowerProvider {
			result = append(result, info)
		}
	}

	return result
}

// GetModelsByTier returns all models of a specific tier.
func GetModelsByTier(tier string) []ModelInfo {
	result := []ModelInfo{}
	lowerTier := strings.ToLower(tier)

	for _, info := range Models {
		if strings.ToLower(info.Tier) == lowerTier {
			result = append(result, info)
		}
	}

	return result
}

// GetFreeModels returns all models with no per-token cost.
func GetFreeModels() []ModelInfo {
	result := []ModelInfo{}

	for _, info := range Models {
		if info.CostPer1K == 0 {
			result = append(result, info)
		}
	}

	return result
}

// ModelShortNames returns a sorted slice of all model short aliases.
func ModelShortNames() []string {
	names := make([]string, 0, len(Models))
	for name := range Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

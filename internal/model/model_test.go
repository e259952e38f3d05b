// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"
	"testing"
)

// =============================================================================
// MODEL INFO TESTS
// =============================================================================

func TestModelInfo_CapabilitiesString(t *testing.T) {
	tests := []struct {
		name     string
		model    ModelInfo
		contains []string
	}{
		{
			name:     "long context model",
			model:    ModelInfo{MaxTokens: 200000, Tier: "Balanced"},
			contains: []string{"Long context"},
		},
		{
			name:     "extended context model",
			model:    ModelInfo{MaxTokens: 64000, Tier: "Balanced"},
			contains: []string{"Extended context"},
		},
		{
			name:     "fast tier model",
			model:    ModelInfo{MaxTokens: 8000, Tier: "Fast"},
			contains: []string{"Low latency"},
		},
		{
			name:     "free variant",
			model:    ModelInfo{MaxTokens: 8000, CostPer1K: 0},
			contains: []string{"Free"},
		},
		{
			name:     "coder model",
			model:    ModelInfo{ID: "qwen/qwen-2.5-coder-32b-instruct", MaxTokens: 8000, CostPer1K: 0.0002},
			contains: []string{"Code optimized"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			caps := tc.model.CapabilitiesString()
			for _, want := range tc.contains {
				if !strings.Contains(caps, want) {
					t.Errorf("CapabilitiesString() = %q, want to contain %q", caps, want)
				}
			}
		})
	}
}

// =============================================================================
// MODEL REGISTRY TESTS
// =============================================================================

func TestModels_Registry(t *testing.T) {
	// Verify essential aliases are in the registry
	essentialModels := []string{"haiku", "sonnet", "opus", "gpt-4o", "gemini-flash", "llama-70b"}

	for _, id := range essentialModels {
		if _, ok := Models[id]; !ok {
			t.Errorf("Essential model %q missing from registry", id)
		}
	}
}

func TestModels_HaveRequiredFields(t *testing.T) {
	for id, model := range Models {
		t.Run(id, func(t *testing.T) {
			if model.ID == "" {
				t.Error("Model.ID should not be empty")
			}
			if !strings.Contains(model.ID, "/") {
				t.Errorf("Model.ID %q should be in provider/slug form", model.ID)
			}
			if model.Name == "" {
				t.Error("Model.Name should not be empty")
			}
			if model.Provider == "" {
				t.Error("Model.Provider should not be empty")
			}
			if model.MaxTokens <= 0 {
				t.Error("Model.MaxTokens should be positive")
			}
		})
	}
}

func TestModels_FreeVariantsAreMarked(t *testing.T) {
	for id, model := range Models {
		isFreeVariant := strings.HasSuffix(model.ID, ":free")
		if isFreeVariant && model.CostPer1K != 0 {
			t.Errorf("Free variant %q should have CostPer1K = 0, got %f", id, model.CostPer1K)
		}
		if !isFreeVariant && model.CostPer1K <= 0 {
			t.Errorf("Paid model %q should have positive CostPer1K, got %f", id, model.CostPer1K)
		}
	}
}

// =============================================================================
// LOOKUP TESTS
// =============================================================================

func TestGetModelInfo(t *testing.T) {
	// Test existing model by short alias
	model, ok := GetModelInfo("sonnet")
	if !ok {
		t.Error("GetModelInfo(sonnet) should return true")
	}
	if model.ID != "anthropic/claude-3.5-sonnet" {
		t.Errorf("GetModelInfo(sonnet).ID = %q, want 'anthropic/claude-3.5-sonnet'", model.ID)
	}

	// Test by full API ID
	model, ok = GetModelInfo("anthropic/claude-3.5-sonnet")
	if !ok {
		t.Error("GetModelInfo should find model by full ID")
	}
	if model.Provider != "Anthropic" {
		t.Error("Found model should be Anthropic")
	}

	// Test non-existent model
	_, ok = GetModelInfo("nonexistent-model-xyz")
	if ok {
		t.Error("GetModelInfo(nonexistent-model-xyz) should return false")
	}
}

func TestResolveModelID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sonnet", "anthropic/claude-3.5-sonnet"},
		{"gpt-4o-mini", "openai/gpt-4o-mini"},
		{"anthropic/claude-3.5-sonnet", "anthropic/claude-3.5-sonnet"},
		{"some-org/custom-model", "some-org/custom-model"},
	}

	for _, tc := range tests {
		if got := ResolveModelID(tc.in); got != tc.want {
			t.Errorf("ResolveModelID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetFreeModels(t *testing.T) {
	models := GetFreeModels()

	if len(models) == 0 {
		t.Fatal("Registry should contain at least one free model")
	}
	for _, m := range models {
		if m.CostPer1K != 0 {
			t.Errorf("GetFreeModels returned paid model: %s", m.Name)
		}
	}
}

func TestGetModelsByProvider(t *testing.T) {
	anthropicModels := GetModelsByProvider("Anthropic")
	if len(anthropicModels) == 0 {
		t.Error("Should have Anthropic models")
	}
	for _, m := range anthropicModels {
		if m.Provider != "Anthropic" {
			t.Errorf("GetModelsByProvider(Anthropic) returned %s model", m.Provider)
		}
	}

	googleModels := GetModelsByProvider("google")
	if len(googleModels) == 0 {
		t.Error("Provider lookup should be case-insensitive")
	}
}

func TestGetModelsByTier(t *testing.T) {
	fastModels := GetModelsByTier("Fast")
	for _, m := range fastModels {
		if m.Tier != "Fast" {
			t.Errorf("GetModelsByTier(Fast) returned %s tier model", m.Tier)
		}
	}

	balancedModels := GetModelsByTier("Balanced")
	if len(balancedModels) == 0 {
		t.Error("Should have Balanced tier models")
	}
}

func TestModelShortNames_Sorted(t *testing.T) {
	names := ModelShortNames()

	if len(names) != len(Models) {
		t.Errorf("ModelShortNames() len = %d, want %d", len(names), len(Models))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("ModelShortNames() should be sorted, got %v", names)
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/cadence/internal/model"
)

// =============================================================================
// CONVERSATION STORE TESTS
// =============================================================================

func TestNewConversationStoreWithDir(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewConversationStoreWithDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if store.BaseDir != tempDir {
		t.Errorf("BaseDir = %q, want %q", store.BaseDir, tempDir)
	}
	if store.MaxConversations != 100 {
		t.Errorf("MaxConversations = %d, want 100", store.MaxConversations)
	}
}

func TestConversationStore_SaveAndLoad(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	conv := &StoredConversation{
		Model:        "anthropic/claude-3.5-sonnet",
		SystemPrompt: "You are terse.",
		Messages: []StoredMessage{
			{ID: "msg1", Role: "user", Content: "Hello", Timestamp: time.Now()},
			{ID: "msg2", Role: "assistant", Content: "Hi there!", Timestamp: time.Now()},
		},
	}

	id, err := store.Save(conv)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id == "" {
		t.Error("Expected non-empty ID")
	}
	if !strings.HasPrefix(id, "conv_") {
		t.Errorf("ID should start with 'conv_', got %q", id)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.ID != id {
		t.Errorf("Loaded ID = %q, want %q", loaded.ID, id)
	}
	if loaded.Model != "anthropic/claude-3.5-sonnet" {
		t.Errorf("Loaded Model = %q", loaded.Model)
	}
	if loaded.SystemPrompt != "You are terse." {
		t.Errorf("Loaded SystemPrompt = %q", loaded.SystemPrompt)
	}
	if len(loaded.Messages) != 2 {
		t.Errorf("Loaded Messages count = %d, want 2", len(loaded.Messages))
	}
}

func TestConversationStore_SavePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("File permissions not meaningful on Windows")
	}

	store, _ := NewConversationStoreWithDir(t.TempDir())
	id, err := store.Save(&StoredConversation{
		Messages: []StoredMessage{{Role: "user", Content: "private"}},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(store.BaseDir, id+".json"))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Conversation file permissions = %o, want 0600", perm)
	}
}

func TestConversationStore_DeriveTitle(t *testing.T) {
	store, _ := NewConversationStoreWithDir(t.TempDir())

	conv := &StoredConversation{
		Messages: []StoredMessage{
			{Role: "system", Content: "You are helpful."},
			{Role: "user", Content: "This is a very long message that should be truncated\nto fifty characters maximum"},
		},
	}

	id, _ := store.Save(conv)
	loaded, _ := store.Load(id)

	if got := len([]rune(loaded.Title)); got > 50 {
		t.Errorf("Title should be truncated to 50 runes, got %d", got)
	}
	if !strings.HasSuffix(loaded.Title, "...") {
		t.Errorf("Truncated title should end with '...', got %q", loaded.Title)
	}
	if strings.Contains(loaded.Title, "\n") {
		t.Errorf("Title should not contain newlines, got %q", loaded.Title)
	}

	// No user messages at all.
	empty := &StoredConversation{
		Messages: []StoredMessage{{Role: "system", Content: "You are helpful."}},
	}
	emptyID, _ := store.Save(empty)
	loadedEmpty, _ := store.Load(emptyID)
	if loadedEmpty.Title != "New Conversation" {
		t.Errorf("Title = %q, want 'New Conversation'", loadedEmpty.Title)
	}
}

func TestConversationStore_LoadNotFound(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	_, err = store.Load("nonexistent-id")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("Expected ErrConversationNotFound, got %v", err)
	}
}

func TestConversationStore_RejectsTraversalIDs(t *testing.T) {
	store, _ := NewConversationStoreWithDir(t.TempDir())

	for _, id := range []string{"", "../escape", "a/b", `a\b`, "..", "conv_..x"} {
		if _, err := store.Load(id); !errors.Is(err, ErrConversationNotFound) {
			t.Errorf("Load(%q) should fail with ErrConversationNotFound, got %v", id, err)
		}
		if err := store.Delete(id); !errors.Is(err, ErrConversationNotFound) {
			t.Errorf("Delete(%q) should fail with ErrConversationNotFound, got %v", id, err)
		}
	}
}

func TestConversationStore_Delete(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	conv := &StoredConversation{
		Messages: []StoredMessage{{Role: "user", Content: "Test"}},
	}
	id, _ := store.Save(conv)

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Load(id); !errors.Is(err, ErrConversationNotFound) {
		t.Error("Conversation should not exist after delete")
	}

	if err := store.Delete("conv_0000000000000000"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("Expected ErrConversationNotFound, got %v", err)
	}
}

func TestConversationStore_List(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("Expected empty list, got %d items", len(metas))
	}

	for i := 0; i < 3; i++ {
		conv := &StoredConversation{
			Messages: []StoredMessage{
				{Role: "user", Content: "Message " + string(rune('A'+i))},
			},
		}
		store.Save(conv)
		time.Sleep(10 * time.Millisecond) // Ensure different timestamps
	}

	metas, err = store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 3 {
		t.Errorf("Expected 3 items, got %d", len(metas))
	}

	for i := 0; i < len(metas)-1; i++ {
		if metas[i].UpdatedAt.Before(metas[i+1].UpdatedAt) {
			t.Error("List should be sorted by most recent first")
		}
	}

	// Meta fields carry through.
	if metas[0].Preview == "" {
		t.Error("Meta preview should be populated from first user message")
	}
	if metas[0].MessageCount != 1 {
		t.Errorf("Meta MessageCount = %d, want 1", metas[0].MessageCount)
	}
}

func TestConversationStore_ListSkipsCorrupted(t *testing.T) {
	store, _ := NewConversationStoreWithDir(t.TempDir())

	store.Save(&StoredConversation{
		Messages: []StoredMessage{{Role: "user", Content: "good"}},
	})
	if err := os.WriteFile(filepath.Join(store.BaseDir, "conv_broken.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("Failed to plant corrupted file: %v", err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 1 {
		t.Errorf("Corrupted file should be skipped, got %d metas", len(metas))
	}
}

func TestConversationStore_MostRecent(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	var lastID string
	for i := 0; i < 3; i++ {
		conv := &StoredConversation{
			Messages: []StoredMessage{
				{Role: "user", Content: "Message " + string(rune('A'+i))},
			},
		}
		lastID, _ = store.Save(conv)
		time.Sleep(10 * time.Millisecond)
	}

	loaded, err := store.MostRecent()
	if err != nil {
		t.Fatalf("MostRecent failed: %v", err)
	}
	if loaded.ID != lastID {
		t.Error("MostRecent should return the last saved conversation")
	}

	_, err = store.LoadByIndex(100)
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("Expected ErrConversationNotFound for invalid index, got %v", err)
	}
}

func TestConversationStore_Search(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	store.Save(&StoredConversation{
		Title: "About Rust programming",
		Messages: []StoredMessage{
			{Role: "user", Content: "Tell me about Rust"},
		},
	})
	store.Save(&StoredConversation{
		Title: "About Go programming",
		Messages: []StoredMessage{
			{Role: "user", Content: "Tell me about Go"},
		},
	})

	results, err := store.Search("rust")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result for 'rust', got %d", len(results))
	}

	results, err = store.Search("programming")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 results for 'programming', got %d", len(results))
	}
}

func TestConversationStore_SearchMessages(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	store.Save(&StoredConversation{
		Messages: []StoredMessage{
			{Role: "user", Content: "How do I implement a binary tree?"},
			{Role: "assistant", Content: "Here's how to implement a binary tree..."},
		},
	})
	store.Save(&StoredConversation{
		Messages: []StoredMessage{
			{Role: "user", Content: "What is a hash map?"},
		},
	})

	results, err := store.SearchMessages("binary tree")
	if err != nil {
		t.Fatalf("SearchMessages failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}

	// Empty query lists everything.
	results, err = store.SearchMessages("")
	if err != nil {
		t.Fatalf("SearchMessages failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 results for empty query, got %d", len(results))
	}
}

func TestConversationStore_Clear(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	for i := 0; i < 3; i++ {
		store.Save(&StoredConversation{
			Messages: []StoredMessage{{Role: "user", Content: "Test"}},
		})
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	metas, _ := store.List()
	if len(metas) != 0 {
		t.Errorf("Expected empty store after Clear, got %d items", len(metas))
	}
}

func TestConversationStore_EnforceLimit(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	store.MaxConversations = 3

	for i := 0; i < 5; i++ {
		store.Save(&StoredConversation{
			Messages: []StoredMessage{{Role: "user", Content: "Test " + string(rune('A'+i))}},
		})
		time.Sleep(10 * time.Millisecond)
	}

	metas, _ := store.List()
	if len(metas) > 3 {
		t.Errorf("Expected at most 3 conversations, got %d", len(metas))
	}
}

// =============================================================================
// MODEL CONVERSION TESTS
// =============================================================================

func TestFromConversation(t *testing.T) {
	conv := model.NewConversationWithModel("anthropic/claude-3-haiku")
	conv.SystemPrompt = "You are terse."
	conv.AddUserMessage("What is Go?")
	reply := conv.AddAssistantMessage()
	reply.AppendToken("Go is ")
	reply.AppendToken("a language.")

	stats := model.NewStatistics()
	stats.RecordFirstToken()
	stats.Finalize(4)
	reply.FinalizeStream(stats)

	stored := FromConversation(conv)

	if stored.ID != conv.ID {
		t.Errorf("Stored ID = %q, want %q", stored.ID, conv.ID)
	}
	if stored.Model != "anthropic/claude-3-haiku" {
		t.Errorf("Stored Model = %q", stored.Model)
	}
	if stored.SystemPrompt != "You are terse." {
		t.Errorf("Stored SystemPrompt = %q", stored.SystemPrompt)
	}
	if len(stored.Messages) != 2 {
		t.Fatalf("Stored messages = %d, want 2", len(stored.Messages))
	}
	if stored.Messages[1].Content != "Go is a language." {
		t.Errorf("Assistant content = %q", stored.Messages[1].Content)
	}
	if stored.Messages[1].TokenCount != 4 {
		t.Errorf("Assistant TokenCount = %d, want 4", stored.Messages[1].TokenCount)
	}
}

func TestFromConversation_SnapshotsInFlightStream(t *testing.T) {
	conv := model.NewConversation()
	conv.AddUserMessage("hi")
	streaming := conv.AddAssistantMessage()
	streaming.AppendToken("partial answ")

	stored := FromConversation(conv)

	if len(stored.Messages) != 2 {
		t.Fatalf("Stored messages = %d, want 2", len(stored.Messages))
	}
	if stored.Messages[1].Content != "partial answ" {
		t.Errorf("In-flight content = %q, want the partial text", stored.Messages[1].Content)
	}
}

func TestToConversation_RoundTrip(t *testing.T) {
	conv := model.NewConversationWithModel("openai/gpt-4o")
	conv.SystemPrompt = "Be brief."
	conv.SetMaxTokens(64000)
	conv.AddUserMessage("Hello")
	reply := conv.AddAssistantMessage()
	reply.AppendToken("Hi!")
	reply.FinalizeStream(nil)

	rebuilt := FromConversation(conv).ToConversation()

	if rebuilt.ID != conv.ID {
		t.Errorf("Rebuilt ID = %q, want %q", rebuilt.ID, conv.ID)
	}
	if rebuilt.Model != conv.Model {
		t.Errorf("Rebuilt Model = %q, want %q", rebuilt.Model, conv.Model)
	}
	if rebuilt.MaxTokens != 64000 {
		t.Errorf("Rebuilt MaxTokens = %d, want 64000", rebuilt.MaxTokens)
	}
	if rebuilt.SystemPrompt != "Be brief." {
		t.Errorf("Rebuilt SystemPrompt = %q", rebuilt.SystemPrompt)
	}
	if rebuilt.MessageCount() != 2 {
		t.Fatalf("Rebuilt message count = %d, want 2", rebuilt.MessageCount())
	}
	if got := rebuilt.Messages[1].GetDisplayContent(); got != "Hi!" {
		t.Errorf("Rebuilt assistant content = %q", got)
	}
}

func TestToConversation_DropsUnknownRoles(t *testing.T) {
	stored := &StoredConversation{
		ID: "conv_test",
		Messages: []StoredMessage{
			{Role: "user", Content: "run the tool"},
			{Role: "tool", Content: "tool output from an old format"},
			{Role: "assistant", Content: "done"},
		},
	}

	conv := stored.ToConversation()
	if conv.MessageCount() != 2 {
		t.Errorf("Unknown roles should be dropped, got %d messages", conv.MessageCount())
	}
}

func TestToConversation_DefaultsMaxTokens(t *testing.T) {
	stored := &StoredConversation{ID: "conv_test"}
	conv := stored.ToConversation()
	if conv.MaxTokens <= 0 {
		t.Errorf("MaxTokens should fall back to the model default, got %d", conv.MaxTokens)
	}
}

// =============================================================================
// EXPORT TESTS
// =============================================================================

func TestStoredConversation_ExportMarkdown(t *testing.T) {
	conv := &StoredConversation{
		ID:        "conv_test123",
		Title:     "Learning Go",
		Model:     "anthropic/claude-3.5-sonnet",
		CreatedAt: time.Now(),
		Messages: []StoredMessage{
			{Role: "user", Content: "Hello", Timestamp: time.Now()},
			{Role: "assistant", Content: "Hi!", Timestamp: time.Now()},
		},
	}

	md := conv.ExportMarkdown()

	if !strings.Contains(md, "# Learning Go") {
		t.Error("Markdown should contain the title header")
	}
	if !strings.Contains(md, "Model: anthropic/claude-3.5-sonnet") {
		t.Error("Markdown should contain the model line")
	}
	if !strings.Contains(md, "**User**") {
		t.Error("Markdown should contain User role")
	}
	if !strings.Contains(md, "**Assistant**") {
		t.Error("Markdown should contain Assistant role")
	}
}

func TestStoredConversation_ExportMarkdownUntitled(t *testing.T) {
	conv := &StoredConversation{ID: "conv_abc"}
	md := conv.ExportMarkdown()
	if !strings.Contains(md, "# Conversation conv_abc") {
		t.Errorf("Untitled export should fall back to ID header, got %q", md)
	}
}

func TestStoredConversation_ExportJSON(t *testing.T) {
	conv := &StoredConversation{
		ID:    "conv_test123",
		Model: "test-model",
	}

	data, err := conv.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	if !strings.Contains(string(data), `"id": "conv_test123"`) {
		t.Error("JSON should contain conversation ID")
	}
}

func TestStoredConversation_GetPreview(t *testing.T) {
	conv := &StoredConversation{
		Messages: []StoredMessage{
			{Role: "system", Content: "You are a helpful assistant"},
			{Role: "user", Content: "What is Go?"},
		},
	}

	if preview := conv.GetPreview(); preview != "What is Go?" {
		t.Errorf("GetPreview should return first user message, got %q", preview)
	}
}

// =============================================================================
// LIST FORMATTING TESTS
// =============================================================================

func TestFormatConversationList(t *testing.T) {
	if result := FormatConversationList(nil); result != "No conversations found." {
		t.Errorf("Expected 'No conversations found.' for empty list, got %q", result)
	}

	metas := []ConversationMeta{
		{
			ID:           "conv_1234567890abcdef",
			Title:        "Learning Go",
			UpdatedAt:    time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC),
			MessageCount: 5,
		},
	}
	result := FormatConversationList(metas)

	if !strings.Contains(result, "conv_123456789") {
		t.Errorf("Result should contain truncated ID, got %q", result)
	}
	if !strings.Contains(result, "2025-03-14 15:09") {
		t.Errorf("Result should contain formatted timestamp, got %q", result)
	}
	if !strings.Contains(result, "Learning Go") {
		t.Errorf("Result should contain title, got %q", result)
	}
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestConversationError_Is(t *testing.T) {
	err1 := &ConversationError{Message: "test error"}
	err2 := &ConversationError{Message: "test error"}
	err3 := &ConversationError{Message: "different error"}

	if !errors.Is(err1, err2) {
		t.Error("Same message errors should match")
	}
	if errors.Is(err1, err3) {
		t.Error("Different message errors should not match")
	}
}

// =============================================================================
// UNICODE TESTS
// =============================================================================

func TestConversationStore_UnicodeContent(t *testing.T) {
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	conv := &StoredConversation{
		Title: "日本語のテスト",
		Messages: []StoredMessage{
			{Role: "user", Content: "こんにちは世界!"},
			{Role: "assistant", Content: "Hello! 你好! Bonjour!"},
		},
	}

	id, err := store.Save(conv)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Messages[0].Content != "こんにちは世界!" {
		t.Error("Unicode content should be preserved")
	}
	if loaded.Title != "日本語のテスト" {
		t.Error("Unicode title should be preserved")
	}
}

// =============================================================================
// BENCHMARK TESTS
// =============================================================================

func BenchmarkConversationStore_Save(b *testing.B) {
	store, err := NewConversationStoreWithDir(b.TempDir())
	if err != nil {
		b.Fatalf("Failed to create store: %v", err)
	}
	store.MaxConversations = 0

	conv := &StoredConversation{
		Messages: []StoredMessage{
			{Role: "user", Content: strings.Repeat("benchmark content ", 50)},
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		conv.ID = "" // Force a fresh file each save
		if _, err := store.Save(conv); err != nil {
			b.Fatal(err)
		}
	}
}

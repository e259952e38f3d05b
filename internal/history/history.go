// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides full-text search over saved conversations.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/cadence/internal/config"
	"github.com/jeranaias/cadence/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotIndexed    = errors.New("history not indexed")
	ErrIndexing      = errors.New("indexing in progress")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// HISTORY INDEX
// =============================================================================

// Index maintains a SQLite search index over saved conversation files.
// The conversation store remains the source of truth; the index is derived
// and can be rebuilt at any time with Reindex.
type Index struct {
	db      *sql.DB
	watcher FileWatcher // Interface for file watching (fsnotify or polling)
	dir     string      // Conversations directory being indexed
	mu      sync.RWMutex

	// Indexing state
	indexing    bool
	indexingMu  sync.Mutex
	lastIndexed time.Time
	convCount   int
	msgCount    int

	// Configuration
	config *Config
}

// Config holds history index configuration
type Config struct {
	// ConversationsDir is the directory of saved conversation files
	ConversationsDir string

	// DatabasePath is where to store the SQLite database
	DatabasePath string

	// EnableWatch keeps the index fresh as conversation files change
	EnableWatch bool

	// WatchDebounce is the debounce duration for file change events
	WatchDebounce time.Duration

	// PollInterval is the scan interval for the polling fallback watcher
	PollInterval time.Duration
}

// DefaultConfig returns the standard configuration rooted in the cadence
// config directory (~/.cadence).
func DefaultConfig() (*Config, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		ConversationsDir: filepath.Join(dir, "conversations"),
		DatabasePath:     filepath.Join(dir, "history.db"),
		EnableWatch:      true,
		WatchDebounce:    500 * time.Millisecond,
		PollInterval:     5 * time.Second,
	}, nil
}

// NewIndex opens the history database described by cfg, creating it if
// needed. A nil cfg uses DefaultConfig.
func NewIndex(cfg *Config) (*Index, error) {
	if cfg == nil {
		var err error
		cfg, err = DefaultConfig()
		if err != nil {
			return nil, err
		}
	}

	// The conversations directory may not exist before the first save.
	if err := os.MkdirAll(cfg.ConversationsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for SQLite
	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // No lifetime limit

	// Configure SQLite for better performance
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",       // 64MB cache
		"PRAGMA temp_store=MEMORY",
		"PRAGMA mmap_size=268435456",     // 256MB mmap
		"PRAGMA foreign_keys=ON",         // Enable foreign key constraints
		"PRAGMA wal_autocheckpoint=1000", // Checkpoint every 1000 pages
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	idx := &Index{
		db:     db,
		dir:    cfg.ConversationsDir,
		config: cfg,
	}

	// Initialize schema
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Load statistics
	if err := idx.loadStats(); err != nil {
		// Non-fatal, continue
	}

	return idx, nil
}

// initSchema creates the database schema
func (idx *Index) initSchema() error {
	if _, err := idx.db.Exec(Schema); err != nil {
		return err
	}

	if _, err := idx.db.Exec(InitMetadata); err != nil {
		return err
	}

	_, err := idx.db.Exec("UPDATE metadata SET value = ? WHERE key = 'conversations_dir'", idx.dir)
	return err
}

// Close closes the index and releases resources
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.watcher != nil {
		idx.watcher.Close()
	}

	if idx.db != nil {
		return idx.db.Close()
	}

	return nil
}

// =============================================================================
// INDEXING
// =============================================================================

// Reindex rebuilds the index from every conversation file on disk.
func (idx *Index) Reindex(ctx context.Context) error {
	idx.indexingMu.Lock()
	if idx.indexing {
		idx.indexingMu.Unlock()
		return ErrIndexing
	}
	idx.indexing = true
	idx.indexingMu.Unlock()

	defer func() {
		idx.indexingMu.Lock()
		idx.indexing = false
		idx.indexingMu.Unlock()
	}()

	startTime := time.Now()

	// Begin transaction
	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	// Clear existing data. Messages first so the FTS sync triggers fire
	// for every row.
	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM conversations"); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}

	entries, err := os.ReadDir(idx.dir)
	if err != nil {
		return fmt.Errorf("failed to read conversations directory: %w", err)
	}

	var convCount, msgCount int
	for _, entry := range entries {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if entry.IsDir() || !isConversationFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		n, err := idx.indexConversation(tx, filepath.Join(idx.dir, entry.Name()), info)
		if err != nil {
			// Skip unreadable or corrupted files
			continue
		}

		convCount++
		msgCount += n
	}

	// Update metadata
	now := time.Now().Unix()
	if _, err := tx.Exec("UPDATE metadata SET value = ? WHERE key = 'last_full_index'", now); err != nil {
		return err
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Update statistics with proper mutex protection
	idx.mu.Lock()
	idx.lastIndexed = startTime
	idx.convCount = convCount
	idx.msgCount = msgCount
	shouldWatch := idx.config.EnableWatch && idx.watcher == nil
	idx.mu.Unlock()

	// Start file watcher if enabled
	if shouldWatch {
		if err := idx.startWatcher(); err != nil {
			// Non-fatal, continue
		}
	}

	return nil
}

// indexConversation indexes a single conversation file and returns the
// number of messages indexed.
func (idx *Index) indexConversation(tx *sql.Tx, path string, info os.FileInfo) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var conv storage.StoredConversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return 0, err
	}

	convID := conv.ID
	if convID == "" {
		convID = conversationID(path)
	}

	result, err := tx.Exec(`
		INSERT INTO conversations (conv_id, title, model, created_at, updated_at, message_count, mod_time, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, convID, norm.NFC.String(conv.Title), conv.Model,
		conv.CreatedAt.Unix(), conv.UpdatedAt.Unix(),
		len(conv.Messages), info.ModTime().Unix(), time.Now().Unix())
	if err != nil {
		return 0, err
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, msg := range conv.Messages {
		content := norm.NFC.String(msg.Content)
		if strings.TrimSpace(content) == "" {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO messages (conversation_id, role, content, timestamp)
			VALUES (?, ?, ?, ?)
		`, rowID, msg.Role, content, msg.Timestamp.Unix()); err != nil {
			return 0, err
		}
		indexed++
	}

	return indexed, nil
}

// =============================================================================
// INCREMENTAL UPDATES
// =============================================================================

// conversationID derives the conversation ID from a file path.
func conversationID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".json")
}

// isConversationFile reports whether a name refers to a conversation file.
// Atomic saves write a hidden temp file and rename it into place, so only
// .json names count.
func isConversationFile(name string) bool {
	return strings.HasSuffix(name, ".json")
}

// reindexFile refreshes a single conversation file in the index. Used by
// the file watchers for incremental updates.
func (idx *Index) reindexFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		// File is gone, drop it from the index
		return idx.removeFile(path)
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	// Delete any previous rows for this conversation, messages first so
	// the FTS sync triggers fire per row.
	var rowID int64
	if err := tx.QueryRow("SELECT id FROM conversations WHERE conv_id = ?", conversationID(path)).Scan(&rowID); err == nil {
		if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", rowID); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM conversations WHERE id = ?", rowID); err != nil {
			return err
		}
	}

	if _, err := idx.indexConversation(tx, path, info); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	idx.refreshCounts()
	return nil
}

// removeFile drops a deleted conversation file from the index.
func (idx *Index) removeFile(path string) error {
	var rowID int64
	if err := idx.db.QueryRow("SELECT id FROM conversations WHERE conv_id = ?", conversationID(path)).Scan(&rowID); err != nil {
		return nil // Not indexed
	}

	if _, err := idx.db.Exec("DELETE FROM messages WHERE conversation_id = ?", rowID); err != nil {
		return err
	}
	if _, err := idx.db.Exec("DELETE FROM conversations WHERE id = ?", rowID); err != nil {
		return err
	}

	idx.refreshCounts()
	return nil
}

// refreshCounts re-reads row counts after an incremental update.
func (idx *Index) refreshCounts() {
	var convCount, msgCount int
	if err := idx.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&convCount); err != nil {
		return
	}
	if err := idx.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&msgCount); err != nil {
		return
	}

	idx.mu.Lock()
	idx.convCount = convCount
	idx.msgCount = msgCount
	idx.mu.Unlock()
}

// loadStats loads statistics from the database
func (idx *Index) loadStats() error {
	var lastIndexed int64
	err := idx.db.QueryRow("SELECT value FROM metadata WHERE key = 'last_full_index'").Scan(&lastIndexed)
	if err != nil {
		return err
	}

	if lastIndexed > 0 {
		idx.lastIndexed = time.Unix(lastIndexed, 0)
	}

	// Count conversations
	err = idx.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&idx.convCount)
	if err != nil {
		return err
	}

	// Count messages
	err = idx.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&idx.msgCount)
	if err != nil {
		return err
	}

	return nil
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats reports index statistics
type Stats struct {
	Conversations int
	Messages      int
	LastIndexed   time.Time
	IsIndexing    bool
	DatabaseSize  int64
}

// Stats returns current index statistics
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	idx.indexingMu.Lock()
	indexing := idx.indexing
	idx.indexingMu.Unlock()

	// Get database file size
	var dbSize int64
	if info, err := os.Stat(idx.config.DatabasePath); err == nil {
		dbSize = info.Size()
	}

	return Stats{
		Conversations: idx.convCount,
		Messages:      idx.msgCount,
		LastIndexed:   idx.lastIndexed,
		IsIndexing:    indexing,
		DatabaseSize:  dbSize,
	}
}

// IsIndexed returns true if a full index has completed
func (idx *Index) IsIndexed() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return !idx.lastIndexed.IsZero()
}

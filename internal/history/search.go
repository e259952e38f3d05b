// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides full-text search over saved conversations.
package history

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/cadence/internal/util"
)

// =============================================================================
// SEARCH RESULT
// =============================================================================

// SearchResult is a single message hit from a history search
type SearchResult struct {
	ConversationID string
	Title          string
	Role           string
	Snippet        string
	Timestamp      time.Time // When the matched message was sent
	UpdatedAt      time.Time // When the conversation last changed
	Rank           float64   // Search relevance rank (lower is better)
}

// SearchOptions configures search behavior
type SearchOptions struct {
	// MaxResults limits the number of results (0 = unlimited)
	MaxResults int

	// Roles filters by message role (empty = all roles)
	Roles []string

	// SnippetRadius is the number of runes of context kept on each side
	// of the first matched term
	SnippetRadius int
}

// DefaultSearchOptions returns default search options
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		MaxResults:    20,
		Roles:         []string{},
		SnippetRadius: defaultSnippetRadius,
	}
}

// =============================================================================
// SEARCH METHODS
// =============================================================================

// Search finds messages matching the query using full-text search. Bare
// terms match as prefixes, so "deplo" finds "deployment". Queries that
// FTS5 cannot parse fall back to a substring scan.
func (idx *Index) Search(query string, options *SearchOptions) ([]SearchResult, error) {
	if !idx.IsIndexed() {
		return nil, ErrNotIndexed
	}

	if options == nil {
		options = DefaultSearchOptions()
	}

	// Queries normalize the same way content does at index time
	query = norm.NFC.String(query)

	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		// Empty query not allowed for FTS search
		return []SearchResult{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	sqlQuery := `
		SELECT c.conv_id, c.title, c.updated_at, m.role, m.content, m.timestamp, fts.rank
		FROM messages_fts fts
		JOIN messages m ON m.id = fts.rowid
		JOIN conversations c ON c.id = m.conversation_id
		WHERE messages_fts MATCH ?
	`

	var args []interface{}
	args = append(args, ftsQuery)

	conditions, condArgs := roleConditions(options)
	args = append(args, condArgs...)
	if len(conditions) > 0 {
		sqlQuery += " AND " + strings.Join(conditions, " AND ")
	}

	// bm25 rank is negative, so ascending order puts the best match first
	sqlQuery += " ORDER BY fts.rank"

	if options.MaxResults > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, options.MaxResults)
	}

	rows, err := idx.db.Query(sqlQuery, args...)
	if err != nil {
		return idx.searchLike(query, options)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var result SearchResult
		var content string
		var updatedAt, timestamp int64

		err := rows.Scan(
			&result.ConversationID,
			&result.Title,
			&updatedAt,
			&result.Role,
			&content,
			&timestamp,
			&result.Rank,
		)
		if err != nil {
			continue
		}

		result.UpdatedAt = time.Unix(updatedAt, 0)
		result.Timestamp = time.Unix(timestamp, 0)
		result.Snippet = makeSnippet(content, query, options.SnippetRadius)

		results = append(results, result)
	}

	// FTS5 parses the MATCH expression during row iteration, so a
	// malformed query surfaces here rather than at Query time.
	if err := rows.Err(); err != nil {
		return idx.searchLike(query, options)
	}

	return results, nil
}

// searchLike scans message content with a LIKE pattern. Fallback for
// queries FTS5 cannot parse. Caller holds the read lock.
func (idx *Index) searchLike(query string, options *SearchOptions) ([]SearchResult, error) {
	sqlQuery := `
		SELECT c.conv_id, c.title, c.updated_at, m.role, m.content, m.timestamp
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.content LIKE ? ESCAPE '\'
	`

	var args []interface{}
	args = append(args, "%"+escapeLike(query)+"%")

	conditions, condArgs := roleConditions(options)
	args = append(args, condArgs...)
	if len(conditions) > 0 {
		sqlQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sqlQuery += " ORDER BY c.updated_at DESC"

	if options.MaxResults > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, options.MaxResults)
	}

	rows, err := idx.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var result SearchResult
		var content string
		var updatedAt, timestamp int64

		err := rows.Scan(
			&result.ConversationID,
			&result.Title,
			&updatedAt,
			&result.Role,
			&content,
			&timestamp,
		)
		if err != nil {
			continue
		}

		result.UpdatedAt = time.Unix(updatedAt, 0)
		result.Timestamp = time.Unix(timestamp, 0)
		result.Snippet = makeSnippet(content, query, options.SnippetRadius)

		results = append(results, result)
	}

	return results, nil
}

// roleConditions builds SQL filter clauses from search options
func roleConditions(options *SearchOptions) ([]string, []interface{}) {
	if len(options.Roles) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(options.Roles))
	args := make([]interface{}, 0, len(options.Roles))
	for i, role := range options.Roles {
		placeholders[i] = "?"
		args = append(args, role)
	}

	return []string{"m.role IN (" + strings.Join(placeholders, ",") + ")"}, args
}

// =============================================================================
// CONVERSATION LOOKUPS
// =============================================================================

// ConversationInfo summarizes one indexed conversation
type ConversationInfo struct {
	ConversationID string
	Title          string
	Model          string
	UpdatedAt      time.Time
	MessageCount   int
}

// SearchTitles finds conversations whose title starts with the given text.
func (idx *Index) SearchTitles(title string, limit int) ([]ConversationInfo, error) {
	if !idx.IsIndexed() {
		return nil, ErrNotIndexed
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	title = norm.NFC.String(title)

	sqlQuery := `
		SELECT conv_id, title, model, updated_at, message_count
		FROM conversations
		WHERE title LIKE ? ESCAPE '\'
		ORDER BY updated_at DESC
	`

	args := []interface{}{escapeLike(title) + "%"}
	if limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	return idx.queryConversations(sqlQuery, args...)
}

// IndexedConversations returns every indexed conversation, most recent
// first.
func (idx *Index) IndexedConversations() ([]ConversationInfo, error) {
	if !idx.IsIndexed() {
		return nil, ErrNotIndexed
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.queryConversations(`
		SELECT conv_id, title, model, updated_at, message_count
		FROM conversations
		ORDER BY updated_at DESC
	`)
}

// queryConversations runs a conversation-shaped query. Caller holds the
// read lock.
func (idx *Index) queryConversations(sqlQuery string, args ...interface{}) ([]ConversationInfo, error) {
	rows, err := idx.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var infos []ConversationInfo
	for rows.Next() {
		var info ConversationInfo
		var updatedAt int64

		if err := rows.Scan(&info.ConversationID, &info.Title, &info.Model, &updatedAt, &info.MessageCount); err != nil {
			continue
		}

		info.UpdatedAt = time.Unix(updatedAt, 0)
		infos = append(infos, info)
	}

	return infos, nil
}

// RoleStats returns indexed message counts by role
func (idx *Index) RoleStats() (map[string]int, error) {
	if !idx.IsIndexed() {
		return nil, ErrNotIndexed
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`
		SELECT role, COUNT(*) as count
		FROM messages
		GROUP BY role
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err == nil {
			stats[role] = count
		}
	}

	return stats, nil
}

// =============================================================================
// QUERY CONSTRUCTION
// =============================================================================

// buildFTSQuery converts user input into an FTS5 MATCH expression. Every
// term is double-quoted so FTS5 operator characters in user text match
// literally, and the final term carries a prefix star so partial words
// still hit.
func buildFTSQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	quoted[len(quoted)-1] += "*"

	return strings.Join(quoted, " ")
}

// escapeLike escapes LIKE wildcards so user text matches literally
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// =============================================================================
// SNIPPETS
// =============================================================================

const defaultSnippetRadius = 40

// makeSnippet extracts a window of context around the first occurrence of
// any query term, collapsed to a single line.
func makeSnippet(content, query string, radius int) string {
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return ""
	}
	if radius <= 0 {
		radius = defaultSnippetRadius
	}

	lower := strings.ToLower(content)
	pos := -1
	termRunes := 0
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if i := strings.Index(lower, term); i >= 0 && (pos < 0 || i < pos) {
			pos = i
			termRunes = utf8.RuneCountInString(term)
		}
	}

	// Stemmed matches may not contain the literal term, show the head
	if pos < 0 {
		return util.TruncateRunes(content, 2*radius)
	}

	hit := utf8.RuneCountInString(lower[:pos])
	start := hit - radius
	end := hit + termRunes + radius

	snippet := util.SafeSubstring(content, start, end)
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < util.RuneLen(content) {
		snippet += "..."
	}
	return snippet
}

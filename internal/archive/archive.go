// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archive maintains a local SQLite mirror of backend-confirmed
// conversations. The mirror is write-through only: live state always comes
// from the backend, and the archive exists for offline history browsing,
// search, and export. Losing or deleting it loses nothing the backend
// still holds.
package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/gemstudio-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound      = errors.New("conversation not in archive")
	ErrDatabaseError = errors.New("archive database error")
)

// =============================================================================
// ARCHIVE
// =============================================================================

// Archive is the write-through conversation mirror.
type Archive struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	mirrored_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	idx             INTEGER NOT NULL,
	role            TEXT NOT NULL,
	text            TEXT NOT NULL,
	thinking        TEXT NOT NULL,
	payload         TEXT NOT NULL,
	PRIMARY KEY (conversation_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
`

// Open opens (creating if needed) the archive database at path.
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the archive database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// =============================================================================
// WRITE PATH
// =============================================================================

// Mirror replaces the archived copy of a conversation with the given
// backend-confirmed state. Intended as a store commit hook.
func (a *Archive) Mirror(conv *model.Conversation) error {
	if conv == nil || conv.ID == "" {
		return nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO conversations (id, title, created_at, updated_at, mirrored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			mirrored_at = excluded.mirrored_at`,
		conv.ID, conv.Title,
		conv.CreatedAt.UTC().Format(time.RFC3339),
		conv.UpdatedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	// Message edits and deletions reshape history, so replace wholesale.
	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (conversation_id, idx, role, text, thinking, payload)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer stmt.Close()

	for i, msg := range conv.Messages {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message %d: %w", i, err)
		}
		if _, err := stmt.Exec(conv.ID, i, string(msg.Role), msg.Text, msg.Thinking, string(payload)); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	return tx.Commit()
}

// Forget drops a conversation from the archive. Missing rows no-op.
func (a *Archive) Forget(id string) error {
	if _, err := a.db.Exec(`DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// =============================================================================
// READ PATH
// =============================================================================

// Summary is a conversation listing row.
type Summary struct {
	ID           string
	Title        string
	MessageCount int
	UpdatedAt    time.Time
}

// List returns archived conversation summaries, most recently updated first.
func (a *Archive) List() ([]Summary, error) {
	rows, err := a.db.Query(`
		SELECT c.id, c.title, c.updated_at, COUNT(m.idx)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var updated string
		if err := rows.Scan(&s.ID, &s.Title, &updated, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		s.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get reconstructs an archived conversation, messages in order.
func (a *Archive) Get(id string) (*model.Conversation, error) {
	conv := &model.Conversation{ID: id}

	var created, updated string
	err := a.db.QueryRow(`
		SELECT title, created_at, updated_at FROM conversations WHERE id = ?`, id).
		Scan(&conv.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	conv.CreatedAt, _ = time.Parse(time.RFC3339, created)
	conv.UpdatedAt, _ = time.Parse(time.RFC3339, updated)

	rows, err := a.db.Query(`
		SELECT payload FROM messages WHERE conversation_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		var msg model.Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode archived message: %w", err)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv, rows.Err()
}

// =============================================================================
// SEARCH
// =============================================================================

// Hit is a single search result.
type Hit struct {
	ConversationID string
	Title          string
	MessageIndex   int
	Role           model.Role
	Snippet        string
}

// snippetRadius is how many characters of context surround a match.
const snippetRadius = 40

// Search finds archived messages containing the query, case-insensitive.
func (a *Archive) Search(query string) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := a.db.Query(`
		SELECT m.conversation_id, c.title, m.idx, m.role, m.text
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.text LIKE ? ESCAPE '\' COLLATE NOCASE
		ORDER BY c.updated_at DESC, m.idx`, pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var role, text string
		if err := rows.Scan(&h.ConversationID, &h.Title, &h.MessageIndex, &role, &text); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		h.Role = model.Role(role)
		h.Snippet = snippet(text, query)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// snippet extracts the text around the first match of query.
func snippet(text, query string) string {
	lower := strings.ToLower(text)
	pos := strings.Index(lower, strings.ToLower(query))
	if pos < 0 {
		pos = 0
	}

	start := pos - snippetRadius
	if start < 0 {
		start = 0
	}
	end := pos + len(query) + snippetRadius
	if end > len(text) {
		end = len(text)
	}

	// Back off to rune boundaries.
	for start > 0 && !isRuneStart(text[start]) {
		start--
	}
	for end < len(text) && !isRuneStart(text[end]) {
		end++
	}

	out := text[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return strings.ReplaceAll(out, "\n", " ")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Package store is the persistent backing store: a sqlite database holding
// imported messages, recorded fork trees, annotations and source labels.
// Queries return JSON-shaped payloads; ranked text matching is delegated to
// the FTS5 index. The reconstruction engine never writes here; only the
// importer does.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tapestry-tools/tapestry/internal/models"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (also failed to close connection: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	-- One row per configured import source (an export file batch)
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Messages are the unit of import; uid is the global identity
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uid TEXT UNIQUE NOT NULL,
		conv_id TEXT NOT NULL,
		message_id TEXT NOT NULL,
		source_id TEXT,
		vendor TEXT NOT NULL CHECK(vendor IN ('claude', 'chatgpt', 'gemini', 'copilot')),
		role TEXT NOT NULL CHECK(role IN ('user', 'assistant', 'tool', 'system')),
		created_at INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		folder_path TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_messages_uid ON messages(uid);
	CREATE INDEX IF NOT EXISTS idx_messages_conv_id ON messages(conv_id);
	CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_source_id ON messages(source_id);

	-- Fork structure, recorded only for conversations whose export carried it
	CREATE TABLE IF NOT EXISTS tree_nodes (
		id TEXT PRIMARY KEY,
		conv_id TEXT NOT NULL,
		message_id TEXT NOT NULL,
		parent_id TEXT,
		children_ids TEXT NOT NULL DEFAULT '[]',
		depth INTEGER NOT NULL DEFAULT 0,
		is_root INTEGER NOT NULL DEFAULT 0,
		is_branch_point INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_tree_nodes_conv_id ON tree_nodes(conv_id);

	-- Optional annotation side-table keyed by conversation id
	CREATE TABLE IF NOT EXISTS annotations (
		conv_id TEXT PRIMARY KEY,
		outlier_count INTEGER NOT NULL DEFAULT 0
	);

	-- Full-text index over message bodies
	CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
		text,
		content=messages,
		content_rowid=id,
		tokenize='porter unicode61'
	);

	CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
		INSERT INTO messages_fts(rowid, text) VALUES (new.id, new.text);
	END;

	CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
		INSERT INTO messages_fts(messages_fts, rowid, text) VALUES ('delete', old.id, old.text);
	END;

	CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
		INSERT INTO messages_fts(messages_fts, rowid, text) VALUES ('delete', old.id, old.text);
		INSERT INTO messages_fts(rowid, text) VALUES (new.id, new.text);
	END;

	-- Import tracking
	CREATE TABLE IF NOT EXISTS import_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		messages_count INTEGER,
		status TEXT NOT NULL CHECK(status IN ('success', 'partial', 'failed')),
		error_message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_import_history_file_hash ON import_history(file_hash);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Begin starts a new transaction.
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// QueryRows executes a query that returns rows.
func (db *DB) QueryRows(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns a single row.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

const messageColumns = `m.uid, m.conv_id, m.message_id, COALESCE(m.source_id, ''), m.vendor, m.role, m.created_at, m.text, m.title, m.folder_path`

func scanMessage(rows *sql.Rows, extra ...any) (models.Message, error) {
	var m models.Message
	dest := []any{
		&m.UID, &m.ConversationID, &m.MessageID, &m.SourceID,
		&m.Vendor, &m.Role, &m.CreatedAt, &m.Text, &m.Title, &m.FolderPath,
	}
	dest = append(dest, extra...)
	if err := rows.Scan(dest...); err != nil {
		return models.Message{}, fmt.Errorf("failed to scan message: %w", err)
	}
	return m, nil
}

// Query implements the engine's store contract. An empty query returns the
// whole message set; a non-empty query runs an FTS match and attaches a
// relevance rank per uid (higher is better).
func (db *DB) Query(query string) (*models.StorePayload, error) {
	payload := &models.StorePayload{Schema: "v1"}

	if query == "" {
		rows, err := db.conn.Query(`SELECT ` + messageColumns + ` FROM messages m ORDER BY m.id`)
		if err != nil {
			return nil, fmt.Errorf("failed to query messages: %w", err)
		}
		defer closeRows(rows)

		for rows.Next() {
			m, err := scanMessage(rows)
			if err != nil {
				return nil, err
			}
			payload.Messages = append(payload.Messages, m)
		}
		return payload, rows.Err()
	}

	// FTS5 rank is more negative for better matches; negate so callers
	// sort descending.
	rows, err := db.conn.Query(`
		SELECT `+messageColumns+`, -rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.id
		WHERE messages_fts MATCH ?
		ORDER BY rank
	`, ftsQuery(query))
	if err != nil {
		// Invalid FTS syntax degrades to an unranked full payload; the
		// engine will match locally instead.
		return db.Query("")
	}
	defer closeRows(rows)

	payload.Ranks = make(map[string]float64)
	for rows.Next() {
		var rank float64
		m, err := scanMessage(rows, &rank)
		if err != nil {
			return nil, err
		}
		payload.Messages = append(payload.Messages, m)
		payload.Ranks[m.UID] = rank
	}
	return payload, rows.Err()
}

// ConversationPayload returns one conversation's messages plus any recorded
// tree nodes.
func (db *DB) ConversationPayload(convID string) (*models.StorePayload, error) {
	payload := &models.StorePayload{Schema: "v1"}

	rows, err := db.conn.Query(`
		SELECT `+messageColumns+`
		FROM messages m
		WHERE m.conv_id = ?
		ORDER BY m.created_at ASC, m.id ASC
	`, convID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		payload.Messages = append(payload.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	nodes, err := db.TreeNodes(convID)
	if err != nil {
		return nil, err
	}
	payload.Nodes = nodes
	payload.HasTree = len(nodes) > 0

	return payload, nil
}

// TreeNodes returns the recorded fork structure for one conversation.
// children_ids is stored JSON-encoded and normalized on the way out.
func (db *DB) TreeNodes(convID string) ([]models.TreeNode, error) {
	rows, err := db.conn.Query(`
		SELECT id, conv_id, message_id, COALESCE(parent_id, ''), children_ids, depth, is_root, is_branch_point
		FROM tree_nodes
		WHERE conv_id = ?
		ORDER BY depth ASC, id ASC
	`, convID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tree nodes: %w", err)
	}
	defer closeRows(rows)

	var nodes []models.TreeNode
	for rows.Next() {
		var n models.TreeNode
		var children string
		err := rows.Scan(&n.ID, &n.ConversationID, &n.MessageID, &n.ParentID, &children, &n.Depth, &n.IsRoot, &n.IsBranchPoint)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tree node: %w", err)
		}
		_ = n.ChildrenIDs.UnmarshalJSON([]byte(children))
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// SourceLabels maps source ids to their batch labels.
func (db *DB) SourceLabels() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, label FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer closeRows(rows)

	labels := make(map[string]string)
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, err
		}
		labels[id] = label
	}
	return labels, rows.Err()
}

// Annotations returns the optional per-conversation annotation rows.
func (db *DB) Annotations() (map[string]models.Annotation, error) {
	rows, err := db.conn.Query(`SELECT conv_id, outlier_count FROM annotations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer closeRows(rows)

	annotations := make(map[string]models.Annotation)
	for rows.Next() {
		var a models.Annotation
		if err := rows.Scan(&a.ConvID, &a.OutlierCount); err != nil {
			return nil, err
		}
		annotations[a.ConvID] = a
	}
	return annotations, rows.Err()
}

// Stats returns database-level counters for the stats command.
func (db *DB) Stats() (map[string]int, error) {
	stats := make(map[string]int)
	counts := map[string]string{
		"messages":      "SELECT COUNT(*) FROM messages",
		"conversations": "SELECT COUNT(DISTINCT conv_id) FROM messages",
		"tree_nodes":    "SELECT COUNT(*) FROM tree_nodes",
		"sources":       "SELECT COUNT(*) FROM sources",
	}
	for key, q := range counts {
		var n int
		if err := db.conn.QueryRow(q).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", key, err)
		}
		stats[key] = n
	}
	return stats, nil
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}

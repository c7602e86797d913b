package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tapestry-tools/tapestry/internal/models"
)

// UpsertSource registers an import source id with its batch label.
func (db *DB) UpsertSource(id, label string) error {
	_, err := db.conn.Exec(`
		INSERT INTO sources (id, label) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET label = excluded.label
	`, id, label)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}
	return nil
}

// InsertMessage writes one message inside tx. Re-imported uids overwrite
// the stored row, matching the last-occurrence-wins policy end to end.
func (db *DB) InsertMessage(tx *sql.Tx, m models.Message) error {
	_, err := tx.Exec(`
		INSERT INTO messages (uid, conv_id, message_id, source_id, vendor, role, created_at, text, title, folder_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			conv_id = excluded.conv_id,
			message_id = excluded.message_id,
			source_id = excluded.source_id,
			vendor = excluded.vendor,
			role = excluded.role,
			created_at = excluded.created_at,
			text = excluded.text,
			title = excluded.title,
			folder_path = excluded.folder_path
	`, m.UID, m.ConversationID, m.MessageID, m.SourceID, m.Vendor, m.Role, m.CreatedAt, m.Text, m.Title, m.FolderPath)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// InsertTreeNode writes one fork-structure node inside tx.
func (db *DB) InsertTreeNode(tx *sql.Tx, n models.TreeNode) error {
	children, err := json.Marshal([]string(n.ChildrenIDs))
	if err != nil {
		children = []byte("[]")
	}
	_, err = tx.Exec(`
		INSERT INTO tree_nodes (id, conv_id, message_id, parent_id, children_ids, depth, is_root, is_branch_point)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			conv_id = excluded.conv_id,
			message_id = excluded.message_id,
			parent_id = excluded.parent_id,
			children_ids = excluded.children_ids,
			depth = excluded.depth,
			is_root = excluded.is_root,
			is_branch_point = excluded.is_branch_point
	`, n.ID, n.ConversationID, n.MessageID, nullable(n.ParentID), string(children), n.Depth, n.IsRoot, n.IsBranchPoint)
	if err != nil {
		return fmt.Errorf("failed to insert tree node: %w", err)
	}
	return nil
}

// UpsertAnnotation writes one annotation side-table row.
func (db *DB) UpsertAnnotation(a models.Annotation) error {
	_, err := db.conn.Exec(`
		INSERT INTO annotations (conv_id, outlier_count) VALUES (?, ?)
		ON CONFLICT(conv_id) DO UPDATE SET outlier_count = excluded.outlier_count
	`, a.ConvID, a.OutlierCount)
	if err != nil {
		return fmt.Errorf("failed to upsert annotation: %w", err)
	}
	return nil
}

// IsFileImported reports whether a file with the given content hash was
// already imported successfully.
func (db *DB) IsFileImported(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM import_history WHERE file_hash = ? AND status = 'success'`, hash,
	).Scan(&count)
	return count > 0, err
}

// RecordImport appends one import-history row.
func (db *DB) RecordImport(filePath, hash string, messages int, status, errorMsg string) error {
	_, err := db.conn.Exec(`
		INSERT INTO import_history (file_path, file_hash, messages_count, status, error_message)
		VALUES (?, ?, ?, ?, ?)
	`, filePath, hash, messages, status, errorMsg)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

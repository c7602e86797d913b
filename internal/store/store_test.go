package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tapestry-tools/tapestry/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "tapestry-store-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Errorf("Warning: failed to clean up temp dir: %v", err)
		}
	})

	db, err := New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Warning: failed to close database: %v", err)
		}
	})
	return db
}

func seed(t *testing.T, db *DB, msgs ...models.Message) {
	t.Helper()
	tx, err := db.Begin()
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range msgs {
		if err := db.InsertMessage(tx, m); err != nil {
			t.Fatal(err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func sample(uid, conv, text string, ts int64) models.Message {
	return models.Message{
		UID: uid, ConversationID: conv, MessageID: "m-" + uid,
		Vendor: models.VendorClaude, Role: models.RoleUser,
		CreatedAt: ts, Text: text, Title: "Sample",
	}
}

func TestQueryAllMessages(t *testing.T) {
	db := testDB(t)
	seed(t, db,
		sample("u1", "c1", "first message", 1000),
		sample("u2", "c1", "second message", 2000),
	)

	payload, err := db.Query("")
	if err != nil {
		t.Fatal(err)
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(payload.Messages))
	}
	if payload.Ranks != nil {
		t.Error("empty query must not carry ranks")
	}
}

func TestQueryRankedMatch(t *testing.T) {
	db := testDB(t)
	seed(t, db,
		sample("u1", "c1", "goroutines and channels in go", 1000),
		sample("u2", "c1", "python asyncio event loop", 2000),
	)

	payload, err := db.Query("goroutines")
	if err != nil {
		t.Fatal(err)
	}
	if len(payload.Messages) != 1 || payload.Messages[0].UID != "u1" {
		t.Fatalf("unexpected match set: %v", payload.Messages)
	}
	if _, ok := payload.Ranks["u1"]; !ok {
		t.Error("matched message must carry a rank")
	}
}

func TestReimportOverwritesByUID(t *testing.T) {
	db := testDB(t)
	seed(t, db, sample("u1", "c1", "first pass", 1000))
	seed(t, db, sample("u1", "c1", "corrected pass", 1000))

	payload, err := db.Query("")
	if err != nil {
		t.Fatal(err)
	}
	if len(payload.Messages) != 1 {
		t.Fatalf("expected 1 message after re-import, got %d", len(payload.Messages))
	}
	if payload.Messages[0].Text != "corrected pass" {
		t.Errorf("text = %q, want corrected pass", payload.Messages[0].Text)
	}
}

func TestConversationPayloadWithTree(t *testing.T) {
	db := testDB(t)
	seed(t, db, sample("u1", "c1", "root message", 1000))

	tx, err := db.Begin()
	if err != nil {
		t.Fatal(err)
	}
	node := models.TreeNode{
		ID: "n1", ConversationID: "c1", MessageID: "m-u1",
		ChildrenIDs: models.IDList{"n2", "n3"}, IsRoot: true, IsBranchPoint: true,
	}
	if err := db.InsertTreeNode(tx, node); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	payload, err := db.ConversationPayload("c1")
	if err != nil {
		t.Fatal(err)
	}
	if !payload.HasTree || len(payload.Nodes) != 1 {
		t.Fatalf("expected tree payload, got hasTree=%t nodes=%d", payload.HasTree, len(payload.Nodes))
	}
	if len(payload.Nodes[0].ChildrenIDs) != 2 {
		t.Errorf("children_ids not round-tripped: %v", payload.Nodes[0].ChildrenIDs)
	}
}

func TestConversationWithoutTreeIsLinear(t *testing.T) {
	db := testDB(t)
	seed(t, db, sample("u1", "c1", "hello", 1000))

	payload, err := db.ConversationPayload("c1")
	if err != nil {
		t.Fatal(err)
	}
	if payload.HasTree || payload.Nodes != nil {
		t.Error("conversation with no recorded forks must report no tree")
	}
}

func TestSourcesAndAnnotations(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertSource("src-1", "march-export"); err != nil {
		t.Fatal(err)
	}
	labels, err := db.SourceLabels()
	if err != nil {
		t.Fatal(err)
	}
	if labels["src-1"] != "march-export" {
		t.Errorf("labels = %v", labels)
	}

	if err := db.UpsertAnnotation(models.Annotation{ConvID: "c1", OutlierCount: 3}); err != nil {
		t.Fatal(err)
	}
	annotations, err := db.Annotations()
	if err != nil {
		t.Fatal(err)
	}
	if annotations["c1"].OutlierCount != 3 {
		t.Errorf("annotations = %v", annotations)
	}
}

func TestImportHistory(t *testing.T) {
	db := testDB(t)

	imported, err := db.IsFileImported("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if imported {
		t.Error("unknown hash must not be marked imported")
	}

	if err := db.RecordImport("/tmp/export.json", "abc123", 10, "success", ""); err != nil {
		t.Fatal(err)
	}
	imported, err = db.IsFileImported("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if !imported {
		t.Error("recorded hash should be marked imported")
	}
}

func TestFTSQueryRewrite(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", `""`},
		{"single", "single"},
		{"machine learning", "machine AND learning"},
		{"react or vue", "react OR vue"},
		{`"exact phrase"`, `"exact phrase"`},
		{`unbalanced "quote`, `"unbalanced ""quote"`},
	}
	for _, tt := range tests {
		if got := ftsQuery(tt.in); got != tt.want {
			t.Errorf("ftsQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

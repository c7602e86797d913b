package discovery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tapestry-tools/tapestry/internal/imports"
)

// claudeFixture builds a minimal Claude export padded past the size filter.
func claudeFixture() string {
	padding := strings.Repeat("tokenizer design notes. ", 64)
	return `[
  {
    "uuid": "conv-1",
    "name": "Parser design",
    "created_at": "2024-03-01T10:00:00Z",
    "chat_messages": [
      {"uuid": "m1", "sender": "human", "text": "` + padding + `", "created_at": "2024-03-01T10:00:00Z", "parent_message_uuid": ""},
      {"uuid": "m2", "sender": "assistant", "text": "Start with a scanner.", "created_at": "2024-03-01T10:01:00Z", "parent_message_uuid": "m1"}
    ]
  }
]`
}

func scanDir(t *testing.T) (string, *Scanner) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "discovery-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Logf("Warning: failed to remove temp dir: %v", err)
		}
	})

	scanner := &Scanner{}
	scanner.AddSearchPath(tmpDir)
	return tmpDir, scanner
}

func TestScanFindsValidExport(t *testing.T) {
	tmpDir, scanner := scanDir(t)

	path := filepath.Join(tmpDir, "conversations.json")
	if err := os.WriteFile(path, []byte(claudeFixture()), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	exports, err := scanner.ScanForExports()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(exports) != 1 {
		t.Fatalf("exports = %d, want 1", len(exports))
	}

	export := exports[0]
	if !export.IsValid {
		t.Fatalf("export invalid: %s", export.ErrorMessage)
	}
	if export.Format != imports.FormatClaude {
		t.Errorf("format = %s, want claude", export.Format)
	}
	if export.Preview.Conversations != 1 || export.Preview.Messages != 2 {
		t.Errorf("preview = %+v", export.Preview)
	}
}

func TestScanFindsDataExportDirectory(t *testing.T) {
	tmpDir, scanner := scanDir(t)

	sub := filepath.Join(tmpDir, "data-2024-03-01-10-00-00")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("failed to create export dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "conversations.json"), []byte(claudeFixture()), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	exports, err := scanner.ScanForExports()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(exports) != 1 || !exports[0].IsValid {
		t.Fatalf("exports = %+v", exports)
	}
}

func TestScanSkipsUnrelatedFiles(t *testing.T) {
	tmpDir, scanner := scanDir(t)

	// Too small, wrong extension, and unrecognizable names are all skipped.
	files := map[string]string{
		"chat.json":   "[]", // under the size threshold
		"notes.txt":   strings.Repeat("x", 2048),
		"report.json": strings.Repeat("x", 2048), // name matches no pattern
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	exports, err := scanner.ScanForExports()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(exports) != 0 {
		t.Errorf("exports = %d, want 0", len(exports))
	}
}

func TestScanReportsInvalidExport(t *testing.T) {
	tmpDir, scanner := scanDir(t)

	content := "{not json" + strings.Repeat(" ", 2048)
	if err := os.WriteFile(filepath.Join(tmpDir, "claude-export.json"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	exports, err := scanner.ScanForExports()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(exports) != 1 {
		t.Fatalf("exports = %d, want 1", len(exports))
	}
	if exports[0].IsValid || exports[0].ErrorMessage == "" {
		t.Errorf("malformed file must be flagged: %+v", exports[0])
	}
}

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tapestry-tools/tapestry/internal/models"
)

func sampleConversation() (models.ConversationSummary, []models.Turn) {
	conv := models.ConversationSummary{
		ConvID:   "conv-1",
		Title:    "Designing a parser",
		Vendor:   models.VendorClaude,
		MsgCount: 3,
		FirstTs:  1700000000,
		LastTs:   1700000500,
		Tags:     []string{"batch:alpha"},
	}
	turns := []models.Turn{
		{
			Role:    models.RoleUser,
			TsStart: 1700000000,
			Items: []models.Message{
				{UID: "u1", Text: "How should I tokenize this?"},
			},
		},
		{
			Role:    models.RoleAssistant,
			TsStart: 1700000060,
			Items: []models.Message{
				{UID: "u2", Text: "Start with a scanner."},
				{UID: "u3", Text: "Then build the token stream."},
			},
		},
	}
	return conv, turns
}

func TestRenderMarkdown(t *testing.T) {
	conv, turns := sampleConversation()
	doc := RenderMarkdown(conv, turns)

	if !strings.HasPrefix(doc, "# Designing a parser\n") {
		t.Errorf("missing title header:\n%s", doc)
	}
	for _, want := range []string{
		"**Conversation ID:** conv-1",
		"**Vendor:** claude",
		"**Tags:** batch:alpha",
		"## User",
		"## Assistant",
		"How should I tokenize this?",
		"Then build the token stream.",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}

	// One separator between the two turns, none trailing.
	if got := strings.Count(doc, "---\n"); got != 2 { // header rule + one turn separator
		t.Errorf("separator count = %d, want 2", got)
	}
}

func TestRenderMarkdownFallsBackToConvID(t *testing.T) {
	conv, turns := sampleConversation()
	conv.Title = ""
	doc := RenderMarkdown(conv, turns)
	if !strings.HasPrefix(doc, "# conv-1\n") {
		t.Errorf("untitled conversation must use its id:\n%s", doc)
	}
}

func TestConversationToMarkdownWritesFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "export-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Logf("Warning: failed to remove temp dir: %v", err)
		}
	}()

	conv, turns := sampleConversation()
	path := filepath.Join(tmpDir, "nested", "out.md")
	if err := ConversationToMarkdown(conv, turns, path); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read exported file: %v", err)
	}
	if !strings.Contains(string(data), "Start with a scanner.") {
		t.Error("exported file missing message text")
	}
}

func TestGenerateDefaultFilename(t *testing.T) {
	conv, _ := sampleConversation()
	conv.Title = "a/b:c*d?"
	name := GenerateDefaultFilename(conv)

	if strings.ContainsAny(name, "/\\:*?\"<>|") {
		t.Errorf("filename not sanitized: %q", name)
	}
	if !strings.HasSuffix(name, ".md") {
		t.Errorf("filename missing extension: %q", name)
	}
}

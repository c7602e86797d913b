package rendering

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tapestry-tools/tapestry/internal/models"
)

func TestSharedRendererSingleton(t *testing.T) {
	a := Shared()
	b := Shared()
	if a == nil || a != b {
		t.Error("Shared() must return the same non-nil renderer")
	}
}

func TestSetThemeSelectsGlamourStyle(t *testing.T) {
	SetTheme("notty")
	defer SetTheme("dark")
	if themeName != "notty" {
		t.Fatalf("themeName = %q, want notty", themeName)
	}
	// The notty style renders without ANSI escape sequences.
	r := &Renderer{term: newTermRenderer(themeName, 76), width: 80}
	out := r.RenderMessage("**bold** text")
	if strings.Contains(out, "\x1b[") {
		t.Errorf("notty theme must not emit ANSI escapes: %q", out)
	}

	// An empty name keeps the current theme instead of clearing it.
	SetTheme("")
	if themeName != "notty" {
		t.Errorf("empty theme name must be ignored, got %q", themeName)
	}
}

func TestRenderMessagePlain(t *testing.T) {
	out := Shared().RenderMessage("just plain text")
	if !strings.Contains(out, "just plain text") {
		t.Errorf("rendered output lost the text: %q", out)
	}
}

func TestRenderMessageCodeBlock(t *testing.T) {
	text := "Here is code:\n\n```go\nfmt.Println(\"hi\")\n```\n"
	out := Shared().RenderMessage(text)
	if !strings.Contains(out, "fmt.Println") {
		t.Errorf("code content missing from render: %q", out)
	}
}

func TestRenderTurns(t *testing.T) {
	turnList := []models.Turn{
		{
			ID:   "turn-1",
			Role: models.RoleUser,
			Items: []models.Message{
				{Text: "first question"},
				{Text: "second question"},
			},
		},
		{
			ID:    "turn-2",
			Role:  models.RoleAssistant,
			Items: []models.Message{{Text: "the answer"}},
		},
	}

	out := RenderTurns(turnList, 80)
	for _, want := range []string{"USER", "ASSISTANT", "first question", "second question", "the answer"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	// Turn separator appears between turns, not before the first.
	if strings.Count(out, "─") == 0 {
		t.Error("expected a separator between turns")
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"multiline flattened", "line one\nline two", 80, "line one line two"},
		{"markdown stripped", "**bold** and `code` and # Header", 80, "bold and code and Header"},
		{"truncated", strings.Repeat("a", 100), 20, strings.Repeat("a", 17) + "..."},
		{"short untouched", "hello", 80, "hello"},
		{"multibyte truncated on rune boundary", strings.Repeat("日", 30), 10, strings.Repeat("日", 7) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Snippet(tt.text, tt.limit)
			if got != tt.want {
				t.Errorf("Snippet() = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Snippet() produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestExtractURLs(t *testing.T) {
	text := "see https://go.dev/doc and example.com/page for details"
	urls := ExtractURLs(text)
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want 2", urls)
	}
	if urls[0] != "https://go.dev/doc" {
		t.Errorf("first url = %q", urls[0])
	}
}

func TestMakeHyperlinkUnsupportedTerminal(t *testing.T) {
	t.Setenv("TERM_PROGRAM", "")
	t.Setenv("TERM", "dumb")
	t.Setenv("KITTY_WINDOW_ID", "")

	if got := MakeHyperlink("text", "https://example.com"); got != "text" {
		t.Errorf("got %q, want plain text on unsupported terminal", got)
	}
}

func TestMakeHyperlinkSupportedTerminal(t *testing.T) {
	t.Setenv("TERM_PROGRAM", "kitty")

	got := MakeHyperlink("text", "https://example.com")
	if !strings.Contains(got, "\x1b]8;;https://example.com") {
		t.Errorf("missing OSC 8 open sequence: %q", got)
	}
	if !strings.Contains(got, "text") {
		t.Errorf("missing display text: %q", got)
	}
}

func TestDetectCapabilities(t *testing.T) {
	t.Setenv("TERM_PROGRAM", "wezterm")
	caps := DetectCapabilities()
	if !caps.Hyperlinks || caps.Type != "wezterm" {
		t.Errorf("caps = %+v", caps)
	}

	t.Setenv("TERM_PROGRAM", "")
	t.Setenv("TERM", "xterm-256color")
	caps = DetectCapabilities()
	if !caps.Hyperlinks {
		t.Error("xterm variants should support hyperlinks")
	}
}

// Package export writes conversations out of the store as standalone
// markdown documents.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tapestry-tools/tapestry/internal/models"
)

var roleCaser = cases.Title(language.English)

// ConversationToMarkdown writes a conversation's turns to a markdown file.
func ConversationToMarkdown(conv models.ConversationSummary, turns []models.Turn, outputPath string) error {
	content := RenderMarkdown(conv, turns)

	outputDir := filepath.Dir(outputPath)
	if outputDir != "." && outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write markdown file: %w", err)
	}

	return nil
}

// RenderMarkdown builds the markdown document for a conversation.
func RenderMarkdown(conv models.ConversationSummary, turns []models.Turn) string {
	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = conv.ConvID
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("**Conversation ID:** %s\n\n", conv.ConvID))
	sb.WriteString(fmt.Sprintf("**Vendor:** %s\n\n", conv.Vendor))
	if models.ValidTimestamp(conv.FirstTs) {
		sb.WriteString(fmt.Sprintf("**Started:** %s\n\n", formatTs(conv.FirstTs)))
	}
	if models.ValidTimestamp(conv.LastTs) {
		sb.WriteString(fmt.Sprintf("**Last activity:** %s\n\n", formatTs(conv.LastTs)))
	}
	sb.WriteString(fmt.Sprintf("**Messages:** %d\n\n", conv.MsgCount))
	if len(conv.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("**Tags:** %s\n\n", strings.Join(conv.Tags, ", ")))
	}
	sb.WriteString("---\n\n")

	for i, turn := range turns {
		header := roleCaser.String(string(turn.Role))
		if models.ValidTimestamp(turn.TsStart) {
			header += fmt.Sprintf(" (%s)", formatTs(turn.TsStart))
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n", header))

		for _, msg := range turn.Items {
			sb.WriteString(msg.Text)
			sb.WriteString("\n\n")
		}

		if i < len(turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return sb.String()
}

func formatTs(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}

// GenerateDefaultFilename creates a default filename for a conversation export.
func GenerateDefaultFilename(conv models.ConversationSummary) string {
	name := conv.Title
	if name == "" {
		name = conv.ConvID
	}
	for _, ch := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"} {
		name = strings.ReplaceAll(name, ch, "-")
	}

	name = strings.TrimSpace(name)
	if len(name) > 100 {
		name = name[:100]
	}

	// Add a timestamp to keep repeated exports distinct.
	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("%s-%s.md", name, timestamp)
}

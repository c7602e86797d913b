package export

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/export"
	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/store"
)

var (
	outputPath string
	branch     string
	gapMinutes int
)

// ExportCmd represents the export command
var ExportCmd = &cobra.Command{
	Use:   "export <conversation-id>",
	Short: "Export a conversation to markdown",
	Long: `Export a conversation's turns to a standalone markdown file.

Examples:
  # Export with an auto-generated filename
  tapestry export conv-abc123

  # Export to a specific file
  tapestry export conv-abc123 -o notes/design-chat.md

  # Export a single branch of a forked conversation
  tapestry export conv-abc123 --branch node-7`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	ExportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (default: derived from the title)")
	ExportCmd.Flags().StringVarP(&branch, "branch", "b", "", "restrict to the branch containing this node or message id")
	ExportCmd.Flags().IntVar(&gapMinutes, "gap", 0, "turn gap in minutes (default from config)")
}

func runExport(cmd *cobra.Command, args []string) error {
	convID := args[0]
	cfg := config.Get()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	engine := search.NewEngine(db)

	summaries, err := engine.Conversations()
	if err != nil {
		return fmt.Errorf("failed to load conversations: %w", err)
	}
	var conv models.ConversationSummary
	found := false
	for _, s := range summaries {
		if s.ConvID == convID {
			conv = s
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("conversation not found: %s", convID)
	}

	gap := cfg.TurnGap()
	if gapMinutes > 0 {
		gap = time.Duration(gapMinutes) * time.Minute
	}

	turnList, err := engine.Turns(convID, branch, gap)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}
	if len(turnList) == 0 {
		return fmt.Errorf("conversation has no messages: %s", convID)
	}

	path := outputPath
	if path == "" {
		path = export.GenerateDefaultFilename(conv)
	}

	if err := export.ConversationToMarkdown(conv, turnList, path); err != nil {
		return err
	}

	fmt.Printf("Exported %d turn(s) to %s\n", len(turnList), path)
	return nil
}

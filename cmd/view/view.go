package view

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/rendering"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/store"
)

var (
	branch     string
	gapMinutes int
)

// ViewCmd represents the view command
var ViewCmd = &cobra.Command{
	Use:   "view [conversation-id]",
	Short: "View a conversation, grouped into turns",
	Long: `Display one conversation as turns: consecutive messages from the same
author are collapsed together, split when the author changes or when more
than the configured gap passes between messages.

For conversations with edit/regenerate branches, --branch selects the branch
containing the given node or message id; the view then follows that branch's
path and its first-child continuation. An unknown branch id shows the full
linear conversation.

Examples:
  tapestry view conv-uuid
  tapestry view conv-uuid --branch msg-uuid
  tapestry view conv-uuid --gap 15`,

	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	ViewCmd.Flags().StringVarP(&branch, "branch", "b", "", "show the branch containing this node or message id")
	ViewCmd.Flags().IntVar(&gapMinutes, "gap", 0, "turn-split gap in minutes (0 = configured default)")
}

func runView(cmd *cobra.Command, args []string) error {
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

	gap := cfg.TurnGap()
	if gapMinutes > 0 {
		gap = time.Duration(gapMinutes) * time.Minute
	}

	rendering.SetTheme(cfg.UI.Theme)

	engine := search.NewEngine(db)
	turnList, err := engine.Turns(convID, branch, gap)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	if len(turnList) == 0 {
		fmt.Println("Conversation is empty or does not exist.")
		return nil
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	fmt.Println(rendering.RenderTurns(turnList, width))
	return nil
}

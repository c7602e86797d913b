package branches

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/store"
)

// BranchesCmd represents the branches command
var BranchesCmd = &cobra.Command{
	Use:   "branches [conversation-id]",
	Short: "Show a conversation's branch structure",
	Long: `List the branch points of a conversation: the nodes where an edit or a
regenerated response forked the thread. Each child id can be passed to
"view --branch" to read that branch.

Examples:
  tapestry branches conv-uuid`,

	Args: cobra.ExactArgs(1),
	RunE: runBranches,
}

func runBranches(cmd *cobra.Command, args []string) error {
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
	_, nav, err := engine.Conversation(convID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	if !nav.HasTree() {
		fmt.Println("This conversation is linear; no branches recorded.")
		return nil
	}

	stats := nav.Stats()
	fmt.Printf("Roots: %d   Max depth: %d   Branch points: %d\n\n", stats.Roots, stats.MaxDepth, stats.BranchPoints)

	points := nav.BranchPoints()
	if len(points) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "Node\tDepth\tChildren"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "----\t-----\t--------"); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}
	for _, node := range points {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", node.ID, node.Depth, strings.Join(node.ChildrenIDs, ", ")); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return w.Flush()
}

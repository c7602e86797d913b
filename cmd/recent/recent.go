package recent

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/rendering"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/store"
)

var (
	days   int
	limit  int
	format string
)

// RecentCmd represents the recent command
var RecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recently active conversations",
	Long: `Show conversations with activity in the last N days.

Examples:
  # Conversations from the last 7 days (default)
  tapestry recent

  # Conversations from the last 30 days
  tapestry recent --days 30

  # Just the conversation ids, for piping
  tapestry recent --format id`,
	RunE: runRecent,
}

func init() {
	RecentCmd.Flags().IntVarP(&days, "days", "d", 7, "number of days to look back")
	RecentCmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of conversations")
	RecentCmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table/id)")
}

func runRecent(cmd *cobra.Command, args []string) error {
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

	// The index orders by recency already; keep everything active since
	// the cutoff. Conversations without a valid timestamp never qualify.
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	var recent []models.ConversationSummary
	for _, conv := range summaries {
		if !models.ValidTimestamp(conv.LastTs) || conv.LastTs < cutoff {
			continue
		}
		recent = append(recent, conv)
		if len(recent) >= limit {
			break
		}
	}

	if len(recent) == 0 {
		fmt.Printf("No conversations in the last %d days\n", days)
		return nil
	}

	switch format {
	case "id":
		// Just output ids for piping
		for _, conv := range recent {
			fmt.Println(conv.ConvID)
		}
	default:
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "ID\tVendor\tMessages\tLast Activity\tTitle"); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if _, err := fmt.Fprintln(w, "--\t------\t--------\t-------------\t-----"); err != nil {
			return fmt.Errorf("failed to write separator: %w", err)
		}

		for _, conv := range recent {
			title := rendering.Snippet(conv.Title, 60)
			when := humanize.Time(time.Unix(conv.LastTs, 0))
			if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				conv.ConvID, conv.Vendor, conv.MsgCount, when, title); err != nil {
				return fmt.Errorf("failed to write conversation: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("failed to flush output: %w", err)
		}

		if tags := tagged(recent); tags > 0 {
			fmt.Printf("\n%d conversation(s) carry import tags; see 'tapestry list'\n", tags)
		}
	}

	return nil
}

func tagged(convs []models.ConversationSummary) int {
	n := 0
	for _, conv := range convs {
		if len(conv.Tags) > 0 && strings.Join(conv.Tags, "") != "" {
			n++
		}
	}
	return n
}

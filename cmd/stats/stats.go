package stats

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/rendering"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/store"
)

// StatsCmd represents the stats command
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  `Show counters for the imported data: messages, conversations, tree nodes, and import batches, plus a per-vendor breakdown.`,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
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

	counters, err := db.Stats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Println("Database:", cfg.Database.Path)
	fmt.Println(rendering.TerminalInfo())
	fmt.Println()
	fmt.Printf("  Conversations: %d\n", counters["conversations"])
	fmt.Printf("  Messages:      %d\n", counters["messages"])
	fmt.Printf("  Tree nodes:    %d\n", counters["tree_nodes"])
	fmt.Printf("  Import batches: %d\n", counters["sources"])

	engine := search.NewEngine(db)
	summaries, err := engine.Conversations()
	if err != nil {
		return fmt.Errorf("failed to build conversation index: %w", err)
	}

	byVendor := make(map[models.Vendor]int)
	var lastTs int64
	for _, s := range summaries {
		byVendor[s.Vendor]++
		if s.LastTs > lastTs {
			lastTs = s.LastTs
		}
	}

	if len(byVendor) > 0 {
		fmt.Println("\nConversations by vendor:")
		for _, v := range models.Vendors {
			if byVendor[v] > 0 {
				fmt.Printf("  %-8s %d\n", v, byVendor[v])
			}
		}
	}

	if models.ValidTimestamp(lastTs) {
		fmt.Printf("\nMost recent activity: %s\n", humanize.Time(time.Unix(lastTs, 0)))
	}

	return nil
}

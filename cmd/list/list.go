package list

import (
	"encoding/csv"
	"encoding/json"
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
	limit  int
	vendor string
	quiet  bool
	format string
)

// ListCmd represents the list command
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversations",
	Long: `List the conversation index: ids, titles, vendors, message counts,
last activity, and batch/outlier tags, ordered by recency.

Examples:
  tapestry list
  tapestry list --limit 20
  tapestry list --vendor chatgpt
  tapestry list --format json`,
	RunE: runList,
}

func init() {
	ListCmd.Flags().IntVarP(&limit, "limit", "l", 50, "maximum number of conversations to show")
	ListCmd.Flags().StringVar(&vendor, "vendor", "", "only show conversations from this vendor")
	ListCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress extra output (pipe-friendly)")
	ListCmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table/json/csv)")
}

func runList(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("failed to build conversation index: %w", err)
	}

	if vendor != "" {
		kept := summaries[:0]
		for _, s := range summaries {
			if s.Vendor == models.Vendor(vendor) {
				kept = append(kept, s)
			}
		}
		summaries = kept
	}

	total := len(summaries)
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}

	if len(summaries) == 0 {
		if !quiet {
			fmt.Println("No conversations found.")
		}
		return nil
	}

	switch format {
	case "json":
		return outputJSON(summaries, total)
	case "csv":
		return outputCSV(summaries)
	default:
		return outputTable(summaries, total, quiet)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func lastActivity(s models.ConversationSummary) string {
	if !models.ValidTimestamp(s.LastTs) {
		return "unknown"
	}
	return humanize.Time(time.Unix(s.LastTs, 0))
}

func outputTable(summaries []models.ConversationSummary, total int, quiet bool) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tVendor\tMessages\tLast Activity\tTitle\tTags"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t------\t--------\t-------------\t-----\t----"); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for _, s := range summaries {
		idDisplay := s.ConvID
		if rendering.IsHyperlinksSupported() {
			idDisplay = rendering.MakeHyperlink(s.ConvID, "tapestry://view/"+s.ConvID)
		}

		_, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			idDisplay, s.Vendor, s.MsgCount, lastActivity(s),
			truncate(s.Title, 60), strings.Join(s.Tags, " "))
		if err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if !quiet {
		fmt.Printf("\nShowing %d of %d total conversations\n", len(summaries), total)
	}

	return nil
}

func outputJSON(summaries []models.ConversationSummary, total int) error {
	output := map[string]interface{}{
		"conversations": summaries,
		"count":         len(summaries),
		"total":         total,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputCSV(summaries []models.ConversationSummary) error {
	w := csv.NewWriter(os.Stdout)

	if err := w.Write([]string{"conv_id", "vendor", "title", "msg_count", "first_ts", "last_ts", "tags"}); err != nil {
		return err
	}

	for _, s := range summaries {
		record := []string{
			s.ConvID,
			string(s.Vendor),
			s.Title,
			fmt.Sprintf("%d", s.MsgCount),
			fmt.Sprintf("%d", s.FirstTs),
			fmt.Sprintf("%d", s.LastTs),
			strings.Join(s.Tags, " "),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

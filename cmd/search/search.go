package search

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/paginate"
	"github.com/tapestry-tools/tapestry/internal/rendering"
	"github.com/tapestry-tools/tapestry/internal/search"
	"github.com/tapestry-tools/tapestry/internal/store"
)

var (
	vendor    string
	role      string
	fromDate  string
	toDate    string
	sources   []string
	useRegex  bool
	titleBody bool
	page      int
	pageSize  int
	format    string
	quiet     bool
)

// SearchCmd represents the search command
var SearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search through conversations",
	Long: `Ranked full-text search across all imported conversations.

Query Syntax:
  Simple search:      tapestry search "machine learning"
  AND (implicit):     tapestry search machine learning
  OR operator:        tapestry search "react OR vue"
  Exact phrase:       tapestry search '"exact phrase match"'
  Regex:              tapestry search --regex 'go(routine)?s'

Facets:
  By vendor:          tapestry search "api" --vendor claude
  By role:            tapestry search "api" --role user
  By date range:      tapestry search "bug" --from 2024-01-01 --to 2024-12-31
  By import batch:    tapestry search "api" --source <source-id>

Results are ordered by relevance; ties and unranked queries fall back to
chronological order. An invalid regex degrades to a literal substring match.`,

	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	SearchCmd.Flags().StringVar(&vendor, "vendor", "", "filter by vendor (claude/chatgpt/gemini/copilot)")
	SearchCmd.Flags().StringVarP(&role, "role", "r", "", "filter by role (user/assistant/tool/system)")
	SearchCmd.Flags().StringVar(&fromDate, "from", "", "filter by start date (YYYY-MM-DD)")
	SearchCmd.Flags().StringVar(&toDate, "to", "", "filter by end date, inclusive (YYYY-MM-DD)")
	SearchCmd.Flags().StringSliceVar(&sources, "source", nil, "restrict to import batch source ids")
	SearchCmd.Flags().BoolVar(&useRegex, "regex", false, "treat the query as a regular expression")
	SearchCmd.Flags().BoolVar(&titleBody, "title-body", false, "match against titles as well as message text")
	SearchCmd.Flags().IntVarP(&page, "page", "p", 1, "result page to show")
	SearchCmd.Flags().IntVar(&pageSize, "page-size", 0, "results per page (persisted; 0 = saved preference)")
	SearchCmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table/json/csv)")
	SearchCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress extra output (pipe-friendly)")
}

func buildFacets(args []string) (models.SearchFacets, error) {
	facets := models.SearchFacets{
		Query:     strings.Join(args, " "),
		Vendor:    models.Vendor(vendor),
		Role:      models.Role(role),
		SourceIDs: sources,
		Regex:     useRegex,
		TitleBody: titleBody,
	}

	if fromDate != "" {
		t, err := time.Parse("2006-01-02", fromDate)
		if err != nil {
			return facets, fmt.Errorf("invalid from date: %w", err)
		}
		facets.From = &t
	}
	if toDate != "" {
		t, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			return facets, fmt.Errorf("invalid to date: %w", err)
		}
		facets.To = &t
	}

	return facets, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	facets, err := buildFacets(args)
	if err != nil {
		return err
	}

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

	engine := search.NewEngine(db,
		search.WithSourceRelax(cfg.Search.RelaxSources),
		search.WithMaxResults(cfg.Search.MaxResults))
	result, err := engine.Search(facets)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	prefs, err := config.Prefs()
	if err != nil {
		return fmt.Errorf("failed to open preferences: %w", err)
	}

	paginator := paginate.New(prefs, "search", cfg.UI.PageSize)
	if pageSize > 0 {
		paginator.SetPageSize(pageSize)
	}
	pg := paginator.Update(result.Total, facets.Fingerprint())
	for pg.Page < page {
		next := paginator.Next()
		if next.Page == pg.Page {
			break
		}
		pg = next
	}
	pageMsgs := paginate.Slice(result.Messages, pg)

	switch format {
	case "json":
		return outputJSON(pageMsgs, result, pg)
	case "csv":
		return outputCSV(pageMsgs)
	default:
		return outputTable(pageMsgs, result, pg)
	}
}

func outputTable(msgs []models.Message, result *search.Result, pg paginate.Page) error {
	if len(msgs) == 0 {
		if !quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "Conversation\tVendor\tRole\tDate\tSnippet"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "------------\t------\t----\t----\t-------"); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}

	for _, m := range msgs {
		idDisplay := m.ConversationID
		if rendering.IsHyperlinksSupported() {
			idDisplay = rendering.MakeHyperlink(m.ConversationID, "tapestry://view/"+m.ConversationID)
		}

		date := "unknown"
		if models.ValidTimestamp(m.CreatedAt) {
			date = time.Unix(m.CreatedAt, 0).Format("2006-01-02 15:04")
		}

		snippet := rendering.Snippet(m.Text, 60)
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", idDisplay, m.Vendor, m.Role, date, snippet); err != nil {
			return fmt.Errorf("failed to write result row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if !quiet {
		fmt.Printf("\nPage %d of %d (%d results", pg.Page, pg.PageCount, result.Total)
		if result.Ranked {
			fmt.Printf(", ranked")
		}
		fmt.Println(")")
		if result.SourceFilterRelaxed {
			fmt.Println("Note: none of the requested sources matched; the source filter was relaxed.")
		}
	}

	return nil
}

func outputJSON(msgs []models.Message, result *search.Result, pg paginate.Page) error {
	output := map[string]interface{}{
		"messages":            msgs,
		"page":                pg.Page,
		"pageCount":           pg.PageCount,
		"total":               result.Total,
		"ranked":              result.Ranked,
		"sourceFilterRelaxed": result.SourceFilterRelaxed,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputCSV(msgs []models.Message) error {
	w := csv.NewWriter(os.Stdout)

	if err := w.Write([]string{"uid", "conversation_id", "vendor", "role", "created_at", "text"}); err != nil {
		return err
	}

	for _, m := range msgs {
		record := []string{
			m.UID,
			m.ConversationID,
			string(m.Vendor),
			string(m.Role),
			fmt.Sprintf("%d", m.CreatedAt),
			strings.ReplaceAll(m.Text, "\n", " "),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

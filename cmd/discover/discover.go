package discover

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/discovery"
	"github.com/tapestry-tools/tapestry/internal/imports"
	"github.com/tapestry-tools/tapestry/internal/store"
)

var (
	recentDays int
	doImport   bool
	extraPath  string
)

// DiscoverCmd represents the discover command
var DiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find export files in download locations",
	Long: `Scan the usual download locations for chat export files.

Recognizes Claude and ChatGPT JSON exports and vendor-tagged JSONL files.

Examples:
  # List export candidates
  tapestry discover

  # Only files downloaded in the last 3 days
  tapestry discover --recent 3

  # Import every valid export that was found
  tapestry discover --import`,
	RunE: runDiscover,
}

func init() {
	DiscoverCmd.Flags().IntVar(&recentDays, "recent", 0, "only show files modified in the last N days")
	DiscoverCmd.Flags().BoolVar(&doImport, "import", false, "import every valid export found")
	DiscoverCmd.Flags().StringVar(&extraPath, "path", "", "additional directory to scan")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	scanner := discovery.NewScanner()
	if extraPath != "" {
		scanner.AddSearchPath(extraPath)
	}

	var exports []*discovery.ExportFile
	var err error
	if recentDays > 0 {
		exports, err = scanner.GetRecentExports(time.Duration(recentDays) * 24 * time.Hour)
	} else {
		exports, err = scanner.ScanForExports()
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(exports) == 0 {
		fmt.Println("No export files found.")
		fmt.Println("\nSearched:")
		for _, path := range scanner.SearchPaths() {
			fmt.Printf("  %s\n", path)
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Format\tSize\tModified\tContents\tPath")
	for _, export := range exports {
		contents := export.ErrorMessage
		format := string(export.Format)
		if format == "" {
			format = "?"
		}
		if export.IsValid {
			contents = fmt.Sprintf("%d conversation(s), %d message(s)",
				export.Preview.Conversations, export.Preview.Messages)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			format,
			humanize.Bytes(uint64(export.Size)),
			humanize.Time(export.ModTime),
			contents,
			export.Path)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if !doImport {
		return nil
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

	importer := imports.NewImporter(db)
	imported := 0
	for _, export := range exports {
		if !export.IsValid {
			continue
		}
		stats, err := importer.Import(export.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to import %s: %v\n", export.Path, err)
			continue
		}
		fmt.Printf("\nImported %s: %d conversation(s), %d message(s)\n",
			export.Path, stats.ConversationsImported, stats.MessagesImported)
		imported++
	}
	if imported == 0 {
		fmt.Println("\nNothing new to import.")
	}

	return nil
}

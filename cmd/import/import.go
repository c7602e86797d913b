package imports

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapestry-tools/tapestry/internal/config"
	"github.com/tapestry-tools/tapestry/internal/imports"
	"github.com/tapestry-tools/tapestry/internal/store"
)

var (
	label        string
	force        bool
	showProgress bool
)

// ImportCmd represents the import command
var ImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a vendor export file",
	Long: `Import conversations from a vendor export file into the local database.

Supported formats (auto-detected):
- Claude export JSON (conversation array with chat_messages)
- ChatGPT export JSON (conversation array with mapping trees)
- Vendor-tagged JSONL (one message per line; gemini/copilot exporters)

Each import is a batch: its messages share a generated source id and the
label given with --label, which shows up as a batch tag in listings. Files
that were already imported are skipped unless --force is used.`,

	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	ImportCmd.Flags().StringVar(&label, "label", "", "batch label for this import (defaults to today's date)")
	ImportCmd.Flags().BoolVar(&force, "force", false, "force re-import of already imported files")
	ImportCmd.Flags().BoolVar(&showProgress, "progress", false, "emit machine-readable progress lines")
}

func runImport(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", filePath)
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

	opts := []imports.Option{
		imports.WithLabel(label),
		imports.WithForce(force),
	}
	if showProgress {
		opts = append(opts, imports.WithProgress(os.Stdout))
	}
	importer := imports.NewImporter(db, opts...)

	fmt.Printf("Importing %s...\n", filePath)
	stats, err := importer.Import(filePath)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("\nImport completed in %s:\n", stats.Duration.Round(time.Millisecond))
	fmt.Printf("  Conversations imported: %d\n", stats.ConversationsImported)
	fmt.Printf("  Messages imported: %d\n", stats.MessagesImported)
	fmt.Printf("  Tree nodes imported: %d\n", stats.NodesImported)
	if stats.SkippedRecords > 0 {
		fmt.Printf("  Records skipped: %d\n", stats.SkippedRecords)
	}

	return nil
}

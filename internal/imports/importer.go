package imports

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tapestry-tools/tapestry/internal/models"
	"github.com/tapestry-tools/tapestry/internal/progress"
	"github.com/tapestry-tools/tapestry/internal/store"
)

// Importer loads parsed vendor exports into the store. Each import run is a
// batch: all of its messages share a generated source id, labeled so the
// conversation index can render batch tags.
type Importer struct {
	db       *store.DB
	label    string
	force    bool
	progress *progress.Emitter
}

// Option configures an Importer.
type Option func(*Importer)

// WithLabel sets the human-readable batch label. Defaults to the import
// date when empty.
func WithLabel(label string) Option {
	return func(i *Importer) { i.label = label }
}

// WithForce allows re-importing a file whose hash is already recorded.
func WithForce(force bool) Option {
	return func(i *Importer) { i.force = force }
}

// WithProgress directs protocol lines to w during import.
func WithProgress(w io.Writer) Option {
	return func(i *Importer) { i.progress = progress.NewEmitter(w) }
}

// NewImporter creates an importer backed by db.
func NewImporter(db *store.DB, opts ...Option) *Importer {
	i := &Importer{db: db, progress: progress.NewEmitter(nil)}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import parses one export file and loads it. The file's content hash gates
// re-imports; identical files are rejected unless forced.
func (i *Importer) Import(filePath string) (*models.ImportStats, error) {
	startTime := time.Now()

	hash, err := fileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash file: %w", err)
	}

	if !i.force {
		imported, err := i.db.IsFileImported(hash)
		if err != nil {
			return nil, err
		}
		if imported {
			return nil, fmt.Errorf("file already imported (hash: %s)", hash)
		}
	}

	parsed, err := Parse(filePath)
	if err != nil {
		_ = i.db.RecordImport(filePath, hash, 0, "failed", err.Error())
		return nil, err
	}

	stats, err := i.load(parsed)
	if err != nil {
		_ = i.db.RecordImport(filePath, hash, 0, "failed", err.Error())
		return stats, err
	}

	stats.Duration = time.Since(startTime)
	if err := i.db.RecordImport(filePath, hash, stats.MessagesImported, "success", ""); err != nil {
		return stats, fmt.Errorf("failed to record import: %w", err)
	}
	return stats, nil
}

// load writes one parsed export in a single transaction.
func (i *Importer) load(parsed *ParsedExport) (*models.ImportStats, error) {
	stats := &models.ImportStats{
		ConversationsImported: parsed.Conversations,
		SkippedRecords:        parsed.Skipped,
	}

	sourceID := uuid.NewString()
	label := i.label
	if label == "" {
		label = time.Now().Format("2006-01-02")
	}
	if err := i.db.UpsertSource(sourceID, label); err != nil {
		return stats, err
	}

	msgs := models.Sanitize(stampSource(parsed.Messages, sourceID))
	stats.SkippedRecords += len(parsed.Messages) - len(msgs)

	tx, err := i.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	i.progress.Total(len(msgs) + len(parsed.Nodes))

	for _, m := range msgs {
		if err := i.db.InsertMessage(tx, m); err != nil {
			return stats, fmt.Errorf("message %s: %w", m.UID, err)
		}
		stats.MessagesImported++
		i.progress.Tick()
	}

	for _, n := range parsed.Nodes {
		if err := i.db.InsertTreeNode(tx, n); err != nil {
			return stats, fmt.Errorf("tree node %s: %w", n.ID, err)
		}
		stats.NodesImported++
		i.progress.Tick()
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit: %w", err)
	}

	for convID, count := range CountOutliers(msgs) {
		err := i.db.UpsertAnnotation(models.Annotation{ConvID: convID, OutlierCount: count})
		if err != nil {
			return stats, fmt.Errorf("annotation %s: %w", convID, err)
		}
	}

	return stats, nil
}

func stampSource(msgs []models.Message, sourceID string) []models.Message {
	stamped := make([]models.Message, len(msgs))
	for i, m := range msgs {
		m.SourceID = sourceID
		stamped[i] = m
	}
	return stamped
}

func fileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

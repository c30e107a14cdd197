// Package export writes review records to CSV for manual review and reads
// reviewed files back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"sarcasm-review/internal/models"
)

// TimestampLayout is how UTC timestamps are written.
const TimestampLayout = "2006-01-02 15:04:05.999999-07:00"

// Column is one CSV column.
type Column struct {
	Name  string
	Value func(models.ReviewRecord) string
}

// Layout is an ordered column set.
type Layout []Column

// Header returns the column names.
func (l Layout) Header() []string {
	h := make([]string, len(l))
	for i, c := range l {
		h[i] = c.Name
	}
	return h
}

// Row renders one record.
func (l Layout) Row(rec models.ReviewRecord) []string {
	row := make([]string, len(l))
	for i, c := range l {
		row[i] = c.Value(rec)
	}
	return row
}

// FormatBool writes booleans the way spreadsheet users expect.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func text(name string) Column {
	return Column{Name: name, Value: func(r models.ReviewRecord) string { return r.Text }}
}

var (
	strictCol = Column{Name: "strict_mismatch", Value: func(r models.ReviewRecord) string { return FormatBool(r.StrictMismatch) }}
	toneCol   = Column{Name: "tone_contradiction", Value: func(r models.ReviewRecord) string { return FormatBool(r.ToneContradiction) }}
	sentAtRaw = Column{Name: "sent_at", Value: func(r models.ReviewRecord) string { return r.SentAtRaw }}
	sentAtUTC = Column{Name: "sent_at_utc", Value: func(r models.ReviewRecord) string { return r.SentAt.UTC().Format(TimestampLayout) }}

	reviewCols = []Column{
		{Name: "is_real_sarcasm", Value: func(r models.ReviewRecord) string { return r.IsRealSarcasm }},
		{Name: "confidence_level", Value: func(r models.ReviewRecord) string { return r.ConfidenceLevel }},
		{Name: "notes", Value: func(r models.ReviewRecord) string { return r.Notes }},
	}
)

func emojiCol(name string) Column {
	return Column{Name: name, Value: func(r models.ReviewRecord) string { return FormatBool(r.HasEmoji) }}
}

// Review layouts
var (
	HybridLayout = append(Layout{
		text("text_final"), strictCol, toneCol, emojiCol("sarcastic_emoji"), sentAtUTC,
	}, reviewCols...)

	DualLayerLayout = append(Layout{
		text("text_readable"), strictCol, toneCol, emojiCol("has_emoji"), sentAtRaw,
		{Name: "detection_type", Value: func(r models.ReviewRecord) string { return string(r.DetectionType) }},
	}, reviewCols...)

	EmojiSampleLayout = Layout{text("text_clean"), sentAtRaw}
)

// Write encodes records as CSV with a header row.
func Write(w io.Writer, layout Layout, records []models.ReviewRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(layout.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if err := writer.Write(layout.Row(rec)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes records to path through a temporary file, so a failure
// never leaves a partial CSV behind.
func WriteFile(path string, layout Layout, records []models.ReviewRecord) error {
	return writeAtomic(path, func(w io.Writer) error {
		return Write(w, layout, records)
	})
}

func writeAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	// Each writer gets its own temp file; concurrent runs of one profile
	// race only on the final rename.
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmp := f.Name()
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Shuffle reorders records in place with a seeded generator so that the
// same seed always yields the same order.
func Shuffle(records []models.ReviewRecord, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}

// Renumber sets Position to each record's index.
func Renumber(records []models.ReviewRecord) {
	for i := range records {
		records[i].Position = i
	}
}

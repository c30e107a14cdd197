package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"sarcasm-review/internal/chatexport"
)

// ReadableColumn is prepended by AddReadableText.
const ReadableColumn = "text_readable"

// TextLookup maps a UTC instant to replacement text.
type TextLookup map[int64]string

// Put stores text for t. A later message with the same instant wins.
func (l TextLookup) Put(t time.Time, text string) {
	l[t.UTC().UnixNano()] = text
}

// Get returns the text stored for t.
func (l TextLookup) Get(t time.Time) (string, bool) {
	s, ok := l[t.UTC().UnixNano()]
	return s, ok
}

// JoinStats reports how many rows AddReadableText matched.
type JoinStats struct {
	Rows    int
	Matched int
	Texts   []string // text_readable of every row, in order
}

// AddReadableText reads a review CSV that has a sent_at_utc column and writes
// it back with a text_readable column first, filled from lookup by timestamp.
// Rows without a match get an empty text_readable.
func AddReadableText(r io.Reader, w io.Writer, lookup TextLookup) (JoinStats, error) {
	var stats JoinStats

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	tsCol := slices.Index(header, "sent_at_utc")
	if tsCol < 0 {
		return stats, errors.New("review file has no sent_at_utc column")
	}
	// Rewriting an already joined file replaces the old column.
	existing := slices.Index(header, ReadableColumn)

	writer := csv.NewWriter(w)
	if err := writer.Write(prepend(ReadableColumn, header, existing)); err != nil {
		return stats, err
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		var readable string
		if ts, err := chatexport.ParseTimestamp(row[tsCol]); err == nil {
			if s, ok := lookup.Get(ts); ok {
				readable = s
				stats.Matched++
			}
		}
		stats.Texts = append(stats.Texts, readable)
		if err := writer.Write(prepend(readable, row, existing)); err != nil {
			return stats, err
		}
	}

	writer.Flush()
	return stats, writer.Error()
}

// AddReadableTextFile is AddReadableText over files.
func AddReadableTextFile(inPath, outPath string, lookup TextLookup) (JoinStats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return JoinStats{}, fmt.Errorf("open review file: %w", err)
	}
	defer in.Close()

	var stats JoinStats
	err = writeAtomic(outPath, func(w io.Writer) error {
		var err error
		stats, err = AddReadableText(in, w, lookup)
		return err
	})
	return stats, err
}

func prepend(first string, row []string, drop int) []string {
	out := make([]string, 0, len(row)+1)
	out = append(out, first)
	for i, v := range row {
		if i == drop {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ReviewedRow is one row of a CSV a human has filled in.
type ReviewedRow struct {
	Position        int
	Text            string
	IsRealSarcasm   *bool
	ConfidenceLevel string
	Notes           string
}

// Reviewed reports whether the reviewer filled in any field.
func (r ReviewedRow) Reviewed() bool {
	return r.IsRealSarcasm != nil || r.ConfidenceLevel != "" || r.Notes != ""
}

var textColumns = []string{"text_final", "text_readable", "text_clean"}

// ReadReviewed parses a reviewed CSV. The text column is the first of
// text_final, text_readable or text_clean present in the header.
func ReadReviewed(r io.Reader) ([]ReviewedRow, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	textCol := -1
	for _, name := range textColumns {
		if i := slices.Index(header, name); i >= 0 {
			textCol = i
			break
		}
	}
	if textCol < 0 {
		return nil, errors.New("reviewed file has no text column")
	}
	sarcasmCol := slices.Index(header, "is_real_sarcasm")
	confCol := slices.Index(header, "confidence_level")
	notesCol := slices.Index(header, "notes")

	var rows []ReviewedRow
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}

		row := ReviewedRow{
			Position:        len(rows),
			Text:            rec[textCol],
			ConfidenceLevel: strings.TrimSpace(field(rec, confCol)),
			Notes:           strings.TrimSpace(field(rec, notesCol)),
		}
		if v, ok := ParseVerdict(field(rec, sarcasmCol)); ok {
			row.IsRealSarcasm = &v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// ParseVerdict reads a reviewer's yes/no answer. ok is false when the cell
// is blank or unrecognised.
func ParseVerdict(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

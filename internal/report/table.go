// Package report renders characterization results for people and
// spreadsheets: a per-sequence CSV table, an HTML histogram report, and PNG
// histogram plots.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/chroma-data/gamut.report/internal/gamut"
)

// FrameRow is one frame's flattened statistics.
type FrameRow struct {
	Frame string
	Cols  gamut.Columns
}

// Table is a rectangular view over per-frame column maps. Keys are the
// union of all rows' keys; frames missing a key leave that cell empty.
type Table struct {
	Keys []string
	Rows []FrameRow
}

// BuildTable assembles a table from per-frame rows, with keys sorted for a
// stable column order.
func BuildTable(rows []FrameRow) *Table {
	keySet := map[string]bool{}
	for _, r := range rows {
		for k := range r.Cols {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Table{Keys: keys, Rows: rows}
}

// WriteCSV writes the table with a header row. The first column is the
// frame path.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"frame"}, t.Keys...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range t.Rows {
		record := make([]string, 0, len(header))
		record = append(record, r.Frame)
		for _, k := range t.Keys {
			v, ok := r.Cols[k]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for %s: %w", r.Frame, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

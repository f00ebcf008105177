package report

import (
	"fmt"

	"github.com/chroma-data/gamut.report/internal/fsutil"
	"github.com/chroma-data/gamut.report/internal/gamut"
)

// SaveCSV writes the table as CSV at path.
func SaveCSV(fs fsutil.FileSystem, path string, table *Table) error {
	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := table.WriteCSV(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// SaveHTML writes an HTML histogram report at path.
func SaveHTML(fs fsutil.FileSystem, path string, census *gamut.Census, title string) error {
	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteHTMLReport(w, census, title); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

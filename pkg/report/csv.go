// Package report writes the comparison results: the statistics table as
// CSV, the subtended flow summary and the pre/post box plot.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cabgcompare/pkg/comparison"
)

// Header is the first record of the statistics report.
var Header = []string{"group", "statistic", "valueA", "valueB", "indexValueA", "indexValueB"}

// WriteCSV writes rows after Header.
func WriteCSV(w io.Writer, rows []comparison.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Group, r.Statistic, r.A.String(), r.B.String(), r.IndexA.String(), r.IndexB.String()}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the report to path, creating its directory.
func WriteCSVFile(path string, rows []comparison.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

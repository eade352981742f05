// Package frame holds named float64 columns read from and written to CSV.
package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// Table is a set of equal-length named columns.
type Table struct {
	Names []string
	Cols  [][]float64
}

func (t *Table) NumRows() int {
	if len(t.Cols) == 0 {
		return 0
	}
	return len(t.Cols[0])
}

// Col returns the column with the given name.
func (t *Table) Col(name string) ([]float64, bool) {
	for i, n := range t.Names {
		if n == name {
			return t.Cols[i], true
		}
	}
	return nil, false
}

// Append adds a column. It fails on duplicate names or a length mismatch.
func (t *Table) Append(name string, col []float64) error {
	if _, ok := t.Col(name); ok {
		return fmt.Errorf("duplicate column %q", name)
	}
	if len(t.Cols) > 0 && len(col) != t.NumRows() {
		return fmt.Errorf("column %q has %d rows, want %d", name, len(col), t.NumRows())
	}
	t.Names = append(t.Names, name)
	t.Cols = append(t.Cols, col)
	return nil
}

var missingTokens = map[string]bool{
	"":     true,
	"NaN":  true,
	"nan":  true,
	"NA":   true,
	"N/A":  true,
	"null": true,
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if missingTokens[s] {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// ReadCSV reads a header row followed by numeric rows.
// Empty, NaN, NA, N/A and null cells are missing.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	t := &Table{
		Names: make([]string, len(header)),
		Cols:  make([][]float64, len(header)),
	}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if seen[h] {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = true
		t.Names[i] = h
	}

	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		for i, cell := range rec {
			v, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", row, t.Names[i], err)
			}
			t.Cols[i] = append(t.Cols[i], v)
		}
	}
	return t, nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes t with a header row. Missing values become empty cells.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names); err != nil {
		return err
	}
	rec := make([]string, len(t.Cols))
	for row := 0; row < t.NumRows(); row++ {
		for i, col := range t.Cols {
			rec[i] = formatCell(col[row])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MissingMask returns the positions of col that hold NaN.
func MissingMask(col []float64) *roaring.Bitmap {
	b := roaring.New()
	for i, v := range col {
		if math.IsNaN(v) {
			b.Add(uint32(i))
		}
	}
	return b
}

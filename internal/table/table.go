package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/i474232898/emission-dashboard/internal/faults"
)

// ErrNoColumn is returned when a requested column is not in the header.
var ErrNoColumn = errors.New("column not found")

// Table is a header plus string rows, the shape of every persisted file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns every value of the named column.
func (t Table) Column(name string) ([]string, error) {
	idx := t.index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, name)
	}
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r[idx])
	}
	return out, nil
}

// Floats parses the named column as float64 values.
func (t Table) Floats(name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(col))
	for i, v := range col {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s row %d: %w", name, i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func (t Table) index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Write replaces the file at path with t: comma separated, header first, no
// index column. The rows go to a temporary file in the same directory which is
// renamed over path only once fully written, so a failed write leaves the
// previous file intact.
func Write(path string, t Table) (err error) {
	for i, r := range t.Rows {
		if len(r) != len(t.Header) {
			return &faults.PersistenceError{Path: path, Err: fmt.Errorf("row %d has %d fields, header has %d", i, len(r), len(t.Header))}
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &faults.PersistenceError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(t.Header); err != nil {
		return &faults.PersistenceError{Path: path, Err: err}
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return &faults.PersistenceError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &faults.PersistenceError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &faults.PersistenceError{Path: path, Err: err}
	}
	return nil
}

// Read loads a file written by Write.
func Read(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, &faults.PersistenceError{Path: path, Err: err}
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Table{}, &faults.PersistenceError{Path: path, Err: err}
	}
	if len(records) == 0 {
		return Table{}, &faults.PersistenceError{Path: path, Err: errors.New("file has no header")}
	}
	return Table{Header: records[0], Rows: records[1:]}, nil
}

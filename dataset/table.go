// Package dataset loads the fitness-class booking data into an in-memory,
// column-oriented table of raw string cells. Typing and cleaning happen later
// in the preprocessing package; this package only reads, writes, and inspects.
package dataset

import (
	"encoding/csv"
	"os"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// Canonical column names of the booking CSV.
const (
	ColBookingID      = "booking_id"
	ColMonthsAsMember = "months_as_member"
	ColWeight         = "weight"
	ColDaysBefore     = "days_before"
	ColDayOfWeek      = "day_of_week"
	ColTime           = "time"
	ColCategory       = "category"
	ColAttended       = "attended"
)

// Columns is the fixed, documented column set of a booking record, in file order.
var Columns = []string{
	ColBookingID,
	ColMonthsAsMember,
	ColWeight,
	ColDaysBefore,
	ColDayOfWeek,
	ColTime,
	ColCategory,
	ColAttended,
}

// IsMissing reports whether a raw cell encodes a missing value.
func IsMissing(cell string) bool {
	return cell == "" || cell == "NA" || cell == "NaN"
}

// Table is a column-oriented table of raw string cells with ordered column names.
type Table struct {
	names []string
	index map[string]int
	cols  [][]string
}

// NewTable creates an empty table with the given column names.
func NewTable(names []string) *Table {
	t := &Table{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
		cols:  make([][]string, len(names)),
	}
	for i, n := range names {
		t.index[n] = i
	}
	return t
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.names)
}

// HasCol reports whether the table contains the named column.
func (t *Table) HasCol(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Col returns the cells of the named column.
func (t *Table) Col(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.NewValueError("Table.Col", "no such column: "+name)
	}
	return t.cols[i], nil
}

// SetCol replaces the cells of the named column. The replacement must have
// the same length as the existing rows.
func (t *Table) SetCol(name string, cells []string) error {
	i, ok := t.index[name]
	if !ok {
		return errors.NewValueError("Table.SetCol", "no such column: "+name)
	}
	if n := t.NumRows(); n != 0 && len(cells) != n {
		return errors.NewDimensionError("Table.SetCol", n, len(cells), 0)
	}
	t.cols[i] = cells
	return nil
}

// AppendRow appends one row of cells in column order.
func (t *Table) AppendRow(cells []string) error {
	if len(cells) != len(t.names) {
		return errors.NewDimensionError("Table.AppendRow", len(t.names), len(cells), 1)
	}
	for i, c := range cells {
		t.cols[i] = append(t.cols[i], c)
	}
	return nil
}

// DropCol removes the named column.
func (t *Table) DropCol(name string) error {
	i, ok := t.index[name]
	if !ok {
		return errors.NewValueError("Table.DropCol", "no such column: "+name)
	}
	t.names = append(t.names[:i], t.names[i+1:]...)
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	t.index = make(map[string]int, len(t.names))
	for j, n := range t.names {
		t.index[n] = j
	}
	return nil
}

// MissingCounts returns the number of missing cells per column.
func (t *Table) MissingCounts() map[string]int {
	counts := make(map[string]int, len(t.names))
	for i, name := range t.names {
		n := 0
		for _, cell := range t.cols[i] {
			if IsMissing(cell) {
				n++
			}
		}
		counts[name] = n
	}
	return counts
}

// LoadCSV reads a delimited file with a header row into a Table.
// A missing or malformed file propagates as a read error.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: cannot open %s", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: malformed CSV %s", path)
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset: "+path)
	}

	t := NewTable(records[0])
	for _, rec := range records[1:] {
		if err := t.AppendRow(rec); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteCSV writes the table with a header row.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dataset: cannot create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(t.names); err != nil {
		return errors.Wrap(err, "dataset: write header")
	}
	row := make([]string, len(t.names))
	for i := 0; i < t.NumRows(); i++ {
		for j := range t.cols {
			row[j] = t.cols[j][i]
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "dataset: write row %d", i)
		}
	}
	w.Flush()
	return errors.WithStack(w.Error())
}

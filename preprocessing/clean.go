package preprocessing

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/dataset"
	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// Unknown is the explicit category written in place of placeholder sentinels.
const Unknown = "unknown"

// Sentinel is the placeholder the raw export uses for an absent category.
const Sentinel = "-"

// CanonicalWeekdays lists the canonical 3-letter codes in week order.
var CanonicalWeekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// TimeSlots lists the two valid class time slots, in day order.
var TimeSlots = []string{"AM", "PM"}

// weekdaySpellings is the fixed lookup table over the known input vocabulary.
// Every recognized spelling maps to exactly one canonical code; anything else
// is a hard error rather than a silently dropped row.
var weekdaySpellings = map[string]string{
	"Mon": "Mon", "Mon.": "Mon", "Monday": "Mon",
	"Tue": "Tue", "Tue.": "Tue", "Tues": "Tue", "Tuesday": "Tue",
	"Wed": "Wed", "Wed.": "Wed", "Wednesday": "Wed",
	"Thu": "Thu", "Thu.": "Thu", "Thur": "Thu", "Thurs": "Thu", "Thursday": "Thu",
	"Fri": "Fri", "Fri.": "Fri", "Friday": "Fri",
	"Sat": "Sat", "Sat.": "Sat", "Saturday": "Sat",
	"Sun": "Sun", "Sun.": "Sun", "Sunday": "Sun",
}

// CanonicalWeekday maps one spelling to its canonical 3-letter code.
func CanonicalWeekday(label string) (string, error) {
	if code, ok := weekdaySpellings[strings.TrimSpace(label)]; ok {
		return code, nil
	}
	return "", errors.NewUnknownLabelError("day_of_week", label, CanonicalWeekdays)
}

// NormalizeWeekdays canonicalizes a whole column of weekday labels.
func NormalizeWeekdays(cells []string) ([]string, error) {
	out := make([]string, len(cells))
	for i, cell := range cells {
		code, err := CanonicalWeekday(cell)
		if err != nil {
			return nil, err
		}
		out[i] = code
	}
	return out, nil
}

// ParseDayCount parses a lead-time cell that is either a plain integer or the
// string-encoded "N days" form. Parsing is idempotent: an already-numeric
// value is a no-op. Non-numeric residue is a parse error.
func ParseDayCount(cell string) (int, error) {
	s := strings.TrimSpace(cell)
	s = strings.TrimSuffix(s, " days")
	s = strings.TrimSuffix(s, " day")

	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.NewParseError("ParseDayCount", dataset.ColDaysBefore, cell)
	}
	if n < 0 {
		return 0, errors.NewValueError("ParseDayCount", "lead time must be non-negative")
	}
	return n, nil
}

// ReplaceSentinel rewrites placeholder cells to an explicit replacement category.
func ReplaceSentinel(cells []string, sentinel, replacement string) []string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		if cell == sentinel || dataset.IsMissing(cell) {
			out[i] = replacement
		} else {
			out[i] = cell
		}
	}
	return out
}

// ParseFloatColumn parses raw cells to float64, mapping missing cells to NaN.
// Malformed non-missing cells are a parse error.
func ParseFloatColumn(cells []string, field string) ([]float64, error) {
	out := make([]float64, len(cells))
	for i, cell := range cells {
		if dataset.IsMissing(cell) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, errors.NewParseError("ParseFloatColumn", field, cell)
		}
		out[i] = v
	}
	return out, nil
}

// Cleaner applies the full cleaning pass to a raw booking table, in place:
//
//   - months_as_member, weight: parsed, missing cells mean-imputed
//   - days_before: "N days" suffixes stripped, parsed, missing mean-imputed
//   - day_of_week: canonicalized to 3-letter codes via the fixed lookup
//   - time: must be one of the valid slots (AM/PM) and never missing
//   - category: "-" placeholder rewritten to "unknown"
//   - attended: must be 0/1 and never missing
//
// After Clean returns nil, no field except the identifier may be missing.
type Cleaner struct{}

// NewCleaner creates a Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean runs the cleaning pass described on the type.
func (c *Cleaner) Clean(t *dataset.Table) error {
	// Lead time first: strip the unit suffix so it joins the numeric columns.
	days, err := t.Col(dataset.ColDaysBefore)
	if err != nil {
		return err
	}
	daysClean := make([]string, len(days))
	for i, cell := range days {
		if dataset.IsMissing(cell) {
			daysClean[i] = cell
			continue
		}
		n, err := ParseDayCount(cell)
		if err != nil {
			return err
		}
		daysClean[i] = strconv.Itoa(n)
	}
	if err := t.SetCol(dataset.ColDaysBefore, daysClean); err != nil {
		return err
	}

	// Mean-impute every numeric modeling column.
	for _, name := range []string{dataset.ColMonthsAsMember, dataset.ColWeight, dataset.ColDaysBefore} {
		if err := c.imputeColumn(t, name); err != nil {
			return err
		}
	}

	// Weekday canonicalization, total over the known vocabulary.
	wd, err := t.Col(dataset.ColDayOfWeek)
	if err != nil {
		return err
	}
	wdClean, err := NormalizeWeekdays(wd)
	if err != nil {
		return err
	}
	if err := t.SetCol(dataset.ColDayOfWeek, wdClean); err != nil {
		return err
	}

	// Time slot: closed binary vocabulary, so a missing cell is just another
	// unknown label.
	slots, err := t.Col(dataset.ColTime)
	if err != nil {
		return err
	}
	for _, cell := range slots {
		if cell != "AM" && cell != "PM" {
			return errors.NewUnknownLabelError(dataset.ColTime, cell, TimeSlots)
		}
	}

	// Placeholder category to explicit "unknown".
	cat, err := t.Col(dataset.ColCategory)
	if err != nil {
		return err
	}
	if err := t.SetCol(dataset.ColCategory, ReplaceSentinel(cat, Sentinel, Unknown)); err != nil {
		return err
	}

	// Label sanity: binary and never missing.
	y, err := t.Col(dataset.ColAttended)
	if err != nil {
		return err
	}
	for _, cell := range y {
		if cell != "0" && cell != "1" {
			return errors.NewParseError("Cleaner.Clean", dataset.ColAttended, cell)
		}
	}
	return nil
}

func (c *Cleaner) imputeColumn(t *dataset.Table, name string) error {
	cells, err := t.Col(name)
	if err != nil {
		return err
	}
	vals, err := ParseFloatColumn(cells, name)
	if err != nil {
		return err
	}

	imputer := NewMeanImputer()
	filled, err := imputer.FitTransform(mat.NewDense(len(vals), 1, vals))
	if err != nil {
		return errors.Wrapf(err, "imputing column %s", name)
	}

	out := make([]string, len(vals))
	for i := range out {
		out[i] = strconv.FormatFloat(filled.At(i, 0), 'f', -1, 64)
	}
	return t.SetCol(name, out)
}

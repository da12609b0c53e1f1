package preprocessing

import (
	"sort"

	"github.com/YuminosukeSato/fitattend/pkg/errors"
)

// Categorical is an explicit tagged categorical type: a field name, its
// declared levels, and whether the level order is meaningful. It replaces
// implicit factor casts with a type that carries its own level order.
type Categorical struct {
	Name    string
	Levels  []string
	Ordered bool

	index map[string]int
}

// NewCategorical declares a categorical field with the given levels.
// For ordered categoricals the slice order is the level order.
func NewCategorical(name string, levels []string, ordered bool) *Categorical {
	c := &Categorical{
		Name:    name,
		Levels:  append([]string(nil), levels...),
		Ordered: ordered,
		index:   make(map[string]int, len(levels)),
	}
	for i, l := range c.Levels {
		c.index[l] = i
	}
	return c
}

// InferCategorical declares an unordered categorical whose levels are the
// sorted distinct values observed in the column.
func InferCategorical(name string, cells []string) *Categorical {
	seen := make(map[string]bool)
	var levels []string
	for _, cell := range cells {
		if !seen[cell] {
			seen[cell] = true
			levels = append(levels, cell)
		}
	}
	sort.Strings(levels)
	return NewCategorical(name, levels, false)
}

// NumLevels returns the number of declared levels.
func (c *Categorical) NumLevels() int {
	return len(c.Levels)
}

// Code returns the level code of a value, erroring on values outside the
// declared levels.
func (c *Categorical) Code(value string) (int, error) {
	i, ok := c.index[value]
	if !ok {
		return 0, errors.NewUnknownLabelError(c.Name, value, c.Levels)
	}
	return i, nil
}

// Encode maps a whole column to level codes.
func (c *Categorical) Encode(cells []string) ([]float64, error) {
	out := make([]float64, len(cells))
	for i, cell := range cells {
		code, err := c.Code(cell)
		if err != nil {
			return nil, err
		}
		out[i] = float64(code)
	}
	return out, nil
}

// Weekday is the ordered day-of-week categorical, Mon < Tue < ... < Sun.
func Weekday() *Categorical {
	return NewCategorical("day_of_week", CanonicalWeekdays, true)
}

// TimeSlot is the ordered time-slot categorical, AM < PM.
func TimeSlot() *Categorical {
	return NewCategorical("time", []string{"AM", "PM"}, true)
}

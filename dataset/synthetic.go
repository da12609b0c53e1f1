package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Synthetic data vocabulary. Weekday spellings are deliberately inconsistent
// and the category column carries the "-" placeholder, mirroring the raw
// export this pipeline is built to clean.
var (
	synthWeekdays   = []string{"Mon", "Monday", "Tue", "Tuesday", "Wed", "Wednesday", "Thu", "Thursday", "Fri", "Fri.", "Sat", "Saturday", "Sun", "Sunday"}
	synthTimes      = []string{"AM", "PM"}
	synthCategories = []string{"HIIT", "Cycling", "Strength", "Yoga", "Aqua", "-"}
)

// Generate builds a synthetic booking table of n rows, deterministic under
// the given seed. Roughly 5% of weights are missing and lead times mix plain
// integers with the "N days" string encoding.
func Generate(n int, seed uint64) *Table {
	r := rand.New(rand.NewPCG(seed, seed))
	t := NewTable(Columns)

	for i := 0; i < n; i++ {
		months := r.IntN(60) + 1
		weight := 55.0 + r.Float64()*45.0
		days := r.IntN(30)
		wd := synthWeekdays[r.IntN(len(synthWeekdays))]
		slot := synthTimes[r.IntN(len(synthTimes))]
		cat := synthCategories[r.IntN(len(synthCategories))]

		// Attendance depends on tenure and lead time so the classifiers have
		// signal to find.
		pAttend := 0.15 + 0.012*float64(months) - 0.008*float64(days)
		attended := "0"
		if r.Float64() < pAttend {
			attended = "1"
		}

		weightCell := fmt.Sprintf("%.2f", weight)
		if r.Float64() < 0.05 {
			weightCell = ""
		}
		daysCell := fmt.Sprintf("%d", days)
		if r.Float64() < 0.3 {
			daysCell = fmt.Sprintf("%d days", days)
		}

		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("booking-%d-%d", seed, i)))
		_ = t.AppendRow([]string{
			id.String(),
			fmt.Sprintf("%d", months),
			weightCell,
			daysCell,
			wd,
			slot,
			cat,
			attended,
		})
	}
	return t
}

// Command gendata writes a synthetic bookings CSV with the same quirks as
// real exports: mixed weekday spellings, "N days" lead times, missing
// weights, and "-" category sentinels.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/YuminosukeSato/fitattend/dataset"
	"github.com/YuminosukeSato/fitattend/pkg/log"
)

func main() {
	var (
		out  = flag.String("out", "bookings.csv", "output CSV path")
		rows = flag.Int("rows", 1500, "number of bookings to generate")
		seed = flag.Uint64("seed", 42, "generator seed")
	)
	flag.Parse()
	log.SetupLogger("info")

	table := dataset.Generate(*rows, *seed)
	if err := table.WriteCSV(*out); err != nil {
		slog.Error("writing dataset failed", log.ErrAttr(err))
		os.Exit(1)
	}
	slog.Info("dataset written", slog.String("path", *out), slog.Int(log.RowsKey, table.NumRows()))
}

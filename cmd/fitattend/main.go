// Command fitattend runs the attendance prediction pipeline end to end:
// it loads the bookings dataset, cleans and encodes it, trains a logistic
// regression and a random forest, evaluates both on a held-out partition,
// and renders the exploratory and ROC charts.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/YuminosukeSato/fitattend/pipeline"
	"github.com/YuminosukeSato/fitattend/pkg/log"
)

func main() {
	cfg, err := pipeline.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", log.ErrAttr(err))
		os.Exit(1)
	}
	log.SetupLogger(cfg.LogLevel)

	report, err := pipeline.Run(cfg)
	if err != nil {
		slog.Error("pipeline failed", log.ErrAttr(err))
		os.Exit(1)
	}

	fmt.Print(report.ComparisonTable())
}

// Package fitattend predicts whether a fitness-class booking will turn into
// an actual attendance.
//
// The repository is organized as a pipeline over a bookings CSV export:
//
//   - dataset: the string-typed bookings table, CSV I/O and a synthetic
//     data generator with the quirks of real exports
//   - preprocessing: cleaning (duration suffixes, weekday spellings,
//     sentinel categories, mean imputation) and numeric encoding
//   - modelselection: seeded stratified train/test splitting
//   - linear: binary logistic regression
//   - ensemble: CART decision tree and bagged random forest
//   - metrics: accuracy, RMSE, log loss, AUC and ROC curves
//   - visualize: PNG charts rendered with gonum/plot
//   - pipeline: configuration and end-to-end orchestration
//
// # Quick Start
//
// Run the whole pipeline on a CSV export:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/fitattend/pipeline"
//	)
//
//	func main() {
//	    cfg, err := pipeline.LoadConfig()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    report, err := pipeline.Run(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(report.ComparisonTable())
//	}
//
// Individual estimators follow a Fit/Predict/PredictProba API on gonum
// matrices, so they can also be used standalone:
//
//	rf := ensemble.NewRandomForestClassifier(
//	    ensemble.WithNEstimators(100),
//	    ensemble.WithForestRandomState(42),
//	)
//	if err := rf.Fit(XTrain, yTrain); err != nil {
//	    log.Fatal(err)
//	}
//	probas, err := rf.PredictProba(XTest)
//
// Every source of randomness (splitting, weight initialization, bootstrap
// sampling, synthetic data) takes an explicit seed, so a run with the same
// configuration reproduces exactly.
package fitattend

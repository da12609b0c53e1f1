package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/fitattend/dataset"
	"github.com/YuminosukeSato/fitattend/ensemble"
	"github.com/YuminosukeSato/fitattend/linear"
	"github.com/YuminosukeSato/fitattend/metrics"
	"github.com/YuminosukeSato/fitattend/modelselection"
	"github.com/YuminosukeSato/fitattend/pkg/errors"
	"github.com/YuminosukeSato/fitattend/pkg/log"
	"github.com/YuminosukeSato/fitattend/preprocessing"
	"github.com/YuminosukeSato/fitattend/visualize"
)

// ModelReport holds one model's test-set metrics.
type ModelReport struct {
	Name     string
	Accuracy float64
	RMSE     float64
	AUC      float64
}

// Report summarizes a full pipeline run.
type Report struct {
	Rows         int
	Features     int
	FeatureNames []string
	TrainRows    int
	TestRows     int
	Models       []ModelReport
}

// ComparisonTable renders the per-model metrics as an aligned text table.
func (r *Report) ComparisonTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-22s %10s %10s %10s\n", "model", "accuracy", "rmse", "auc")
	for _, m := range r.Models {
		fmt.Fprintf(&b, "%-22s %10.4f %10.4f %10.4f\n", m.Name, m.Accuracy, m.RMSE, m.AUC)
	}
	return b.String()
}

// Run executes the whole pipeline: load, clean, encode, split, train both
// models, evaluate them on the held-out partition, and render plots.
// A panic in any stage surfaces as an error, not a crash.
func Run(cfg *Config) (report *Report, err error) {
	defer errors.Recover(&err, "pipeline.Run")

	started := time.Now()

	table, err := loadStage(cfg)
	if err != nil {
		return nil, err
	}

	if err := cleanStage(table); err != nil {
		return nil, err
	}

	X, y, featureNames, err := encodeStage(table)
	if err != nil {
		return nil, err
	}

	split, err := splitStage(cfg, y)
	if err != nil {
		return nil, err
	}

	XTrain := modelselection.Take(X, split.TrainIndices)
	yTrain := modelselection.Take(y, split.TrainIndices)
	XTest := modelselection.Take(X, split.TestIndices)
	yTest := modelselection.Take(y, split.TestIndices)

	lrReport, lrScores, err := trainLogistic(cfg, XTrain, yTrain, XTest, yTest)
	if err != nil {
		return nil, err
	}
	rfReport, rfScores, err := trainForest(cfg, XTrain, yTrain, XTest, yTest)
	if err != nil {
		return nil, err
	}

	if cfg.PlotsDir != "" {
		// gonum/plot panics on some degenerate inputs rather than erroring.
		err := errors.SafeExecute("pipeline.plotStage", func() error {
			return plotStage(cfg, table, yTest, lrScores, rfScores)
		})
		if err != nil {
			return nil, err
		}
	}

	rows, features := X.Dims()
	report = &Report{
		Rows:         rows,
		Features:     features,
		FeatureNames: featureNames,
		TrainRows:    len(split.TrainIndices),
		TestRows:     len(split.TestIndices),
		Models:       []ModelReport{lrReport, rfReport},
	}

	slog.Info("pipeline finished",
		slog.Int64(log.DurationMsKey, time.Since(started).Milliseconds()),
		slog.Int(log.RowsKey, report.Rows),
		slog.Int(log.FeaturesKey, report.Features),
	)
	return report, nil
}

func loadStage(cfg *Config) (*dataset.Table, error) {
	var (
		table *dataset.Table
		err   error
	)
	if cfg.DataPath != "" {
		table, err = dataset.LoadCSV(cfg.DataPath)
		if err != nil {
			return nil, err
		}
	} else {
		table = dataset.Generate(cfg.SyntheticRows, cfg.Seed)
	}

	slog.Info("dataset loaded",
		slog.String(log.StageKey, "load"),
		slog.Int(log.RowsKey, table.NumRows()),
	)
	for column, missing := range table.MissingCounts() {
		if missing == 0 {
			continue
		}
		slog.Info("missing values found",
			slog.String(log.StageKey, "load"),
			slog.String(log.ColumnKey, column),
			slog.Int(log.MissingKey, missing),
		)
	}
	return table, nil
}

func cleanStage(table *dataset.Table) error {
	cleaner := preprocessing.NewCleaner()
	if err := cleaner.Clean(table); err != nil {
		return err
	}
	slog.Info("dataset cleaned",
		slog.String(log.StageKey, "clean"),
		slog.Int(log.RowsKey, table.NumRows()),
	)
	return nil
}

func encodeStage(table *dataset.Table) (*mat.Dense, *mat.Dense, []string, error) {
	encoder := preprocessing.NewEncoder()
	X, err := encoder.FitTransform(table)
	if err != nil {
		return nil, nil, nil, err
	}
	y, err := encoder.Label(table)
	if err != nil {
		return nil, nil, nil, err
	}

	_, features := X.Dims()
	slog.Info("features encoded",
		slog.String(log.StageKey, "encode"),
		slog.Int(log.FeaturesKey, features),
	)
	return X, y, encoder.FeatureNames(), nil
}

func splitStage(cfg *Config, y mat.Matrix) (modelselection.Split, error) {
	splitter := modelselection.NewStratifiedShuffleSplit(cfg.TrainFraction, cfg.Seed)
	split, err := splitter.Split(y)
	if err != nil {
		return split, err
	}
	slog.Info("dataset split",
		slog.String(log.StageKey, "split"),
		slog.Int(log.TrainRowsKey, len(split.TrainIndices)),
		slog.Int(log.TestRowsKey, len(split.TestIndices)),
	)
	return split, nil
}

func trainLogistic(cfg *Config, XTrain, yTrain, XTest, yTest mat.Matrix) (ModelReport, *mat.VecDense, error) {
	started := time.Now()

	lr := linear.NewLogisticRegression(
		linear.WithLRMaxIter(1000),
		linear.WithLRRandomState(cfg.Seed),
	)
	if err := lr.Fit(XTrain, yTrain); err != nil {
		return ModelReport{}, nil, err
	}

	predictions, err := lr.Predict(XTest)
	if err != nil {
		return ModelReport{}, nil, err
	}
	probas, err := lr.PredictProba(XTest)
	if err != nil {
		return ModelReport{}, nil, err
	}
	scores := positiveScores(probas)

	report, err := evaluate("LogisticRegression", yTest, predictions, scores)
	if err != nil {
		return ModelReport{}, nil, err
	}

	slog.Info("model trained",
		slog.String(log.StageKey, "train"),
		slog.String(log.ModelNameKey, "LogisticRegression"),
		slog.Float64(log.AccuracyKey, report.Accuracy),
		slog.Float64(log.RMSEKey, report.RMSE),
		slog.Float64(log.AUCKey, report.AUC),
		slog.Int64(log.DurationMsKey, time.Since(started).Milliseconds()),
	)
	return report, scores, nil
}

func trainForest(cfg *Config, XTrain, yTrain, XTest, yTest mat.Matrix) (ModelReport, *mat.VecDense, error) {
	started := time.Now()

	rf := ensemble.NewRandomForestClassifier(
		ensemble.WithNEstimators(100),
		ensemble.WithForestRandomState(cfg.Seed),
	)
	if err := rf.Fit(XTrain, yTrain); err != nil {
		return ModelReport{}, nil, err
	}

	predictions, err := rf.Predict(XTest)
	if err != nil {
		return ModelReport{}, nil, err
	}
	probas, err := rf.PredictProba(XTest)
	if err != nil {
		return ModelReport{}, nil, err
	}
	scores := positiveScores(probas)

	report, err := evaluate("RandomForestClassifier", yTest, predictions, scores)
	if err != nil {
		return ModelReport{}, nil, err
	}

	slog.Info("model trained",
		slog.String(log.StageKey, "train"),
		slog.String(log.ModelNameKey, "RandomForestClassifier"),
		slog.Float64(log.AccuracyKey, report.Accuracy),
		slog.Float64(log.RMSEKey, report.RMSE),
		slog.Float64(log.AUCKey, report.AUC),
		slog.Int64(log.DurationMsKey, time.Since(started).Milliseconds()),
	)
	return report, scores, nil
}

func evaluate(name string, yTest, predictions mat.Matrix, scores *mat.VecDense) (ModelReport, error) {
	accuracy, err := metrics.AccuracyMatrix(yTest, predictions)
	if err != nil {
		return ModelReport{}, errors.Wrap(err, "evaluate "+name)
	}
	rmse, err := metrics.RMSEMatrix(yTest, predictions)
	if err != nil {
		return ModelReport{}, errors.Wrap(err, "evaluate "+name)
	}
	auc, err := metrics.AUC(columnVec(yTest), scores)
	if err != nil {
		return ModelReport{}, errors.Wrap(err, "evaluate "+name)
	}
	return ModelReport{Name: name, Accuracy: accuracy, RMSE: rmse, AUC: auc}, nil
}

func plotStage(cfg *Config, table *dataset.Table, yTest mat.Matrix, lrScores, rfScores *mat.VecDense) error {
	if err := os.MkdirAll(cfg.PlotsDir, 0o755); err != nil {
		return errors.Wrap(err, "plotStage: create plots directory")
	}

	if err := visualize.AttendanceByWeekday(table, filepath.Join(cfg.PlotsDir, "attendance_by_weekday.png")); err != nil {
		return err
	}
	if err := visualize.WeightHistogram(table, 20, filepath.Join(cfg.PlotsDir, "weight_histogram.png")); err != nil {
		return err
	}
	if err := visualize.LeadTimeByOutcome(table, filepath.Join(cfg.PlotsDir, "lead_time_by_outcome.png")); err != nil {
		return err
	}

	yVec := columnVec(yTest)
	lrCurve, err := metrics.ROCCurve(yVec, lrScores)
	if err != nil {
		return errors.Wrap(err, "plotStage")
	}
	rfCurve, err := metrics.ROCCurve(yVec, rfScores)
	if err != nil {
		return errors.Wrap(err, "plotStage")
	}
	err = visualize.ROCOverlay([]visualize.NamedCurve{
		{Name: "logistic regression", Points: lrCurve},
		{Name: "random forest", Points: rfCurve},
	}, filepath.Join(cfg.PlotsDir, "roc_curves.png"))
	if err != nil {
		return err
	}

	slog.Info("plots rendered",
		slog.String(log.StageKey, "plot"),
		slog.String("plots.dir", cfg.PlotsDir),
	)
	return nil
}

// positiveScores extracts the positive-class probability column.
func positiveScores(probas mat.Matrix) *mat.VecDense {
	rows, _ := probas.Dims()
	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		out.SetVec(i, probas.At(i, 1))
	}
	return out
}

func columnVec(m mat.Matrix) *mat.VecDense {
	rows, _ := m.Dims()
	out := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		out.SetVec(i, m.At(i, 0))
	}
	return out
}

// Package log defines standard attribute keys for the attendance pipeline.
//
// Using these keys keeps the JSON logs of the pipeline stages uniform so a
// whole run can be filtered by stage, model, or dataset shape.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model.
	// Examples: "LogisticRegression", "RandomForestClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "split", "evaluate"
	OperationKey = "ml.operation"

	// StageKey identifies the pipeline stage emitting the log.
	// Examples: "load", "clean", "encode", "split", "train", "evaluate", "plot"
	StageKey = "pipeline.stage"
)

// Data shape and characteristics.
const (
	// RowsKey indicates the number of rows being processed.
	RowsKey = "data.rows"

	// FeaturesKey indicates the number of features (columns) in the design matrix.
	FeaturesKey = "data.features"

	// MissingKey indicates the number of missing cells found in a column.
	MissingKey = "data.missing"

	// ColumnKey names the dataset column an operation applies to.
	ColumnKey = "data.column"

	// TrainRowsKey and TestRowsKey record the partition sizes after splitting.
	TrainRowsKey = "split.train_rows"
	TestRowsKey  = "split.test_rows"
)

// Evaluation metrics.
const (
	// AccuracyKey records classification accuracy on the test partition.
	AccuracyKey = "metric.accuracy"

	// RMSEKey records root mean squared error between numeric-cast label and prediction.
	RMSEKey = "metric.rmse"

	// AUCKey records area under the ROC curve.
	AUCKey = "metric.auc"

	// DurationMsKey records the execution time of a stage in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

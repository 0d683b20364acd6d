// Standard attribute keys. They follow a dotted hierarchical naming
// convention ("dataset.rows", "cleaning.stage") so log lines from every
// stage of the pipeline can be filtered the same way.

package log

// Component context
const (
	// ComponentKey identifies the package emitting the record.
	// Examples: "cleaning", "preprocessing", "analysis", "dataio"
	ComponentKey = "pipeline.component"

	// SessionIDKey identifies the session that owns the dataset.
	SessionIDKey = "session.id"

	// OperationKey specifies the estimator operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ModelNameKey identifies the estimator type.
	ModelNameKey = "model.name"
)

// Dataset shape
const (
	RowsKey     = "dataset.rows"
	ColumnsKey  = "dataset.columns"
	ColumnKey   = "dataset.column"
	FileKey     = "dataset.file"
	FormatKey   = "dataset.format"
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
)

// Cleaning
const (
	// StageKey names the cleaning stage: "missing_values", "outliers" or "duplicates".
	StageKey = "cleaning.stage"

	// PolicyKey records the policy a stage ran with.
	PolicyKey = "cleaning.policy"

	RowsBeforeKey    = "cleaning.rows_before"
	RowsAfterKey     = "cleaning.rows_after"
	ValuesChangedKey = "cleaning.values_changed"
	ThresholdKey     = "cleaning.z_threshold"
)

// Feature preparation
const (
	MissingRatioKey = "prep.missing_ratio"
	ToleranceKey    = "prep.tolerance"
	DiagnosticKey   = "prep.diagnostic"
)

// Analysis
const (
	// AlgorithmKey is the requested algorithm identifier, e.g. "random_forest_regression".
	AlgorithmKey = "analysis.algorithm"

	// FamilyKey is the algorithm family, e.g. "regression", "density".
	FamilyKey = "analysis.family"

	TrainSizeKey   = "analysis.train_size"
	TestSizeKey    = "analysis.test_size"
	RandomSeedKey  = "config.random_seed"
	MSEKey         = "metrics.mse"
	R2ScoreKey     = "metrics.r2_score"
	AccuracyKey    = "metrics.accuracy"
	SilhouetteKey  = "metrics.silhouette"
	ClustersKey    = "metrics.n_clusters"
	DurationMsKey  = "perf.duration_ms"
	IterationKey   = "training.iteration"
	ErrorTypeKey   = "error.type"
	StacktraceKey  = "error.stacktrace"
	ErrorDetailKey = "error.detail"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"

	StageMissingValues = "missing_values"
	StageOutliers      = "outliers"
	StageDuplicates    = "duplicates"
)

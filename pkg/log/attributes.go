// Package log defines standard attribute keys for machine learning operations.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "tuning.fold") so that tuning runs can be filtered and aggregated.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "DecisionTreeRegressor", "RandomForestClassifier"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "score", "tune", "refit"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "tree", "ensemble", "model_selection"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy, range [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// LossKey records a loss value; lower is better.
	LossKey = "metrics.loss"

	// IterationKey records the current iteration number during iterative processes.
	IterationKey = "training.iteration"

	// OOBScoreKey records an out-of-bag estimate.
	OOBScoreKey = "metrics.oob_score"
)

// Tuning
const (
	// RunIDKey identifies one tuning run (a UUID string).
	RunIDKey = "tuning.run_id"

	// ConfigKey is the rendered hyperparameter configuration, e.g. "max_depth=2, mtry=4".
	ConfigKey = "tuning.config"

	// ConfigIndexKey is the position of a configuration in grid enumeration order.
	ConfigIndexKey = "tuning.config_index"

	// CandidatesKey is the number of configurations in the grid.
	CandidatesKey = "tuning.candidates"

	// FoldKey is the held-out fold index under k-fold resampling.
	FoldKey = "tuning.fold"

	// ResamplingKey names the resampling plan ("kfold", "stratified_kfold", "oob").
	ResamplingKey = "tuning.resampling"

	// ScoreKey is the aggregated score of a configuration.
	ScoreKey = "tuning.score"

	// ScorerKey names the scoring function.
	ScorerKey = "tuning.scorer"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// WorkersKey records the number of concurrent fit workers.
	WorkersKey = "config.n_jobs"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationTune    = "tune"
	OperationRefit   = "refit"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidGrid       = "INVALID_GRID"
	ErrorFitFailed         = "FIT_FAILED"
)

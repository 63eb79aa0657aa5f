// Standard attribute keys for training and prediction records.
//
// Keys follow a hierarchical naming convention ("model.name",
// "data.samples") so records from the trainer, the predictor and the CLI can
// be filtered the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model, e.g. "OneVsRest", "StandardScaler".
	ModelNameKey = "model.name"

	// EstimatorIDKey is the artifact identifier (a UUID) of a trained model.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "save", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase ("training", "inference", ...).
	PhaseKey = "ml.phase"

	// ClassKey is the class index handled by a one-vs-rest unit.
	ClassKey = "ml.class"

	// ClassNameKey is the label (house name) of that class.
	ClassNameKey = "ml.class_name"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// DroppedKey counts rows excluded because of missing values.
	DroppedKey = "data.dropped"

	// ImputedKey counts cells replaced by a column mean.
	ImputedKey = "data.imputed"

	// BatchSizeKey indicates the mini-batch size used by gradient descent.
	BatchSizeKey = "data.batch_size"

	// PathKey is the file a record refers to.
	PathKey = "data.path"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// LossKey records the cross-entropy cost.
	LossKey = "metrics.loss"

	// EpochKey records the current epoch number during training.
	EpochKey = "training.epoch"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains the stack trace recorded by cockroachdb/errors.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	// LearningRateKey records the gradient descent step size.
	LearningRateKey = "hyperparams.learning_rate"

	// EpochsKey records the configured number of epochs.
	EpochsKey = "hyperparams.epochs"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationSave      = "save"
	OperationLoad      = "load"
	OperationDescribe  = "describe"
	OperationPlot      = "plot"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)

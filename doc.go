// Package dslr classifies Hogwarts students into their houses from their
// course scores.
//
// The module is a small data science toolkit built around one-vs-rest
// logistic regression trained with gradient descent:
//
//   - dataset: strict CSV loading and validation of the student tables
//   - stats: describe-style summary statistics computed without shortcuts
//   - plots: histograms, scatter plots, pair plots and loss curves
//   - preprocessing: standardization and mean imputation
//   - linear: the binary logistic regression and the one-vs-rest wrapper
//   - core/model: model artifacts (JSON or gob) and a bbolt model registry
//   - pipeline: the train and predict flows used by the CLI
//
// # Quick Start
//
//	dslr describe data/dataset_train.csv
//	dslr train data/dataset_train.csv --model-file model.json
//	dslr predict data/dataset_test.csv --model-file model.json --output houses.csv
//
// Training hyperparameters come from defaults, an optional YAML file
// ($DSLR_CONFIG or --config), DSLR_* environment variables (a .env file is
// read when present) and finally the command line flags.
//
// # Errors
//
// Every error returned by the packages is built with
// github.com/cockroachdb/errors and carries a stack trace. Input problems
// can be detected with errors.Is(err, errors.ErrInvalidInput) and CSV
// problems with errors.IsCSVValidationError.
package dslr

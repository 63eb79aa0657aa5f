package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dslr/core/model"
	"github.com/YuminosukeSato/dslr/dataset"
	"github.com/YuminosukeSato/dslr/linear"
	"github.com/YuminosukeSato/dslr/pipeline"
	"github.com/YuminosukeSato/dslr/pkg/config"
	"github.com/YuminosukeSato/dslr/pkg/log"
	"github.com/YuminosukeSato/dslr/pkg/telemetry"
	"github.com/YuminosukeSato/dslr/plots"
)

type trainOptions struct {
	configPath   string
	modelFile    string
	format       string
	learningRate float64
	epochs       int
	batchSize    int
	parallel     bool
	workers      int
	metricsFile  string
	lossPlot     string
	registry     string
	name         string
}

func newTrainCmd() *cobra.Command {
	opts := &trainOptions{}
	cmd := &cobra.Command{
		Use:   "train [dataset_train.csv]",
		Short: "Train the one-vs-rest classifier and save the model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, opts, pathArg(args, defaultTrainPath))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML training config (defaults to $DSLR_CONFIG)")
	f.StringVarP(&opts.modelFile, "model-file", "m", "model.json", "where to write the trained model")
	f.StringVar(&opts.format, "format", "", "model encoding: json or gob (default from config)")
	f.Float64Var(&opts.learningRate, "learning-rate", 0, "gradient descent step size")
	f.IntVar(&opts.epochs, "epochs", 0, "passes over the training set")
	f.IntVar(&opts.batchSize, "batch-size", 0, "rows per gradient step, 0 for full batch")
	f.BoolVar(&opts.parallel, "parallel", false, "train the classifiers concurrently")
	f.IntVar(&opts.workers, "workers", 0, "worker count for --parallel, 0 for one per CPU")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
	f.StringVar(&opts.lossPlot, "loss-plot", "", "save the per-house training loss curve")
	f.StringVar(&opts.registry, "registry", "", "also store the model in this bbolt registry")
	f.StringVar(&opts.name, "name", "default", "model name inside --registry")
	return cmd
}

// resolveConfig は設定ファイル・環境変数の値に、明示されたフラグを上書きする
func resolveConfig(cmd *cobra.Command, opts *trainOptions) (config.TrainConfig, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	if f.Changed("learning-rate") {
		cfg.LearningRate = opts.learningRate
	}
	if f.Changed("epochs") {
		cfg.Epochs = opts.epochs
	}
	if f.Changed("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	if f.Changed("parallel") {
		cfg.Parallel = opts.parallel
	}
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("format") {
		cfg.ModelFormat = opts.format
	}
	return cfg, cfg.Validate()
}

func runTrain(cmd *cobra.Command, opts *trainOptions, path string) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	format, err := model.ParseFormat(cfg.ModelFormat)
	if err != nil {
		return err
	}

	ds, err := dataset.Load(path, dataset.Training)
	if err != nil {
		return err
	}

	lc := linear.DefaultConfig()
	lc.LearningRate = cfg.LearningRate
	lc.Epochs = cfg.Epochs
	lc.BatchSize = cfg.BatchSize
	lc.LogEvery = cfg.LogEvery
	lc.Parallel = cfg.Parallel
	lc.Workers = cfg.Workers

	var tel *telemetry.Telemetry
	if opts.metricsFile != "" {
		tel = telemetry.New()
	}

	res, err := pipeline.Train(cmd.Context(), ds, lc, tel)
	if err != nil {
		return err
	}

	if err := model.SaveModel(res.Model, opts.modelFile, format); err != nil {
		return err
	}
	if opts.registry != "" {
		if err := putRegistry(opts.registry, opts.name, res.Model); err != nil {
			return err
		}
	}
	if opts.lossPlot != "" {
		p, err := plots.LossCurve(res.Classifier.CostHistory(), res.Model.Classes)
		if err != nil {
			return err
		}
		if err := plots.Save(p, opts.lossPlot); err != nil {
			return err
		}
	}
	if tel != nil {
		if err := tel.WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
	}

	log.GetLoggerWithName("cli").Info("Model saved",
		log.PathKey, opts.modelFile,
		log.EstimatorIDKey, res.Model.ID,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Trained on %d students (%d dropped), training accuracy %.4f\n",
		ds.Len(), ds.Dropped, res.Accuracy)
	return nil
}

func putRegistry(path, name string, mw *model.ModelWeights) error {
	reg, err := model.OpenRegistry(path)
	if err != nil {
		return err
	}
	defer reg.Close()
	return reg.Put(name, mw)
}

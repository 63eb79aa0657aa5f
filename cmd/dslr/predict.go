package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dslr/core/model"
	"github.com/YuminosukeSato/dslr/dataset"
	"github.com/YuminosukeSato/dslr/pipeline"
	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
	"github.com/YuminosukeSato/dslr/pkg/telemetry"
)

type predictOptions struct {
	modelFile   string
	output      string
	renormalize bool
	metricsFile string
	registry    string
	name        string
}

func newPredictCmd() *cobra.Command {
	opts := &predictOptions{}
	cmd := &cobra.Command{
		Use:   "predict [dataset_test.csv]",
		Short: "Predict the house of every student and write them as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, opts, pathArg(args, defaultTestPath))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.modelFile, "model-file", "m", "model.json", "trained model artifact")
	f.StringVarP(&opts.output, "output", "o", "houses.csv", "where to write the predictions")
	f.BoolVar(&opts.renormalize, "renormalize", false, "normalize with the input's own mean and std instead of the training statistics")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
	f.StringVar(&opts.registry, "registry", "", "load the model from this bbolt registry instead of --model-file")
	f.StringVar(&opts.name, "name", "default", "model name inside --registry")
	return cmd
}

func loadModel(opts *predictOptions) (*model.ModelWeights, error) {
	if opts.registry == "" {
		return model.LoadModel(opts.modelFile)
	}
	reg, err := model.OpenRegistry(opts.registry)
	if err != nil {
		return nil, err
	}
	defer reg.Close()
	return reg.Get(opts.name)
}

func runPredict(cmd *cobra.Command, opts *predictOptions, path string) error {
	ds, err := dataset.Load(path, dataset.Prediction)
	if err != nil {
		return err
	}
	mw, err := loadModel(opts)
	if err != nil {
		return err
	}

	popts := []pipeline.PredictorOption{}
	if opts.renormalize {
		popts = append(popts, pipeline.WithPolicy(pipeline.RecomputeFromInput))
	}
	var tel *telemetry.Telemetry
	if opts.metricsFile != "" {
		tel = telemetry.New()
		popts = append(popts, pipeline.WithTelemetry(tel))
	}

	p, err := pipeline.NewPredictor(mw, popts...)
	if err != nil {
		return err
	}
	pred, err := p.PredictDataset(ds)
	if err != nil {
		return err
	}
	if err := cmd.Context().Err(); err != nil {
		return errors.Wrap(err, "prediction interrupted")
	}

	if err := pipeline.WritePredictions(opts.output, pred.Houses); err != nil {
		return err
	}
	if tel != nil {
		if err := tel.WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d predictions to %s\n", len(pred.Houses), opts.output)
	if ds.HasLabels() {
		acc, err := pred.Accuracy(ds.Labels())
		if err != nil {
			return err
		}
		log.GetLoggerWithName("cli").Info("Prediction accuracy",
			log.OperationKey, log.OperationScore,
			log.AccuracyKey, acc,
		)
		fmt.Fprintf(out, "Accuracy against the labels in %s: %.4f\n", path, acc)
	}
	return nil
}

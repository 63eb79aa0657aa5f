package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dslr/pkg/config"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

const (
	defaultTrainPath = "data/dataset_train.csv"
	defaultTestPath  = "data/dataset_test.csv"
)

type rootOptions struct {
	logLevel string
	logJSON  bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "dslr",
		Short:         "Hogwarts house sorting with one-vs-rest logistic regression",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := opts.logLevel
			if !cmd.Flags().Changed("log-level") {
				// フラグが無ければ設定ファイル・環境変数のlog_levelに従う
				cfg, err := config.Load(configFlag(cmd))
				if err != nil {
					return err
				}
				level = cfg.LogLevel
			}
			return log.SetupLogger(level, !opts.logJSON)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error); defaults to log_level from the config")
	root.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "write logs as JSON lines instead of console text")

	root.AddCommand(
		newDescribeCmd(),
		newHistogramCmd(),
		newScatterCmd(),
		newPairPlotCmd(),
		newTrainCmd(),
		newPredictCmd(),
		newModelsCmd(),
	)
	return root
}

// pathArg は位置引数があればそれを、無ければ既定のパスを返す
func pathArg(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}

// configFlag はサブコマンドに --config があればその値を返す
func configFlag(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("config"); f != nil {
		return f.Value.String()
	}
	return ""
}

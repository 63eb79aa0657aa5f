package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dslr/dataset"
	"github.com/YuminosukeSato/dslr/pkg/log"
	"github.com/YuminosukeSato/dslr/stats"
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [dataset.csv]",
		Short: "Print descriptive statistics for every numeric column",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pathArg(args, defaultTrainPath)
			ds, err := dataset.Load(path, dataset.Prediction)
			if err != nil {
				return err
			}

			index := make([]float64, ds.Len())
			for i, s := range ds.Students {
				index[i] = float64(s.Index)
			}
			columns := []stats.Column{{Name: dataset.ColIndex, Values: index}}
			for _, course := range dataset.Courses {
				values, err := ds.Column(course)
				if err != nil {
					return err
				}
				columns = append(columns, stats.Column{Name: course, Values: values})
			}

			table, err := stats.Describe(columns)
			if err != nil {
				return err
			}
			log.GetLoggerWithName("cli").Debug("Describing dataset",
				log.OperationKey, log.OperationDescribe,
				log.PathKey, path,
				log.SamplesKey, ds.Len(),
			)
			return table.Format(cmd.OutOrStdout())
		},
	}
}

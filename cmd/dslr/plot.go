package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dslr/dataset"
	"github.com/YuminosukeSato/dslr/plots"
)

func newHistogramCmd() *cobra.Command {
	var (
		course string
		output string
		bins   int
	)
	cmd := &cobra.Command{
		Use:   "histogram [dataset.csv]",
		Short: "Plot the per-house score distribution of one course",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(pathArg(args, defaultTrainPath), dataset.Training)
			if err != nil {
				return err
			}
			p, err := plots.Histogram(ds, course, bins)
			if err != nil {
				return err
			}
			return plots.Save(p, output)
		},
	}
	cmd.Flags().StringVar(&course, "course", "Care of Magical Creatures", "course to plot")
	cmd.Flags().StringVarP(&output, "output", "o", "histogram.png", "output image (png, svg, pdf)")
	cmd.Flags().IntVar(&bins, "bins", plots.DefaultBins, "number of bins")
	return cmd
}

func newScatterCmd() *cobra.Command {
	var (
		x, y   string
		output string
	)
	cmd := &cobra.Command{
		Use:   "scatter [dataset.csv]",
		Short: "Plot two courses against each other, colored by house",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(pathArg(args, defaultTrainPath), dataset.Training)
			if err != nil {
				return err
			}
			p, err := plots.Scatter(ds, x, y)
			if err != nil {
				return err
			}
			return plots.Save(p, output)
		},
	}
	cmd.Flags().StringVar(&x, "x", "Astronomy", "course on the x axis")
	cmd.Flags().StringVar(&y, "y", "Defense Against the Dark Arts", "course on the y axis")
	cmd.Flags().StringVarP(&output, "output", "o", "scatter.png", "output image (png, svg, pdf)")
	return cmd
}

func newPairPlotCmd() *cobra.Command {
	var (
		courses []string
		output  string
		bins    int
	)
	cmd := &cobra.Command{
		Use:   "pairplot [dataset.csv]",
		Short: "Plot a scatter matrix of the courses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(pathArg(args, defaultTrainPath), dataset.Training)
			if err != nil {
				return err
			}
			selected := make([]string, 0, len(courses))
			for _, c := range courses {
				if c = strings.TrimSpace(c); c != "" {
					selected = append(selected, c)
				}
			}
			grid, err := plots.PairPlot(ds, selected, bins)
			if err != nil {
				return err
			}
			return plots.SaveGrid(grid, output)
		},
	}
	cmd.Flags().StringSliceVar(&courses, "courses", dataset.Courses, "comma separated courses to include")
	cmd.Flags().StringVarP(&output, "output", "o", "pair_plot.png", "output image (png)")
	cmd.Flags().IntVar(&bins, "bins", plots.DefaultBins, "number of histogram bins on the diagonal")
	return cmd
}

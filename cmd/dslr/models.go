package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dslr/core/model"
)

func newModelsCmd() *cobra.Command {
	var registry string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage models stored in a registry",
	}
	cmd.PersistentFlags().StringVar(&registry, "registry", "models.db", "bbolt registry file")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := model.OpenRegistry(registry)
			if err != nil {
				return err
			}
			defer reg.Close()

			entries, err := reg.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tID\tCREATED\tCLASSES")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.ID, e.CreatedAt.Format(time.RFC3339), strings.Join(e.Classes, ","))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := model.OpenRegistry(registry)
			if err != nil {
				return err
			}
			defer reg.Close()
			return reg.Delete(args[0])
		},
	})
	return cmd
}

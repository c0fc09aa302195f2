package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"footprint/internal/factors"
	"footprint/internal/storage"
	"footprint/internal/store"
)

func newFactorsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Manage the emission factor table",
	}
	cmd.AddCommand(newFactorsImportCmd(opts), newFactorsListCmd(opts))
	return cmd
}

func newFactorsImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Insert or replace factors from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := factors.Load(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), opts, func(repo *storage.SQLiteRepository) error {
				n, err := repo.UpsertFactors(cmd.Context(), table)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d factors from %s\n", n, args[0])
				return nil
			})
		},
	}
}

func newFactorsListCmd(opts *rootOptions) *cobra.Command {
	var filter store.FactorFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List factors, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), opts, func(repo *storage.SQLiteRepository) error {
				list, err := repo.ListFactors(cmd.Context(), filter)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tUNIT\tKIND\tRATE")
				for _, f := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%g\n", f.ID, f.Name, f.Category, f.Unit, f.Kind(), f.Rate)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&filter.Category, "category", "", "Only factors in this category")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only factors whose name contains this text")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"footprint/internal/core"
	"footprint/internal/report"
	"footprint/internal/services"
	"footprint/internal/storage"
)

var summaryViews = []string{
	"by-category", "physical", "economic", "biggest-impactors",
	"daily", "weekly", "monthly", "dashboard",
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		view   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print an emissions summary for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), opts, func(repo *storage.SQLiteRepository) error {
				result, err := runSummary(cmd, services.NewSummaryService(repo), userID, view)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(result)
				}
				return printSummary(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (required)")
	cmd.Flags().StringVar(&view, "view", "by-category", fmt.Sprintf("One of %v", summaryViews))
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// runSummary returns the same document the API serves for view.
func runSummary(cmd *cobra.Command, svc *services.SummaryService, userID, view string) (any, error) {
	ctx := cmd.Context()
	switch view {
	case "by-category":
		totals, err := svc.CategorySummary(ctx, userID)
		if err != nil {
			return nil, err
		}
		return report.Categories(totals, false), nil
	case "physical":
		totals, err := svc.PhysicalSummary(ctx, userID)
		if err != nil {
			return nil, err
		}
		return report.Items(totals, false), nil
	case "economic":
		totals, err := svc.EconomicSummary(ctx, userID)
		if err != nil {
			return nil, err
		}
		return report.Sectors(totals, false), nil
	case "biggest-impactors":
		imp, err := svc.BiggestImpactors(ctx, userID)
		if err != nil {
			return nil, err
		}
		return report.NewImpactors(imp), nil
	case "daily", "weekly", "monthly":
		buckets, err := svc.TimeSummary(ctx, userID, core.Granularity(view))
		if err != nil {
			return nil, err
		}
		return report.Buckets(buckets), nil
	case "dashboard":
		d, err := svc.Dashboard(ctx, userID)
		if err != nil {
			return nil, err
		}
		return report.NewDashboard(d), nil
	default:
		return nil, fmt.Errorf("unknown view %q, expected one of %v", view, summaryViews)
	}
}

// kg prints an already rounded value with two fixed decimals.
func kg(v float64) string {
	return decimal.NewFromFloat(report.Round2(v)).StringFixed(2)
}

func printSummary(out io.Writer, result any) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	switch r := result.(type) {
	case []report.CategoryTotal:
		fmt.Fprintln(tw, "CATEGORY\tKG CO2E")
		for _, t := range r {
			fmt.Fprintf(tw, "%s\t%s\n", t.Category, kg(t.TotalKg))
		}
	case []report.ItemTotal:
		fmt.Fprintln(tw, "ITEM\tKG CO2E")
		for _, t := range r {
			fmt.Fprintf(tw, "%s\t%s\n", t.ItemName, kg(t.TotalKg))
		}
	case []report.SectorTotal:
		fmt.Fprintln(tw, "SECTOR\tSPEND USD\tKG CO2E")
		for _, t := range r {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Sector, kg(t.TotalSpend), kg(t.TotalKg))
		}
	case report.Impactors:
		fmt.Fprintln(tw, "KIND\tNAME\tKG CO2E")
		if p := r.BiggestPhysical; p != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", core.Physical, p.ItemName, kg(p.TotalKg))
		} else {
			fmt.Fprintf(tw, "%s\t-\t-\n", core.Physical)
		}
		if e := r.BiggestEconomic; e != nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", core.Economic, e.Sector, kg(e.TotalKg))
		} else {
			fmt.Fprintf(tw, "%s\t-\t-\n", core.Economic)
		}
	case []report.Bucket:
		fmt.Fprintln(tw, "PERIOD\tKG CO2E")
		for _, b := range r {
			fmt.Fprintf(tw, "%s\t%s\n", b.Label, kg(b.Emissions))
		}
	case report.Dashboard:
		fmt.Fprintf(tw, "User\t%s\n", r.UserID)
		fmt.Fprintf(tw, "Activities\t%d\n", r.ActivityCount)
		fmt.Fprintf(tw, "Total kg CO2e\t%s\n", kg(r.TotalKg))
		fmt.Fprintf(tw, "Physical kg CO2e\t%s\n", kg(r.Split.PhysicalKg))
		fmt.Fprintf(tw, "Economic kg CO2e\t%s\n", kg(r.Split.EconomicKg))
		fmt.Fprintf(tw, "Spend USD\t%s\n", kg(r.Split.SpendUSD))
	default:
		return fmt.Errorf("cannot print %T", result)
	}
	return tw.Flush()
}

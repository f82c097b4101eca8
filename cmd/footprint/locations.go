package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/footprint/internal/locations"
)

func newLocationsCmd(root *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List supported locations",
		Long:  `Displays the countries (or, with --all, every region) in the location table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := root.loadTable()
			if err != nil {
				return fmt.Errorf("loading locations: %w", err)
			}

			records := table.Countries()
			if all {
				records = table.All()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tTYPE\tUNITS\tAVG ELECTRIC BILL")
			for _, loc := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					loc.Abbreviation, loc.Name, loc.Type,
					locations.DistanceUnit(loc.UnitSystem),
					locations.FormatCurrency(loc.AvgMonthlyElectricityBill, loc.Currency))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include states and regions")
	return cmd
}

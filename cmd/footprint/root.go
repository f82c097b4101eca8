package main

import (
	"github.com/spf13/cobra"

	"github.com/mamadbah2/footprint/internal/locations"
)

type rootOptions struct {
	locationsFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "footprint",
		Short: "Estimate a household carbon footprint",
		Long: `footprint estimates annual CO2 emissions from travel, diet and home energy
answers, using the same calculator and location table as the survey server.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.locationsFile, "locations-file", "", "location table YAML (default is the embedded table)")

	cmd.AddCommand(newEstimateCmd(opts))
	cmd.AddCommand(newLocationsCmd(opts))
	return cmd
}

// loadTable loads the location reference table.
func (o *rootOptions) loadTable() (*locations.Table, error) {
	return locations.Load(o.locationsFile)
}

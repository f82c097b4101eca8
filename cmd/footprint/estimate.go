package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/footprint/internal/locations"
	"github.com/mamadbah2/footprint/internal/service/survey"
)

type estimateOptions struct {
	country string
	state   string

	longFlights  int
	shortFlights int
	car          string
	drive        string
	train        string
	bus          string
	walkBike     bool

	diet string

	electric  string
	water     string
	propane   string
	gas       string
	woodStove bool
	people    int

	json bool
}

func newEstimateCmd(root *rootOptions) *cobra.Command {
	opts := &estimateOptions{}

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate an annual footprint",
		Long: `Runs the survey answers given as flags through the calculator and prints the
breakdown, the comparison with the average footprint and everyday equivalencies.
Bills that are not given default to the location's monthly averages.`,
		Example: `  footprint estimate --location US --long-flights 2 --car gas --drive 300 --diet average`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := root.loadTable()
			if err != nil {
				return fmt.Errorf("loading locations: %w", err)
			}
			results, err := opts.run(cmd, table)
			if err != nil {
				return err
			}
			if opts.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.country, "location", "", "country code, e.g. US")
	f.StringVar(&opts.state, "state", "", "state or region code, e.g. US-CA")
	f.IntVar(&opts.longFlights, "long-flights", 0, "long flights per year")
	f.IntVar(&opts.shortFlights, "short-flights", 0, "short flights per year")
	f.StringVar(&opts.car, "car", "gas", "car type: gas, hybrid, electric or none")
	f.StringVar(&opts.drive, "drive", "0", "weekly driving distance")
	f.StringVar(&opts.train, "train", "", "weekly train distance (enables train)")
	f.StringVar(&opts.bus, "bus", "", "weekly bus distance (enables bus)")
	f.BoolVar(&opts.walkBike, "walk-bike", false, "walks or bikes regularly")
	f.StringVar(&opts.diet, "diet", "average", "meat-lover, average, no-beef-or-lamb, vegetarian or vegan")
	f.StringVar(&opts.electric, "electric", "", "monthly electric bill")
	f.StringVar(&opts.water, "water", "", "monthly water bill")
	f.StringVar(&opts.propane, "propane", "", "monthly propane bill")
	f.StringVar(&opts.gas, "gas", "", "monthly natural gas bill")
	f.BoolVar(&opts.woodStove, "wood-stove", false, "heats with a wood stove")
	f.IntVar(&opts.people, "people", 1, "people in the home")
	f.BoolVar(&opts.json, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}

// run walks a wizard through every step with the flag answers.
func (o *estimateOptions) run(cmd *cobra.Command, table *locations.Table) (survey.Results, error) {
	w := survey.NewWizard(table)

	if err := w.SetLocation(o.country, o.state); err != nil {
		return survey.Results{}, err
	}
	if err := advance(w); err != nil {
		return survey.Results{}, err
	}

	transport := survey.TransportationAnswers{
		LongFlights:   &o.longFlights,
		ShortFlights:  &o.shortFlights,
		CarType:       &o.car,
		DrivingWeekly: &o.drive,
		WalkBike:      &o.walkBike,
	}
	if o.train != "" {
		useTrain := true
		transport.UseTrain, transport.TrainWeekly = &useTrain, &o.train
	}
	if o.bus != "" {
		useBus := true
		transport.UseBus, transport.BusWeekly = &useBus, &o.bus
	}
	if err := validationError(w.SetTransportation(transport)); err != nil {
		return survey.Results{}, err
	}
	if err := advance(w); err != nil {
		return survey.Results{}, err
	}

	if err := validationError(w.SetDiet(o.diet)); err != nil {
		return survey.Results{}, err
	}
	if err := advance(w); err != nil {
		return survey.Results{}, err
	}

	energy := survey.EnergyAnswers{UseWoodStove: &o.woodStove, PeopleInHome: &o.people}
	changed := cmd.Flags().Changed
	if changed("electric") {
		energy.ElectricBill = &o.electric
	}
	if changed("water") {
		energy.WaterBill = &o.water
	}
	if changed("propane") {
		energy.PropaneBill = &o.propane
	}
	if changed("gas") {
		energy.GasBill = &o.gas
	}
	if err := validationError(w.SetEnergy(energy)); err != nil {
		return survey.Results{}, err
	}
	if err := advance(w); err != nil {
		return survey.Results{}, err
	}

	return w.Results(), nil
}

func advance(w *survey.Wizard) error {
	step := w.Step()
	if !w.Continue() {
		return fmt.Errorf("%s answers are incomplete", step)
	}
	return nil
}

func validationError(v survey.Validation) error {
	if len(v) == 0 {
		return nil
	}
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, v[field]))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func printResults(out io.Writer, r survey.Results) {
	if r.Location != nil {
		fmt.Fprintf(out, "Location: %s\n", r.Location.Name)
	}
	fmt.Fprintln(out, "----------------------------------------")
	e := r.Emissions
	rows := []struct {
		label string
		tons  float64
	}{
		{"Flights", e.FlightEmissions},
		{"Car", e.CarEmissions},
		{"Public transport", e.PublicTransportEmissions},
		{"Diet", e.DietEmissions},
		{"Electricity", e.ElectricEmissions},
		{"Water", e.WaterEmissions},
		{"Other energy", e.OtherEnergyEmissions},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "%-18s %8.2f t\n", row.label, row.tons)
	}
	fmt.Fprintln(out, "----------------------------------------")
	fmt.Fprintf(out, "%-18s %8.2f t CO2/yr (%.2f t/month)\n", "Total", e.TotalEmissions, e.MonthlyEmissions)
	fmt.Fprintln(out, r.Comparison.Message)
	if !r.Equivalency.IsEmpty {
		fmt.Fprintln(out, r.Equivalency.DisplayText)
	}
}

package calculator

import (
	"fmt"
	"math"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

// Bucket is the qualitative label of an annual footprint.
type Bucket string

const (
	BucketExcellent Bucket = "excellent"
	BucketGood      Bucket = "good"
	BucketAverage   Bucket = "average"
	BucketHigh      Bucket = "high"
)

// Comparison describes a footprint relative to the reference average.
type Comparison struct {
	TotalEmissions   float64 `json:"totalEmissions"`
	ReferenceAverage float64 `json:"referenceAverage"`
	PercentOfAverage int     `json:"percentOfAverage"`
	Bucket           Bucket  `json:"bucket"`
	Message          string  `json:"message"`
}

// Aggregate derives a complete SurveyEmissions from the current answers.
// Every field is recomputed from data; when loc is nil the energy fields are
// carried over from prior because the energy category cannot be computed
// without location averages.
func Aggregate(data models.SurveyData, loc *models.Location, prior models.SurveyEmissions) models.SurveyEmissions {
	system := models.UnitImperial
	if loc != nil {
		system = loc.UnitSystem
	}

	out := models.SurveyEmissions{
		FlightEmissions: Flights(count(data.LongFlights), count(data.ShortFlights)),
		CarEmissions:    Car(data.CarType, value(data.WeeklyDrivingDistance), system),
		PublicTransportEmissions: PublicTransport(
			flag(data.UseTrain), value(data.WeeklyTrainDistance),
			flag(data.UseBus), value(data.WeeklyBusDistance),
		),
		DietEmissions: DietEmissions(data.Diet),
	}
	out.TransportationEmissions = out.FlightEmissions + out.CarEmissions + out.PublicTransportEmissions

	if loc != nil {
		energy := Energy(data, *loc)
		out.ElectricEmissions = energy.Electric
		out.WaterEmissions = energy.Water
		out.OtherEnergyEmissions = energy.Other()
	} else {
		out.ElectricEmissions = finite(prior.ElectricEmissions)
		out.WaterEmissions = finite(prior.WaterEmissions)
		out.OtherEnergyEmissions = finite(prior.OtherEnergyEmissions)
	}
	out.EnergyEmissions = out.ElectricEmissions + out.WaterEmissions + out.OtherEnergyEmissions

	return Totals(out)
}

// Totals recomputes TotalEmissions and MonthlyEmissions from the subtotals.
func Totals(e models.SurveyEmissions) models.SurveyEmissions {
	e.TotalEmissions = e.TransportationEmissions + e.DietEmissions + e.EnergyEmissions
	e.MonthlyEmissions = e.TotalEmissions / MonthsPerYear
	return e
}

// Compare places an annual total against the reference footprint.
func Compare(total float64) Comparison {
	total = nonNegative(total)
	percent := int(math.Round(total / ReferenceAnnualFootprint * 100))

	// The wording follows the rounded percentage so it never reads "0% below".
	var message string
	if percent < 100 {
		message = fmt.Sprintf("You're %d%% below average! Great job!", 100-percent)
	} else {
		message = fmt.Sprintf("You're %d%% above average. Let's work on that!", percent-100)
	}

	return Comparison{
		TotalEmissions:   total,
		ReferenceAverage: ReferenceAnnualFootprint,
		PercentOfAverage: percent,
		Bucket:           BucketFor(total),
		Message:          message,
	}
}

// BucketFor returns the qualitative bucket of an annual total.
func BucketFor(total float64) Bucket {
	switch {
	case total < ExcellentBelow:
		return BucketExcellent
	case total < GoodBelow:
		return BucketGood
	case total < ReferenceAnnualFootprint:
		return BucketAverage
	default:
		return BucketHigh
	}
}

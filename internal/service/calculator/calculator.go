package calculator

import (
	"math"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

var carGramsPerMile = map[models.CarType]float64{
	models.CarGas:      GasCarGramsPerMile,
	models.CarHybrid:   HybridCarGramsPerMile,
	models.CarElectric: ElectricCarGramsPerMile,
}

var dietTonsPerYear = map[models.Diet]float64{
	models.DietMeatLover:    MeatLoverDietTons,
	models.DietAverage:      AverageDietTons,
	models.DietNoBeefOrLamb: NoBeefOrLambDietTons,
	models.DietVegetarian:   VegetarianDietTons,
	models.DietVegan:        VeganDietTons,
}

// EnergyBreakdown holds the four household energy terms in tons per year.
type EnergyBreakdown struct {
	Electric float64
	Water    float64
	Propane  float64
	Gas      float64
}

// Other is the propane and natural gas share.
func (e EnergyBreakdown) Other() float64 {
	return e.Propane + e.Gas
}

// Total sums every energy term.
func (e EnergyBreakdown) Total() float64 {
	return e.Electric + e.Water + e.Propane + e.Gas
}

// Flights returns the annual emissions of long and short round trips.
func Flights(long, short float64) float64 {
	return nonNegative(long)*LongFlightFactor + nonNegative(short)*ShortFlightFactor
}

// Car returns the annual emissions of driving weeklyDistance, expressed in
// the location's unit system. Car type none or a non-positive distance
// yields 0; an unrecognised car type is costed at the gas rate.
func Car(carType models.CarType, weeklyDistance float64, system models.UnitSystem) float64 {
	if carType == "" || carType == models.CarNone {
		return 0
	}
	distance := nonNegative(weeklyDistance)
	if distance == 0 {
		return 0
	}

	rate, ok := carGramsPerMile[carType]
	if !ok {
		rate = GasCarGramsPerMile
	}

	miles := distance
	if system == models.UnitMetric {
		miles = distance * KmToMiles
	}

	return rate * miles * WeeksPerYear / GramsPerTon
}

// PublicTransport returns the annual train and bus emissions for the modes
// that are in use.
func PublicTransport(useTrain bool, weeklyTrain float64, useBus bool, weeklyBus float64) float64 {
	var total float64
	if useTrain {
		total += nonNegative(weeklyTrain) * TrainTonsPerMile * WeeksPerYear
	}
	if useBus {
		total += nonNegative(weeklyBus) * BusTonsPerMile * WeeksPerYear
	}
	return total
}

// DietEmissions returns the flat annual rate for a diet. Unset or unknown
// diets use the average rate.
func DietEmissions(diet models.Diet) float64 {
	if rate, ok := dietTonsPerYear[diet]; ok {
		return rate
	}
	return AverageDietTons
}

// Energy computes the household energy terms for the answers in data against
// the averages of loc. A category whose location average is zero contributes
// nothing.
func Energy(data models.SurveyData, loc models.Location) EnergyBreakdown {
	people := data.PeopleInHome
	if people < 1 {
		people = 1
	}

	electricFactor := loc.GridEmissionFactor * PoundsToMetricTons / KWhPerMWh * BaselineKWhPerMonth * MonthsPerYear

	return EnergyBreakdown{
		Electric: billTerm(value(data.ElectricBill), loc.AvgMonthlyElectricityBill, electricFactor, people),
		Water:    billTerm(value(data.WaterBill), loc.AvgMonthlyWaterBill, WaterTonsPerBillRatio, people),
		Propane:  billTerm(value(data.PropaneBill), loc.AvgMonthlyPropaneBill, PropaneTonsPerBillRatio, people),
		Gas:      billTerm(value(data.GasBill), loc.AvgMonthlyGasBill, GasTonsPerBillRatio, people),
	}
}

func billTerm(bill, average, factor float64, people int) float64 {
	if !(average > 0) {
		return 0
	}
	return finite(nonNegative(bill) / average * factor / float64(people))
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func count(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

func flag(v *bool) bool {
	return v != nil && *v
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

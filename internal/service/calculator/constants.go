package calculator

// Transportation factors. Flight factors are tons of CO2 per round trip,
// car factors are grams of CO2 per mile, transit factors are tons per mile.
const (
	LongFlightFactor  = 1.35
	ShortFlightFactor = 0.90

	GasCarGramsPerMile      = 300.0
	HybridCarGramsPerMile   = 250.0
	ElectricCarGramsPerMile = 200.0

	TrainTonsPerMile = 0.002912
	BusTonsPerMile   = 0.005824

	WeeksPerYear  = 52
	GramsPerTon   = 1_000_000
	KmToMiles     = 0.621371
	MonthsPerYear = 12
)

// Diet factors in tons of CO2 per year.
const (
	MeatLoverDietTons    = 3.3
	AverageDietTons      = 2.5
	NoBeefOrLambDietTons = 1.9
	VegetarianDietTons   = 1.7
	VeganDietTons        = 1.5
)

// Energy factors. The electricity term models a 900 kWh/month baseline scaled
// by the bill ratio; the grid factor (lb/MWh) is converted lb -> metric ton
// and MWh -> kWh.
const (
	BaselineKWhPerMonth = 900.0
	PoundsToMetricTons  = 0.000453592
	KWhPerMWh           = 1000.0

	WaterTonsPerBillRatio   = 0.0052
	PropaneTonsPerBillRatio = 0.24
	GasTonsPerBillRatio     = 2.12
)

// Comparison thresholds in tons of CO2 per year.
const (
	ReferenceAnnualFootprint = 16.0
	ExcellentBelow           = 8.0
	GoodBelow                = 12.0
)

// Equivalency divisors, kg CO2e per unit (EPA equivalencies calculator).
const (
	MilesDrivenKgFactor       = 0.192
	SmartphoneChargeKgFactor  = 0.00822
	KgPerTon                  = 1000.0
	MinEquivalencyThresholdKg = 1.0
)

package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/internal/service/calculator"
)

type stubLocations map[string]models.Location

func (s stubLocations) Lookup(abbreviation string) (models.Location, bool) {
	loc, ok := s[abbreviation]
	return loc, ok
}

var testLocations = stubLocations{
	"US": {
		Name: "United States", Abbreviation: "US", Type: models.LocationCountry,
		UnitSystem: models.UnitImperial, GridEmissionFactor: 823.1,
		AvgMonthlyElectricityBill: 137, AvgMonthlyWaterBill: 45,
		AvgMonthlyGasBill: 65, AvgMonthlyPropaneBill: 100, Currency: "USD",
	},
	"US-CA": {
		Name: "California", Abbreviation: "US-CA", Type: models.LocationState,
		UnitSystem: models.UnitImperial, GridEmissionFactor: 455.2,
		AvgMonthlyElectricityBill: 162.456, AvgMonthlyWaterBill: 70,
		AvgMonthlyGasBill: 55, AvgMonthlyPropaneBill: 100, Currency: "USD",
	},
	"DE": {
		Name: "Germany", Abbreviation: "DE", Type: models.LocationCountry,
		UnitSystem: models.UnitMetric, GridEmissionFactor: 840,
		AvgMonthlyElectricityBill: 110, AvgMonthlyWaterBill: 35,
		AvgMonthlyGasBill: 95, AvgMonthlyPropaneBill: 60, Currency: "EUR",
	},
}

func str(v string) *string { return &v }

func TestParseStep(t *testing.T) {
	tests := map[string]Step{
		"location":       StepLocation,
		"pre-survey":     StepLocation,
		"Transportation": StepTransportation,
		" diet ":         StepDiet,
		"energy":         StepEnergy,
		"results":        StepResults,
		"breakdown":      StepResults,
		"3":              StepEnergy,
	}
	for raw, want := range tests {
		got, err := ParseStep(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "checkout", "5", "-1"} {
		_, err := ParseStep(raw)
		assert.ErrorIs(t, err, ErrInvalidStep, raw)
	}
}

func TestStepText(t *testing.T) {
	text, err := StepDiet.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "diet", string(text))

	var s Step
	require.NoError(t, s.UnmarshalText([]byte("pre-survey")))
	assert.Equal(t, StepLocation, s)

	_, err = Step(9).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestIsStepComplete(t *testing.T) {
	zero, yes := 0, true
	miles := 100.0

	assert.False(t, IsStepComplete(StepLocation, models.SurveyData{}))
	assert.True(t, IsStepComplete(StepLocation, models.SurveyData{Country: "US"}))
	assert.True(t, IsStepComplete(StepLocation, models.SurveyData{State: "US-CA"}))

	transport := models.SurveyData{
		LongFlights: &zero, ShortFlights: &zero, CarType: models.CarGas,
		UseTrain: &yes, UseBus: &yes, WalkBike: &yes,
	}
	assert.False(t, IsStepComplete(StepTransportation, transport), "driving distance missing")
	transport.WeeklyDrivingDistance = &miles
	assert.True(t, IsStepComplete(StepTransportation, transport))

	noCar := transport
	noCar.CarType = models.CarNone
	noCar.WeeklyDrivingDistance = nil
	assert.True(t, IsStepComplete(StepTransportation, noCar))

	noWalk := transport
	noWalk.WalkBike = nil
	assert.False(t, IsStepComplete(StepTransportation, noWalk))

	assert.False(t, IsStepComplete(StepDiet, models.SurveyData{}))
	assert.True(t, IsStepComplete(StepDiet, models.SurveyData{Diet: models.DietVegan}))

	bill := 10.0
	energy := models.SurveyData{ElectricBill: &bill, WaterBill: &bill, PropaneBill: &bill, GasBill: &bill}
	assert.False(t, IsStepComplete(StepEnergy, energy), "wood stove flag missing")
	energy.UseWoodStove = &yes
	assert.True(t, IsStepComplete(StepEnergy, energy))

	assert.True(t, IsStepComplete(StepResults, models.SurveyData{}))
	assert.False(t, IsStepComplete(Step(42), models.SurveyData{}))
}

func TestNewWizardDefaults(t *testing.T) {
	w := NewWizard(testLocations)
	data := w.Data()

	assert.Equal(t, StepLocation, w.Step())
	assert.True(t, w.Pristine())
	require.NotNil(t, data.LongFlights)
	assert.Equal(t, 0, *data.LongFlights)
	assert.Equal(t, 0, *data.ShortFlights)
	assert.False(t, *data.UseTrain)
	assert.False(t, *data.UseBus)
	assert.False(t, *data.WalkBike)
	assert.False(t, *data.UseWoodStove)
	assert.Equal(t, 1, data.PeopleInHome)
	assert.Empty(t, data.CarType)
	assert.Nil(t, data.ElectricBill)
	assert.Equal(t, calculator.AverageDietTons, w.Emissions().TotalEmissions)
}

func TestWizardNavigation(t *testing.T) {
	w := NewWizard(testLocations)

	assert.False(t, w.Continue(), "location not chosen")
	assert.Equal(t, StepLocation, w.Step())
	assert.False(t, w.GoTo(StepDiet), "cannot skip ahead")

	require.NoError(t, w.SetLocation("US", ""))
	require.True(t, w.Continue())
	assert.Equal(t, StepTransportation, w.Step())

	assert.False(t, w.Continue(), "car type missing")
	w.SetTransportation(TransportationAnswers{CarType: str("None")})
	require.True(t, w.Continue())
	assert.Equal(t, StepDiet, w.Step())

	require.True(t, w.GoTo(StepLocation))
	assert.Equal(t, StepLocation, w.Step())
	assert.Equal(t, StepDiet, w.HighestStep())
	require.True(t, w.GoTo(StepDiet))
	assert.False(t, w.GoTo(StepEnergy))
	assert.False(t, w.GoTo(Step(-1)))

	w.SetDiet("Vegan")
	require.True(t, w.Continue())
	assert.Equal(t, StepEnergy, w.Step())
	require.True(t, w.Continue(), "bills were prefilled")
	assert.Equal(t, StepResults, w.Step())
	assert.False(t, w.Continue(), "results is terminal")
	assert.False(t, w.CanContinue())
}

func TestSetLocation(t *testing.T) {
	w := NewWizard(testLocations)

	err := w.SetLocation("ZZ", "")
	assert.ErrorIs(t, err, ErrUnknownLocation)
	assert.True(t, w.Pristine())

	assert.ErrorIs(t, w.SetLocation("", ""), ErrUnknownLocation)

	require.NoError(t, w.SetLocation("US", "US-CA"))
	loc, ok := w.Location()
	require.True(t, ok)
	assert.Equal(t, "US-CA", loc.Abbreviation)
	assert.Equal(t, "US-CA", w.Data().LocationKey())
	assert.False(t, w.Pristine())
}

func TestSetTransportationClampsAndRecomputes(t *testing.T) {
	w := NewWizard(testLocations)
	require.NoError(t, w.SetLocation("US", ""))

	v := w.SetTransportation(TransportationAnswers{
		LongFlights:   intPtr(9),
		ShortFlights:  intPtr(-2),
		CarType:       str("Gas ⛽️"),
		DrivingWeekly: str("7000"),
		UseTrain:      boolPtr(true),
		TrainWeekly:   str("abc"),
	})

	data := w.Data()
	assert.Equal(t, 7, *data.LongFlights)
	assert.Equal(t, 0, *data.ShortFlights)
	assert.Equal(t, models.CarGas, data.CarType)
	assert.Equal(t, 6000.0, *data.WeeklyDrivingDistance)
	assert.Equal(t, 0.0, *data.WeeklyTrainDistance)
	assert.Equal(t, "Maximum value allowed is 6000", v["weeklyDrivingDistance"])
	assert.Equal(t, calculator.MsgInvalidNumber, v["weeklyTrainDistance"])

	e := w.Emissions()
	assert.InDelta(t, 7*1.35, e.FlightEmissions, 1e-12)
	assert.InDelta(t, 300*6000*52/1e6, e.CarEmissions, 1e-9)
	assert.InDelta(t, e.TransportationEmissions+e.DietEmissions+e.EnergyEmissions, e.TotalEmissions, 1e-12)
}

func TestSetTransportationMetricLimits(t *testing.T) {
	w := NewWizard(testLocations)
	require.NoError(t, w.SetLocation("DE", ""))

	v := w.SetTransportation(TransportationAnswers{CarType: str("electric"), DrivingWeekly: str("9000")})
	assert.Empty(t, v)
	assert.Equal(t, 9000.0, *w.Data().WeeklyDrivingDistance)
}

func TestCarNoneZeroesDistance(t *testing.T) {
	w := NewWizard(testLocations)
	require.NoError(t, w.SetLocation("US", ""))
	w.SetTransportation(TransportationAnswers{CarType: str("gas"), DrivingWeekly: str("300")})
	require.InDelta(t, 4.68, w.Emissions().CarEmissions, 1e-12)

	w.SetTransportation(TransportationAnswers{CarType: str("none"), DrivingWeekly: str("300")})
	assert.Equal(t, 0.0, *w.Data().WeeklyDrivingDistance)
	assert.Equal(t, 0.0, w.Emissions().CarEmissions)
}

func TestInvalidLabels(t *testing.T) {
	w := NewWizard(testLocations)

	v := w.SetTransportation(TransportationAnswers{CarType: str("spaceship")})
	assert.Equal(t, MsgSelectCarType, v["carType"])
	assert.Empty(t, w.Data().CarType)

	v = w.SetDiet("carnivore")
	assert.Equal(t, MsgSelectDiet, v["diet"])

	v = w.SetDiet("No Beef or Lamb")
	assert.Empty(t, v)
	assert.Equal(t, models.DietNoBeefOrLamb, w.Data().Diet)
	assert.Equal(t, 1.9, w.Emissions().DietEmissions)
}

func TestEnergyPrefillOnFirstEntry(t *testing.T) {
	w := NewWizard(testLocations)
	require.NoError(t, w.SetLocation("US", "US-CA"))
	require.True(t, w.Continue())
	w.SetTransportation(TransportationAnswers{CarType: str("none")})
	require.True(t, w.Continue())
	w.SetDiet("average")
	w.SetEnergy(EnergyAnswers{GasBill: str("20")})

	require.True(t, w.Continue())
	data := w.Data()
	assert.Equal(t, 162.46, *data.ElectricBill)
	assert.Equal(t, 70.0, *data.WaterBill)
	assert.Equal(t, 100.0, *data.PropaneBill)
	assert.Equal(t, 20.0, *data.GasBill, "answered bill is kept")
	assert.Greater(t, w.Emissions().EnergyEmissions, 0.0)

	w.SetEnergy(EnergyAnswers{ElectricBill: str("")})
	require.True(t, w.GoTo(StepDiet))
	require.True(t, w.GoTo(StepEnergy))
	assert.Nil(t, w.Data().ElectricBill, "prefill happens only once")
	assert.False(t, w.CanContinue())
}

func TestSetEnergy(t *testing.T) {
	w := NewWizard(testLocations)
	require.NoError(t, w.SetLocation("US", ""))

	v := w.SetEnergy(EnergyAnswers{
		ElectricBill: str("137"),
		WaterBill:    str("600"),
		PropaneBill:  str("0"),
		GasBill:      str("65"),
		UseWoodStove: boolPtr(false),
		PeopleInHome: intPtr(0),
	})

	data := w.Data()
	assert.Equal(t, 500.0, *data.WaterBill)
	assert.Equal(t, "Maximum value allowed is 500", v["waterBill"])
	assert.Equal(t, 1, data.PeopleInHome)
	assert.True(t, IsStepComplete(StepEnergy, data))

	w.SetEnergy(EnergyAnswers{PeopleInHome: intPtr(12)})
	assert.Equal(t, 7, w.Data().PeopleInHome)

	e := w.Emissions()
	assert.InDelta(t, e.ElectricEmissions+e.WaterEmissions+e.OtherEnergyEmissions, e.EnergyEmissions, 1e-12)
}

func TestPrefillOnlyWhilePristine(t *testing.T) {
	long := 2
	doc := models.EmissionsDocument{
		UserID: "user-1",
		Month:  "2026-09",
		SurveyData: models.SurveyData{
			Country:     "US",
			LongFlights: &long,
			CarType:     models.CarNone,
			Diet:        models.DietVegan,
		},
		SurveyEmissions: models.SurveyEmissions{ElectricEmissions: 3},
	}

	w := NewWizard(testLocations)
	require.True(t, w.Prefill(doc))
	data := w.Data()
	assert.Equal(t, "US", data.Country)
	assert.Equal(t, 1, data.PeopleInHome)
	assert.InDelta(t, 2.70, w.Emissions().FlightEmissions, 1e-12)
	assert.Equal(t, 1.5, w.Emissions().DietEmissions)
	_, ok := w.Location()
	assert.True(t, ok)

	assert.False(t, w.Prefill(doc), "applied at most once")

	edited := NewWizard(testLocations)
	edited.SetDiet("meat lover")
	assert.False(t, edited.Prefill(doc))
	assert.Equal(t, models.DietMeatLover, edited.Data().Diet)
}

func TestPrefillUnknownLocationKeepsSavedEnergy(t *testing.T) {
	doc := models.EmissionsDocument{
		SurveyData:      models.SurveyData{Country: "XX", PeopleInHome: 2},
		SurveyEmissions: models.SurveyEmissions{ElectricEmissions: 1.5, WaterEmissions: 0.1},
	}
	w := NewWizard(testLocations)
	require.True(t, w.Prefill(doc))
	assert.InDelta(t, 1.6, w.Emissions().EnergyEmissions, 1e-12)
}

func TestStateIsSnapshot(t *testing.T) {
	w := NewWizard(testLocations)
	require.NoError(t, w.SetLocation("US", ""))
	state := w.State()
	*state.Data.LongFlights = 5

	assert.Equal(t, 0, *w.Data().LongFlights)
	assert.True(t, state.CanContinue)
	require.NotNil(t, state.Location)
	assert.Equal(t, "US", state.Location.Abbreviation)
}

func TestResults(t *testing.T) {
	w := NewWizard(testLocations)
	require.NoError(t, w.SetLocation("US", ""))
	w.SetDiet("average")

	r := w.Results()
	assert.Equal(t, 2.5, r.Emissions.TotalEmissions)
	assert.Equal(t, calculator.BucketExcellent, r.Comparison.Bucket)
	assert.False(t, r.Equivalency.IsEmpty)
	require.NotNil(t, r.Location)
}

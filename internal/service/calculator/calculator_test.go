package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

var (
	imperialLocation = models.Location{
		Name:                      "United States",
		Abbreviation:              "US",
		Type:                      models.LocationCountry,
		UnitSystem:                models.UnitImperial,
		GridEmissionFactor:        823.1,
		AvgMonthlyElectricityBill: 137,
		AvgMonthlyWaterBill:       45,
		AvgMonthlyGasBill:         65,
		AvgMonthlyPropaneBill:     100,
		Currency:                  "USD",
	}
	metricLocation = models.Location{
		Name:                      "Germany",
		Abbreviation:              "DE",
		Type:                      models.LocationCountry,
		UnitSystem:                models.UnitMetric,
		GridEmissionFactor:        840,
		AvgMonthlyElectricityBill: 110,
		AvgMonthlyWaterBill:       35,
		AvgMonthlyGasBill:         95,
		AvgMonthlyPropaneBill:     60,
		Currency:                  "EUR",
	}
)

func TestFlights(t *testing.T) {
	for long := 0; long <= 7; long++ {
		for short := 0; short <= 7; short++ {
			want := float64(long)*1.35 + float64(short)*0.90
			assert.InDelta(t, want, Flights(float64(long), float64(short)), 1e-12)
		}
	}
	assert.Equal(t, 0.0, Flights(-1, -3), "negative counts contribute nothing")
}

func TestCar(t *testing.T) {
	tests := []struct {
		name     string
		carType  models.CarType
		distance float64
		system   models.UnitSystem
		want     float64
	}{
		{name: "gas imperial", carType: models.CarGas, distance: 300, system: models.UnitImperial, want: 4.68},
		{name: "hybrid imperial", carType: models.CarHybrid, distance: 300, system: models.UnitImperial, want: 250 * 300 * 52 / 1e6},
		{name: "electric imperial", carType: models.CarElectric, distance: 100, system: models.UnitImperial, want: 200 * 100 * 52 / 1e6},
		{name: "gas metric converts km", carType: models.CarGas, distance: 300, system: models.UnitMetric, want: 300 * (300 * 0.621371) * 52 / 1e6},
		{name: "none", carType: models.CarNone, distance: 300, system: models.UnitImperial, want: 0},
		{name: "unset type", carType: "", distance: 300, system: models.UnitImperial, want: 0},
		{name: "unset distance", carType: models.CarGas, distance: 0, system: models.UnitImperial, want: 0},
		{name: "unknown type uses gas rate", carType: "diesel", distance: 300, system: models.UnitImperial, want: 4.68},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Car(tt.carType, tt.distance, tt.system), 1e-9)
		})
	}
}

func TestPublicTransport(t *testing.T) {
	assert.Equal(t, 0.0, PublicTransport(false, 100, false, 100))
	assert.InDelta(t, 100*0.002912*52, PublicTransport(true, 100, false, 100), 1e-12)
	assert.InDelta(t, 50*0.005824*52, PublicTransport(false, 100, true, 50), 1e-12)
	assert.InDelta(t, 100*0.002912*52+50*0.005824*52, PublicTransport(true, 100, true, 50), 1e-12)
	assert.Equal(t, 0.0, PublicTransport(true, 0, true, 0))
}

func TestDietEmissions(t *testing.T) {
	tests := map[models.Diet]float64{
		models.DietMeatLover:    3.3,
		models.DietAverage:      2.5,
		models.DietNoBeefOrLamb: 1.9,
		models.DietVegetarian:   1.7,
		models.DietVegan:        1.5,
		"":                      2.5,
		"carnivore":             2.5,
	}
	for diet, want := range tests {
		assert.Equal(t, want, DietEmissions(diet), string(diet))
	}
}

func TestEnergy(t *testing.T) {
	t.Run("bills at location average", func(t *testing.T) {
		data := models.SurveyData{
			ElectricBill: floatPtr(imperialLocation.AvgMonthlyElectricityBill),
			WaterBill:    floatPtr(imperialLocation.AvgMonthlyWaterBill),
			PropaneBill:  floatPtr(imperialLocation.AvgMonthlyPropaneBill),
			GasBill:      floatPtr(imperialLocation.AvgMonthlyGasBill),
			PeopleInHome: 1,
		}
		got := Energy(data, imperialLocation)

		baseline := 823.1 * 0.000453592 / 1000 * 900 * 12
		assert.InDelta(t, baseline, got.Electric, 1e-9)
		assert.InDelta(t, 0.0052, got.Water, 1e-12)
		assert.InDelta(t, 0.24, got.Propane, 1e-12)
		assert.InDelta(t, 2.12, got.Gas, 1e-12)
		assert.InDelta(t, 0.24+2.12, got.Other(), 1e-12)
		assert.InDelta(t, baseline+0.0052+0.24+2.12, got.Total(), 1e-9)
	})

	t.Run("divided by household size", func(t *testing.T) {
		data := models.SurveyData{
			ElectricBill: floatPtr(274),
			GasBill:      floatPtr(65),
			PeopleInHome: 2,
		}
		got := Energy(data, imperialLocation)

		baseline := 823.1 * 0.000453592 / 1000 * 900 * 12
		assert.InDelta(t, baseline, got.Electric, 1e-9, "double bill, two people")
		assert.InDelta(t, 1.06, got.Gas, 1e-12)
		assert.Equal(t, 0.0, got.Water)
	})

	t.Run("zero average makes category inapplicable", func(t *testing.T) {
		loc := metricLocation
		loc.AvgMonthlyGasBill = 0
		loc.AvgMonthlyPropaneBill = 0
		data := models.SurveyData{
			GasBill:      floatPtr(100),
			PropaneBill:  floatPtr(100),
			WaterBill:    floatPtr(35),
			PeopleInHome: 1,
		}
		got := Energy(data, loc)

		assert.Equal(t, 0.0, got.Gas)
		assert.Equal(t, 0.0, got.Propane)
		assert.InDelta(t, 0.0052, got.Water, 1e-12)
		assert.False(t, math.IsNaN(got.Total()) || math.IsInf(got.Total(), 0))
	})

	t.Run("zero people treated as one", func(t *testing.T) {
		data := models.SurveyData{GasBill: floatPtr(65), PeopleInHome: 0}
		got := Energy(data, imperialLocation)
		assert.InDelta(t, 2.12, got.Gas, 1e-12)
	})

	t.Run("finite and non-negative for any household", func(t *testing.T) {
		for people := 1; people <= 7; people++ {
			data := models.SurveyData{
				ElectricBill: floatPtr(1000),
				WaterBill:    floatPtr(500),
				PropaneBill:  floatPtr(500),
				GasBill:      floatPtr(500),
				PeopleInHome: people,
			}
			total := Energy(data, imperialLocation).Total()
			require.False(t, math.IsNaN(total) || math.IsInf(total, 0))
			require.GreaterOrEqual(t, total, 0.0)
		}
	})
}

func TestScenarios(t *testing.T) {
	t.Run("average diet and nothing else", func(t *testing.T) {
		data := models.SurveyData{
			Country:      "US",
			LongFlights:  intPtr(0),
			ShortFlights: intPtr(0),
			CarType:      models.CarNone,
			Diet:         models.DietAverage,
			ElectricBill: floatPtr(0),
			WaterBill:    floatPtr(0),
			PropaneBill:  floatPtr(0),
			GasBill:      floatPtr(0),
			PeopleInHome: 1,
		}
		got := Aggregate(data, &imperialLocation, models.SurveyEmissions{})
		assert.Equal(t, 2.5, got.DietEmissions)
		assert.Equal(t, got.DietEmissions, got.TotalEmissions)
	})

	t.Run("two long flights", func(t *testing.T) {
		data := models.SurveyData{
			Country:      "US",
			LongFlights:  intPtr(2),
			ShortFlights: intPtr(0),
			CarType:      models.CarNone,
		}
		got := Aggregate(data, &imperialLocation, models.SurveyEmissions{})
		assert.InDelta(t, 2.70, got.FlightEmissions, 1e-12)
		assert.InDelta(t, 2.70, got.TransportationEmissions, 1e-12)
	})

	t.Run("gas car imperial", func(t *testing.T) {
		data := models.SurveyData{CarType: models.CarGas, WeeklyDrivingDistance: floatPtr(300)}
		got := Aggregate(data, &imperialLocation, models.SurveyEmissions{})
		assert.InDelta(t, 300.0*300*52/1_000_000, got.CarEmissions, 1e-12)
		assert.InDelta(t, 4.68, got.CarEmissions, 1e-12)
	})

	t.Run("gas car metric", func(t *testing.T) {
		data := models.SurveyData{CarType: models.CarGas, WeeklyDrivingDistance: floatPtr(300)}
		got := Aggregate(data, &metricLocation, models.SurveyEmissions{})
		miles := 300 * 0.621371
		assert.InDelta(t, 186.41, miles, 0.01)
		assert.InDelta(t, 300*miles*52/1_000_000, got.CarEmissions, 1e-12)
	})

	t.Run("electric bill equal to average", func(t *testing.T) {
		data := models.SurveyData{
			ElectricBill: floatPtr(imperialLocation.AvgMonthlyElectricityBill),
			PeopleInHome: 3,
		}
		got := Aggregate(data, &imperialLocation, models.SurveyEmissions{})
		baseline := imperialLocation.GridEmissionFactor * 0.000453592 / 1000 * 900 * 12
		assert.InDelta(t, baseline/3, got.ElectricEmissions, 1e-12)
	})
}

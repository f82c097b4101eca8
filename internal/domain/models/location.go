package models

// LocationType distinguishes countries from sub-national regions.
type LocationType string

const (
	LocationCountry LocationType = "country"
	LocationState   LocationType = "state"
)

// UnitSystem selects how distances are entered for a location.
type UnitSystem string

const (
	UnitMetric   UnitSystem = "metric"
	UnitImperial UnitSystem = "imperial"
)

// Location is an immutable reference record with locale-specific averages.
// GridEmissionFactor is expressed in lb CO2 per MWh.
type Location struct {
	Name                      string       `yaml:"name" json:"name"`
	Abbreviation              string       `yaml:"abbreviation" json:"abbreviation"`
	Type                      LocationType `yaml:"type" json:"type"`
	UnitSystem                UnitSystem   `yaml:"unitSystem" json:"unitSystem"`
	GridEmissionFactor        float64      `yaml:"gridEmissionFactor" json:"gridEmissionFactor"`
	AvgMonthlyElectricityBill float64      `yaml:"avgMonthlyElectricityBill" json:"avgMonthlyElectricityBill"`
	AvgMonthlyWaterBill       float64      `yaml:"avgMonthlyWaterBill" json:"avgMonthlyWaterBill"`
	AvgMonthlyGasBill         float64      `yaml:"avgMonthlyGasBill" json:"avgMonthlyGasBill"`
	AvgMonthlyPropaneBill     float64      `yaml:"avgMonthlyPropaneBill" json:"avgMonthlyPropaneBill"`
	Currency                  string       `yaml:"currency" json:"currency"`
	Notes                     string       `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// IsMetric reports whether distances for this location are entered in km.
func (l Location) IsMetric() bool {
	return l.UnitSystem == UnitMetric
}

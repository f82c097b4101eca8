package models

import "strings"

// CarType enumerates the vehicle categories of the transportation step.
type CarType string

const (
	CarGas      CarType = "gas"
	CarHybrid   CarType = "hybrid"
	CarElectric CarType = "electric"
	CarNone     CarType = "none"
)

// Diet enumerates the five ordinal diet categories.
type Diet string

const (
	DietMeatLover    Diet = "meat-lover"
	DietAverage      Diet = "average"
	DietNoBeefOrLamb Diet = "no-beef-or-lamb"
	DietVegetarian   Diet = "vegetarian"
	DietVegan        Diet = "vegan"
)

// SurveyData holds the raw answers of a survey. Nil pointers and empty
// strings mean the question has not been answered yet.
type SurveyData struct {
	Country string `bson:"country,omitempty" json:"country,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`

	LongFlights           *int     `bson:"longFlights,omitempty" json:"longFlights,omitempty"`
	ShortFlights          *int     `bson:"shortFlights,omitempty" json:"shortFlights,omitempty"`
	CarType               CarType  `bson:"carType,omitempty" json:"carType,omitempty"`
	WeeklyDrivingDistance *float64 `bson:"weeklyDrivingDistance,omitempty" json:"weeklyDrivingDistance,omitempty"`
	UseTrain              *bool    `bson:"useTrain,omitempty" json:"useTrain,omitempty"`
	WeeklyTrainDistance   *float64 `bson:"weeklyTrainDistance,omitempty" json:"weeklyTrainDistance,omitempty"`
	UseBus                *bool    `bson:"useBus,omitempty" json:"useBus,omitempty"`
	WeeklyBusDistance     *float64 `bson:"weeklyBusDistance,omitempty" json:"weeklyBusDistance,omitempty"`
	WalkBike              *bool    `bson:"walkBike,omitempty" json:"walkBike,omitempty"`

	Diet Diet `bson:"diet,omitempty" json:"diet,omitempty"`

	ElectricBill *float64 `bson:"electricBill,omitempty" json:"electricBill,omitempty"`
	WaterBill    *float64 `bson:"waterBill,omitempty" json:"waterBill,omitempty"`
	PropaneBill  *float64 `bson:"propaneBill,omitempty" json:"propaneBill,omitempty"`
	GasBill      *float64 `bson:"gasBill,omitempty" json:"gasBill,omitempty"`
	UseWoodStove *bool    `bson:"useWoodStove,omitempty" json:"useWoodStove,omitempty"`
	PeopleInHome int      `bson:"peopleInHome" json:"peopleInHome"`
}

// LocationKey returns the abbreviation of the selected location; a state
// selection takes precedence over the country.
func (d SurveyData) LocationKey() string {
	if d.State != "" {
		return d.State
	}
	return d.Country
}

// ParseCarType maps free-form labels ("Gas ⛽️", "electric") to a CarType.
// Unknown labels yield the empty CarType.
func ParseCarType(label string) CarType {
	normalized := strings.ToLower(strings.TrimSpace(label))
	switch {
	case normalized == "":
		return ""
	case strings.HasPrefix(normalized, string(CarGas)):
		return CarGas
	case strings.HasPrefix(normalized, string(CarHybrid)):
		return CarHybrid
	case strings.HasPrefix(normalized, string(CarElectric)):
		return CarElectric
	case strings.HasPrefix(normalized, string(CarNone)):
		return CarNone
	default:
		return ""
	}
}

// ParseDiet maps free-form labels ("Meat Lover 🍖 ", "vegan") to a Diet.
// Unknown labels yield the empty Diet.
func ParseDiet(label string) Diet {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.ReplaceAll(normalized, " ", "-")

	switch {
	case normalized == "":
		return ""
	case strings.HasPrefix(normalized, string(DietMeatLover)):
		return DietMeatLover
	case strings.HasPrefix(normalized, string(DietAverage)):
		return DietAverage
	case strings.HasPrefix(normalized, string(DietNoBeefOrLamb)):
		return DietNoBeefOrLamb
	case strings.HasPrefix(normalized, string(DietVegetarian)):
		return DietVegetarian
	case strings.HasPrefix(normalized, string(DietVegan)):
		return DietVegan
	default:
		return ""
	}
}

package calculator

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Equivalency expresses an annual footprint in everyday terms.
type Equivalency struct {
	InputKg            float64 `json:"inputKg"`
	MilesDriven        float64 `json:"milesDriven"`
	SmartphonesCharged float64 `json:"smartphonesCharged"`
	DisplayText        string  `json:"displayText,omitempty"`
	IsEmpty            bool    `json:"isEmpty"`
}

// Equivalencies converts tons of CO2 into miles driven by an average
// passenger vehicle and smartphone charges. Footprints under 1 kg are
// reported as empty.
func Equivalencies(totalTons float64) Equivalency {
	kg := nonNegative(totalTons) * KgPerTon
	if kg < MinEquivalencyThresholdKg {
		return Equivalency{InputKg: kg, IsEmpty: true}
	}

	miles := kg / MilesDrivenKgFactor
	phones := kg / SmartphoneChargeKgFactor

	return Equivalency{
		InputKg:            kg,
		MilesDriven:        miles,
		SmartphonesCharged: phones,
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones",
			humanize.Comma(int64(math.Round(miles))), humanize.Comma(int64(math.Round(phones)))),
	}
}

package survey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

// Step is a position in the linear survey wizard.
type Step int

const (
	StepLocation Step = iota
	StepTransportation
	StepDiet
	StepEnergy
	StepResults
)

var stepNames = [...]string{
	StepLocation:       "location",
	StepTransportation: "transportation",
	StepDiet:           "diet",
	StepEnergy:         "energy",
	StepResults:        "results",
}

// URL forms used by the calculator pages.
var stepAliases = map[string]Step{
	"pre-survey": StepLocation,
	"breakdown":  StepResults,
}

// Steps returns every step in wizard order.
func Steps() []Step {
	return []Step{StepLocation, StepTransportation, StepDiet, StepEnergy, StepResults}
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepLocation && s <= StepResults
}

func (s Step) String() string {
	if !s.Valid() {
		return "Step(" + strconv.Itoa(int(s)) + ")"
	}
	return stepNames[s]
}

// MarshalText encodes the step by name.
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, int(s))
	}
	return []byte(stepNames[s]), nil
}

// UnmarshalText accepts any form understood by ParseStep.
func (s *Step) UnmarshalText(text []byte) error {
	step, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// ParseStep resolves a step name, URL alias or zero-based index.
func ParseStep(raw string) (Step, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if step, ok := stepAliases[normalized]; ok {
		return step, nil
	}
	for i, name := range stepNames {
		if name == normalized {
			return Step(i), nil
		}
	}
	if idx, err := strconv.Atoi(normalized); err == nil && Step(idx).Valid() {
		return Step(idx), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStep, raw)
}

// IsStepComplete reports whether data holds every answer required to leave
// step.
func IsStepComplete(step Step, data models.SurveyData) bool {
	switch step {
	case StepLocation:
		return data.LocationKey() != ""
	case StepTransportation:
		if data.LongFlights == nil || data.ShortFlights == nil || data.CarType == "" {
			return false
		}
		if data.CarType != models.CarNone && data.WeeklyDrivingDistance == nil {
			return false
		}
		return data.UseTrain != nil && data.UseBus != nil && data.WalkBike != nil
	case StepDiet:
		return data.Diet != ""
	case StepEnergy:
		return data.ElectricBill != nil && data.WaterBill != nil &&
			data.PropaneBill != nil && data.GasBill != nil &&
			data.UseWoodStove != nil
	case StepResults:
		return true
	default:
		return false
	}
}

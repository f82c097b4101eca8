package calculator

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

// Inline validation messages returned alongside recovered input.
const (
	MsgInvalidNumber = "Please enter valid numbers only"
	msgMaximumFormat = "Maximum value allowed is %s"
)

var numericText = regexp.MustCompile(`^\d*\.?\d*$`)

// Limits holds the per-question maxima for a unit system.
type Limits struct {
	MaxFlights      int
	MinPeopleInHome int
	MaxPeopleInHome int
	WeeklyDriving   float64
	WeeklyTrain     float64
	WeeklyBus       float64
	ElectricBill    float64
	WaterBill       float64
	PropaneBill     float64
	GasBill         float64
}

// LimitsFor returns the question maxima for a unit system.
func LimitsFor(system models.UnitSystem) Limits {
	l := Limits{
		MaxFlights:      7,
		MinPeopleInHome: 1,
		MaxPeopleInHome: 7,
		WeeklyDriving:   6000,
		WeeklyTrain:     500,
		WeeklyBus:       500,
		ElectricBill:    1000,
		WaterBill:       500,
		PropaneBill:     500,
		GasBill:         500,
	}
	if system == models.UnitMetric {
		l.WeeklyDriving = 10000
		l.WeeklyTrain = 800
		l.WeeklyBus = 800
	}
	return l
}

// Amount is a recovered numeric answer. Set is false when the input was
// empty; Message carries the inline validation text, if any.
type Amount struct {
	Value   float64
	Set     bool
	Message string
}

// Ptr returns the value as an optional answer.
func (a Amount) Ptr() *float64 {
	if !a.Set {
		return nil
	}
	v := a.Value
	return &v
}

// ParseAmount recovers a numeric answer from form text. Text that is not a
// plain non-negative decimal becomes 0; values above max are clamped.
// A max of 0 disables clamping.
func ParseAmount(text string, max float64) Amount {
	text = strings.TrimSpace(text)
	if text == "" {
		return Amount{}
	}
	if !numericText.MatchString(text) {
		return Amount{Value: 0, Set: true, Message: MsgInvalidNumber}
	}

	if len(text) > 1 && strings.HasPrefix(text, "0") && !strings.HasPrefix(text, "0.") {
		text = strings.TrimLeft(text, "0")
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Amount{Value: 0, Set: true, Message: MsgInvalidNumber}
	}
	return ClampAmount(v, max)
}

// ClampAmount bounds an already numeric answer to [0, max].
func ClampAmount(v, max float64) Amount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{Value: 0, Set: true, Message: MsgInvalidNumber}
	}
	if v < 0 {
		return Amount{Value: 0, Set: true, Message: MsgInvalidNumber}
	}
	if max > 0 && v > max {
		return Amount{Value: max, Set: true, Message: fmt.Sprintf(msgMaximumFormat, strconv.FormatFloat(max, 'f', -1, 64))}
	}
	return Amount{Value: v, Set: true}
}

// ClampCount bounds an integer answer to [min, max].
func ClampCount(v, min, max int) int {
	if v < min {
		return min
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

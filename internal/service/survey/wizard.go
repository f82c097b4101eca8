package survey

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/internal/service/calculator"
)

var (
	// ErrInvalidStep is returned when a step name or index is not recognised.
	ErrInvalidStep = errors.New("survey: invalid step")
	// ErrUnknownLocation is returned when a location abbreviation is not in the table.
	ErrUnknownLocation = errors.New("survey: unknown location")
)

// Inline messages for answers that cannot be recovered numerically.
const (
	MsgSelectCarType = "Please select a car type"
	MsgSelectDiet    = "Please select a diet"
)

// LocationLookup resolves location abbreviations.
type LocationLookup interface {
	Lookup(abbreviation string) (models.Location, bool)
}

// Validation maps an answer field to its inline validation message.
type Validation map[string]string

// TransportationAnswers is a partial update of the transportation step.
// Distances are raw form text; nil fields are left unchanged.
type TransportationAnswers struct {
	LongFlights   *int    `json:"longFlights"`
	ShortFlights  *int    `json:"shortFlights"`
	CarType       *string `json:"carType"`
	DrivingWeekly *string `json:"weeklyDrivingDistance"`
	UseTrain      *bool   `json:"useTrain"`
	TrainWeekly   *string `json:"weeklyTrainDistance"`
	UseBus        *bool   `json:"useBus"`
	BusWeekly     *string `json:"weeklyBusDistance"`
	WalkBike      *bool   `json:"walkBike"`
}

// EnergyAnswers is a partial update of the energy step. Bills are raw form
// text; nil fields are left unchanged.
type EnergyAnswers struct {
	ElectricBill *string `json:"electricBill"`
	WaterBill    *string `json:"waterBill"`
	PropaneBill  *string `json:"propaneBill"`
	GasBill      *string `json:"gasBill"`
	UseWoodStove *bool   `json:"useWoodStove"`
	PeopleInHome *int    `json:"peopleInHome"`
}

// State is a read-only snapshot of a wizard.
type State struct {
	Step        Step                   `json:"step"`
	HighestStep Step                   `json:"highestStep"`
	CanContinue bool                   `json:"canContinue"`
	Data        models.SurveyData      `json:"surveyData"`
	Emissions   models.SurveyEmissions `json:"surveyEmissions"`
	Location    *models.Location       `json:"location,omitempty"`
}

// Results is the breakdown shown on the results step.
type Results struct {
	Emissions   models.SurveyEmissions `json:"surveyEmissions"`
	Comparison  calculator.Comparison  `json:"comparison"`
	Equivalency calculator.Equivalency `json:"equivalency"`
	Location    *models.Location       `json:"location,omitempty"`
}

// Wizard accumulates survey answers step by step and keeps the derived
// emissions current. A Wizard is not safe for concurrent use; Session
// serialises access to it.
type Wizard struct {
	locations LocationLookup

	data      models.SurveyData
	emissions models.SurveyEmissions
	location  *models.Location

	current Step
	highest Step

	pristine        bool
	energyPrefilled bool
}

// NewWizard returns a wizard on the location step with default answers.
func NewWizard(locations LocationLookup) *Wizard {
	w := &Wizard{
		locations: locations,
		data:      defaultData(),
		pristine:  true,
	}
	w.recompute()
	return w
}

func defaultData() models.SurveyData {
	zero := 0
	no := false
	return models.SurveyData{
		LongFlights:  &zero,
		ShortFlights: &zero,
		UseTrain:     &no,
		UseBus:       &no,
		WalkBike:     &no,
		UseWoodStove: &no,
		PeopleInHome: 1,
	}
}

// Step returns the current step.
func (w *Wizard) Step() Step { return w.current }

// HighestStep returns the furthest step reached so far.
func (w *Wizard) HighestStep() Step { return w.highest }

// Data returns a copy of the current answers.
func (w *Wizard) Data() models.SurveyData { return cloneData(w.data) }

// Emissions returns the current derived emissions.
func (w *Wizard) Emissions() models.SurveyEmissions { return w.emissions }

// Location returns the resolved location, if one is selected.
func (w *Wizard) Location() (models.Location, bool) {
	if w.location == nil {
		return models.Location{}, false
	}
	return *w.location, true
}

// Pristine reports whether no answer has been edited since creation.
func (w *Wizard) Pristine() bool { return w.pristine }

// CanContinue reports whether the current step is complete.
func (w *Wizard) CanContinue() bool {
	return w.current != StepResults && IsStepComplete(w.current, w.data)
}

// Continue advances to the next step when the current one is complete.
// It is a no-op returning false otherwise.
func (w *Wizard) Continue() bool {
	if !w.CanContinue() {
		return false
	}
	w.enter(w.current + 1)
	return true
}

// GoTo moves to a step that has already been reached.
func (w *Wizard) GoTo(step Step) bool {
	if !step.Valid() || step > w.highest {
		return false
	}
	w.enter(step)
	return true
}

func (w *Wizard) enter(step Step) {
	w.current = step
	if step > w.highest {
		w.highest = step
	}
	if step == StepEnergy && !w.energyPrefilled {
		w.prefillEnergy()
	}
}

// prefillEnergy seeds unset bills with the location averages.
func (w *Wizard) prefillEnergy() {
	if w.location == nil {
		return
	}
	w.energyPrefilled = true

	loc := w.location
	if w.data.ElectricBill == nil {
		w.data.ElectricBill = roundedPtr(loc.AvgMonthlyElectricityBill)
	}
	if w.data.WaterBill == nil {
		w.data.WaterBill = roundedPtr(loc.AvgMonthlyWaterBill)
	}
	if w.data.PropaneBill == nil {
		w.data.PropaneBill = roundedPtr(loc.AvgMonthlyPropaneBill)
	}
	if w.data.GasBill == nil {
		w.data.GasBill = roundedPtr(loc.AvgMonthlyGasBill)
	}
	w.recompute()
}

// SetLocation selects the country and, optionally, the state.
func (w *Wizard) SetLocation(country, state string) error {
	country = strings.TrimSpace(country)
	state = strings.TrimSpace(state)

	key := state
	if key == "" {
		key = country
	}
	if key == "" {
		return fmt.Errorf("%w: empty selection", ErrUnknownLocation)
	}

	if w.locations == nil {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, key)
	}
	loc, ok := w.locations.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, key)
	}
	if country != "" {
		if _, ok := w.locations.Lookup(country); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownLocation, country)
		}
	}

	w.pristine = false
	w.data.Country = country
	w.data.State = state
	w.location = &loc
	w.recompute()
	return nil
}

// SetTransportation applies a partial transportation answer set.
func (w *Wizard) SetTransportation(a TransportationAnswers) Validation {
	w.pristine = false
	limits := w.limits()
	v := Validation{}

	if a.LongFlights != nil {
		w.data.LongFlights = intPtr(calculator.ClampCount(*a.LongFlights, 0, limits.MaxFlights))
	}
	if a.ShortFlights != nil {
		w.data.ShortFlights = intPtr(calculator.ClampCount(*a.ShortFlights, 0, limits.MaxFlights))
	}
	if a.CarType != nil {
		carType := models.ParseCarType(*a.CarType)
		if carType == "" {
			v["carType"] = MsgSelectCarType
		} else {
			w.data.CarType = carType
			if carType == models.CarNone {
				w.data.WeeklyDrivingDistance = floatPtr(0)
			}
		}
	}
	if a.DrivingWeekly != nil && w.data.CarType != models.CarNone {
		w.data.WeeklyDrivingDistance = v.amount("weeklyDrivingDistance", *a.DrivingWeekly, limits.WeeklyDriving)
	}
	if a.UseTrain != nil {
		w.data.UseTrain = boolPtr(*a.UseTrain)
	}
	if a.TrainWeekly != nil {
		w.data.WeeklyTrainDistance = v.amount("weeklyTrainDistance", *a.TrainWeekly, limits.WeeklyTrain)
	}
	if a.UseBus != nil {
		w.data.UseBus = boolPtr(*a.UseBus)
	}
	if a.BusWeekly != nil {
		w.data.WeeklyBusDistance = v.amount("weeklyBusDistance", *a.BusWeekly, limits.WeeklyBus)
	}
	if a.WalkBike != nil {
		w.data.WalkBike = boolPtr(*a.WalkBike)
	}

	w.recompute()
	return v
}

// SetDiet selects the diet category from a label such as "Vegan" or
// "no-beef-or-lamb".
func (w *Wizard) SetDiet(label string) Validation {
	w.pristine = false
	v := Validation{}

	diet := models.ParseDiet(label)
	if diet == "" {
		v["diet"] = MsgSelectDiet
	} else {
		w.data.Diet = diet
	}

	w.recompute()
	return v
}

// SetEnergy applies a partial energy answer set.
func (w *Wizard) SetEnergy(a EnergyAnswers) Validation {
	w.pristine = false
	limits := w.limits()
	v := Validation{}

	if a.ElectricBill != nil {
		w.data.ElectricBill = v.amount("electricBill", *a.ElectricBill, limits.ElectricBill)
	}
	if a.WaterBill != nil {
		w.data.WaterBill = v.amount("waterBill", *a.WaterBill, limits.WaterBill)
	}
	if a.PropaneBill != nil {
		w.data.PropaneBill = v.amount("propaneBill", *a.PropaneBill, limits.PropaneBill)
	}
	if a.GasBill != nil {
		w.data.GasBill = v.amount("gasBill", *a.GasBill, limits.GasBill)
	}
	if a.UseWoodStove != nil {
		w.data.UseWoodStove = boolPtr(*a.UseWoodStove)
	}
	if a.PeopleInHome != nil {
		w.data.PeopleInHome = calculator.ClampCount(*a.PeopleInHome, limits.MinPeopleInHome, limits.MaxPeopleInHome)
	}

	w.recompute()
	return v
}

// Prefill loads a previously saved document into a wizard that has not been
// edited yet. It reports whether the document was applied.
func (w *Wizard) Prefill(doc models.EmissionsDocument) bool {
	if !w.pristine {
		return false
	}
	w.pristine = false

	data := cloneData(doc.SurveyData)
	if data.PeopleInHome < 1 {
		data.PeopleInHome = 1
	}
	w.data = data
	w.location = nil
	if key := data.LocationKey(); key != "" && w.locations != nil {
		if loc, ok := w.locations.Lookup(key); ok {
			w.location = &loc
		}
	}

	w.emissions = calculator.Aggregate(w.data, w.location, doc.SurveyEmissions)
	return true
}

// State returns a snapshot of the wizard.
func (w *Wizard) State() State {
	s := State{
		Step:        w.current,
		HighestStep: w.highest,
		CanContinue: w.CanContinue(),
		Data:        cloneData(w.data),
		Emissions:   w.emissions,
	}
	if w.location != nil {
		loc := *w.location
		s.Location = &loc
	}
	return s
}

// Results derives the results-step breakdown from the current emissions.
func (w *Wizard) Results() Results {
	r := Results{
		Emissions:   w.emissions,
		Comparison:  calculator.Compare(w.emissions.TotalEmissions),
		Equivalency: calculator.Equivalencies(w.emissions.TotalEmissions),
	}
	if w.location != nil {
		loc := *w.location
		r.Location = &loc
	}
	return r
}

func (w *Wizard) recompute() {
	w.emissions = calculator.Aggregate(w.data, w.location, w.emissions)
}

func (w *Wizard) limits() calculator.Limits {
	system := models.UnitImperial
	if w.location != nil {
		system = w.location.UnitSystem
	}
	return calculator.LimitsFor(system)
}

func (v Validation) amount(field, text string, max float64) *float64 {
	a := calculator.ParseAmount(text, max)
	if a.Message != "" {
		v[field] = a.Message
	}
	return a.Ptr()
}

func cloneData(d models.SurveyData) models.SurveyData {
	d.LongFlights = clonePtr(d.LongFlights)
	d.ShortFlights = clonePtr(d.ShortFlights)
	d.WeeklyDrivingDistance = clonePtr(d.WeeklyDrivingDistance)
	d.UseTrain = clonePtr(d.UseTrain)
	d.WeeklyTrainDistance = clonePtr(d.WeeklyTrainDistance)
	d.UseBus = clonePtr(d.UseBus)
	d.WeeklyBusDistance = clonePtr(d.WeeklyBusDistance)
	d.WalkBike = clonePtr(d.WalkBike)
	d.ElectricBill = clonePtr(d.ElectricBill)
	d.WaterBill = clonePtr(d.WaterBill)
	d.PropaneBill = clonePtr(d.PropaneBill)
	d.GasBill = clonePtr(d.GasBill)
	d.UseWoodStove = clonePtr(d.UseWoodStove)
	return d
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func roundedPtr(v float64) *float64 {
	return floatPtr(math.Round(v*100) / 100)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

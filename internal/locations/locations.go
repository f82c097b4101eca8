package locations

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

//go:embed locations.yaml
var embeddedTable []byte

// ErrInvalidTable indicates the reference data failed validation.
var ErrInvalidTable = errors.New("invalid location table")

// Table is an immutable set of Location records indexed by abbreviation.
type Table struct {
	byAbbr map[string]models.Location
	sorted []models.Location
}

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	return Parse(embeddedTable)
}

// Load reads a YAML table from path. An empty path loads the embedded table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading locations file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML list of locations.
func Parse(data []byte) (*Table, error) {
	var records []models.Location
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing locations: %w", err)
	}
	return New(records)
}

// New validates records and builds a Table.
func New(records []models.Location) (*Table, error) {
	t := &Table{byAbbr: make(map[string]models.Location, len(records))}

	for i, loc := range records {
		if err := validate(loc); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidTable, i, err)
		}
		key := strings.ToUpper(loc.Abbreviation)
		if _, dup := t.byAbbr[key]; dup {
			return nil, fmt.Errorf("%w: duplicate abbreviation %s", ErrInvalidTable, loc.Abbreviation)
		}
		t.byAbbr[key] = loc
		t.sorted = append(t.sorted, loc)
	}

	sort.SliceStable(t.sorted, func(i, j int) bool {
		return t.sorted[i].Name < t.sorted[j].Name
	})

	return t, nil
}

// Lookup finds a location by abbreviation, ignoring case.
func (t *Table) Lookup(abbreviation string) (models.Location, bool) {
	loc, ok := t.byAbbr[strings.ToUpper(strings.TrimSpace(abbreviation))]
	return loc, ok
}

// All returns every location sorted by name.
func (t *Table) All() []models.Location {
	out := make([]models.Location, len(t.sorted))
	copy(out, t.sorted)
	return out
}

// Countries returns the country records sorted by name.
func (t *Table) Countries() []models.Location {
	var out []models.Location
	for _, loc := range t.sorted {
		if loc.Type == models.LocationCountry {
			out = append(out, loc)
		}
	}
	return out
}

// Len reports the number of records.
func (t *Table) Len() int {
	return len(t.sorted)
}

func validate(loc models.Location) error {
	if strings.TrimSpace(loc.Abbreviation) == "" {
		return errors.New("abbreviation is required")
	}
	if loc.Name == "" {
		return fmt.Errorf("%s: name is required", loc.Abbreviation)
	}

	switch loc.Type {
	case models.LocationCountry, models.LocationState:
	default:
		return fmt.Errorf("%s: unsupported type %q", loc.Abbreviation, loc.Type)
	}

	switch loc.UnitSystem {
	case models.UnitMetric, models.UnitImperial:
	default:
		return fmt.Errorf("%s: unsupported unit system %q", loc.Abbreviation, loc.UnitSystem)
	}

	values := map[string]float64{
		"gridEmissionFactor":        loc.GridEmissionFactor,
		"avgMonthlyElectricityBill": loc.AvgMonthlyElectricityBill,
		"avgMonthlyWaterBill":       loc.AvgMonthlyWaterBill,
		"avgMonthlyGasBill":         loc.AvgMonthlyGasBill,
		"avgMonthlyPropaneBill":     loc.AvgMonthlyPropaneBill,
	}
	for field, v := range values {
		if v < 0 {
			return fmt.Errorf("%s: %s must not be negative", loc.Abbreviation, field)
		}
	}

	return nil
}

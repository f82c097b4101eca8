package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

const defaultSnapshotRange = "Community!A:D"

// Snapshot is one ledger row: the community totals as read at TakenAt.
type Snapshot struct {
	TakenAt             time.Time `json:"takenAt"`
	EmissionsCalculated float64   `json:"emissionsCalculated"`
	EmissionsOffset     float64   `json:"emissionsOffset"`
	LastUpdated         time.Time `json:"lastUpdated"`
}

// Ledger appends community snapshots to a spreadsheet and reads them back.
type Ledger struct {
	repo       Repository
	sheetRange string
}

// NewLedger wraps repo. An empty sheetRange uses "Community!A:D".
func NewLedger(repo Repository, sheetRange string) *Ledger {
	if sheetRange == "" {
		sheetRange = defaultSnapshotRange
	}
	return &Ledger{repo: repo, sheetRange: sheetRange}
}

// Append records data as taken at at.
func (l *Ledger) Append(ctx context.Context, data models.CommunityEmissionsData, at time.Time) error {
	if err := l.repo.WriteRow(ctx, l.sheetRange, snapshotRow(data, at)); err != nil {
		return fmt.Errorf("append community snapshot: %w", err)
	}
	return nil
}

// Snapshots returns every parseable row in sheet order. Header rows and rows
// that do not start with a timestamp are skipped.
func (l *Ledger) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := l.repo.ReadRange(ctx, l.sheetRange)
	if err != nil {
		return nil, fmt.Errorf("read community snapshots: %w", err)
	}

	out := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, ok := parseSnapshotRow(row)
		if !ok {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

func snapshotRow(data models.CommunityEmissionsData, at time.Time) []interface{} {
	return []interface{}{
		at.UTC().Format(time.RFC3339),
		data.EmissionsCalculated,
		data.EmissionsOffset,
		data.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func parseSnapshotRow(row []interface{}) (Snapshot, bool) {
	if len(row) < 3 {
		return Snapshot{}, false
	}

	takenAt, err := time.Parse(time.RFC3339, cellString(row[0]))
	if err != nil {
		return Snapshot{}, false
	}
	calculated, ok := cellFloat(row[1])
	if !ok {
		return Snapshot{}, false
	}
	offset, ok := cellFloat(row[2])
	if !ok {
		return Snapshot{}, false
	}

	snap := Snapshot{TakenAt: takenAt, EmissionsCalculated: calculated, EmissionsOffset: offset}
	if len(row) > 3 {
		if updated, err := time.Parse(time.RFC3339, cellString(row[3])); err == nil {
			snap.LastUpdated = updated
		}
	}
	return snap, true
}

func cellString(v interface{}) string {
	return strings.TrimSpace(fmt.Sprint(v))
}

func cellFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

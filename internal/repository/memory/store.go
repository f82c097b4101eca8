// Package memory is an in-process document store used for local runs and
// tests. The community totals use optimistic concurrency: a transaction
// reads a versioned snapshot and commits only if no other commit happened
// in between, retrying otherwise.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/internal/repository"
)

// ErrTooManyConflicts is returned when a community transaction could not
// commit within the configured number of attempts.
var ErrTooManyConflicts = errors.New("memory: too many transaction conflicts")

type emissionsKey struct {
	userID string
	month  string
}

// Store keeps documents in maps guarded by a mutex.
type Store struct {
	mu        sync.RWMutex
	emissions map[emissionsKey]models.EmissionsDocument
	profiles  map[string]models.UserProfile

	community       models.CommunityEmissionsData
	communityExists bool
	version         uint64

	maxAttempts  int
	now          func() time.Time
	beforeCommit func(attempt int)
}

// Option configures a Store.
type Option func(*Store)

// WithMaxAttempts bounds community transaction retries. Zero retries until
// the context is done.
func WithMaxAttempts(n int) Option {
	return func(s *Store) { s.maxAttempts = n }
}

// WithClock overrides the store clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		emissions: make(map[emissionsKey]models.EmissionsDocument),
		profiles:  make(map[string]models.UserProfile),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetEmissions loads the document for a user and month key.
func (s *Store) GetEmissions(ctx context.Context, userID, month string) (*models.EmissionsDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.emissions[emissionsKey{userID, month}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &doc, nil
}

// LatestEmissions loads the user's most recent document.
func (s *Store) LatestEmissions(ctx context.Context, userID string) (*models.EmissionsDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []models.EmissionsDocument
	for key, doc := range s.emissions {
		if key.userID == userID {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Month != docs[j].Month {
			return docs[i].Month > docs[j].Month
		}
		return docs[i].LastUpdated.After(docs[j].LastUpdated)
	})
	return &docs[0], nil
}

// UpsertEmissions merges update into the document for a user and month key.
// Fields outside EmissionsUpdate are preserved.
func (s *Store) UpsertEmissions(ctx context.Context, userID, month string, update models.EmissionsUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emissionsKey{userID, month}
	doc := s.emissions[key]
	doc.UserID = userID
	doc.Month = month
	doc.SurveyData = mergeSurveyData(doc.SurveyData, update.SurveyData)
	doc.SurveyEmissions = update.SurveyEmissions
	doc.TotalEmissions = update.TotalEmissions
	doc.MonthlyEmissions = update.MonthlyEmissions
	doc.LastUpdated = update.LastUpdated
	s.emissions[key] = doc
	return nil
}

// RunCommunityTransaction applies fn to a snapshot of the community totals
// and commits the result if the totals did not change meanwhile. On
// conflict fn is re-run against the fresh value.
func (s *Store) RunCommunityTransaction(ctx context.Context, fn repository.CommunityUpdateFunc) (models.CommunityEmissionsData, error) {
	for attempt := 1; s.maxAttempts == 0 || attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.CommunityEmissionsData{}, err
		}

		s.mu.RLock()
		current, exists, version := s.community, s.communityExists, s.version
		s.mu.RUnlock()
		if !exists {
			current = models.CommunityEmissionsData{LastUpdated: s.now()}
		}

		next, err := fn(current, exists)
		if err != nil {
			return models.CommunityEmissionsData{}, err
		}

		if hook := s.beforeCommit; hook != nil {
			hook(attempt)
		}

		s.mu.Lock()
		if s.version != version {
			s.mu.Unlock()
			continue
		}
		s.community = next
		s.communityExists = true
		s.version++
		s.mu.Unlock()
		return next, nil
	}
	return models.CommunityEmissionsData{}, ErrTooManyConflicts
}

// GetCommunity reads the community totals.
func (s *Store) GetCommunity(ctx context.Context) (models.CommunityEmissionsData, error) {
	if err := ctx.Err(); err != nil {
		return models.CommunityEmissionsData{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.communityExists {
		return models.CommunityEmissionsData{LastUpdated: s.now()}, nil
	}
	return s.community, nil
}

// CreateProfileIfAbsent stores profile unless one with the same id exists.
func (s *Store) CreateProfileIfAbsent(ctx context.Context, profile models.UserProfile) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; ok {
		return false, nil
	}
	s.profiles[profile.ID] = profile
	return true, nil
}

// GetProfile loads a user profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &profile, nil
}

// mergeSurveyData overlays the answered fields of next onto prev.
func mergeSurveyData(prev, next models.SurveyData) models.SurveyData {
	out := prev
	// Country and state form one location answer.
	if next.Country != "" {
		out.Country = next.Country
		out.State = next.State
	}
	if next.CarType != "" {
		out.CarType = next.CarType
	}
	if next.Diet != "" {
		out.Diet = next.Diet
	}
	out.PeopleInHome = next.PeopleInHome

	overlay(&out.LongFlights, next.LongFlights)
	overlay(&out.ShortFlights, next.ShortFlights)
	overlay(&out.WeeklyDrivingDistance, next.WeeklyDrivingDistance)
	overlay(&out.UseTrain, next.UseTrain)
	overlay(&out.WeeklyTrainDistance, next.WeeklyTrainDistance)
	overlay(&out.UseBus, next.UseBus)
	overlay(&out.WeeklyBusDistance, next.WeeklyBusDistance)
	overlay(&out.WalkBike, next.WalkBike)
	overlay(&out.ElectricBill, next.ElectricBill)
	overlay(&out.WaterBill, next.WaterBill)
	overlay(&out.PropaneBill, next.PropaneBill)
	overlay(&out.GasBill, next.GasBill)
	overlay(&out.UseWoodStove, next.UseWoodStove)
	return out
}

func overlay[T any](dst **T, src *T) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}

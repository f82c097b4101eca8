package submission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/internal/repository"
	"github.com/mamadbah2/footprint/internal/service/survey"
	"github.com/mamadbah2/footprint/pkg/metrics"
)

var (
	// ErrAlreadySaved is returned when the session's survey has been saved
	// or a save is already in flight.
	ErrAlreadySaved = errors.New("submission: survey already saved for this session")
	// ErrNotAuthenticated is returned when a save is attempted without a user.
	ErrNotAuthenticated = errors.New("submission: user is not authenticated")
	// ErrIncompleteSurvey is returned when the session has not reached results.
	ErrIncompleteSurvey = errors.New("submission: survey has not reached results")
)

// Trigger names the event that started a save.
type Trigger string

const (
	TriggerResults       Trigger = "results"
	TriggerAuthenticated Trigger = "authenticated"
)

const defaultSaveTimeout = 15 * time.Second

// EmissionsStore persists per-user, per-month survey results.
type EmissionsStore interface {
	GetEmissions(ctx context.Context, userID, month string) (*models.EmissionsDocument, error)
	LatestEmissions(ctx context.Context, userID string) (*models.EmissionsDocument, error)
	UpsertEmissions(ctx context.Context, userID, month string, update models.EmissionsUpdate) error
}

// CommunityStore holds the global community totals.
type CommunityStore interface {
	RunCommunityTransaction(ctx context.Context, fn repository.CommunityUpdateFunc) (models.CommunityEmissionsData, error)
	GetCommunity(ctx context.Context) (models.CommunityEmissionsData, error)
}

// Notifier is told about every saved survey.
type Notifier interface {
	PublishSubmission(ctx context.Context, event models.SubmissionEvent) error
}

// Options tunes a Service.
type Options struct {
	Location    *time.Location
	SaveTimeout time.Duration
	Notifier    Notifier
	Metrics     *metrics.Collector
	Now         func() time.Time
}

// Service makes completed surveys durable and folds them into the
// community counter, at most once per session.
type Service struct {
	emissions EmissionsStore
	community CommunityStore
	notifier  Notifier
	metrics   *metrics.Collector
	logger    *zap.Logger

	location    *time.Location
	saveTimeout time.Duration
	now         func() time.Time

	wg sync.WaitGroup
}

// NewService wires a new submission service instance.
func NewService(emissions EmissionsStore, community CommunityStore, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		emissions:   emissions,
		community:   community,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		logger:      logger,
		location:    opts.Location,
		saveTimeout: opts.SaveTimeout,
		now:         opts.Now,
	}
	if svc.location == nil {
		svc.location = time.UTC
	}
	if svc.saveTimeout <= 0 {
		svc.saveTimeout = defaultSaveTimeout
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// MonthKey returns the document key for t in the configured time zone.
func (s *Service) MonthKey(t time.Time) string {
	return models.MonthKey(t.In(s.location))
}

// Submit saves the session's survey for userID and adds its total to the
// community counter. A second call for the same session returns
// ErrAlreadySaved; a failed call releases the guard so a later trigger may
// try again.
func (s *Service) Submit(ctx context.Context, session *survey.Session, userID string) (models.CommunityEmissionsData, error) {
	return s.submit(ctx, session, userID, TriggerResults)
}

func (s *Service) submit(ctx context.Context, session *survey.Session, userID string, trigger Trigger) (models.CommunityEmissionsData, error) {
	if userID == "" {
		return models.CommunityEmissionsData{}, ErrNotAuthenticated
	}

	state, claimed := session.ClaimSave()
	if !claimed {
		s.logger.Debug("save suppressed",
			zap.String("session_id", session.ID()),
			zap.String("trigger", string(trigger)),
		)
		return models.CommunityEmissionsData{}, ErrAlreadySaved
	}
	if state.HighestStep != survey.StepResults {
		session.ReleaseSave()
		return models.CommunityEmissionsData{}, ErrIncompleteSurvey
	}

	started := s.now()
	month := s.MonthKey(started)
	log := s.logger.With(
		zap.String("user_id", userID),
		zap.String("session_id", session.ID()),
		zap.String("month", month),
		zap.String("trigger", string(trigger)),
	)

	total, err := s.persist(ctx, userID, month, state, started)
	duration := s.now().Sub(started)
	if err != nil {
		session.ReleaseSave()
		s.metrics.RecordSubmission(string(trigger), "failed", duration, 0)
		log.Error("failed to save survey", zap.Error(err))
		return models.CommunityEmissionsData{}, err
	}

	session.CompleteSave()
	s.metrics.RecordSubmission(string(trigger), "saved", duration, state.Emissions.TotalEmissions)
	log.Info("survey saved",
		zap.Float64("total_emissions", state.Emissions.TotalEmissions),
		zap.Float64("community_total", total.EmissionsCalculated),
	)

	s.notify(ctx, models.SubmissionEvent{
		UserID:         userID,
		SessionID:      session.ID(),
		Month:          month,
		TotalEmissions: state.Emissions.TotalEmissions,
		Community:      total,
		SavedAt:        started,
	})
	return total, nil
}

func (s *Service) persist(ctx context.Context, userID, month string, state survey.State, now time.Time) (models.CommunityEmissionsData, error) {
	update := models.EmissionsUpdate{
		SurveyData:       state.Data,
		SurveyEmissions:  state.Emissions,
		TotalEmissions:   state.Emissions.TotalEmissions,
		MonthlyEmissions: state.Emissions.MonthlyEmissions,
		LastUpdated:      now,
	}
	if err := s.emissions.UpsertEmissions(ctx, userID, month, update); err != nil {
		s.metrics.RecordStoreError("upsert_emissions")
		return models.CommunityEmissionsData{}, fmt.Errorf("save user emissions: %w", err)
	}

	delta := counterDelta(state.Emissions.TotalEmissions)
	total, err := s.community.RunCommunityTransaction(ctx, func(current models.CommunityEmissionsData, exists bool) (models.CommunityEmissionsData, error) {
		next := current
		if exists {
			next.EmissionsCalculated = current.EmissionsCalculated + delta
		} else {
			next.EmissionsCalculated = delta
		}
		next.LastUpdated = now
		return next, nil
	})
	if err != nil {
		s.metrics.RecordStoreError("community_transaction")
		return models.CommunityEmissionsData{}, fmt.Errorf("update community emissions: %w", err)
	}
	return total, nil
}

func (s *Service) notify(ctx context.Context, event models.SubmissionEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishSubmission(ctx, event); err != nil {
		s.logger.Warn("failed to publish submission",
			zap.String("session_id", event.SessionID),
			zap.Error(err),
		)
	}
}

// counterDelta keeps the community counter monotonic.
func counterDelta(total float64) float64 {
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return 0
	}
	return total
}

// OnResultsReached saves in the background when an authenticated user
// arrives on the results step. It reports whether a save was started.
func (s *Service) OnResultsReached(session *survey.Session) bool {
	userID := session.UserID()
	if userID == "" {
		return false
	}
	return s.SubmitInBackground(session, userID, TriggerResults)
}

// OnAuthenticated records the new owner of an anonymous session and, when
// the user signed in from the results step, saves in the background. A
// session already owned by another user is neither rebound nor saved.
func (s *Service) OnAuthenticated(session *survey.Session, userID string) bool {
	if !session.BindUser(userID) {
		s.logger.Warn("sign-in referenced a session owned by another user",
			zap.String("session_id", session.ID()),
			zap.String("user_id", userID),
		)
		return false
	}
	if session.State().Step != survey.StepResults {
		return false
	}
	return s.SubmitInBackground(session, userID, TriggerAuthenticated)
}

// SubmitInBackground runs a save without blocking the caller. The save is
// bounded by the configured timeout and tracked until Wait returns. It
// reports false when the session is already saved or saving.
func (s *Service) SubmitInBackground(session *survey.Session, userID string, trigger Trigger) bool {
	if session.SaveState() != survey.SaveIdle {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		defer cancel()

		if _, err := s.submit(ctx, session, userID, trigger); err != nil && !errors.Is(err, ErrAlreadySaved) {
			s.logger.Debug("background save did not complete",
				zap.String("session_id", session.ID()),
				zap.Error(err),
			)
		}
	}()
	return true
}

// Wait blocks until every background save has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Community returns the current community totals.
func (s *Service) Community(ctx context.Context) (models.CommunityEmissionsData, error) {
	data, err := s.community.GetCommunity(ctx)
	if err != nil {
		s.metrics.RecordStoreError("get_community")
		return models.CommunityEmissionsData{}, fmt.Errorf("read community emissions: %w", err)
	}
	return data, nil
}

// UserEmissions returns the user's document for a month key, or the most
// recent document when month is empty.
func (s *Service) UserEmissions(ctx context.Context, userID, month string) (*models.EmissionsDocument, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	var (
		doc *models.EmissionsDocument
		err error
	)
	if month == "" {
		doc, err = s.emissions.LatestEmissions(ctx, userID)
	} else {
		doc, err = s.emissions.GetEmissions(ctx, userID, month)
	}
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordStoreError("get_emissions")
		}
		return nil, fmt.Errorf("load emissions for %s: %w", userID, err)
	}
	return doc, nil
}

// Prefill loads the user's most recent saved survey into a session that has
// not been edited yet. The fetch runs in the background; answers entered in
// the meantime win.
func (s *Service) Prefill(session *survey.Session, userID string) {
	if userID == "" {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		defer cancel()

		doc, err := s.emissions.LatestEmissions(ctx, userID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("failed to load previous survey",
					zap.String("user_id", userID),
					zap.String("session_id", session.ID()),
					zap.Error(err),
				)
			}
			return
		}

		var applied bool
		session.Update(func(w *survey.Wizard) {
			applied = w.Prefill(*doc)
		})
		s.logger.Debug("previous survey prefill",
			zap.String("session_id", session.ID()),
			zap.Bool("applied", applied),
		)
	}()
}

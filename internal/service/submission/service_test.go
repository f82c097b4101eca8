package submission

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/internal/locations"
	"github.com/mamadbah2/footprint/internal/repository"
	"github.com/mamadbah2/footprint/internal/repository/memory"
	"github.com/mamadbah2/footprint/internal/service/survey"
)

var errStoreDown = errors.New("store unavailable")

type flakyEmissions struct {
	*memory.Store
	mu   sync.Mutex
	fail error
}

func (f *flakyEmissions) setFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *flakyEmissions) UpsertEmissions(ctx context.Context, userID, month string, update models.EmissionsUpdate) error {
	f.mu.Lock()
	err := f.fail
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.UpsertEmissions(ctx, userID, month, update)
}

type failingCommunity struct {
	*memory.Store
}

func (failingCommunity) RunCommunityTransaction(context.Context, repository.CommunityUpdateFunc) (models.CommunityEmissionsData, error) {
	return models.CommunityEmissionsData{}, errStoreDown
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.SubmissionEvent
	err    error
}

func (n *recordingNotifier) PublishSubmission(_ context.Context, event models.SubmissionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func str(v string) *string { return &v }

var fixedNow = time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC)

func newSessions(t *testing.T) *survey.SessionManager {
	t.Helper()
	table, err := locations.Default()
	require.NoError(t, err)
	return survey.NewSessionManager(table)
}

func completedSession(t *testing.T, sm *survey.SessionManager, userID string) *survey.Session {
	t.Helper()
	session := sm.CreateSession(userID)
	session.Update(func(w *survey.Wizard) {
		require.NoError(t, w.SetLocation("US", ""))
		require.True(t, w.Continue())
		w.SetTransportation(survey.TransportationAnswers{CarType: str("gas"), DrivingWeekly: str("300")})
		require.True(t, w.Continue())
		w.SetDiet("average")
		require.True(t, w.Continue())
		require.True(t, w.Continue())
		require.Equal(t, survey.StepResults, w.Step())
	})
	return session
}

func newService(emissions EmissionsStore, community CommunityStore, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return NewService(emissions, community, opts, nil)
}

func TestSubmitSavesDocumentAndCounter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	session := completedSession(t, newSessions(t), "user-1")
	want := session.State().Emissions

	total, err := svc.Submit(ctx, session, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, want.TotalEmissions, total.EmissionsCalculated, 1e-12)
	assert.Equal(t, fixedNow, total.LastUpdated)
	assert.Equal(t, survey.SaveDone, session.SaveState())

	doc, err := store.GetEmissions(ctx, "user-1", "2026-10")
	require.NoError(t, err)
	assert.Equal(t, want, doc.SurveyEmissions)
	assert.Equal(t, want.TotalEmissions, doc.TotalEmissions)
	assert.Equal(t, want.MonthlyEmissions, doc.MonthlyEmissions)
	assert.Equal(t, "US", doc.SurveyData.Country)
	assert.Equal(t, fixedNow, doc.LastUpdated)
}

func TestSubmitAddsToExistingCounter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, err := store.RunCommunityTransaction(ctx, func(c models.CommunityEmissionsData, _ bool) (models.CommunityEmissionsData, error) {
		c.EmissionsCalculated = 1000
		c.EmissionsOffset = 40
		return c, nil
	})
	require.NoError(t, err)

	svc := newService(store, store, Options{})
	session := completedSession(t, newSessions(t), "user-1")

	total, err := svc.Submit(ctx, session, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 1000+session.State().Emissions.TotalEmissions, total.EmissionsCalculated, 1e-9)
	assert.Equal(t, 40.0, total.EmissionsOffset, "offset is untouched")
}

func TestSubmitGuardSuppressesSecondSave(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	session := completedSession(t, newSessions(t), "user-1")

	first, err := svc.Submit(ctx, session, "user-1")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, session, "user-1")
	assert.ErrorIs(t, err, ErrAlreadySaved)

	community, err := svc.Community(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.EmissionsCalculated, community.EmissionsCalculated)
}

func TestBothTriggersCountOnce(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	session := completedSession(t, newSessions(t), "user-1")

	startedResults := svc.OnResultsReached(session)
	svc.OnAuthenticated(session, "user-1")
	svc.Wait()

	assert.True(t, startedResults)
	community, err := svc.Community(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, session.State().Emissions.TotalEmissions, community.EmissionsCalculated, 1e-12)
	assert.Equal(t, survey.SaveDone, session.SaveState())
}

func TestDeferredSaveAfterSignIn(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	session := completedSession(t, newSessions(t), "")

	assert.False(t, svc.OnResultsReached(session), "anonymous arrival does not save")
	assert.True(t, svc.OnAuthenticated(session, "user-2"))
	svc.Wait()

	assert.Equal(t, "user-2", session.UserID())
	_, err := store.GetEmissions(context.Background(), "user-2", "2026-10")
	require.NoError(t, err)
}

func TestOnAuthenticatedBeforeResultsOnlyRecordsUser(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	session := newSessions(t).CreateSession("")

	assert.False(t, svc.OnAuthenticated(session, "user-3"))
	svc.Wait()
	assert.Equal(t, "user-3", session.UserID())
	assert.Equal(t, survey.SaveIdle, session.SaveState())
}

func TestOnAuthenticatedKeepsExistingOwner(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	session := completedSession(t, newSessions(t), "user-1")

	assert.False(t, svc.OnAuthenticated(session, "user-4"))
	svc.Wait()

	assert.Equal(t, "user-1", session.UserID())
	assert.Equal(t, survey.SaveIdle, session.SaveState())
	_, err := store.GetEmissions(context.Background(), "user-4", "2026-10")
	assert.Error(t, err)
}

func TestSubmitFailureReleasesGuard(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	emissions := &flakyEmissions{Store: store}
	emissions.setFailure(errStoreDown)
	svc := newService(emissions, store, Options{})
	session := completedSession(t, newSessions(t), "user-1")

	_, err := svc.Submit(ctx, session, "user-1")
	require.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, survey.SaveIdle, session.SaveState())

	community, err := store.GetCommunity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, community.EmissionsCalculated, "counter untouched when the user write fails")

	emissions.setFailure(nil)
	_, err = svc.Submit(ctx, session, "user-1")
	require.NoError(t, err)
	assert.Equal(t, survey.SaveDone, session.SaveState())
}

func TestCommunityFailureReleasesGuard(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, failingCommunity{store}, Options{})
	session := completedSession(t, newSessions(t), "user-1")

	_, err := svc.Submit(context.Background(), session, "user-1")
	require.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, survey.SaveIdle, session.SaveState())
	assert.Equal(t, survey.StepResults, session.State().Step, "results stay available")
}

func TestSubmitPreconditions(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	sm := newSessions(t)

	_, err := svc.Submit(context.Background(), completedSession(t, sm, ""), "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	incomplete := sm.CreateSession("user-1")
	_, err = svc.Submit(context.Background(), incomplete, "user-1")
	assert.ErrorIs(t, err, ErrIncompleteSurvey)
	assert.Equal(t, survey.SaveIdle, incomplete.SaveState())
}

func TestSubmitAfterNavigatingBack(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	session := completedSession(t, newSessions(t), "user-1")
	session.Update(func(w *survey.Wizard) {
		require.True(t, w.GoTo(survey.StepDiet))
	})

	_, err := svc.Submit(context.Background(), session, "user-1")
	require.NoError(t, err)
}

func TestMonthKeyUsesConfiguredZone(t *testing.T) {
	store := memory.NewStore()
	tokyo := time.FixedZone("JST", 9*60*60)
	lateUTC := time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC)
	svc := newService(store, store, Options{
		Location: tokyo,
		Now:      func() time.Time { return lateUTC },
	})

	assert.Equal(t, "2026-11", svc.MonthKey(lateUTC))

	session := completedSession(t, newSessions(t), "user-1")
	_, err := svc.Submit(context.Background(), session, "user-1")
	require.NoError(t, err)

	_, err = store.GetEmissions(context.Background(), "user-1", "2026-11")
	assert.NoError(t, err)
}

func TestNotifierReceivesEvent(t *testing.T) {
	store := memory.NewStore()
	notifier := &recordingNotifier{err: errors.New("broker offline")}
	svc := newService(store, store, Options{Notifier: notifier})
	session := completedSession(t, newSessions(t), "user-1")

	total, err := svc.Submit(context.Background(), session, "user-1")
	require.NoError(t, err, "publish failures do not fail the save")

	require.Len(t, notifier.events, 1)
	event := notifier.events[0]
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, session.ID(), event.SessionID)
	assert.Equal(t, "2026-10", event.Month)
	assert.Equal(t, total, event.Community)
}

func TestConcurrentSubmissionsAreAllCounted(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	sm := newSessions(t)

	const n = 12
	sessions := make([]*survey.Session, n)
	var want float64
	for i := range sessions {
		sessions[i] = completedSession(t, sm, "user")
		want += sessions[i].State().Emissions.TotalEmissions
	}

	var wg sync.WaitGroup
	for i, session := range sessions {
		wg.Add(1)
		go func(i int, session *survey.Session) {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), session, "user")
			assert.NoError(t, err, "session %d", i)
		}(i, session)
	}
	wg.Wait()

	community, err := svc.Community(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, want, community.EmissionsCalculated, 1e-9)
}

func TestCounterDelta(t *testing.T) {
	assert.Equal(t, 0.0, counterDelta(-4))
	assert.Equal(t, 0.0, counterDelta(math.NaN()))
	assert.Equal(t, 0.0, counterDelta(math.Inf(1)))
	assert.Equal(t, 3.25, counterDelta(3.25))
}

func TestUserEmissions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(store, store, Options{})

	_, err := svc.UserEmissions(ctx, "", "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.UserEmissions(ctx, "user-1", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.UpsertEmissions(ctx, "user-1", "2026-09", models.EmissionsUpdate{TotalEmissions: 8}))
	require.NoError(t, store.UpsertEmissions(ctx, "user-1", "2026-10", models.EmissionsUpdate{TotalEmissions: 9}))

	latest, err := svc.UserEmissions(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-10", latest.Month)

	sept, err := svc.UserEmissions(ctx, "user-1", "2026-09")
	require.NoError(t, err)
	assert.Equal(t, 8.0, sept.TotalEmissions)
}

func TestPrefillFromLatestDocument(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(store, store, Options{})
	require.NoError(t, store.UpsertEmissions(ctx, "user-1", "2026-09", models.EmissionsUpdate{
		SurveyData: models.SurveyData{Country: "DE", Diet: models.DietVegan, PeopleInHome: 2},
	}))

	session := newSessions(t).CreateSession("user-1")
	svc.Prefill(session, "user-1")
	svc.Wait()

	state := session.State()
	assert.Equal(t, "DE", state.Data.Country)
	assert.Equal(t, models.DietVegan, state.Data.Diet)
	require.NotNil(t, state.Location)
	assert.Equal(t, models.UnitMetric, state.Location.UnitSystem)

	anonymous := newSessions(t).CreateSession("")
	svc.Prefill(anonymous, "")
	svc.Wait()
	assert.Empty(t, anonymous.State().Data.Country)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/footprint/internal/service/survey"
	"github.com/mamadbah2/footprint/pkg/metrics"
)

// ErrSessionNotFound is reported when a survey id is unknown or expired.
var ErrSessionNotFound = errors.New("survey session not found")

// Submitter reacts to survey lifecycle events with saves and prefills.
type Submitter interface {
	OnResultsReached(session *survey.Session) bool
	OnAuthenticated(session *survey.Session, userID string) bool
	Prefill(session *survey.Session, userID string)
}

// SurveyHandler exposes the survey wizard over HTTP.
type SurveyHandler struct {
	sessions    *survey.SessionManager
	submissions Submitter
	metrics     *metrics.Collector
	logger      *zap.Logger
}

// NewSurveyHandler constructs the HTTP handler adapter.
func NewSurveyHandler(sessions *survey.SessionManager, submissions Submitter, collector *metrics.Collector, logger *zap.Logger) *SurveyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyHandler{sessions: sessions, submissions: submissions, metrics: collector, logger: logger}
}

type surveyResponse struct {
	ID         string            `json:"id"`
	SaveState  survey.SaveState  `json:"saveState"`
	State      survey.State      `json:"state"`
	Validation survey.Validation `json:"validation,omitempty"`
}

type locationRequest struct {
	Country string `json:"country" binding:"required"`
	State   string `json:"state"`
}

type dietRequest struct {
	Diet string `json:"diet"`
}

// Create starts a new survey session. Authenticated users get their last
// saved answers prefilled.
func (h *SurveyHandler) Create(c *gin.Context) {
	user, authenticated := CurrentUser(c)
	session := h.sessions.CreateSession(user.ID)
	h.metrics.RecordSessionStarted()
	h.metrics.SetActiveSessions(h.sessions.Len())

	if authenticated {
		h.submissions.Prefill(session, user.ID)
	}

	h.logger.Debug("survey session created", zap.String("session_id", session.ID()), zap.Bool("authenticated", authenticated))
	c.JSON(http.StatusCreated, h.response(session, nil))
}

// Get returns the wizard state.
func (h *SurveyHandler) Get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.response(session, nil))
}

// SetLocation records the location selection.
func (h *SurveyHandler) SetLocation(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var err error
	session.Update(func(w *survey.Wizard) {
		err = w.SetLocation(req.Country, req.State)
	})
	if err != nil {
		if errors.Is(err, survey.ErrUnknownLocation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown location"})
			return
		}
		h.logger.Error("failed to set location", zap.String("session_id", session.ID()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set location"})
		return
	}

	c.JSON(http.StatusOK, h.response(session, nil))
}

// SetTransportation records the transportation answers.
func (h *SurveyHandler) SetTransportation(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req survey.TransportationAnswers
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var v survey.Validation
	session.Update(func(w *survey.Wizard) {
		v = w.SetTransportation(req)
	})
	c.JSON(http.StatusOK, h.response(session, v))
}

// SetDiet records the diet answer.
func (h *SurveyHandler) SetDiet(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req dietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var v survey.Validation
	session.Update(func(w *survey.Wizard) {
		v = w.SetDiet(req.Diet)
	})
	c.JSON(http.StatusOK, h.response(session, v))
}

// SetEnergy records the energy answers.
func (h *SurveyHandler) SetEnergy(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req survey.EnergyAnswers
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var v survey.Validation
	session.Update(func(w *survey.Wizard) {
		v = w.SetEnergy(req)
	})
	c.JSON(http.StatusOK, h.response(session, v))
}

// Continue advances the wizard. An incomplete step answers 409 with the
// unchanged state.
func (h *SurveyHandler) Continue(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var (
		advanced bool
		from, to survey.Step
	)
	session.Update(func(w *survey.Wizard) {
		from = w.Step()
		advanced = w.Continue()
		to = w.Step()
	})
	h.metrics.RecordStepTransition(from.String(), advanced)

	if !advanced {
		c.JSON(http.StatusConflict, h.response(session, nil))
		return
	}

	if to == survey.StepResults {
		h.bindCurrentUser(c, session)
		h.submissions.OnResultsReached(session)
	}
	c.JSON(http.StatusOK, h.response(session, nil))
}

// GoTo navigates back to, or forward to, a step already reached.
func (h *SurveyHandler) GoTo(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	step, err := survey.ParseStep(c.Param("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step"})
		return
	}

	var moved bool
	session.Update(func(w *survey.Wizard) {
		moved = w.GoTo(step)
	})
	h.metrics.RecordStepTransition(step.String(), moved)

	if !moved {
		c.JSON(http.StatusConflict, h.response(session, nil))
		return
	}

	if step == survey.StepResults {
		h.bindCurrentUser(c, session)
		h.submissions.OnResultsReached(session)
	}
	c.JSON(http.StatusOK, h.response(session, nil))
}

// Results returns the breakdown with comparison and equivalencies.
func (h *SurveyHandler) Results(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var (
		results survey.Results
		reached bool
	)
	session.Update(func(w *survey.Wizard) {
		reached = w.HighestStep() == survey.StepResults
		results = w.Results()
	})
	if !reached {
		c.JSON(http.StatusConflict, gin.H{"error": "survey has not reached results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        session.ID(),
		"saveState": session.SaveState(),
		"results":   results,
	})
}

func (h *SurveyHandler) session(c *gin.Context) (*survey.Session, bool) {
	session, ok := h.sessions.GetSession(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrSessionNotFound.Error()})
		return nil, false
	}
	return session, true
}

// bindCurrentUser hands an anonymous session to the bearer of the request
// token so reaching results saves under that account.
func (h *SurveyHandler) bindCurrentUser(c *gin.Context, session *survey.Session) {
	user, ok := CurrentUser(c)
	if !ok {
		return
	}
	if !session.BindUser(user.ID) {
		h.logger.Debug("session owned by another user",
			zap.String("session_id", session.ID()),
			zap.String("user_id", user.ID),
		)
	}
}

func (h *SurveyHandler) response(session *survey.Session, v survey.Validation) surveyResponse {
	return surveyResponse{
		ID:         session.ID(),
		SaveState:  session.SaveState(),
		State:      session.State(),
		Validation: v,
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authsvc "github.com/mamadbah2/footprint/internal/service/auth"
	"github.com/mamadbah2/footprint/internal/service/survey"
	"github.com/mamadbah2/footprint/pkg/clients/identity"
)

// Authenticator signs users in and up.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (authsvc.Session, error)
	SignUp(ctx context.Context, name, email, password string) (authsvc.Session, error)
}

// AuthHandler exposes sign-in and sign-up. A survey_id in the request body
// hands the session to the new user and saves it when it is on results.
type AuthHandler struct {
	auth        Authenticator
	sessions    *survey.SessionManager
	submissions Submitter
	logger      *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter. A nil auth answers 503.
func NewAuthHandler(auth Authenticator, sessions *survey.SessionManager, submissions Submitter, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, sessions: sessions, submissions: submissions, logger: logger}
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	SurveyID string `json:"survey_id"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	SurveyID string `json:"survey_id"`
}

type authResponse struct {
	authsvc.Session
	SurveySaving bool `json:"surveySaving"`
}

// SignIn authenticates with email and password.
func (h *AuthHandler) SignIn(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "authentication is not configured"})
		return
	}

	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{Session: session, SurveySaving: h.attach(req.SurveyID, session.User.ID)})
}

// SignUp creates an account.
func (h *AuthHandler) SignUp(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "authentication is not configured"})
		return
	}

	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.auth.SignUp(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{Session: session, SurveySaving: h.attach(req.SurveyID, session.User.ID)})
}

func (h *AuthHandler) attach(surveyID, userID string) bool {
	if surveyID == "" {
		return false
	}
	session, ok := h.sessions.GetSession(surveyID)
	if !ok {
		h.logger.Debug("sign-in referenced an unknown survey", zap.String("session_id", surveyID))
		return false
	}
	return h.submissions.OnAuthenticated(session, userID)
}

func (h *AuthHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, authsvc.ErrNameRequired) {
		c.JSON(http.StatusBadRequest, gin.H{"error": authsvc.MsgNameRequired})
		return
	}

	var idErr *identity.Error
	if !errors.As(err, &idErr) {
		h.logger.Error("authentication failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Authentication failed"})
		return
	}

	status := http.StatusUnauthorized
	switch idErr.Kind {
	case identity.KindEmailExists:
		status = http.StatusConflict
	case identity.KindWeakPassword:
		status = http.StatusBadRequest
	case identity.KindUserDisabled:
		status = http.StatusForbidden
	case identity.KindTooManyAttempts:
		status = http.StatusTooManyRequests
	case identity.KindUnknown:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": idErr.Message(), "code": idErr.Kind})
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/footprint/internal/domain/models"
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com"

// ErrorKind classifies a failed sign-in or sign-up.
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid-credentials"
	KindEmailExists        ErrorKind = "email-exists"
	KindWeakPassword       ErrorKind = "weak-password"
	KindUserDisabled       ErrorKind = "user-disabled"
	KindTooManyAttempts    ErrorKind = "too-many-attempts"
	KindUnknown            ErrorKind = "unknown"
)

var kindMessages = map[ErrorKind]string{
	KindInvalidCredentials: "Invalid email or password",
	KindEmailExists:        "An account with this email already exists",
	KindWeakPassword:       "Password should be at least 6 characters",
	KindUserDisabled:       "This account has been disabled",
	KindTooManyAttempts:    "Too many attempts. Please try again later",
	KindUnknown:            "Authentication failed",
}

// Error is a classified identity provider failure.
type Error struct {
	Kind   ErrorKind
	Code   string
	Status int
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %s (%s)", e.Kind, e.Code)
}

// Message returns the text shown to the user.
func (e *Error) Message() string {
	if msg, ok := kindMessages[e.Kind]; ok {
		return msg
	}
	return kindMessages[KindUnknown]
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Kind
	}
	return KindUnknown
}

// Client exposes the identity provider operations used by the application.
type Client interface {
	SignIn(ctx context.Context, email, password string) (models.User, error)
	SignUp(ctx context.Context, name, email, password string) (models.User, error)
}

// Config holds the identity provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// APIClient is a resty-backed implementation of Client for the Identity
// Toolkit REST API.
type APIClient struct {
	httpClient *resty.Client
	apiKey     string
}

// NewClient builds an identity client using the provided configuration values.
func NewClient(cfg Config) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base+"/v1").
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &APIClient{
		httpClient: restyClient,
		apiKey:     cfg.APIKey,
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type updateRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IDToken     string `json:"idToken"`
}

// apiError represents an Identity Toolkit error payload.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn authenticates with email and password.
func (c *APIClient) SignIn(ctx context.Context, email, password string) (models.User, error) {
	account, err := c.post(ctx, "/accounts:signInWithPassword", passwordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("sign in: %w", err)
	}
	return account.user(), nil
}

// SignUp creates an account and sets its display name.
func (c *APIClient) SignUp(ctx context.Context, name, email, password string) (models.User, error) {
	account, err := c.post(ctx, "/accounts:signUp", passwordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("sign up: %w", err)
	}

	updated, err := c.post(ctx, "/accounts:update", updateRequest{
		IDToken:     account.IDToken,
		DisplayName: strings.TrimSpace(name),
	})
	if err != nil {
		return models.User{}, fmt.Errorf("set display name: %w", err)
	}

	user := account.user()
	user.DisplayName = updated.DisplayName
	if user.DisplayName == "" {
		user.DisplayName = strings.TrimSpace(name)
	}
	return user, nil
}

func (c *APIClient) post(ctx context.Context, path string, body any) (*accountResponse, error) {
	result := new(accountResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetResult(result).
		SetError(apiErr).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("identity request %s: %w", path, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, classify(resp.StatusCode(), apiErr.Error.Message)
	}
	return result, nil
}

// classify maps provider codes such as "EMAIL_EXISTS" or
// "WEAK_PASSWORD : Password should be at least 6 characters" to a kind.
func classify(status int, message string) *Error {
	code := strings.TrimSpace(message)
	if idx := strings.Index(code, " "); idx > 0 {
		code = code[:idx]
	}

	kind := KindUnknown
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "MISSING_PASSWORD":
		kind = KindInvalidCredentials
	case "EMAIL_EXISTS":
		kind = KindEmailExists
	case "WEAK_PASSWORD":
		kind = KindWeakPassword
	case "USER_DISABLED":
		kind = KindUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		kind = KindTooManyAttempts
	}
	if status == http.StatusTooManyRequests {
		kind = KindTooManyAttempts
	}

	return &Error{Kind: kind, Code: code, Status: status}
}

func (a *accountResponse) user() models.User {
	return models.User{
		ID:          a.LocalID,
		DisplayName: a.DisplayName,
		Email:       a.Email,
		PhotoURL:    a.PhotoURL,
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mamadbah2/footprint/internal/domain/models"
	"github.com/mamadbah2/footprint/pkg/clients/identity"
)

// MsgNameRequired is shown when a sign-up omits the name.
const MsgNameRequired = "Please enter your name"

var (
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrNameRequired is returned when a sign-up has no name.
	ErrNameRequired = errors.New("auth: name is required")
)

const (
	defaultIssuer   = "footprint"
	defaultTokenTTL = 24 * time.Hour
)

// ProfileStore creates user profile documents.
type ProfileStore interface {
	CreateProfileIfAbsent(ctx context.Context, profile models.UserProfile) (bool, error)
}

// Config holds token settings.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// Session is an issued session token and the user it identifies.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// Service signs users in and up and issues session tokens.
type Service struct {
	identity identity.Client
	profiles ProfileStore
	logger   *zap.Logger

	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	listeners map[int]func(models.User)
	nextID    int
}

// NewService wires a new auth service instance.
func NewService(client identity.Client, profiles ProfileStore, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		identity:  client,
		profiles:  profiles,
		logger:    logger,
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		ttl:       cfg.TokenTTL,
		now:       time.Now,
		listeners: make(map[int]func(models.User)),
	}
	if svc.issuer == "" {
		svc.issuer = defaultIssuer
	}
	if svc.ttl <= 0 {
		svc.ttl = defaultTokenTTL
	}
	return svc
}

// SignIn authenticates with email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Info("sign in rejected", zap.String("kind", string(identity.KindOf(err))))
		return Session{}, err
	}
	return s.establish(user)
}

// SignUp creates an account and its profile document.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, ErrNameRequired
	}

	user, err := s.identity.SignUp(ctx, name, email, password)
	if err != nil {
		s.logger.Info("sign up rejected", zap.String("kind", string(identity.KindOf(err))))
		return Session{}, err
	}

	if s.profiles != nil {
		created, err := s.profiles.CreateProfileIfAbsent(ctx, models.NewUserProfile(user, s.now()))
		if err != nil {
			s.logger.Error("failed to create user profile", zap.String("user_id", user.ID), zap.Error(err))
			return Session{}, fmt.Errorf("create user profile: %w", err)
		}
		if !created {
			s.logger.Debug("user profile already exists", zap.String("user_id", user.ID))
		}
	}

	return s.establish(user)
}

func (s *Service) establish(user models.User) (Session, error) {
	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return Session{}, err
	}
	s.notify(user)
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// IssueToken creates an HS256 session token for user.
func (s *Service) IssueToken(user models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"name":  user.DisplayName,
		"email": user.Email,
		"exp":   expiresAt.Unix(),
		"iat":   now.Unix(),
		"iss":   s.issuer,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken validates a session token and returns the user it names.
func (s *Service) ParseToken(tokenStr string) (models.User, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return models.User{}, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return models.User{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return models.User{}, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	return models.User{ID: sub, DisplayName: name, Email: email}, nil
}

// CurrentUserID returns the user id carried by tokenStr, or "" with
// ErrInvalidToken.
func (s *Service) CurrentUserID(tokenStr string) (string, error) {
	user, err := s.ParseToken(tokenStr)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// OnAuthStateChange registers fn to run after every successful sign-in or
// sign-up. The returned function removes the registration.
func (s *Service) OnAuthStateChange(fn func(models.User)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) notify(user models.User) {
	s.mu.RLock()
	listeners := make([]func(models.User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(user)
	}
}

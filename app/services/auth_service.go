package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yatube/app/models"
	"yatube/app/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers users and manages their login sessions.
type AuthService struct {
	users      repositories.UserRepository
	sessions   repositories.SessionRepository
	bcryptCost int
	sessionTTL time.Duration
}

// NewAuthService creates a new AuthService. A zero cost selects bcrypt.DefaultCost.
func NewAuthService(users repositories.UserRepository, sessions repositories.SessionRepository, bcryptCost int, sessionTTL time.Duration) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, sessions: sessions, bcryptCost: bcryptCost, sessionTTL: sessionTTL}
}

// Register hashes password and stores user.
func (s *AuthService) Register(ctx context.Context, user *models.User, password string) error {
	user.BeforeCreate()
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hashed)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Authenticate checks the username and password pair.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// StartSession opens a session for user.
func (s *AuthService) StartSession(ctx context.Context, user *models.User) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// SessionUser returns the user logged in under sessionID.
func (s *AuthService) SessionUser(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, session.UserID)
}

// EndSession logs the session out.
func (s *AuthService) EndSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// SweepSessions purges expired sessions and reports how many went.
func (s *AuthService) SweepSessions(ctx context.Context) (int, error) {
	return s.sessions.DeleteExpired(ctx)
}

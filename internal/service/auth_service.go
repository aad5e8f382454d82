package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gleanenglish/internal/logger"
	"gleanenglish/internal/models"
	"gleanenglish/internal/repository"
	"gleanenglish/internal/security"
	"gleanenglish/internal/validation"
)

// AuthService handles accounts and session tokens
type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *security.TokenManager
	email    *EmailService
	log      *logger.Logger
}

// NewAuthService creates a new auth service. email may be nil.
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenManager, email *EmailService, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		email:    email,
		log:      log.With("service", "AuthService"),
	}
}

// IssuedSession is a signed session token and its decoded content
type IssuedSession struct {
	Token   string
	Session *models.Session
}

// Register creates a new account. Name is optional.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, fromFieldError(err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fromFieldError(err)
	}
	if name != "" {
		if err := validation.ValidateName(name); err != nil {
			return nil, fromFieldError(err)
		}
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("User registered", "user_id", user.ID)
	s.sendWelcome(ctx, user)
	return user, nil
}

// Login checks credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*IssuedSession, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	issued, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return issued, user, nil
}

// OAuthLogin signs in with an external identity, linking it to an account
// with the same email or creating a new account.
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*IssuedSession, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, fromFieldError(err)
	}

	user, err := s.userRepo.GetUserByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existing, err := s.userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}

		if existing != nil {
			if existing.OAuthProvider != "" {
				return nil, nil, ErrEmailTaken
			}
			if err := s.userRepo.LinkOAuthProvider(ctx, existing.ID, provider, subject); err != nil {
				return nil, nil, err
			}
			user = existing
		} else {
			now := time.Now().UTC()
			user = &models.User{
				ID:            uuid.NewString(),
				Email:         email,
				Name:          strings.TrimSpace(name),
				OAuthProvider: provider,
				OAuthSubject:  subject,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.userRepo.CreateUser(ctx, user); err != nil {
				return nil, nil, err
			}
			s.log.Info("User registered via oauth", "user_id", user.ID, "provider", provider)
			s.sendWelcome(ctx, user)
		}
	}

	issued, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return issued, user, nil
}

// ValidateSession verifies a session token and checks it was not logged out
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	revoked, err := s.userRepo.IsSessionRevoked(ctx, session.TokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if revoked {
		return nil, ErrSessionInvalid
	}
	return session, nil
}

// Refresh issues a new token for a session close to expiry. It returns nil
// when the session does not need refreshing yet.
func (s *AuthService) Refresh(session *models.Session) (*IssuedSession, error) {
	if !s.tokens.NeedsRefresh(session) {
		return nil, nil
	}
	return s.issueFor(session.UserID, session.Email)
}

// Logout revokes the session until its natural expiry
func (s *AuthService) Logout(ctx context.Context, session *models.Session) error {
	if err := s.userRepo.RevokeSession(ctx, session.TokenID, session.UserID, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions forgets revocations of tokens that have expired anyway
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	n, err := s.userRepo.DeleteExpiredRevocations(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	if n > 0 {
		s.log.Debug("Expired revocations removed", "count", n)
	}
	return nil
}

// GetUser returns a user by ID, or nil
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, id)
}

func (s *AuthService) issue(user *models.User) (*IssuedSession, error) {
	return s.issueFor(user.ID, user.Email)
}

func (s *AuthService) issueFor(userID, email string) (*IssuedSession, error) {
	token, session, err := s.tokens.Issue(userID, email)
	if err != nil {
		return nil, err
	}
	return &IssuedSession{Token: token, Session: session}, nil
}

func (s *AuthService) sendWelcome(ctx context.Context, user *models.User) {
	if s.email == nil || !s.email.IsEnabled() {
		return
	}
	if err := s.email.SendWelcomeEmail(ctx, user.Email, user.DisplayName()); err != nil {
		s.log.Warn("Failed to send welcome email", "user_id", user.ID, "error", err)
	}
}

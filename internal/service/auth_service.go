package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"beloop-server/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

const maxNameLength = 100

type authService struct {
	users  domain.UserRepository
	tokens *TokenService
	google domain.OAuthProvider
	logger domain.Logger

	bcryptCost int
	// dummyHash keeps unknown-email logins as slow as wrong-password ones.
	dummyHash []byte
}

func NewAuthService(
	users domain.UserRepository,
	tokens *TokenService,
	google domain.OAuthProvider,
	logger domain.Logger,
) *authService {
	return newAuthService(users, tokens, google, logger, bcrypt.DefaultCost)
}

func newAuthService(users domain.UserRepository, tokens *TokenService, google domain.OAuthProvider, logger domain.Logger, cost int) *authService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("beloop-dummy-password"), cost)
	return &authService{
		users:      users,
		tokens:     tokens,
		google:     google,
		logger:     logger,
		bcryptCost: cost,
		dummyHash:  dummy,
	}
}

// Register creates a credentials account and signs it in.
func (s *authService) Register(ctx context.Context, email, password, name string) (*domain.Session, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, domain.NewValidationError("name", "name is too long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		Provider:     domain.ProviderCredentials,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "provider", user.Provider)
	return s.tokens.Issue(user)
}

// Login verifies credentials. Unknown emails and wrong passwords are reported identically.
func (s *authService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if user == nil || user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("Password mismatch", "user_id", user.ID)
		return nil, domain.ErrInvalidCredentials
	}

	return s.tokens.Issue(user)
}

func (s *authService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", domain.ErrOAuthNotConfigured
	}
	return s.google.AuthCodeURL(state), nil
}

// GoogleCallback finishes the OAuth flow. An existing account with the same
// email is linked rather than duplicated.
func (s *authService) GoogleCallback(ctx context.Context, code string) (*domain.Session, error) {
	if s.google == nil {
		return nil, domain.ErrOAuthNotConfigured
	}
	if code == "" {
		return nil, domain.NewValidationError("code", "authorization code is required")
	}

	identity, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
	if !identity.EmailVerified {
		return nil, fmt.Errorf("%w: google email not verified", domain.ErrInvalidCredentials)
	}

	email := domain.NormalizeEmail(identity.Email)
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user = &domain.User{
			Email:    email,
			Name:     identity.Name,
			Image:    identity.Picture,
			Provider: domain.ProviderGoogle,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("User registered", "user_id", user.ID, "provider", user.Provider)
	case err != nil:
		return nil, err
	default:
		changed := false
		if user.Image == "" && identity.Picture != "" {
			user.Image = identity.Picture
			changed = true
		}
		if user.Name == "" && identity.Name != "" {
			user.Name = identity.Name
			changed = true
		}
		if changed {
			if err := s.users.Update(ctx, user); err != nil {
				s.logger.Warn("Failed to refresh profile from google", "error", err, "user_id", user.ID)
			}
		}
	}

	return s.tokens.Issue(user)
}

// ValidateToken verifies a session token and loads its user.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", domain.ErrInvalidToken)
	}
	return user, err
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxNameLength {
			return nil, domain.NewValidationError("name", "name is too long")
		}
		user.Name = name
	}
	if update.Image != nil {
		user.Image = strings.TrimSpace(*update.Image)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SeedUser creates a credentials account if the email is not taken yet.
func (s *authService) SeedUser(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.Register(ctx, email, password, name)
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil
	}
	return err
}

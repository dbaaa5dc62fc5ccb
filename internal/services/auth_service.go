package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"bookshelf/internal/models"
	"bookshelf/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

// AvatarURL returns the generated avatar for username.
func AvatarURL(username string) string {
	return avatarBaseURL + url.QueryEscape(username)
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *TokenService
	log      *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokens *TokenService, log *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log,
	}
}

// RegisterUser creates a user with a hashed password and returns it along
// with a fresh token. Email is checked before username. The lookups only
// give friendly errors; the unique indexes are what guarantee uniqueness,
// so a lost race is reported as ErrUserExists.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	if taken, err := s.exists(ctx, s.userRepo.GetByEmail, in.Email); err != nil {
		return nil, "", err
	} else if taken {
		return nil, "", ErrEmailTaken
	}
	if taken, err := s.exists(ctx, s.userRepo.GetByUsername, in.Username); err != nil {
		return nil, "", err
	} else if taken {
		return nil, "", ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		Password:     string(hashedPassword),
		ProfileImage: AvatarURL(in.Username),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.log.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, token, nil
}

// LoginUser checks email and password and returns the user with a fresh token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrInvalidEmail
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidPassword
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate validates tokenString and loads the user it names. The
// returned user has its password hash cleared.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.Password = ""
	return user, nil
}

func (s *AuthService) exists(ctx context.Context, lookup func(context.Context, string) (*models.User, error), key string) (bool, error) {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check existing user: %w", err)
	}
}

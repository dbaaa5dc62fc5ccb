package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bookshelf/internal/logging"
	"bookshelf/internal/models"
	"bookshelf/internal/repositories"
	"bookshelf/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(repo *MockUserRepository) (*services.AuthService, *services.TokenService) {
	tokens := services.NewTokenService(testJWTSecret, 15*24*time.Hour)
	return services.NewAuthService(repo, tokens, logging.Discard()), tokens
}

func notFound(key string) error {
	return fmt.Errorf("user %s: %w", key, repositories.ErrNotFound)
}

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	in := services.RegisterInput{Email: "test@example.com", Username: "testuser", Password: "password123"}

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, tokens := newAuthService(mockRepo)

		mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(nil, notFound(in.Email)).Once()
		mockRepo.On("GetByUsername", mock.Anything, in.Username).Return(nil, notFound(in.Username)).Once()
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == in.Email &&
				u.Username == in.Username &&
				u.ProfileImage == "https://api.dicebear.com/7.x/avataaars/svg?seed=testuser" &&
				bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.Password)) == nil
		})).Return(nil).Once()

		user, token, err := authService.RegisterUser(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "user-new", user.ID)

		claims, err := tokens.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("email taken", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(mockRepo)

		mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(&models.User{ID: "1"}, nil).Once()

		_, _, err := authService.RegisterUser(ctx, in)
		assert.ErrorIs(t, err, services.ErrEmailTaken)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("username taken", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(mockRepo)

		mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(nil, notFound(in.Email)).Once()
		mockRepo.On("GetByUsername", mock.Anything, in.Username).Return(&models.User{ID: "1"}, nil).Once()

		_, _, err := authService.RegisterUser(ctx, in)
		assert.ErrorIs(t, err, services.ErrUsernameTaken)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("lost race on unique index", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(mockRepo)

		mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(nil, notFound(in.Email)).Once()
		mockRepo.On("GetByUsername", mock.Anything, in.Username).Return(nil, notFound(in.Username)).Once()
		mockRepo.On("Create", mock.Anything, mock.Anything).
			Return(fmt.Errorf("failed to create user: %w", repositories.ErrDuplicate)).Once()

		_, _, err := authService.RegisterUser(ctx, in)
		assert.ErrorIs(t, err, services.ErrUserExists)
		mockRepo.AssertExpectations(t)
	})

	t.Run("store unavailable", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService, _ := newAuthService(mockRepo)

		mockRepo.On("GetByEmail", mock.Anything, in.Email).Return(nil, errors.New("connection refused")).Once()

		_, _, err := authService.RegisterUser(ctx, in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
		assert.NotErrorIs(t, err, services.ErrEmailTaken)
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}

	mockRepo := new(MockUserRepository)
	authService, tokens := newAuthService(mockRepo)

	// Successful login
	mockRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()
	got, token, err := authService.LoginUser(ctx, user.Email, "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// Wrong password
	mockRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()
	_, token, err = authService.LoginUser(ctx, user.Email, "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidPassword)
	assert.Empty(t, token)

	// Unknown email
	mockRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, notFound("nobody@example.com")).Once()
	_, _, err = authService.LoginUser(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidEmail)

	// Store failure is not reported as a bad email
	mockRepo.On("GetByEmail", mock.Anything, "broken@example.com").Return(nil, errors.New("timeout")).Once()
	_, _, err = authService.LoginUser(ctx, "broken@example.com", "password123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrInvalidEmail)

	mockRepo.AssertExpectations(t)
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService, tokens := newAuthService(mockRepo)

	token, err := tokens.Issue("user-123")
	require.NoError(t, err)

	// Known user, password cleared
	mockRepo.On("GetByID", mock.Anything, "user-123").
		Return(&models.User{ID: "user-123", Username: "testuser", Password: "hash"}, nil).Once()
	user, err := authService.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.Empty(t, user.Password)

	// User deleted since the token was issued
	mockRepo.On("GetByID", mock.Anything, "user-123").Return(nil, notFound("user-123")).Once()
	_, err = authService.Authenticate(ctx, token)
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	// Bad token never reaches the store
	_, err = authService.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	mockRepo.AssertExpectations(t)
}

func TestAvatarURL(t *testing.T) {
	assert.Equal(t, "https://api.dicebear.com/7.x/avataaars/svg?seed=abc", services.AvatarURL("abc"))
	assert.Equal(t, "https://api.dicebear.com/7.x/avataaars/svg?seed=jane+doe", services.AvatarURL("jane doe"))
}

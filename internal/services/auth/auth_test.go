package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shaveden/internal/lib/password"
	"shaveden/internal/models"
	"shaveden/internal/services/auth"
	"shaveden/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, email, username, passwordHash, role string) (string, error) {
	args := m.Called(ctx, email, username, passwordHash, role)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для TrialStarter
type TrialStarterMock struct {
	mock.Mock
}

func (m *TrialStarterMock) StartTrial(ctx context.Context, userUID, source string) error {
	args := m.Called(ctx, userUID, source)
	return args.Error(0)
}

// Мок для TokenMaker
type TokenMakerMock struct {
	mock.Mock
}

func (m *TokenMakerMock) GenerateToken(username, userUID, role string) (string, error) {
	args := m.Called(username, userUID, role)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Register(t *testing.T) {
	repo := new(UserRepoMock)
	trial := new(TrialStarterMock)
	tokens := new(TokenMakerMock)

	repo.On("RegisterUser", mock.Anything, "fan@example.com", "shaver", mock.MatchedBy(func(hash string) bool {
		return hash != "" && hash != "password123"
	}), models.RoleUser).Return("uid-1", nil).Once()
	trial.On("StartTrial", mock.Anything, "uid-1", models.SourceRegistration).Return(nil).Once()

	svc := auth.New(repo, trial, tokens, newNoopLogger())
	uid, err := svc.Register(context.Background(), "fan@example.com", "shaver", "password123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	repo.AssertExpectations(t)
	trial.AssertExpectations(t)
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("password123")
	require.NoError(t, err)

	tests := []struct {
		name      string
		username  string
		pass      string
		user      *models.User
		userErr   error
		wantToken string
		wantErr   error
	}{
		{
			name:      "successful login",
			username:  "shaver",
			pass:      "password123",
			user:      &models.User{UID: "uid-1", Username: "shaver", PasswordHash: hash, Role: models.RoleUser},
			wantToken: "tok",
		},
		{
			name:     "wrong password",
			username: "shaver",
			pass:     "wrongpass",
			user:     &models.User{UID: "uid-1", Username: "shaver", PasswordHash: hash, Role: models.RoleUser},
			wantErr:  auth.ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			username: "ghost",
			pass:     "password123",
			userErr:  repository.ErrUserNotFound,
			wantErr:  auth.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			trial := new(TrialStarterMock)
			tokens := new(TokenMakerMock)
			repo.On("GetUserByUsername", mock.Anything, tt.username).Return(tt.user, tt.userErr).Once()
			if tt.wantToken != "" {
				tokens.On("GenerateToken", tt.user.Username, tt.user.UID, tt.user.Role).Return(tt.wantToken, nil).Once()
			}

			svc := auth.New(repo, trial, tokens, newNoopLogger())
			token, err := svc.Login(context.Background(), tt.username, tt.pass)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
			tokens.AssertExpectations(t)
		})
	}
}

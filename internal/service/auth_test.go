package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/model"
)

func TestAuthService_Register(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "a@x.com", Username: "alice", Password: "secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, resp.User.ID, resp.UserID)
	assert.Equal(t, "alice", resp.User.Username)
	assert.False(t, resp.User.IsAdmin)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.UserID.String(), claims["sub"])
	assert.NotContains(t, claims, "isAdmin")
}

func TestAuthService_Register_DuplicateEmailOrUsername(t *testing.T) {
	cases := []struct {
		name string
		req  dto.RegisterRequest
	}{
		{"same email", dto.RegisterRequest{Email: "a@x.com", Username: "bob", Password: "secret1"}},
		{"same email different case", dto.RegisterRequest{Email: "A@X.com", Username: "bob", Password: "other99"}},
		{"same username", dto.RegisterRequest{Email: "b@x.com", Username: "alice", Password: "secret1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockUserRepo()
			svc := NewAuthService(repo, "test-secret", time.Hour)
			_, err := svc.Register(context.Background(), dto.RegisterRequest{Email: "a@x.com", Username: "alice", Password: "secret1"})
			require.NoError(t, err)

			_, err = svc.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, ErrUserAlreadyExists)
			assert.ErrorIs(t, err, ErrConflict)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	user := repo.add(&model.User{Email: "a@x.com", Username: "alice", PasswordHash: string(hashed)})

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.UserID)
}

func TestAuthService_Login_Mismatch(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)
	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	repo.add(&model.User{Email: "a@x.com", Username: "alice", PasswordHash: string(hashed)})

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Google_LinksExistingByEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)
	user := repo.add(&model.User{Email: "a@x.com", Username: "alice"})

	resp, err := svc.Google(context.Background(), dto.GoogleAuthRequest{
		GoogleID: "g-123", Email: "a@x.com", FullName: "Alice A", ProfilePicture: "https://pic",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.UserID)
	assert.Equal(t, "g-123", repo.byID[user.ID].GoogleID)
	assert.Equal(t, "https://pic", repo.byID[user.ID].ProfilePicture)
	assert.Len(t, repo.byID, 1)
}

func TestAuthService_Google_CreatesOnFirstSight(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	resp, err := svc.Google(context.Background(), dto.GoogleAuthRequest{GoogleID: "g-1", Email: "carol@x.com"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.User.Username, "carol"))
	assert.Len(t, resp.User.Username, len("carol")+4)

	again, err := svc.Google(context.Background(), dto.GoogleAuthRequest{GoogleID: "g-1", Email: "carol@x.com"})
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, again.UserID)
}

func TestAuthService_Google_AccountCannotLoginWithEmptyPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)
	_, err := svc.Google(context.Background(), dto.GoogleAuthRequest{GoogleID: "g-1", Email: "carol@x.com"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "carol@x.com", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Verify(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)
	user := repo.add(&model.User{Email: "a@x.com", Username: "alice", PasswordHash: "hash"})

	resp, err := svc.Verify(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
}

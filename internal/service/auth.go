package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/model"
	"github.com/flicky/holohaven-api/internal/repository"
)

const usernameAttempts = 5

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	jwtExpiry time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{userRepo: userRepo, jwtSecret: []byte(jwtSecret), jwtExpiry: jwtExpiry}
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing == nil {
		existing, err = s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Email: email, Username: username, PasswordHash: string(hashed)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.authResponse(user)
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.authResponse(user)
}

// Google links a Google identity to an existing account matched by Google id
// or email, or creates a new account on first sight.
func (s *AuthService) Google(ctx context.Context, req dto.GoogleAuthRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.GetByGoogleIDOrEmail(ctx, req.GoogleID, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user != nil {
		if user.GoogleID == "" {
			user.GoogleID = req.GoogleID
			user.GoogleEmail = email
			if user.ProfilePicture == "" {
				user.ProfilePicture = req.ProfilePicture
			}
			if user.FullName == "" {
				user.FullName = req.FullName
			}
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("link google account: %w", err)
			}
		}
		return s.authResponse(user)
	}

	username, err := s.uniqueUsername(ctx, email)
	if err != nil {
		return nil, err
	}
	user = &model.User{
		Email:          email,
		Username:       username,
		FullName:       req.FullName,
		ProfilePicture: req.ProfilePicture,
		GoogleID:       req.GoogleID,
		GoogleEmail:    email,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.authResponse(user)
}

func (s *AuthService) Verify(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *AuthService) uniqueUsername(ctx context.Context, email string) (string, error) {
	base, _, _ := strings.Cut(email, "@")
	for i := 0; i < usernameAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", fmt.Errorf("generate username: %w", err)
		}
		candidate := fmt.Sprintf("%s%04d", base, n.Int64())
		existing, err := s.userRepo.GetByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", ErrUsernameTaken
}

func (s *AuthService) authResponse(user *model.User) (*dto.AuthResponse, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: token, UserID: user.ID, User: toUserResponse(user)}, nil
}

// The token asserts identity only. Admin rights are looked up per request.
func (s *AuthService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": now.Add(s.jwtExpiry).Unix(),
		"iat": now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

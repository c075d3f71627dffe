package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/model"
	"github.com/flicky/holohaven-api/internal/repository"
)

const minPasswordLength = 6

type UserService struct {
	userRepo   repository.UserRepository
	reviewRepo repository.ReviewRepository
	images     *ImageService
}

func NewUserService(userRepo repository.UserRepository, reviewRepo repository.ReviewRepository, images *ImageService) *UserService {
	return &UserService{userRepo: userRepo, reviewRepo: reviewRepo, images: images}
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Password != nil && *req.Password != "" {
		if req.CurrentPassword == "" {
			return nil, ErrCurrentPasswordRequired
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
			return nil, ErrWrongPassword
		}
		if len(*req.Password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != "" && email != user.Email {
			other, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if other != nil {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != "" && username != user.Username {
			other, err := s.userRepo.GetByUsername(ctx, username)
			if err != nil {
				return nil, fmt.Errorf("check username: %w", err)
			}
			if other != nil {
				return nil, ErrUsernameTaken
			}
			user.Username = username
		}
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Address != nil {
		user.Address = req.Address
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *UserService) UpdatePicture(ctx context.Context, userID uuid.UUID, r io.Reader) (*dto.UserResponse, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	asset, err := s.images.Upload(ctx, r)
	if err != nil {
		return nil, err
	}
	user.ProfilePicture = asset.URL
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *UserService) Reviews(ctx context.Context, userID uuid.UUID) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewResponse(&reviews[i]))
	}
	return out, nil
}

// RequireAdmin re-reads the user so a revoked flag takes effect at once.
func (s *UserService) RequireAdmin(ctx context.Context, userID uuid.UUID) error {
	ok, err := isAdmin(ctx, s.userRepo, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAdminRequired
	}
	return nil
}

func (s *UserService) get(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func isAdmin(ctx context.Context, users repository.UserRepository, userID uuid.UUID) (bool, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	return user != nil && user.IsAdmin, nil
}

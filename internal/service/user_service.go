package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/oopsinfosolutions/feed-sub001/internal/dto"
	"github.com/oopsinfosolutions/feed-sub001/internal/model"
	"github.com/oopsinfosolutions/feed-sub001/internal/repository"
	apperrors "github.com/oopsinfosolutions/feed-sub001/pkg/errors"
)

var ErrUserNotFound = apperrors.Wrap(apperrors.ErrNotFound, "user not found")

// UserService account lookups
type UserService interface {
	GetByUserID(ctx context.Context, userID string) (*dto.UserResponse, error)
	ListByType(ctx context.Context, userType string) ([]dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetByUserID(ctx context.Context, userID string) (*dto.UserResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.Invalid("user_id", "is required")
	}

	user, err := s.repo.User.GetByUserID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("lookup user failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Datastore("lookup user", err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ListByType empty type lists every account
func (s *userService) ListByType(ctx context.Context, userType string) ([]dto.UserResponse, error) {
	if userType != "" && !model.IsValidUserType(userType) {
		return nil, apperrors.Invalid("type", "must be one of customer, dealer, employee, admin")
	}

	users, err := s.repo.User.ListByType(ctx, userType)
	if err != nil {
		s.logger.Error("list users failed", zap.String("type", userType), zap.Error(err))
		return nil, apperrors.Datastore("list users", err)
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, nil
}

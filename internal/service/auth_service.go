package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/oopsinfosolutions/feed-sub001/config"
	"github.com/oopsinfosolutions/feed-sub001/internal/dto"
	"github.com/oopsinfosolutions/feed-sub001/internal/model"
	"github.com/oopsinfosolutions/feed-sub001/internal/repository"
	apperrors "github.com/oopsinfosolutions/feed-sub001/pkg/errors"
	"github.com/oopsinfosolutions/feed-sub001/pkg/idgen"
	"github.com/oopsinfosolutions/feed-sub001/pkg/jwt"
)

// ── account errors ──

var (
	// ErrInvalidCredentials covers both unknown email and wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = apperrors.Wrap(apperrors.ErrConflict, "email already registered")
	ErrUserIDExhausted    = apperrors.Wrap(apperrors.ErrConflict, "could not allocate a user id, try again")
)

// maxPasswordBytes bcrypt input limit
const maxPasswordBytes = 72

// TokenRevoker blacklists access tokens on logout
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService registration and login
type AuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	cfg     *config.Config
	repo    *repository.Repository
	jwtMgr  *jwt.Manager
	revoker TokenRevoker
	ids     *idgen.Generator
	logger  *zap.Logger
}

// NewAuthService creates an AuthService. revoker may be nil, logout then
// only ends the session client side.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	revoker TokenRevoker,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:     cfg,
		repo:    repo,
		jwtMgr:  jwtMgr,
		revoker: revoker,
		ids:     idgen.New(idgen.User, idgen.WithMaxAttempts(cfg.IDGen.MaxAttempts)),
		logger:  logger,
	}
}

// ────────────────────── Signup ──────────────────────

func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SignupResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Invalid("name", "is required")
	}
	if !model.IsValidUserType(req.Type) {
		return nil, apperrors.Invalid("type", "must be one of customer, dealer, employee, admin")
	}
	// bcrypt rejects inputs over 72 bytes; the binding only counts characters
	if len(req.Password) > maxPasswordBytes {
		return nil, apperrors.Invalid("password", "must be at most 72 bytes")
	}

	taken, err := s.repo.User.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("check email failed", zap.Error(err))
		return nil, apperrors.Datastore("check email", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.Auth.BcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.Invalid("password", "must be at most 72 bytes")
		}
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(req.Phone),
		Type:         req.Type,
	}

	_, err = s.ids.Allocate(ctx, s.repo.User.ExistsByUserID, func(ctx context.Context, id string) error {
		user.ID = 0
		user.UserID = id
		err := s.repo.User.Create(ctx, user)
		if err == nil || !apperrors.IsDuplicateKey(err) {
			return err
		}
		// the unique key hit is either email or user_id
		emailTaken, checkErr := s.repo.User.ExistsByEmail(ctx, email)
		if checkErr != nil {
			return apperrors.Datastore("check email", checkErr)
		}
		if emailTaken {
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: %v", idgen.ErrCollision, err)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			return nil, ErrEmailTaken
		case errors.Is(err, idgen.ErrExhausted):
			s.logger.Warn("user id space exhausted", zap.Error(err))
			return nil, ErrUserIDExhausted
		}
		s.logger.Error("create user failed", zap.Error(err))
		if errors.Is(err, apperrors.ErrDatastore) {
			return nil, err
		}
		return nil, apperrors.Datastore("create user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.UserID), zap.String("type", user.Type))

	return &dto.SignupResponse{
		ID:      user.ID,
		UserID:  user.UserID,
		Message: "User registered successfully",
	}, nil
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("lookup user failed", zap.Error(err))
		return nil, apperrors.Datastore("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Type)
	if err != nil {
		s.logger.Error("sign access token failed", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{
		UserResponse: toUserResponse(user),
		AccessToken:  accessToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
	}, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.revoker == nil || jti == "" {
		return nil
	}
	if err := s.revoker.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("blacklist token failed", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		UserID:    u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Type:      u.Type,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUsernameExists      = errors.New("username already exists")
	ErrUserPendingApproval = errors.New("account is waiting for admin approval")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrSessionExpired      = errors.New("session expired (logged out or logged in elsewhere)")
)

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, error)
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	ValidateToken(ctx context.Context, tokenString string) (*model.User, error)
	SeedAdmin(ctx context.Context, username, password string) (bool, error)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=4"`
}

type ChangePasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=4"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	users  repository.UserRepository
	tokens *jwt.Manager
	logger *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *jwt.Manager, logger *zap.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates an inactive account that an admin has to approve.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate(&req); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Role:     model.RoleUser,
		IsActive: false,
	}
	user.CreatedBy = req.Username
	user.UpdatedBy = req.Username
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("username", user.Username))
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserPendingApproval
	}

	// Single session: a new token version invalidates older tokens.
	now := time.Now().UTC()
	user.TokenVersion = uuid.New().String()
	user.LastLoginAt = &now
	if err := s.users.UpdateSession(ctx, user.ID, user.TokenVersion, &now); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}

	privileges := user.Role.Privileges()
	token, err := s.tokens.GenerateToken(user.ID, user.Username, string(user.Role), privileges, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("username", user.Username))
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Privileges: privileges,
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.UpdateSession(ctx, userID, uuid.New().String(), nil); err != nil {
		return storeError(err)
	}
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate(&req); err != nil {
		return err
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return storeError(err)
	}
	if !user.CheckPassword(req.OldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return err
	}

	// Existing sessions end with the old password.
	return s.users.UpdateSession(ctx, user.ID, uuid.New().String(), nil)
}

// ValidateToken verifies the JWT and reloads the user it names.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, jwt.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserPendingApproval
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionExpired
	}
	return user, nil
}

// SeedAdmin creates the approved admin account unless the username is taken.
func (s *authService) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	admin := &model.User{
		Username: username,
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.CreatedBy = model.ManagerSystem
	admin.UpdatedBy = model.ManagerSystem
	if err := admin.SetPassword(password); err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return false, err
	}

	s.logger.Info("admin account seeded", zap.String("username", username))
	return true, nil
}

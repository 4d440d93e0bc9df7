package service

import (
	"context"
	"fmt"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService holds the admin-only account operations.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.UserResponse, error)
	ApproveUser(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	DisableUser(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewUserService(users repository.UserRepository, logger *zap.Logger) UserService {
	return &userService{users: users, logger: logger}
}

func requireAdmin(ctx context.Context) (Identity, error) {
	caller, err := requireApproved(ctx)
	if err != nil {
		return Identity{}, err
	}
	if !caller.IsAdmin() {
		return Identity{}, ErrPermissionDenied
	}
	return caller, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.UserResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

func (s *userService) ApproveUser(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	return s.setActive(ctx, id, true)
}

// DisableUser revokes approval. Admin accounts cannot be disabled.
func (s *userService) DisableUser(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	return s.setActive(ctx, id, false)
}

func (s *userService) setActive(ctx context.Context, id uuid.UUID, active bool) (*model.UserResponse, error) {
	caller, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if !active && user.IsAdmin() {
		return nil, fmt.Errorf("%w: admin accounts cannot be disabled", ErrPermissionDenied)
	}

	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, storeError(err)
	}
	user.IsActive = active

	s.logger.Info("user approval changed",
		zap.String("username", user.Username),
		zap.Bool("active", active),
		zap.String("by", caller.Username))
	res := user.ToResponse()
	return &res, nil
}

// DeleteUser removes a non-admin account. Admin accounts are never deleted,
// whoever asks.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.FindByID(ctx, id)
	if err == nil && user.IsAdmin() {
		return fmt.Errorf("%w: admin accounts cannot be deleted", ErrPermissionDenied)
	}

	// Only admins learn whether the account exists.
	caller, cerr := requireAdmin(ctx)
	if cerr != nil {
		return cerr
	}
	if err != nil {
		return storeError(err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(err)
	}
	s.logger.Info("user deleted", zap.String("username", user.Username), zap.String("by", caller.Username))
	return nil
}

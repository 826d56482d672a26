package services

import (
	"context"
	"errors"
	"strings"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/pkg/password"

	"github.com/rs/zerolog"
)

// User service errors
var (
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrCannotDeleteSelf    = errors.New("cannot delete your own account")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
)

// UserService handles user management business logic
type UserService struct {
	userRepo repositories.UserRepository
	log      zerolog.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, l zerolog.Logger) *UserService {
	return &UserService{userRepo: userRepo, log: l}
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Role       *domain.Role `json:"role"`
	Department *string      `json:"department"`
	IsActive   *bool        `json:"is_active"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ListUsers lists users, newest first
func (s *UserService) ListUsers(ctx context.Context, offset, limit int) ([]*models.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.ToResponse()
	}
	return out, total, nil
}

// ListStaffByRole lists active users holding role
func (s *UserService) ListStaffByRole(ctx context.Context, role domain.Role) ([]*models.UserResponse, error) {
	if !role.IsStaff() {
		return nil, domain.Validationf("%q is not a staff role", role)
	}
	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	out := make([]*models.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.ToResponse()
	}
	return out, nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateUserByAdmin changes a user's role, department or active flag.
// Admins cannot change their own role.
func (s *UserService) UpdateUserByAdmin(ctx context.Context, id string, admin *domain.Actor, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	if admin == nil || admin.Role != domain.RoleAdmin {
		return nil, domain.ErrPermissionDenied
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		if id == admin.ID {
			return nil, ErrCannotChangeOwnRole
		}
		if !input.Role.Valid() {
			return nil, domain.Validationf("unknown role %q", *input.Role)
		}
		user.Role = *input.Role
		if user.Role != domain.RoleStudent {
			user.RollNumber = ""
		}
	}
	if input.Department != nil {
		user.Department = strings.TrimSpace(*input.Department)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id).Str("role", string(user.Role)).Str("by", admin.ID).Msg("user updated by admin")
	return user.ToResponse(), nil
}

// DeleteUser deletes a user (soft delete)
func (s *UserService) DeleteUser(ctx context.Context, id, adminID string) error {
	if id == adminID {
		return ErrCannotDeleteSelf
	}
	return s.userRepo.Delete(ctx, id)
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.Validationf("name cannot be empty")
		}
		user.Name = name
	}
	if input.Department != nil {
		user.Department = strings.TrimSpace(*input.Department)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID string, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}
	if err := password.Validate(input.NewPassword); err != nil {
		return domain.Validationf("%s", err.Error())
	}

	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	return s.userRepo.Update(ctx, user)
}

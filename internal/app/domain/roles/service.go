package roles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

var _ RoleService = (*RoleServiceImpl)(nil)

// RoleService resolves which roles a user holds and mediates grants.
type RoleService interface {
	FetchRoles(ctx context.Context, userID uuid.UUID) (models.RoleSet, error)
	// AddRole is idempotent from the caller's perspective: granting a role
	// the user already holds reports success.
	AddRole(ctx context.Context, userID uuid.UUID, role models.Role) error
	// BootstrapAdmin reports true only when this call created the system's
	// first admin. False with no error means an admin already exists.
	BootstrapAdmin(ctx context.Context, userID uuid.UUID) (bool, error)

	// Admin user management.
	GrantRole(ctx context.Context, userID uuid.UUID, role models.Role) error
	RevokeRole(ctx context.Context, userID uuid.UUID, role models.Role) error
	ListUsers(ctx context.Context) ([]models.UserWithRoles, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type RoleServiceImpl struct {
	logger *zap.Logger
	repo   RolesRepo
}

func NewRoleService(repo RolesRepo, logger *zap.Logger) *RoleServiceImpl {
	return &RoleServiceImpl{logger: logger, repo: repo}
}

func (s *RoleServiceImpl) FetchRoles(ctx context.Context, userID uuid.UUID) (models.RoleSet, error) {
	roles, err := s.repo.FetchRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.NewRoleSet(roles...), nil
}

func (s *RoleServiceImpl) AddRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q: %w", role, models.ErrValidation)
	}
	if !role.SelfService() {
		return fmt.Errorf("role %q cannot be self-assigned: %w", role, models.ErrForbidden)
	}
	if err := s.repo.AddRole(ctx, userID, role); err != nil {
		return err
	}
	s.logger.Info("Role granted", zap.Stringer("userID", userID), zap.String("role", string(role)))
	return nil
}

func (s *RoleServiceImpl) BootstrapAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	granted, err := s.repo.BootstrapAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if granted {
		s.logger.Info("First admin bootstrapped", zap.Stringer("userID", userID))
	} else {
		s.logger.Debug("Admin bootstrap skipped, admin already exists", zap.Stringer("userID", userID))
	}
	return granted, nil
}

// GrantRole is the admin-initiated grant; unlike AddRole it may assign any
// valid role, including admin.
func (s *RoleServiceImpl) GrantRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q: %w", role, models.ErrValidation)
	}
	if err := s.repo.AddRole(ctx, userID, role); err != nil {
		return err
	}
	s.logger.Info("Role granted by admin", zap.Stringer("userID", userID), zap.String("role", string(role)))
	return nil
}

func (s *RoleServiceImpl) RevokeRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q: %w", role, models.ErrValidation)
	}
	if err := s.repo.RemoveRole(ctx, userID, role); err != nil {
		return err
	}
	s.logger.Info("Role revoked by admin", zap.Stringer("userID", userID), zap.String("role", string(role)))
	return nil
}

func (s *RoleServiceImpl) ListUsers(ctx context.Context) ([]models.UserWithRoles, error) {
	return s.repo.ListUsersWithRoles(ctx)
}

func (s *RoleServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.Stringer("userID", userID))
	return nil
}

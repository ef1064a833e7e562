package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

type MockRolesRepo struct {
	mock.Mock
}

func (m *MockRolesRepo) FetchRoles(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Role), args.Error(1)
}

func (m *MockRolesRepo) AddRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockRolesRepo) RemoveRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockRolesRepo) BootstrapAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRolesRepo) ListUsersWithRoles(ctx context.Context) ([]models.UserWithRoles, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserWithRoles), args.Error(1)
}

func (m *MockRolesRepo) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestService(repo *MockRolesRepo) *RoleServiceImpl {
	return NewRoleService(repo, zap.NewNop())
}

func TestFetchRolesBuildsSet(t *testing.T) {
	repo := new(MockRolesRepo)
	svc := newTestService(repo)
	userID := uuid.New()

	repo.On("FetchRoles", mock.Anything, userID).
		Return([]models.Role{models.RoleBuyer, models.RoleSeller}, nil)

	set, err := svc.FetchRoles(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, set.Has(models.RoleBuyer))
	assert.True(t, set.Has(models.RoleSeller))
	assert.False(t, set.Has(models.RoleAdmin))
}

func TestAddRoleIdempotentDoubleSubmit(t *testing.T) {
	repo := new(MockRolesRepo)
	svc := newTestService(repo)
	userID := uuid.New()

	// The repo swallows the duplicate; both calls succeed.
	repo.On("AddRole", mock.Anything, userID, models.RoleSeller).Return(nil).Twice()

	require.NoError(t, svc.AddRole(context.Background(), userID, models.RoleSeller))
	require.NoError(t, svc.AddRole(context.Background(), userID, models.RoleSeller))
	repo.AssertExpectations(t)
}

func TestAddRoleRejectsAdminSelfService(t *testing.T) {
	repo := new(MockRolesRepo)
	svc := newTestService(repo)

	err := svc.AddRole(context.Background(), uuid.New(), models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrForbidden)
	repo.AssertNotCalled(t, "AddRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddRoleRejectsUnknownRole(t *testing.T) {
	repo := new(MockRolesRepo)
	svc := newTestService(repo)

	err := svc.AddRole(context.Background(), uuid.New(), models.Role("superuser"))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestBootstrapAdminAlreadyExists(t *testing.T) {
	repo := new(MockRolesRepo)
	svc := newTestService(repo)
	userID := uuid.New()

	repo.On("BootstrapAdmin", mock.Anything, userID).Return(false, nil)

	granted, err := svc.BootstrapAdmin(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, granted, "a lost race is a normal answer, not an error")
}

func TestBootstrapAdminFirstWins(t *testing.T) {
	repo := new(MockRolesRepo)
	svc := newTestService(repo)
	userID := uuid.New()

	repo.On("BootstrapAdmin", mock.Anything, userID).Return(true, nil)

	granted, err := svc.BootstrapAdmin(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestGrantRoleAllowsAdmin(t *testing.T) {
	repo := new(MockRolesRepo)
	svc := newTestService(repo)
	userID := uuid.New()

	repo.On("AddRole", mock.Anything, userID, models.RoleAdmin).Return(nil)

	require.NoError(t, svc.GrantRole(context.Background(), userID, models.RoleAdmin))
	repo.AssertExpectations(t)
}

func TestGrantRolePropagatesRepoError(t *testing.T) {
	repo := new(MockRolesRepo)
	svc := newTestService(repo)
	userID := uuid.New()
	boom := errors.New("connection reset")

	repo.On("AddRole", mock.Anything, userID, models.RoleSeller).Return(boom)

	err := svc.GrantRole(context.Background(), userID, models.RoleSeller)
	assert.ErrorIs(t, err, boom)
}

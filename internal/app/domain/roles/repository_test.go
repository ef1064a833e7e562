package roles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tractorbazar/marketplace/internal/app/models"
)

func newMockRepo(t *testing.T) (*PostgresRolesRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPostgresRolesRepo(mockPool, zap.NewNop()), mockPool
}

func TestFetchRolesScansAll(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()

	mockPool.ExpectQuery(`SELECT role FROM user_roles`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).
			AddRow(models.RoleBuyer).
			AddRow(models.RoleSeller))

	got, err := repo.FetchRoles(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []models.Role{models.RoleBuyer, models.RoleSeller}, got)
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestFetchRolesEmptyIsValid(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()

	mockPool.ExpectQuery(`SELECT role FROM user_roles`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}))

	got, err := repo.FetchRoles(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddRoleDuplicateAffectsNoRows(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()

	// ON CONFLICT DO NOTHING: zero rows affected, no error surfaced.
	mockPool.ExpectExec(`INSERT INTO user_roles`).
		WithArgs(userID, models.RoleSeller).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	assert.NoError(t, repo.AddRole(context.Background(), userID, models.RoleSeller))
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRemoveRoleNotFound(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()

	mockPool.ExpectExec(`DELETE FROM user_roles`).
		WithArgs(userID, models.RoleBuyer).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.RemoveRole(context.Background(), userID, models.RoleBuyer)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBootstrapAdminResult(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()

	mockPool.ExpectQuery(`SELECT bootstrap_admin`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"bootstrap_admin"}).AddRow(true))

	granted, err := repo.BootstrapAdmin(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestDeleteUserNotFound(t *testing.T) {
	repo, mockPool := newMockRepo(t)
	userID := uuid.New()

	mockPool.ExpectExec(`DELETE FROM users`).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteUser(context.Background(), userID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

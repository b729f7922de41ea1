package db

import (
	"context"
	"testing"

	"Gin_postgres_redis_inventory_app/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFindUserByLogin(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "alice", models.RoleClient)

	// 带 @ 走邮箱，不带走用户名
	got, err := r.FindUserByLogin(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = r.FindUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = r.FindUserByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = r.FindUserByLogin(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateUserDuplicateTranslated(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	seedUser(t, r, "alice", models.RoleClient)

	// 撞唯一索引要翻译成 gorm.ErrDuplicatedKey，controller 靠它给 409
	err := r.CreateUser(ctx, &models.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "alice2@example.com",
		PasswordHash: "x",
		Role:         models.RoleClient,
		Status:       models.StatusActive,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUpdateUserAdminAudit(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "bob", models.RoleClient)
	u.Role = models.RoleAdmin
	require.NoError(t, r.UpdateUserAdmin(ctx, u, "root"))

	reps, err := r.ListReports(ctx, ReportsQuery{Type: models.ReportUserEdit})
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, "root", reps[0].PerformedBy)
	assert.Contains(t, reps[0].OldValue, "role=client")
	assert.Contains(t, reps[0].NewValue, "role=admin")
}

func TestDeactivateRevokesRememberToken(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "carol", models.RoleClient)
	token := uuid.NewString()
	require.NoError(t, r.SetSessionToken(ctx, u.ID, &token))

	got, err := r.FindUserBySessionToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, r.DeactivateUser(ctx, u.ID, "root"))

	// remember-me token 一并吊销
	_, err = r.FindUserBySessionToken(ctx, token)
	assert.ErrorIs(t, err, ErrUserNotFound)
	got, err = r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeactivated, got.Status)
	assert.Equal(t, 1, reportCount(t, r, models.ReportUserDeactivate))

	require.NoError(t, r.ActivateUser(ctx, u.ID, "root"))
	got, err = r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Equal(t, 1, reportCount(t, r, models.ReportUserActivate))
}

func TestAdminEditToDeactivatedRevokesRememberToken(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "gail", models.RoleClient)
	token := uuid.NewString()
	require.NoError(t, r.SetSessionToken(ctx, u.ID, &token))

	// 走编辑入口停用，remember-me 同样要吊销
	u.Status = models.StatusDeactivated
	require.NoError(t, r.UpdateUserAdmin(ctx, u, "root"))

	_, err := r.FindUserBySessionToken(ctx, token)
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeactivated, got.Status)
	assert.Nil(t, got.SessionToken)
}

func TestTouchUserLogin(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	u := seedUser(t, r, "dave", models.RoleClient)
	require.NoError(t, r.TouchUserLogin(ctx, u.ID, "10.0.0.1", "curl/8"))
	require.NoError(t, r.TouchUserLogin(ctx, u.ID, "10.0.0.2", "curl/8"))

	got, err := r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.LoginCount)
	assert.Equal(t, "10.0.0.2", got.LastLoginIP)
	require.NotNil(t, got.LastLoginAt)
	require.NotNil(t, got.LastSeenAt)
}

func TestListUsersSearch(t *testing.T) {
	r := NewRepo(NewTestDB(t))
	ctx := context.Background()

	seedUser(t, r, "erin", models.RoleClient)
	seedUser(t, r, "eric", models.RoleClient)
	seedUser(t, r, "frank", models.RoleAdmin)

	res, err := r.ListUsers(ctx, "eri", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	res, err = r.ListUsers(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	assert.Len(t, res.Users, 2)
}

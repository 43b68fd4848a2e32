package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/roomwatt/internal/account/domain"
	"github.com/smallbiznis/roomwatt/internal/account/repository"
	assignmentdomain "github.com/smallbiznis/roomwatt/internal/assignment/domain"
	"github.com/smallbiznis/roomwatt/internal/clock"
	"github.com/smallbiznis/roomwatt/internal/config"
	"github.com/smallbiznis/roomwatt/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *clock.FakeClock, *gorm.DB) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&accountdomain.User{}, &accountdomain.Session{}, &assignmentdomain.Details{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(testNow)
	svc := New(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fake,
		Config: config.Config{Auth: config.AuthConfig{SessionTTL: time.Hour}},
		Repo:   repository.Provide(),
	}).(*Service)
	svc.hashCost = bcrypt.MinCost
	return svc, fake, conn
}

func TestCreateAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, accountdomain.CreateRequest{Name: "john", Email: "John@Example.com", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, "resident", user.Role)
	require.Equal(t, 1, user.RoleID)
	require.Equal(t, "john@example.com", user.Email)

	result, err := svc.Login(ctx, accountdomain.LoginRequest{Name: "john", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, result.RawToken)
	require.Equal(t, testNow.Add(time.Hour), result.ExpiresAt)

	principal, err := svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	require.Equal(t, "john", principal.Username)
	require.Equal(t, accountdomain.RoleResident, principal.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, accountdomain.CreateRequest{Username: "alice", Password: "correct-password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, accountdomain.LoginRequest{Username: "alice", Password: "wrong-password"})
	require.ErrorIs(t, err, accountdomain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, accountdomain.LoginRequest{Username: "nobody", Password: "correct-password"})
	require.ErrorIs(t, err, accountdomain.ErrInvalidCredentials)
}

func TestSessionExpiryAndLogout(t *testing.T) {
	svc, fake, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, accountdomain.CreateRequest{Username: "bob", Password: "password123"})
	require.NoError(t, err)
	first, err := svc.Login(ctx, accountdomain.LoginRequest{Username: "bob", Password: "password123"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, accountdomain.LoginRequest{Username: "bob", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, first.RawToken))
	_, err = svc.Authenticate(ctx, first.RawToken)
	require.ErrorIs(t, err, accountdomain.ErrInvalidSession)

	fake.Advance(2 * time.Hour)
	_, err = svc.Authenticate(ctx, second.RawToken)
	require.ErrorIs(t, err, accountdomain.ErrSessionExpired)

	_, err = svc.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, accountdomain.ErrInvalidSession)
}

func TestCreateResolvesRoles(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, accountdomain.CreateRequest{Username: "root", Password: "password123", IsAdmin: true})
	require.NoError(t, err)
	require.Equal(t, "admin", admin.Role)

	staff, err := svc.Create(ctx, accountdomain.CreateRequest{Username: "janitor", Password: "password123", RoleID: 2})
	require.NoError(t, err)
	require.Equal(t, "staff", staff.Role)

	_, err = svc.Create(ctx, accountdomain.CreateRequest{Username: "ghost", Password: "password123", Role: "overlord"})
	require.ErrorIs(t, err, accountdomain.ErrInvalidRole)

	_, err = svc.Create(ctx, accountdomain.CreateRequest{Username: "root", Password: "password123"})
	require.ErrorIs(t, err, accountdomain.ErrUserExists)

	_, err = svc.Create(ctx, accountdomain.CreateRequest{Username: "shorty", Password: "short"})
	require.ErrorIs(t, err, accountdomain.ErrInvalidPassword)

	_, err = svc.Create(ctx, accountdomain.CreateRequest{Username: "mail", Password: "password123", Email: "not-an-email"})
	require.ErrorIs(t, err, accountdomain.ErrInvalidEmail)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _, conn := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, accountdomain.CreateRequest{Username: "carol", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, accountdomain.CreateRequest{Username: "dave", Password: "password123"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, user.ID, accountdomain.UpdateRequest{Email: "carol@example.com", RoleID: 3})
	require.NoError(t, err)
	require.Equal(t, "manager", updated.Role)
	require.Equal(t, "carol", updated.Username)

	_, err = svc.Update(ctx, user.ID, accountdomain.UpdateRequest{Username: "dave"})
	require.ErrorIs(t, err, accountdomain.ErrUserExists)

	login, err := svc.Login(ctx, accountdomain.LoginRequest{Username: "carol", Password: "password123"})
	require.NoError(t, err)
	room := "101"
	require.NoError(t, conn.Create(&assignmentdomain.Details{UserID: mustID(t, user.ID), RoomNumber: &room, Status: assignmentdomain.StatusActive}).Error)

	require.NoError(t, svc.Delete(ctx, user.ID))
	require.ErrorIs(t, svc.Delete(ctx, user.ID), accountdomain.ErrNotFound)

	_, err = svc.Authenticate(ctx, login.RawToken)
	require.ErrorIs(t, err, accountdomain.ErrInvalidSession)

	var details int64
	require.NoError(t, conn.Model(&assignmentdomain.Details{}).Count(&details).Error)
	require.Zero(t, details)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "dave", users[0].Username)
}

func TestEnsureAdminOnlyOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	req := accountdomain.CreateRequest{Username: "admin", Password: "admin123"}

	created, err := svc.EnsureAdmin(ctx, req)
	require.NoError(t, err)
	require.True(t, created)

	created, err = svc.EnsureAdmin(ctx, req)
	require.NoError(t, err)
	require.False(t, created)

	result, err := svc.Login(ctx, accountdomain.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.Equal(t, "admin", result.User.Role)
}

func TestEnsureAdminIgnoresResidents(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resident, err := svc.Create(ctx, accountdomain.CreateRequest{Username: "carol", Password: "password123"})
	require.NoError(t, err)
	require.NotEqual(t, "admin", resident.Role)

	created, err := svc.EnsureAdmin(ctx, accountdomain.CreateRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.True(t, created, "a resident account must not stand in for the admin")
}

func TestGetByIDValidates(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.GetByID(context.Background(), "abc")
	require.True(t, errors.Is(err, accountdomain.ErrInvalidID))
	_, err = svc.GetByID(context.Background(), "42")
	require.ErrorIs(t, err, accountdomain.ErrNotFound)
}

func mustID(t *testing.T, id string) snowflake.ID {
	t.Helper()
	parsed, err := snowflake.ParseString(id)
	require.NoError(t, err)
	return parsed
}

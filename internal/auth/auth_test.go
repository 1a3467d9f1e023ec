package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/listmailer/internal/auth"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/store"
	"github.com/nhle/listmailer/tests/testutil"
)

func newService(t *testing.T) (*auth.Service, *store.SQLiteStore) {
	t.Helper()
	st := testutil.NewTestStore(t)
	svc := auth.NewService(st, store.NewSession(st), nil)
	require.NoError(t, svc.EnsureAdmin(context.Background()))
	return svc, st
}

func TestHashAndCheck(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", hash)
	assert.True(t, auth.CheckPassword(hash, "pw"))
	assert.False(t, auth.CheckPassword(hash, "PW"))
	assert.False(t, auth.CheckPassword("not-a-hash", "pw"))
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)
	require.NoError(t, svc.EnsureAdmin(ctx))

	n, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	admin, err := st.GetUserByName(ctx, auth.DefaultAdminName)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func TestLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	_, err := svc.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "admin")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	u, err := svc.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Name)

	raw, ok, err := st.Get(ctx, store.KeySession)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"userId":"`+u.ID+`"}`, raw)

	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, u.ID, cur.ID)

	require.NoError(t, svc.Logout(ctx))
	cur, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestLogin_InactiveUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.CreateUser(ctx, auth.UserInput{Name: "bob", Password: "pw", Status: model.UserStatusInactive})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "bob", "pw")
	assert.ErrorIs(t, err, auth.ErrInactiveUser)
}

func TestUserManagementIsAudited(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	_, err := svc.CreateUser(ctx, auth.UserInput{Name: "Alice"})
	assert.ErrorIs(t, err, auth.ErrPasswordRequired)

	u, err := svc.CreateUser(ctx, auth.UserInput{Name: " Alice ", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, model.RoleUser, u.Role)

	require.NoError(t, svc.UpdateUser(ctx, u.ID, auth.UserInput{Name: "Alicia", Email: "a@example.com", Status: model.UserStatusInactive}))
	got, err := st.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.Name)
	assert.Equal(t, model.UserStatusInactive, got.Status)
	assert.True(t, auth.CheckPassword(got.PasswordHash, "pw"), "password is kept when left blank")

	require.NoError(t, svc.UpdateUser(ctx, u.ID, auth.UserInput{Name: "Alicia", Password: "new", Status: model.UserStatusActive}))
	_, err = svc.Login(ctx, "alicia", "new")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, u.ID), store.ErrUserNotFound)

	entries, err := st.GetAuditLog(ctx, 0)
	require.NoError(t, err)
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		"Deleted user Alicia",
		"Updated user Alicia",
		"Updated user Alicia",
		"Created user Alice",
	}, actions)
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hockeyshop/models"
)

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	reg := e.users.Register(ctx, "Sam", "sam@example.com", "pa55word", false)
	require.True(t, reg.IsSuccess(), reg.Message())
	assert.Equal(t, models.RoleUser, reg.Value().Role)
	assert.NotEmpty(t, reg.Value().ID)

	login := e.users.Login(ctx, "sam@example.com", "pa55word")
	require.True(t, login.IsSuccess(), login.Message())

	current := e.users.Current(ctx)
	require.True(t, current.IsSuccess(), current.Message())
	assert.Equal(t, reg.Value().ID, current.Value().ID)
}

func TestLoginWrongPasswordIsValidationNotNotFound(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	reg := e.users.Register(ctx, "Sam", "sam@example.com", "pa55word", false)
	require.True(t, reg.IsSuccess(), reg.Message())

	res := e.users.Login(ctx, "sam@example.com", "wrong")
	require.True(t, res.IsError())
	assert.Equal(t, models.ErrValidation, res.Kind())

	res = e.users.Login(ctx, "nobody@example.com", "whatever")
	require.True(t, res.IsError())
	assert.Equal(t, models.ErrNotFound, res.Kind())
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	first := e.users.Register(ctx, "Sam", "sam@example.com", "pa55word", false)
	require.True(t, first.IsSuccess(), first.Message())

	second := e.users.Register(ctx, "Other Sam", "sam@example.com", "different", false)
	require.True(t, second.IsError())
	assert.Equal(t, models.ErrConflict, second.Kind())
}

func TestRegisterAdminRole(t *testing.T) {
	e := newTestEnv(t)

	res := e.users.Register(context.Background(), "Boss", "boss@example.com", "pa55word", true)
	require.True(t, res.IsSuccess(), res.Message())
	assert.Equal(t, models.RoleAdmin, res.Value().Role)
}

func TestSessionIsSingleRow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a := e.users.Register(ctx, "A", "a@example.com", "password-a", false)
	require.True(t, a.IsSuccess())
	b := e.users.Register(ctx, "B", "b@example.com", "password-b", false)
	require.True(t, b.IsSuccess())

	require.True(t, e.users.Login(ctx, "a@example.com", "password-a").IsSuccess())
	require.True(t, e.users.Login(ctx, "b@example.com", "password-b").IsSuccess())

	// The second login replaced the first; exactly one session exists.
	var sessions int
	require.NoError(t, e.store.DB().Get(&sessions, `SELECT COUNT(*) FROM current_session`))
	assert.Equal(t, 1, sessions)

	current := e.users.Current(ctx)
	require.True(t, current.IsSuccess())
	assert.Equal(t, b.Value().ID, current.Value().ID)
}

func TestLogoutClearsSession(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.loginShopper(t)

	require.True(t, e.users.Logout(ctx).IsSuccess())

	current := e.users.Current(ctx)
	require.True(t, current.IsError())
	assert.Equal(t, models.ErrUnauthorized, current.Kind())
}

func TestChangePasswordVerifiesOldDigest(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.loginShopper(t)

	wrong := e.users.ChangePassword(ctx, "not-the-password", "newpass1")
	require.True(t, wrong.IsError())
	assert.Equal(t, models.ErrValidation, wrong.Kind())

	ok := e.users.ChangePassword(ctx, "secret123", "newpass1")
	require.True(t, ok.IsSuccess(), ok.Message())

	require.True(t, e.users.Logout(ctx).IsSuccess())
	stale := e.users.Login(ctx, "taylor@example.com", "secret123")
	require.True(t, stale.IsError())
	fresh := e.users.Login(ctx, "taylor@example.com", "newpass1")
	require.True(t, fresh.IsSuccess(), fresh.Message())
}

func TestUpdateProfilePersistsFields(t *testing.T) {
	e := newTestEnv(t)
	user := e.loginShopper(t)

	assert.Equal(t, "12 Rink Road", user.Address)
	assert.Equal(t, "card", user.PaymentMethod)

	got := e.users.ByID(context.Background(), user.ID)
	require.True(t, got.IsSuccess())
	assert.Equal(t, "12 Rink Road", got.Value().Address)
}

func TestDeleteUserCascadesCart(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	user := e.loginShopper(t)
	product := e.createProduct(t, "Pro Stick", 99.99, 5, 0)

	require.True(t, e.carts.SetQuantity(ctx, product.ID, 2).IsSuccess())

	require.True(t, e.users.Delete(ctx, user.ID).IsSuccess())

	var lines int
	require.NoError(t, e.store.DB().Get(&lines,
		`SELECT COUNT(*) FROM carts WHERE user_id = ?`, user.ID))
	assert.Equal(t, 0, lines, "cart lines must cascade with their user")
}

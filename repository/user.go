package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hockeyshop/models"
	"hockeyshop/store"
	"hockeyshop/utils"
)

var userColumns = []string{
	"id", "name", "email", "password_hash", "role", "photo_url",
	"phone", "address", "payment_method", "created_at", "updated_at",
}

type UserRepository struct {
	store *store.Store
	log   *zap.Logger
}

func NewUserRepository(st *store.Store, log *zap.Logger) *UserRepository {
	return &UserRepository{store: st, log: log}
}

// Register creates a user. A duplicate email is a conflict, not an
// internal error. The role comes from the isAdmin flag chosen at
// registration time.
func (r *UserRepository) Register(ctx context.Context, name, email, password string, isAdmin bool) models.Resource[models.User] {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return models.NewFailure[models.User](models.ErrValidation, "name, email and password are required")
	}

	if _, err := r.byEmail(ctx, email); err == nil {
		return models.NewFailure[models.User](models.ErrConflict, "a user with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fail[models.User](r.log, "register", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fail[models.User](r.log, "register", err)
	}

	role := models.RoleUser
	if isAdmin {
		role = models.RoleAdmin
	}
	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query, args, err := qb.Insert(store.TableUsers).
		Columns(userColumns...).
		Values(user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.PhotoURL,
			user.Phone, user.Address, user.PaymentMethod, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return fail[models.User](r.log, "register", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		return fail[models.User](r.log, "register", err)
	}
	r.store.Notify(store.TableUsers)
	r.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return models.NewSuccess(user)
}

// Login verifies the credentials and replaces the session row. A wrong
// password for a known email is a validation failure, not a not-found.
func (r *UserRepository) Login(ctx context.Context, email, password string) models.Resource[models.User] {
	user, err := r.byEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewFailure[models.User](models.ErrNotFound, "no user with this email")
		}
		return fail[models.User](r.log, "login", err)
	}
	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		return models.NewFailure[models.User](models.ErrValidation, "wrong password")
	}

	query, args, err := qb.Insert(store.TableSession).
		Options("OR REPLACE").
		Columns("id", "user_id", "logged_in_at").
		Values(1, user.ID, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fail[models.User](r.log, "login", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		return fail[models.User](r.log, "login", err)
	}
	r.store.Notify(store.TableSession)
	r.log.Info("user logged in", zap.String("user_id", user.ID))
	return models.NewSuccess(user)
}

// Logout clears the session row. Logging out with no session is a no-op.
func (r *UserRepository) Logout(ctx context.Context) models.Resource[struct{}] {
	query, args, err := qb.Delete(store.TableSession).ToSql()
	if err != nil {
		return fail[struct{}](r.log, "logout", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		return fail[struct{}](r.log, "logout", err)
	}
	r.store.Notify(store.TableSession)
	return models.NewSuccess(struct{}{})
}

// Current joins the session row against the users table.
func (r *UserRepository) Current(ctx context.Context) models.Resource[models.User] {
	user, err := currentUser(ctx, r.store.DB())
	if err != nil {
		return fail[models.User](r.log, "current user", err)
	}
	return models.NewSuccess(user)
}

// WatchCurrent re-emits the logged-in user after every session or
// profile change.
func (r *UserRepository) WatchCurrent(ctx context.Context) <-chan models.Resource[models.User] {
	tables := []string{store.TableSession, store.TableUsers}
	return watch(ctx, r.store, tables, r.Current)
}

// UpdateProfile updates the mutable profile fields of the logged-in user.
func (r *UserRepository) UpdateProfile(ctx context.Context, profile models.User) models.Resource[models.User] {
	user, err := currentUser(ctx, r.store.DB())
	if err != nil {
		return fail[models.User](r.log, "update profile", err)
	}

	query, args, err := qb.Update(store.TableUsers).
		Set("name", profile.Name).
		Set("photo_url", profile.PhotoURL).
		Set("phone", profile.Phone).
		Set("address", profile.Address).
		Set("payment_method", profile.PaymentMethod).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fail[models.User](r.log, "update profile", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		return fail[models.User](r.log, "update profile", err)
	}
	r.store.Notify(store.TableUsers)
	return r.ByID(ctx, user.ID)
}

// ChangePassword re-verifies the old password before accepting the new one.
func (r *UserRepository) ChangePassword(ctx context.Context, oldPassword, newPassword string) models.Resource[struct{}] {
	if newPassword == "" {
		return models.NewFailure[struct{}](models.ErrValidation, "new password is required")
	}
	user, err := currentUser(ctx, r.store.DB())
	if err != nil {
		return fail[struct{}](r.log, "change password", err)
	}
	if err := utils.CheckPassword(user.PasswordHash, oldPassword); err != nil {
		return models.NewFailure[struct{}](models.ErrValidation, "wrong current password")
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fail[struct{}](r.log, "change password", err)
	}

	query, args, err := qb.Update(store.TableUsers).
		Set("password_hash", hash).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fail[struct{}](r.log, "change password", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		return fail[struct{}](r.log, "change password", err)
	}
	r.store.Notify(store.TableUsers)
	return models.NewSuccess(struct{}{})
}

// ForgotPassword only verifies the account exists; there is no mail
// delivery in this system.
func (r *UserRepository) ForgotPassword(ctx context.Context, email string) models.Resource[struct{}] {
	if _, err := r.byEmail(ctx, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewFailure[struct{}](models.ErrNotFound, "no user with this email")
		}
		return fail[struct{}](r.log, "forgot password", err)
	}
	return models.NewSuccess(struct{}{})
}

func (r *UserRepository) ByID(ctx context.Context, id string) models.Resource[models.User] {
	query, args, err := qb.Select(userColumns...).From(store.TableUsers).
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fail[models.User](r.log, "get user", err)
	}
	var user models.User
	if err := r.store.DB().GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewFailure[models.User](models.ErrNotFound, "user not found")
		}
		return fail[models.User](r.log, "get user", err)
	}
	return models.NewSuccess(user)
}

func (r *UserRepository) All(ctx context.Context) models.Resource[[]models.User] {
	query, args, err := qb.Select(userColumns...).From(store.TableUsers).
		OrderBy("created_at ASC").ToSql()
	if err != nil {
		return fail[[]models.User](r.log, "list users", err)
	}
	var users []models.User
	if err := r.store.DB().SelectContext(ctx, &users, query, args...); err != nil {
		return fail[[]models.User](r.log, "list users", err)
	}
	return models.NewSuccess(users)
}

// Delete removes a user; cart lines and the session cascade with it.
func (r *UserRepository) Delete(ctx context.Context, id string) models.Resource[struct{}] {
	query, args, err := qb.Delete(store.TableUsers).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fail[struct{}](r.log, "delete user", err)
	}
	res, err := r.store.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return fail[struct{}](r.log, "delete user", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewFailure[struct{}](models.ErrNotFound, "user not found")
	}
	r.store.Notify(store.TableUsers, store.TableCarts, store.TableSession)
	return models.NewSuccess(struct{}{})
}

func (r *UserRepository) byEmail(ctx context.Context, email string) (models.User, error) {
	query, args, err := qb.Select(userColumns...).From(store.TableUsers).
		Where(squirrel.Eq{"email": email}).ToSql()
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	err = r.store.DB().GetContext(ctx, &user, query, args...)
	return user, err
}

// currentUser resolves the session to a full user row. Usable inside a
// transaction as well as against the plain handle.
func currentUser(ctx context.Context, q queryer) (models.User, error) {
	cols := make([]string, len(userColumns))
	for i, c := range userColumns {
		cols[i] = "u." + c
	}
	query, args, err := qb.Select(cols...).
		From(store.TableUsers + " u").
		Join(store.TableSession + " s ON s.user_id = u.id").
		Limit(1).
		ToSql()
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := q.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errNoSession
		}
		return models.User{}, err
	}
	return user, nil
}

// Package repository translates between stored rows and domain models.
// Every one-shot operation takes a context and returns a tri-state
// models.Resource; Watch variants return a channel that re-emits a fresh
// snapshot after every committed write to the underlying tables.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"hockeyshop/models"
	"hockeyshop/store"
)

var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var errNoSession = errors.New("no active session")

// kindError carries a typed error kind out of a transaction closure so
// workflow failures keep their classification across the store boundary.
type kindError struct {
	kind models.ErrorKind
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func failValidation(msg string) error {
	return &kindError{kind: models.ErrValidation, msg: msg}
}

// fail converts an error from the store boundary into a typed failure
// Resource. Anything unclassified is logged and reported as internal.
func fail[T any](log *zap.Logger, op string, err error) models.Resource[T] {
	var ke *kindError
	switch {
	case errors.As(err, &ke):
		return models.NewFailure[T](ke.kind, ke.msg)
	case errors.Is(err, errNoSession):
		return models.NewFailure[T](models.ErrUnauthorized, "no user is logged in")
	case errors.Is(err, sql.ErrNoRows):
		return models.NewFailure[T](models.ErrNotFound, op+": not found")
	}
	log.Warn("operation failed", zap.String("op", op), zap.Error(err))
	return models.NewFailure[T](models.ErrInternal, err.Error())
}

// queryer covers both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// currentUserID resolves the single session row to a user id.
func currentUserID(ctx context.Context, q queryer) (string, error) {
	query, args, err := qb.Select("user_id").From(store.TableSession).Limit(1).ToSql()
	if err != nil {
		return "", err
	}
	var id string
	if err := q.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errNoSession
		}
		return "", err
	}
	return id, nil
}

// watch runs query once, then again after every commit touching tables.
// The stream opens with Loading and closes when ctx ends.
func watch[T any](ctx context.Context, st *store.Store, tables []string, query func(context.Context) models.Resource[T]) <-chan models.Resource[T] {
	out := make(chan models.Resource[T], 1)
	signal := st.ChangeBus().Subscribe(ctx, tables...)
	go func() {
		defer close(out)
		if !emit(ctx, out, models.NewLoading[T]()) {
			return
		}
		if !emit(ctx, out, query(ctx)) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signal:
				if !ok {
					return
				}
				if !emit(ctx, out, query(ctx)) {
					return
				}
			}
		}
	}()
	return out
}

func emit[T any](ctx context.Context, out chan<- models.Resource[T], r models.Resource[T]) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

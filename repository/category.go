package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"hockeyshop/models"
	"hockeyshop/store"
)

var categoryColumns = []string{"id", "name", "icon_url", "description"}

type CategoryRepository struct {
	store *store.Store
	log   *zap.Logger
}

func NewCategoryRepository(st *store.Store, log *zap.Logger) *CategoryRepository {
	return &CategoryRepository{store: st, log: log}
}

func (r *CategoryRepository) All(ctx context.Context) models.Resource[[]models.Category] {
	query, args, err := qb.Select(categoryColumns...).From(store.TableCategories).
		OrderBy("id ASC").ToSql()
	if err != nil {
		return fail[[]models.Category](r.log, "list categories", err)
	}
	var categories []models.Category
	if err := r.store.DB().SelectContext(ctx, &categories, query, args...); err != nil {
		return fail[[]models.Category](r.log, "list categories", err)
	}
	return models.NewSuccess(categories)
}

func (r *CategoryRepository) ByID(ctx context.Context, id int) models.Resource[models.Category] {
	query, args, err := qb.Select(categoryColumns...).From(store.TableCategories).
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fail[models.Category](r.log, "get category", err)
	}
	var category models.Category
	if err := r.store.DB().GetContext(ctx, &category, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewFailure[models.Category](models.ErrNotFound, "category not found")
		}
		return fail[models.Category](r.log, "get category", err)
	}
	return models.NewSuccess(category)
}

// Search matches the category name by substring.
func (r *CategoryRepository) Search(ctx context.Context, q string) models.Resource[[]models.Category] {
	query, args, err := qb.Select(categoryColumns...).From(store.TableCategories).
		Where(squirrel.Like{"name": "%" + q + "%"}).
		OrderBy("id ASC").ToSql()
	if err != nil {
		return fail[[]models.Category](r.log, "search categories", err)
	}
	var categories []models.Category
	if err := r.store.DB().SelectContext(ctx, &categories, query, args...); err != nil {
		return fail[[]models.Category](r.log, "search categories", err)
	}
	return models.NewSuccess(categories)
}

func (r *CategoryRepository) Create(ctx context.Context, category models.Category) models.Resource[models.Category] {
	if strings.TrimSpace(category.Name) == "" {
		return models.NewFailure[models.Category](models.ErrValidation, "category name is required")
	}
	query, args, err := qb.Insert(store.TableCategories).
		Columns(categoryColumns...).
		Values(category.ID, category.Name, category.IconURL, category.Description).
		ToSql()
	if err != nil {
		return fail[models.Category](r.log, "create category", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return models.NewFailure[models.Category](models.ErrConflict, "a category with this id already exists")
		}
		return fail[models.Category](r.log, "create category", err)
	}
	r.store.Notify(store.TableCategories)
	return models.NewSuccess(category)
}

func (r *CategoryRepository) Update(ctx context.Context, category models.Category) models.Resource[models.Category] {
	if strings.TrimSpace(category.Name) == "" {
		return models.NewFailure[models.Category](models.ErrValidation, "category name is required")
	}
	query, args, err := qb.Update(store.TableCategories).
		Set("name", category.Name).
		Set("icon_url", category.IconURL).
		Set("description", category.Description).
		Where(squirrel.Eq{"id": category.ID}).
		ToSql()
	if err != nil {
		return fail[models.Category](r.log, "update category", err)
	}
	res, err := r.store.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return fail[models.Category](r.log, "update category", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewFailure[models.Category](models.ErrNotFound, "category not found")
	}
	r.store.Notify(store.TableCategories)
	return models.NewSuccess(category)
}

// Delete removes a category; its products cascade with it.
func (r *CategoryRepository) Delete(ctx context.Context, id int) models.Resource[struct{}] {
	query, args, err := qb.Delete(store.TableCategories).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fail[struct{}](r.log, "delete category", err)
	}
	res, err := r.store.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return fail[struct{}](r.log, "delete category", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewFailure[struct{}](models.ErrNotFound, "category not found")
	}
	r.store.Notify(store.TableCategories, store.TableProducts, store.TableCarts)
	return models.NewSuccess(struct{}{})
}

func (r *CategoryRepository) WatchAll(ctx context.Context) <-chan models.Resource[[]models.Category] {
	return watch(ctx, r.store, []string{store.TableCategories}, r.All)
}

// isUniqueViolation matches sqlite's unique/primary key constraint errors.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

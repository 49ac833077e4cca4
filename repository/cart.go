package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"hockeyshop/models"
	"hockeyshop/store"
)

// cartRow is a cart line joined with its product and category.
type cartRow struct {
	productRow
	CartQuantity int       `db:"cart_quantity"`
	AddedAt      time.Time `db:"added_at"`
}

func cartSelect(userID string) squirrel.SelectBuilder {
	return qb.Select(
		"p.id", "p.name", "p.description", "p.price", "p.image_url",
		"p.category_id", "c.name AS category_name", "c.icon_url AS category_icon",
		"c.description AS category_description",
		"p.quantity", "p.rating", "p.discount", "p.extra_images",
		"p.is_popular", "p.is_new", "p.created_at", "p.updated_at",
		"cl.quantity AS cart_quantity", "cl.added_at",
	).
		From(store.TableCarts + " cl").
		Join(store.TableProducts + " p ON p.id = cl.product_id").
		Join(store.TableCategories + " c ON c.id = p.category_id").
		Where(squirrel.Eq{"cl.user_id": userID}).
		OrderBy("cl.added_at DESC")
}

// CartRepository manages the cart of the logged-in user. Every method
// resolves the session first; with no session it fails Unauthorized.
type CartRepository struct {
	store *store.Store
	log   *zap.Logger
}

func NewCartRepository(st *store.Store, log *zap.Logger) *CartRepository {
	return &CartRepository{store: st, log: log}
}

// Items returns the cart lines joined with their products, most recently
// added first.
func (r *CartRepository) Items(ctx context.Context) models.Resource[[]models.CartItem] {
	userID, err := currentUserID(ctx, r.store.DB())
	if err != nil {
		return fail[[]models.CartItem](r.log, "cart items", err)
	}
	items, err := cartItems(ctx, r.store.DB(), userID)
	if err != nil {
		return fail[[]models.CartItem](r.log, "cart items", err)
	}
	return models.NewSuccess(items)
}

func cartItems(ctx context.Context, q queryer, userID string) ([]models.CartItem, error) {
	query, args, err := cartSelect(userID).ToSql()
	if err != nil {
		return nil, err
	}
	var rows []cartRow
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	items := make([]models.CartItem, len(rows))
	for i, row := range rows {
		items[i] = models.CartItem{
			Product:  row.toProduct(),
			Quantity: row.CartQuantity,
			AddedAt:  row.AddedAt,
		}
	}
	return items, nil
}

// Count returns the number of distinct lines in the cart.
func (r *CartRepository) Count(ctx context.Context) models.Resource[int] {
	return r.cartScalar(ctx, "cart count", "COUNT(*)")
}

// TotalQuantity sums the quantities over all lines.
func (r *CartRepository) TotalQuantity(ctx context.Context) models.Resource[int] {
	return r.cartScalar(ctx, "cart quantity", "COALESCE(SUM(quantity), 0)")
}

func (r *CartRepository) cartScalar(ctx context.Context, op, expr string) models.Resource[int] {
	userID, err := currentUserID(ctx, r.store.DB())
	if err != nil {
		return fail[int](r.log, op, err)
	}
	query, args, err := qb.Select(expr).From(store.TableCarts).
		Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fail[int](r.log, op, err)
	}
	var n int
	if err := r.store.DB().GetContext(ctx, &n, query, args...); err != nil {
		return fail[int](r.log, op, err)
	}
	return models.NewSuccess(n)
}

// Total is the discounted price of the whole cart, shipping excluded.
func (r *CartRepository) Total(ctx context.Context) models.Resource[float64] {
	items := r.Items(ctx)
	if !items.IsSuccess() {
		return models.NewFailure[float64](items.Kind(), items.Message())
	}
	var total float64
	for _, item := range items.Value() {
		total += item.LineTotal()
	}
	return models.NewSuccess(total)
}

// Contains reports whether the product has a line in the cart.
func (r *CartRepository) Contains(ctx context.Context, productID string) models.Resource[bool] {
	userID, err := currentUserID(ctx, r.store.DB())
	if err != nil {
		return fail[bool](r.log, "cart contains", err)
	}
	query, args, err := qb.Select("COUNT(*)").From(store.TableCarts).
		Where(squirrel.Eq{"user_id": userID, "product_id": productID}).ToSql()
	if err != nil {
		return fail[bool](r.log, "cart contains", err)
	}
	var n int
	if err := r.store.DB().GetContext(ctx, &n, query, args...); err != nil {
		return fail[bool](r.log, "cart contains", err)
	}
	return models.NewSuccess(n > 0)
}

// SetQuantity upserts the (user, product) line, replacing any prior
// quantity outright. Last write wins; it never adds.
func (r *CartRepository) SetQuantity(ctx context.Context, productID string, quantity int) models.Resource[struct{}] {
	if quantity <= 0 {
		return models.NewFailure[struct{}](models.ErrValidation, "quantity must be positive")
	}
	userID, err := currentUserID(ctx, r.store.DB())
	if err != nil {
		return fail[struct{}](r.log, "set cart quantity", err)
	}
	if res := r.requireProduct(ctx, productID); res != nil {
		return *res
	}

	query, args, err := qb.Insert(store.TableCarts).
		Options("OR REPLACE").
		Columns("user_id", "product_id", "quantity", "added_at").
		Values(userID, productID, quantity, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fail[struct{}](r.log, "set cart quantity", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		return fail[struct{}](r.log, "set cart quantity", err)
	}
	r.store.Notify(store.TableCarts)
	return models.NewSuccess(struct{}{})
}

// IncrementQuantity adjusts the line by delta atomically, reading and
// writing inside one transaction. A new line starts from zero; a line
// adjusted to zero or below is removed.
func (r *CartRepository) IncrementQuantity(ctx context.Context, productID string, delta int) models.Resource[struct{}] {
	if res := r.requireProduct(ctx, productID); res != nil {
		return *res
	}
	err := r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		userID, err := currentUserID(ctx, tx)
		if err != nil {
			return err
		}

		query, args, err := qb.Select("quantity").From(store.TableCarts).
			Where(squirrel.Eq{"user_id": userID, "product_id": productID}).ToSql()
		if err != nil {
			return err
		}
		var current int
		if err := tx.GetContext(ctx, &current, query, args...); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			current = 0
		}

		next := current + delta
		if next <= 0 {
			query, args, err = qb.Delete(store.TableCarts).
				Where(squirrel.Eq{"user_id": userID, "product_id": productID}).ToSql()
		} else {
			query, args, err = qb.Insert(store.TableCarts).
				Options("OR REPLACE").
				Columns("user_id", "product_id", "quantity", "added_at").
				Values(userID, productID, next, time.Now().UTC()).
				ToSql()
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	}, store.TableCarts)
	if err != nil {
		return fail[struct{}](r.log, "increment cart quantity", err)
	}
	return models.NewSuccess(struct{}{})
}

// Remove deletes the (user, product) line. Removing an absent line is a
// no-op.
func (r *CartRepository) Remove(ctx context.Context, productID string) models.Resource[struct{}] {
	userID, err := currentUserID(ctx, r.store.DB())
	if err != nil {
		return fail[struct{}](r.log, "remove from cart", err)
	}
	query, args, err := qb.Delete(store.TableCarts).
		Where(squirrel.Eq{"user_id": userID, "product_id": productID}).ToSql()
	if err != nil {
		return fail[struct{}](r.log, "remove from cart", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		return fail[struct{}](r.log, "remove from cart", err)
	}
	r.store.Notify(store.TableCarts)
	return models.NewSuccess(struct{}{})
}

// Clear deletes every line of the user's cart.
func (r *CartRepository) Clear(ctx context.Context) models.Resource[struct{}] {
	userID, err := currentUserID(ctx, r.store.DB())
	if err != nil {
		return fail[struct{}](r.log, "clear cart", err)
	}
	query, args, err := qb.Delete(store.TableCarts).
		Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fail[struct{}](r.log, "clear cart", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		return fail[struct{}](r.log, "clear cart", err)
	}
	r.store.Notify(store.TableCarts)
	return models.NewSuccess(struct{}{})
}

func (r *CartRepository) WatchItems(ctx context.Context) <-chan models.Resource[[]models.CartItem] {
	tables := []string{store.TableCarts, store.TableProducts, store.TableCategories, store.TableSession}
	return watch(ctx, r.store, tables, r.Items)
}

func (r *CartRepository) WatchTotalQuantity(ctx context.Context) <-chan models.Resource[int] {
	tables := []string{store.TableCarts, store.TableSession}
	return watch(ctx, r.store, tables, r.TotalQuantity)
}

// requireProduct returns a failure Resource when the product is absent,
// nil otherwise.
func (r *CartRepository) requireProduct(ctx context.Context, productID string) *models.Resource[struct{}] {
	query, args, err := qb.Select("COUNT(*)").From(store.TableProducts).
		Where(squirrel.Eq{"id": productID}).ToSql()
	if err != nil {
		res := fail[struct{}](r.log, "check product", err)
		return &res
	}
	var n int
	if err := r.store.DB().GetContext(ctx, &n, query, args...); err != nil {
		res := fail[struct{}](r.log, "check product", err)
		return &res
	}
	if n == 0 {
		res := models.NewFailure[struct{}](models.ErrNotFound, "product not found")
		return &res
	}
	return nil
}

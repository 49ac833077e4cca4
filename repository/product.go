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
)

// productRow is a product joined with its category.
type productRow struct {
	ID           string            `db:"id"`
	Name         string            `db:"name"`
	Description  string            `db:"description"`
	Price        float64           `db:"price"`
	ImageURL     string            `db:"image_url"`
	CategoryID   int               `db:"category_id"`
	CategoryName string            `db:"category_name"`
	CategoryIcon string            `db:"category_icon"`
	CategoryDesc string            `db:"category_description"`
	Quantity     int               `db:"quantity"`
	Rating       float64           `db:"rating"`
	Discount     float64           `db:"discount"`
	ExtraImages  models.StringList `db:"extra_images"`
	IsPopular    bool              `db:"is_popular"`
	IsNew        bool              `db:"is_new"`
	CreatedAt    time.Time         `db:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at"`
}

func (row productRow) toProduct() models.Product {
	return models.Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price,
		ImageURL:    row.ImageURL,
		Category: models.Category{
			ID:          row.CategoryID,
			Name:        row.CategoryName,
			IconURL:     row.CategoryIcon,
			Description: row.CategoryDesc,
		},
		Quantity:    row.Quantity,
		Rating:      row.Rating,
		Discount:    row.Discount,
		ExtraImages: row.ExtraImages,
		IsPopular:   row.IsPopular,
		IsNew:       row.IsNew,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func productSelect() squirrel.SelectBuilder {
	return qb.Select(
		"p.id", "p.name", "p.description", "p.price", "p.image_url",
		"p.category_id", "c.name AS category_name", "c.icon_url AS category_icon",
		"c.description AS category_description",
		"p.quantity", "p.rating", "p.discount", "p.extra_images",
		"p.is_popular", "p.is_new", "p.created_at", "p.updated_at",
	).
		From(store.TableProducts + " p").
		Join(store.TableCategories + " c ON c.id = p.category_id")
}

// ProductSort selects the catalog ordering.
type ProductSort int

const (
	SortDefault ProductSort = iota
	SortPriceAsc
	SortPriceDesc
	SortRatingDesc
)

// ProductFilter narrows and orders a catalog listing. The zero value
// lists everything in insertion order.
type ProductFilter struct {
	Query      string // substring over name and description
	CategoryID int    // 0 means all categories
	Sort       ProductSort
}

type ProductRepository struct {
	store *store.Store
	log   *zap.Logger
}

func NewProductRepository(st *store.Store, log *zap.Logger) *ProductRepository {
	return &ProductRepository{store: st, log: log}
}

func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) models.Resource[[]models.Product] {
	b := productSelect()
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		b = b.Where(squirrel.Or{
			squirrel.Like{"p.name": pattern},
			squirrel.Like{"p.description": pattern},
		})
	}
	if filter.CategoryID != 0 {
		b = b.Where(squirrel.Eq{"p.category_id": filter.CategoryID})
	}
	switch filter.Sort {
	case SortPriceAsc:
		b = b.OrderBy("p.price ASC")
	case SortPriceDesc:
		b = b.OrderBy("p.price DESC")
	case SortRatingDesc:
		b = b.OrderBy("p.rating DESC")
	default:
		b = b.OrderBy("p.created_at ASC")
	}
	return r.selectProducts(ctx, "list products", b)
}

func (r *ProductRepository) Popular(ctx context.Context) models.Resource[[]models.Product] {
	return r.selectProducts(ctx, "popular products",
		productSelect().Where(squirrel.Eq{"p.is_popular": true}))
}

func (r *ProductRepository) NewArrivals(ctx context.Context) models.Resource[[]models.Product] {
	return r.selectProducts(ctx, "new products",
		productSelect().Where(squirrel.Eq{"p.is_new": true}))
}

func (r *ProductRepository) ByID(ctx context.Context, id string) models.Resource[models.Product] {
	query, args, err := productSelect().Where(squirrel.Eq{"p.id": id}).ToSql()
	if err != nil {
		return fail[models.Product](r.log, "get product", err)
	}
	var row productRow
	if err := r.store.DB().GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewFailure[models.Product](models.ErrNotFound, "product not found")
		}
		return fail[models.Product](r.log, "get product", err)
	}
	return models.NewSuccess(row.toProduct())
}

// Create validates the referenced category and fills in id and
// timestamps when absent.
func (r *ProductRepository) Create(ctx context.Context, product models.Product) models.Resource[models.Product] {
	if strings.TrimSpace(product.Name) == "" {
		return models.NewFailure[models.Product](models.ErrValidation, "product name is required")
	}
	if product.Price < 0 {
		return models.NewFailure[models.Product](models.ErrValidation, "price must not be negative")
	}
	if product.Quantity < 0 {
		return models.NewFailure[models.Product](models.ErrValidation, "quantity must not be negative")
	}
	if product.Discount < 0 || product.Discount > 100 {
		return models.NewFailure[models.Product](models.ErrValidation, "discount must be between 0 and 100")
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	var exists int
	query, args, err := qb.Select("COUNT(*)").From(store.TableCategories).
		Where(squirrel.Eq{"id": product.Category.ID}).ToSql()
	if err != nil {
		return fail[models.Product](r.log, "create product", err)
	}
	if err := r.store.DB().GetContext(ctx, &exists, query, args...); err != nil {
		return fail[models.Product](r.log, "create product", err)
	}
	if exists == 0 {
		return models.NewFailure[models.Product](models.ErrNotFound, "category not found")
	}

	query, args, err = qb.Insert(store.TableProducts).
		Columns("id", "name", "description", "price", "image_url", "category_id",
			"quantity", "rating", "discount", "extra_images", "is_popular", "is_new",
			"created_at", "updated_at").
		Values(product.ID, product.Name, product.Description, product.Price,
			product.ImageURL, product.Category.ID, product.Quantity, product.Rating,
			product.Discount, product.ExtraImages, product.IsPopular, product.IsNew,
			product.CreatedAt, product.UpdatedAt).
		ToSql()
	if err != nil {
		return fail[models.Product](r.log, "create product", err)
	}
	if _, err := r.store.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return models.NewFailure[models.Product](models.ErrConflict, "a product with this id already exists")
		}
		return fail[models.Product](r.log, "create product", err)
	}
	r.store.Notify(store.TableProducts)
	r.log.Info("product created", zap.String("product_id", product.ID))
	return r.ByID(ctx, product.ID)
}

func (r *ProductRepository) Update(ctx context.Context, product models.Product) models.Resource[models.Product] {
	if strings.TrimSpace(product.Name) == "" {
		return models.NewFailure[models.Product](models.ErrValidation, "product name is required")
	}
	if product.Price < 0 {
		return models.NewFailure[models.Product](models.ErrValidation, "price must not be negative")
	}
	if product.Quantity < 0 {
		return models.NewFailure[models.Product](models.ErrValidation, "quantity must not be negative")
	}
	if product.Discount < 0 || product.Discount > 100 {
		return models.NewFailure[models.Product](models.ErrValidation, "discount must be between 0 and 100")
	}
	query, args, err := qb.Update(store.TableProducts).
		Set("name", product.Name).
		Set("description", product.Description).
		Set("price", product.Price).
		Set("image_url", product.ImageURL).
		Set("category_id", product.Category.ID).
		Set("quantity", product.Quantity).
		Set("rating", product.Rating).
		Set("discount", product.Discount).
		Set("extra_images", product.ExtraImages).
		Set("is_popular", product.IsPopular).
		Set("is_new", product.IsNew).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": product.ID}).
		ToSql()
	if err != nil {
		return fail[models.Product](r.log, "update product", err)
	}
	res, err := r.store.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return fail[models.Product](r.log, "update product", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewFailure[models.Product](models.ErrNotFound, "product not found")
	}
	r.store.Notify(store.TableProducts)
	return r.ByID(ctx, product.ID)
}

// Delete removes a product. Cart lines cascade; historical order items
// keep their denormalized snapshot and survive.
func (r *ProductRepository) Delete(ctx context.Context, id string) models.Resource[struct{}] {
	query, args, err := qb.Delete(store.TableProducts).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fail[struct{}](r.log, "delete product", err)
	}
	res, err := r.store.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return fail[struct{}](r.log, "delete product", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewFailure[struct{}](models.ErrNotFound, "product not found")
	}
	r.store.Notify(store.TableProducts, store.TableCarts)
	r.log.Info("product deleted", zap.String("product_id", id))
	return models.NewSuccess(struct{}{})
}

// IncreaseStock adds amount units to quantity-on-hand.
func (r *ProductRepository) IncreaseStock(ctx context.Context, id string, amount int) models.Resource[struct{}] {
	if amount <= 0 {
		return models.NewFailure[struct{}](models.ErrValidation, "amount must be positive")
	}
	query, args, err := qb.Update(store.TableProducts).
		Set("quantity", squirrel.Expr("quantity + ?", amount)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fail[struct{}](r.log, "increase stock", err)
	}
	res, err := r.store.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return fail[struct{}](r.log, "increase stock", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NewFailure[struct{}](models.ErrNotFound, "product not found")
	}
	r.store.Notify(store.TableProducts)
	return models.NewSuccess(struct{}{})
}

// DecreaseStock removes amount units, refusing to take quantity-on-hand
// below zero.
func (r *ProductRepository) DecreaseStock(ctx context.Context, id string, amount int) models.Resource[struct{}] {
	if amount <= 0 {
		return models.NewFailure[struct{}](models.ErrValidation, "amount must be positive")
	}
	err := decreaseStock(ctx, r.store.DB(), id, amount)
	if err != nil {
		return fail[struct{}](r.log, "decrease stock", err)
	}
	r.store.Notify(store.TableProducts)
	return models.NewSuccess(struct{}{})
}

// execer covers both *sqlx.DB and *sqlx.Tx for guarded updates.
type execer interface {
	queryer
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// decreaseStock runs the guarded decrement. When no row matches it
// distinguishes a missing product from insufficient stock.
func decreaseStock(ctx context.Context, q execer, id string, amount int) error {
	query, args, err := qb.Update(store.TableProducts).
		Set("quantity", squirrel.Expr("quantity - ?", amount)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.And{
			squirrel.Eq{"id": id},
			squirrel.GtOrEq{"quantity": amount},
		}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	existsQuery, existsArgs, err := qb.Select("COUNT(*)").From(store.TableProducts).
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	var exists int
	if err := q.GetContext(ctx, &exists, existsQuery, existsArgs...); err != nil {
		return err
	}
	if exists == 0 {
		return &kindError{kind: models.ErrNotFound, msg: "product not found"}
	}
	return &kindError{kind: models.ErrInsufficientStock, msg: "not enough stock for product " + id}
}

func (r *ProductRepository) Watch(ctx context.Context, filter ProductFilter) <-chan models.Resource[[]models.Product] {
	tables := []string{store.TableProducts, store.TableCategories}
	return watch(ctx, r.store, tables, func(ctx context.Context) models.Resource[[]models.Product] {
		return r.List(ctx, filter)
	})
}

func (r *ProductRepository) WatchByID(ctx context.Context, id string) <-chan models.Resource[models.Product] {
	tables := []string{store.TableProducts, store.TableCategories}
	return watch(ctx, r.store, tables, func(ctx context.Context) models.Resource[models.Product] {
		return r.ByID(ctx, id)
	})
}

func (r *ProductRepository) selectProducts(ctx context.Context, op string, b squirrel.SelectBuilder) models.Resource[[]models.Product] {
	query, args, err := b.ToSql()
	if err != nil {
		return fail[[]models.Product](r.log, op, err)
	}
	var rows []productRow
	if err := r.store.DB().SelectContext(ctx, &rows, query, args...); err != nil {
		return fail[[]models.Product](r.log, op, err)
	}
	products := make([]models.Product, len(rows))
	for i, row := range rows {
		products[i] = row.toProduct()
	}
	return models.NewSuccess(products)
}

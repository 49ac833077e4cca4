package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"hockeyshop/models"
	"hockeyshop/store"
)

var orderColumns = []string{
	"id", "user_id", "user_name", "user_email", "user_phone", "user_address",
	"status", "subtotal", "shipping_cost", "created_at", "completed_at",
}

var orderItemColumns = []string{
	"order_id", "product_id", "product_name", "product_image", "quantity", "price_per_item",
}

type OrderRepository struct {
	store *store.Store
	log   *zap.Logger
}

func NewOrderRepository(st *store.Store, log *zap.Logger) *OrderRepository {
	return &OrderRepository{store: st, log: log}
}

// PlaceOrder turns the logged-in user's cart into an order. The whole
// sequence runs in one transaction: cart and stock are re-read inside
// it, the order and its frozen line items are inserted, stock is
// decremented and the cart cleared. Any failure rolls everything back;
// there is no state where an order exists without its stock decrement
// or a placed order leaves a non-empty cart.
func (r *OrderRepository) PlaceOrder(ctx context.Context, shippingCost float64) models.Resource[models.Order] {
	if shippingCost < 0 {
		return models.NewFailure[models.Order](models.ErrValidation, "shipping cost must not be negative")
	}

	var order models.Order
	err := r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := currentUser(ctx, tx)
		if err != nil {
			return err
		}
		if strings.TrimSpace(user.Address) == "" {
			return failValidation("a delivery address is required before ordering")
		}
		if strings.TrimSpace(user.PaymentMethod) == "" {
			return failValidation("a payment method is required before ordering")
		}

		items, err := cartItems(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return failValidation("the cart is empty")
		}

		// Validate every line against live stock before any write.
		for _, item := range items {
			if item.Product.Quantity < item.Quantity {
				return &kindError{
					kind: models.ErrInsufficientStock,
					msg:  fmt.Sprintf("not enough stock for %q: want %d, have %d", item.Product.Name, item.Quantity, item.Product.Quantity),
				}
			}
		}

		now := time.Now().UTC()
		order = models.Order{
			ID:           uuid.NewString(),
			UserID:       user.ID,
			UserName:     user.Name,
			UserEmail:    user.Email,
			UserPhone:    user.Phone,
			UserAddress:  user.Address,
			ShippingCost: shippingCost,
			Status:       models.OrderActive,
			CreatedAt:    now,
		}
		for _, item := range items {
			frozen := models.OrderItem{
				OrderID:      order.ID,
				ProductID:    item.Product.ID,
				ProductName:  item.Product.Name,
				ProductImage: item.Product.ImageURL,
				Quantity:     item.Quantity,
				PricePerItem: item.Product.FinalPrice(),
			}
			order.Items = append(order.Items, frozen)
			order.Subtotal += frozen.LineTotal()
		}

		query, args, err := qb.Insert(store.TableOrders).
			Columns(orderColumns...).
			Values(order.ID, order.UserID, order.UserName, order.UserEmail,
				order.UserPhone, order.UserAddress, order.Status, order.Subtotal,
				order.ShippingCost, order.CreatedAt, nil).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		ins := qb.Insert(store.TableOrderItems).Columns(orderItemColumns...)
		for _, item := range order.Items {
			ins = ins.Values(item.OrderID, item.ProductID, item.ProductName,
				item.ProductImage, item.Quantity, item.PricePerItem)
		}
		query, args, err = ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := decreaseStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		query, args, err = qb.Delete(store.TableCarts).
			Where(squirrel.Eq{"user_id": user.ID}).ToSql()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	}, store.TableOrders, store.TableOrderItems, store.TableProducts, store.TableCarts)
	if err != nil {
		return fail[models.Order](r.log, "place order", err)
	}

	r.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Int("lines", len(order.Items)),
		zap.Float64("subtotal", order.Subtotal))
	return models.NewSuccess(order)
}

// Complete transitions an order ACTIVE -> COMPLETED and stamps
// completed_at. The transition is one-way and happens at most once:
// completing an already completed order is rejected.
func (r *OrderRepository) Complete(ctx context.Context, orderID string) models.Resource[models.Order] {
	err := r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := qb.Select("status").From(store.TableOrders).
			Where(squirrel.Eq{"id": orderID}).ToSql()
		if err != nil {
			return err
		}
		var status models.OrderStatus
		if err := tx.GetContext(ctx, &status, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &kindError{kind: models.ErrNotFound, msg: "order not found"}
			}
			return err
		}
		if status == models.OrderCompleted {
			return failValidation("order is already completed")
		}

		query, args, err = qb.Update(store.TableOrders).
			Set("status", models.OrderCompleted).
			Set("completed_at", time.Now().UTC()).
			Where(squirrel.Eq{"id": orderID, "status": models.OrderActive}).
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	}, store.TableOrders)
	if err != nil {
		return fail[models.Order](r.log, "complete order", err)
	}
	r.log.Info("order completed", zap.String("order_id", orderID))
	return r.ByID(ctx, orderID)
}

func (r *OrderRepository) ByID(ctx context.Context, orderID string) models.Resource[models.Order] {
	query, args, err := qb.Select(orderColumns...).From(store.TableOrders).
		Where(squirrel.Eq{"id": orderID}).ToSql()
	if err != nil {
		return fail[models.Order](r.log, "get order", err)
	}
	var order models.Order
	if err := r.store.DB().GetContext(ctx, &order, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewFailure[models.Order](models.ErrNotFound, "order not found")
		}
		return fail[models.Order](r.log, "get order", err)
	}
	if err := r.attachItems(ctx, []*models.Order{&order}); err != nil {
		return fail[models.Order](r.log, "get order", err)
	}
	return models.NewSuccess(order)
}

// ForUser lists a user's orders, newest first.
func (r *OrderRepository) ForUser(ctx context.Context, userID string) models.Resource[[]models.Order] {
	return r.selectOrders(ctx, "list user orders",
		qb.Select(orderColumns...).From(store.TableOrders).
			Where(squirrel.Eq{"user_id": userID}).
			OrderBy("created_at DESC"))
}

// ForUserByStatus narrows ForUser to one status.
func (r *OrderRepository) ForUserByStatus(ctx context.Context, userID string, status models.OrderStatus) models.Resource[[]models.Order] {
	return r.selectOrders(ctx, "list user orders",
		qb.Select(orderColumns...).From(store.TableOrders).
			Where(squirrel.Eq{"user_id": userID, "status": status}).
			OrderBy("created_at DESC"))
}

// ByStatus lists all orders in one status, newest first.
func (r *OrderRepository) ByStatus(ctx context.Context, status models.OrderStatus) models.Resource[[]models.Order] {
	return r.selectOrders(ctx, "list orders by status",
		qb.Select(orderColumns...).From(store.TableOrders).
			Where(squirrel.Eq{"status": status}).
			OrderBy("created_at DESC"))
}

func (r *OrderRepository) All(ctx context.Context) models.Resource[[]models.Order] {
	return r.selectOrders(ctx, "list orders",
		qb.Select(orderColumns...).From(store.TableOrders).
			OrderBy("created_at DESC"))
}

func (r *OrderRepository) WatchForUser(ctx context.Context, userID string) <-chan models.Resource[[]models.Order] {
	tables := []string{store.TableOrders, store.TableOrderItems}
	return watch(ctx, r.store, tables, func(ctx context.Context) models.Resource[[]models.Order] {
		return r.ForUser(ctx, userID)
	})
}

func (r *OrderRepository) WatchAll(ctx context.Context) <-chan models.Resource[[]models.Order] {
	tables := []string{store.TableOrders, store.TableOrderItems}
	return watch(ctx, r.store, tables, r.All)
}

func (r *OrderRepository) selectOrders(ctx context.Context, op string, b squirrel.SelectBuilder) models.Resource[[]models.Order] {
	query, args, err := b.ToSql()
	if err != nil {
		return fail[[]models.Order](r.log, op, err)
	}
	var orders []models.Order
	if err := r.store.DB().SelectContext(ctx, &orders, query, args...); err != nil {
		return fail[[]models.Order](r.log, op, err)
	}
	refs := make([]*models.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.attachItems(ctx, refs); err != nil {
		return fail[[]models.Order](r.log, op, err)
	}
	return models.NewSuccess(orders)
}

// attachItems loads the line items for a batch of orders in one query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*models.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	query, args, err := sqlx.In(
		"SELECT "+strings.Join(orderItemColumns, ", ")+
			" FROM "+store.TableOrderItems+" WHERE order_id IN (?)", ids)
	if err != nil {
		return err
	}
	var items []models.OrderItem
	if err := r.store.DB().SelectContext(ctx, &items, r.store.DB().Rebind(query), args...); err != nil {
		return err
	}
	for _, item := range items {
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return nil
}

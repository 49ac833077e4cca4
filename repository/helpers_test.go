package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hockeyshop/models"
	"hockeyshop/store"
)

type testEnv struct {
	store      *store.Store
	users      *UserRepository
	categories *CategoryRepository
	products   *ProductRepository
	carts      *CartRepository
	orders     *OrderRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	st, err := store.Open(filepath.Join(t.TempDir(), "shop.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Seed(context.Background()))

	return &testEnv{
		store:      st,
		users:      NewUserRepository(st, log),
		categories: NewCategoryRepository(st, log),
		products:   NewProductRepository(st, log),
		carts:      NewCartRepository(st, log),
		orders:     NewOrderRepository(st, log),
	}
}

// loginShopper registers and logs in a fresh user with a complete
// profile, ready to place orders.
func (e *testEnv) loginShopper(t *testing.T) models.User {
	t.Helper()
	ctx := context.Background()

	res := e.users.Register(ctx, "Taylor Shopper", "taylor@example.com", "secret123", false)
	require.True(t, res.IsSuccess(), res.Message())

	login := e.users.Login(ctx, "taylor@example.com", "secret123")
	require.True(t, login.IsSuccess(), login.Message())

	profile := login.Value()
	profile.Phone = "+1 555 0199"
	profile.Address = "12 Rink Road"
	profile.PaymentMethod = "card"
	updated := e.users.UpdateProfile(ctx, profile)
	require.True(t, updated.IsSuccess(), updated.Message())
	return updated.Value()
}

// createProduct inserts a product into the seeded Sticks category.
func (e *testEnv) createProduct(t *testing.T, name string, price float64, quantity int, discount float64) models.Product {
	t.Helper()
	res := e.products.Create(context.Background(), models.Product{
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Discount: discount,
		Category: models.Category{ID: 1},
	})
	require.True(t, res.IsSuccess(), res.Message())
	return res.Value()
}

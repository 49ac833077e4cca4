package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "shop.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenAppliesSchema(t *testing.T) {
	st := newTestStore(t)

	var tables []string
	err := st.DB().Select(&tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	for _, want := range []string{
		TableUsers, TableSession, TableCategories, TableProducts,
		TableCarts, TableOrders, TableOrderItems,
	} {
		assert.Contains(t, tables, want)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Seed(ctx))
	require.NoError(t, st.Seed(ctx))

	var categories int
	require.NoError(t, st.DB().Get(&categories, `SELECT COUNT(*) FROM categories`))
	assert.Equal(t, 4, categories)

	var admins int
	require.NoError(t, st.DB().Get(&admins,
		`SELECT COUNT(*) FROM users WHERE email = 'admin@example.com'`))
	assert.Equal(t, 1, admins)
}

func TestForeignKeysEnforced(t *testing.T) {
	st := newTestStore(t)

	_, err := st.DB().Exec(
		`INSERT INTO carts (user_id, product_id, quantity, added_at) VALUES (?, ?, ?, ?)`,
		"missing-user", "missing-product", 1, time.Now())
	assert.Error(t, err, "cart rows must reference existing users and products")
}

func TestStockCannotGoNegative(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Seed(context.Background()))

	now := time.Now().UTC()
	_, err := st.DB().Exec(
		`INSERT INTO products (id, name, price, category_id, quantity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"p1", "Stick", 10.0, 1, 2, now, now)
	require.NoError(t, err)

	_, err = st.DB().Exec(`UPDATE products SET quantity = quantity - 3 WHERE id = ?`, "p1")
	assert.Error(t, err, "the quantity check constraint must reject underflow")

	var quantity int
	require.NoError(t, st.DB().Get(&quantity, `SELECT quantity FROM products WHERE id = ?`, "p1"))
	assert.Equal(t, 2, quantity)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO categories (id, name) VALUES (?, ?)`, 99, "Doomed"); err != nil {
			return err
		}
		return boom
	}, TableCategories)
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, st.DB().Get(&count, `SELECT COUNT(*) FROM categories WHERE id = 99`))
	assert.Equal(t, 0, count, "a failed transaction must leave nothing behind")
}

func TestWithTxNotifiesAfterCommit(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signal := st.ChangeBus().Subscribe(ctx, TableCategories)

	err := st.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO categories (id, name) VALUES (?, ?)`, 7, "Pucks")
		return err
	}, TableCategories)
	require.NoError(t, err)

	select {
	case <-signal:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification after commit")
	}
}
